// Package notify holds transient status notifications. A notice is visible
// until its auto-dismiss interval elapses: 4s by default, 6s for errors.
package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notice struct {
	ID       uint64    `json:"id"`
	Text     string    `json:"text"`
	Kind     Kind      `json:"kind"`
	PostedAt time.Time `json:"posted_at"`
}

// Sink receives every posted notice, e.g. a CLI printer or chart feed.
type Sink interface {
	Notify(n Notice)
}

type SinkFunc func(n Notice)

func (f SinkFunc) Notify(n Notice) { f(n) }

type Notifier struct {
	dismiss      time.Duration
	dismissError time.Duration
	sinks        []Sink
	active       []Notice
	timers       []*time.Timer
	nextID       uint64
	mu           sync.Mutex
}

func New(dismiss, dismissError time.Duration) *Notifier {
	if dismiss <= 0 {
		dismiss = 4 * time.Second
	}
	if dismissError <= 0 {
		dismissError = 6 * time.Second
	}
	return &Notifier{
		dismiss:      dismiss,
		dismissError: dismissError,
	}
}

func (n *Notifier) AddSink(s Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sinks = append(n.sinks, s)
}

// Post publishes a notice and schedules its dismissal. Each notice gets a
// monotonic ID so dismissal removes exactly the notice whose timer fired,
// never a twin posted at the same instant.
func (n *Notifier) Post(text string, kind Kind) {
	n.mu.Lock()
	n.nextID++
	notice := Notice{ID: n.nextID, Text: text, Kind: kind, PostedAt: time.Now()}

	n.active = append(n.active, notice)
	sinks := make([]Sink, len(n.sinks))
	copy(sinks, n.sinks)

	after := n.dismiss
	if kind == KindError {
		after = n.dismissError
	}
	timer := time.AfterFunc(after, func() { n.expire(notice.ID) })
	n.timers = append(n.timers, timer)
	n.mu.Unlock()

	for _, s := range sinks {
		s.Notify(notice)
	}
}

func (n *Notifier) Info(text string)    { n.Post(text, KindInfo) }
func (n *Notifier) Success(text string) { n.Post(text, KindSuccess) }
func (n *Notifier) Error(text string)   { n.Post(text, KindError) }

// Active returns the notices that have not yet auto-dismissed.
func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.active))
	copy(out, n.active)
	return out
}

func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.active[:0]
	for _, notice := range n.active {
		if notice.ID != id {
			kept = append(kept, notice)
		}
	}
	n.active = kept
}

// Close stops all pending dismissal timers. Already-active notices stay
// visible; they just no longer auto-dismiss.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, t := range n.timers {
		t.Stop()
	}
	n.timers = nil
}
