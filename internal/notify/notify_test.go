package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/netlens/netlens/internal/notify"
)

type recordingSink struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingSink) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingSink) all() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

func TestPostFansOutToSinks(t *testing.T) {
	n := notify.New(time.Minute, time.Minute)
	defer n.Close()

	sink := &recordingSink{}
	n.AddSink(sink)

	n.Info("test started")
	n.Success("test complete")
	n.Error("something failed")

	got := sink.all()
	if len(got) != 3 {
		t.Fatalf("sink received %d notices, want 3", len(got))
	}
	if got[0].Kind != notify.KindInfo || got[1].Kind != notify.KindSuccess || got[2].Kind != notify.KindError {
		t.Errorf("kinds = %v, %v, %v", got[0].Kind, got[1].Kind, got[2].Kind)
	}
	if got[0].Text != "test started" {
		t.Errorf("text = %q, want %q", got[0].Text, "test started")
	}
}

func TestNoticesHaveDistinctIDs(t *testing.T) {
	n := notify.New(time.Minute, time.Minute)
	defer n.Close()

	// Twins posted back-to-back can share a wall-clock timestamp; identity
	// must not depend on it.
	n.Info("twin")
	n.Info("twin")

	active := n.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].ID == 0 || active[1].ID == 0 {
		t.Errorf("notice without an ID: %+v, %+v", active[0], active[1])
	}
	if active[0].ID == active[1].ID {
		t.Errorf("both notices share ID %d", active[0].ID)
	}
}

func TestNoticesAutoDismiss(t *testing.T) {
	n := notify.New(20*time.Millisecond, 20*time.Millisecond)
	defer n.Close()

	n.Info("short lived")

	if got := len(n.Active()); got != 1 {
		t.Fatalf("active = %d immediately after post, want 1", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(n.Active()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("notice never auto-dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestErrorNoticesLingerLonger(t *testing.T) {
	n := notify.New(10*time.Millisecond, 500*time.Millisecond)
	defer n.Close()

	n.Info("info")
	n.Error("error")

	// Wait out the info dismissal window, then check the error survived it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		active := n.Active()
		if len(active) == 1 {
			if active[0].Kind != notify.KindError {
				t.Fatalf("surviving notice kind = %v, want error", active[0].Kind)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("active = %d notices, want the error alone", len(active))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseStopsPendingDismissals(t *testing.T) {
	n := notify.New(50*time.Millisecond, 50*time.Millisecond)
	n.Info("kept")
	n.Close()

	time.Sleep(100 * time.Millisecond)
	if got := len(n.Active()); got != 1 {
		t.Errorf("active after close = %d, want 1 (timer stopped)", got)
	}
}
