// Package session drives a complete test session: download phase, pause,
// upload phase, statistics finalize. The orchestrator is the only component
// that flips the running flag.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/internal/sampler"
	"github.com/netlens/netlens/pkg/diagnostic"
	"github.com/netlens/netlens/pkg/types"
)

// Listener receives live chart updates. Points carry the session ID; a
// listener rendering a chart should drop points from superseded sessions,
// though the orchestrator already filters stale publishes before fan-out.
type Listener interface {
	ChartUpdate(p types.ChartPoint)
}

type Orchestrator struct {
	cfg      *config.Config
	notifier *notify.Notifier
	runner   *sampler.Runner

	downloadIter sampler.Iterator
	uploadIter   sampler.Iterator

	running int32

	mu        sync.RWMutex
	current   string // active (or most recent) session ID
	download  *types.SampleWindow
	upload    *types.SampleWindow
	stats     types.SessionStats
	listeners []Listener
	done      chan struct{}
}

func NewOrchestrator(cfg *config.Config, client *probe.Client, notifier *notify.Notifier) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		notifier: notifier,
		runner:   sampler.NewRunner(cfg.TestDuration, cfg.UpdateInterval, cfg.MaxSaneMbps),
		downloadIter: sampler.NewDownloadIterator(client, cfg.ProbeBaseURL,
			cfg.DownloadBytesMin, cfg.DownloadBytesMax, cfg.ProbeTimeout),
		uploadIter: sampler.NewUploadIterator(client, cfg.ProbeBaseURL,
			cfg.UploadBytesMin, cfg.UploadBytesMax, cfg.ProbeTimeout),
		download: types.NewSampleWindow(cfg.MaxDataPoints),
		upload:   types.NewSampleWindow(cfg.MaxDataPoints),
	}
}

// SetIterators replaces the transfer iterators. Test hook.
func (o *Orchestrator) SetIterators(download, upload sampler.Iterator) {
	o.downloadIter = download
	o.uploadIter = upload
}

// SetRunner replaces the phase runner. Test hook.
func (o *Orchestrator) SetRunner(r *sampler.Runner) {
	o.runner = r
}

func (o *Orchestrator) AddListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

func (o *Orchestrator) IsRunning() bool {
	return atomic.LoadInt32(&o.running) == 1
}

// Start launches a session. A no-op returning ("", false) when a session is
// already running: no duplicate launches, no double reset of series state.
func (o *Orchestrator) Start(ctx context.Context) (string, bool) {
	// The flag flip and the current-session update happen under one lock so
	// a superseded session's cleanup can never interleave between them.
	o.mu.Lock()
	if !atomic.CompareAndSwapInt32(&o.running, 0, 1) {
		o.mu.Unlock()
		return "", false
	}

	sessionID := uuid.New().String()
	o.current = sessionID
	o.download.Reset()
	o.upload.Reset()
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	go o.run(ctx, sessionID, done)
	return sessionID, true
}

// Stop requests a transition to idle. Cooperative: an in-flight transfer is
// not aborted, only the next iteration is skipped. Always safe to call;
// idempotent when already idle.
func (o *Orchestrator) Stop() {
	if atomic.CompareAndSwapInt32(&o.running, 1, 0) {
		logging.Info("speed test stop requested")
		if o.notifier != nil {
			o.notifier.Info("Speed test stopped")
		}
	}
}

// Wait blocks until the most recently started session has finished.
func (o *Orchestrator) Wait() {
	o.mu.RLock()
	done := o.done
	o.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) run(ctx context.Context, sessionID string, done chan struct{}) {
	defer func() {
		// Guaranteed cleanup: any failure is reported and the orchestrator
		// still returns to idle.
		if r := recover(); r != nil {
			logging.Error("session aborted", logging.Field{Key: "panic", Value: fmt.Sprintf("%v", r)})
			if o.notifier != nil {
				o.notifier.Error("Speed test failed. Please try again.")
			}
		}
		// Only the current session owns the running flag. A stopped
		// session whose in-flight transfer outlived a restart must not
		// clear its successor's state.
		o.mu.Lock()
		if o.current == sessionID {
			atomic.StoreInt32(&o.running, 0)
		}
		o.mu.Unlock()
		close(done)
	}()

	logging.Info("session started", logging.Field{Key: "session_id", Value: sessionID})
	if o.notifier != nil {
		o.notifier.Info("Speed test started")
	}

	isRunning := func() bool {
		return o.IsRunning() && o.isCurrent(sessionID)
	}

	downResult := o.runner.RunPhase(ctx, sessionID, o.downloadIter, isRunning, o)

	if isRunning() {
		time.Sleep(o.cfg.PhasePause)
	}

	upResult := o.runner.RunPhase(ctx, sessionID, o.uploadIter, isRunning, o)

	if isRunning() {
		o.finalize(sessionID, downResult, upResult)
	} else {
		logging.Info("session ended early", logging.Field{Key: "session_id", Value: sessionID})
	}
}

// finalize folds the session's phase means into the monotonically accumulated
// statistics. Only completed sessions count.
func (o *Orchestrator) finalize(sessionID string, down, up sampler.PhaseResult) {
	o.mu.Lock()
	o.stats.RecordSession(down.MeanMbps, up.MeanMbps)
	o.mu.Unlock()

	logging.Info("session completed",
		logging.Field{Key: "session_id", Value: sessionID},
		logging.Field{Key: "download_mbps", Value: down.MeanMbps},
		logging.Field{Key: "upload_mbps", Value: up.MeanMbps},
		logging.Field{Key: "download_samples", Value: len(down.Samples)},
		logging.Field{Key: "upload_samples", Value: len(up.Samples)})

	if o.notifier != nil {
		o.notifier.Success("Test complete: " + diagnostic.Summary(down.MeanMbps, up.MeanMbps, 0))
	}
}

func (o *Orchestrator) isCurrent(sessionID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current == sessionID
}

// PublishSample implements sampler.Publisher. Samples tagged with a
// superseded session ID are discarded so late-arriving results cannot act on
// reset chart state.
func (o *Orchestrator) PublishSample(sessionID, direction string, s types.Sample) {
	o.mu.Lock()
	if o.current != sessionID {
		o.mu.Unlock()
		logging.Debug("dropping stale sample", logging.Field{Key: "session_id", Value: sessionID})
		return
	}
	switch direction {
	case types.DirectionDownload:
		o.download.Push(s)
	case types.DirectionUpload:
		o.upload.Push(s)
	}
	listeners := make([]Listener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	point := types.ChartPoint{
		SessionID: sessionID,
		Direction: direction,
		Mbps:      s.Mbps,
		Timestamp: s.Timestamp,
	}
	for _, l := range listeners {
		l.ChartUpdate(point)
	}
}

// PublishSummary implements sampler.Publisher for the end-of-phase mean.
func (o *Orchestrator) PublishSummary(sessionID, direction string, meanMbps float64) {
	if !o.isCurrent(sessionID) {
		return
	}

	o.mu.RLock()
	listeners := make([]Listener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.RUnlock()

	point := types.ChartPoint{
		SessionID: sessionID,
		Direction: direction,
		Mbps:      meanMbps,
		Timestamp: time.Now().Format("15:04:05"),
		Summary:   true,
	}
	for _, l := range listeners {
		l.ChartUpdate(point)
	}
}

// TestData projects the current sample windows into the chart-ready shape.
// Timestamps follow the download series; upload may lag during the
// download-only phase.
func (o *Orchestrator) TestData() types.TestData {
	o.mu.RLock()
	defer o.mu.RUnlock()

	download, timestamps := o.download.Snapshot()
	upload, _ := o.upload.Snapshot()
	return types.TestData{
		Download:   download,
		Upload:     upload,
		Timestamps: timestamps,
	}
}

func (o *Orchestrator) Stats() types.SessionStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}

// RestoreStats overwrites accumulated statistics, used by snapshot import.
func (o *Orchestrator) RestoreStats(stats types.SessionStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = stats
}
