// Package sampler runs the timed request/measure loops that turn transferred
// bytes and elapsed wall-clock time into throughput samples.
package sampler

import (
	"context"
	"time"

	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/pkg/errors"
	"github.com/netlens/netlens/pkg/types"
)

// Measurement is one iteration's raw transfer outcome.
type Measurement struct {
	Bytes   int64
	Elapsed time.Duration
}

// Iterator performs a single transfer in one direction.
type Iterator interface {
	Direction() string
	Measure(ctx context.Context) (Measurement, error)
}

// Publisher receives streaming per-iteration samples and, separately, the
// phase's final summary value. Every publish is tagged with the session ID so
// late-arriving results against a superseded session can be discarded.
type Publisher interface {
	PublishSample(sessionID, direction string, s types.Sample)
	PublishSummary(sessionID, direction string, meanMbps float64)
}

// PhaseResult is what one sampling phase produced.
type PhaseResult struct {
	Samples  []types.Sample
	MeanMbps float64
}

type Runner struct {
	duration    time.Duration
	interval    time.Duration
	maxSaneMbps float64

	// Injected for deterministic tests; default to the real clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewRunner(duration, interval time.Duration, maxSaneMbps float64) *Runner {
	return &Runner{
		duration:    duration,
		interval:    interval,
		maxSaneMbps: maxSaneMbps,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// SetClock overrides the wall clock and sleeper. Test hook.
func (r *Runner) SetClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration)) {
	r.now = now
	r.sleep = sleep
}

// RunPhase iterates for the configured wall-clock duration, recording one
// throughput sample per successful iteration. A single iteration's failure is
// logged and absorbed; it never aborts the loop. The running flag is checked
// once per iteration only: an in-flight transfer is not aborted by a stop.
func (r *Runner) RunPhase(ctx context.Context, sessionID string, iter Iterator, running func() bool, publish Publisher) PhaseResult {
	direction := iter.Direction()
	start := r.now()
	var accepted []types.Sample

	for r.now().Sub(start) < r.duration && running() {
		m, err := iter.Measure(ctx)
		if err != nil {
			logging.Debug("sampling iteration failed",
				logging.Field{Key: "direction", Value: direction},
				logging.Field{Key: "error", Value: err})
		} else if sample, ok := r.toSample(m); ok {
			accepted = append(accepted, sample)
			if publish != nil {
				publish.PublishSample(sessionID, direction, sample)
			}
		}

		// Sole cancellation checkpoint: sleep, then re-check the condition.
		r.sleep(ctx, r.interval)
	}

	result := PhaseResult{Samples: accepted}
	if len(accepted) > 0 {
		var sum float64
		for _, s := range accepted {
			sum += s.Mbps
		}
		result.MeanMbps = sum / float64(len(accepted))
		if publish != nil {
			publish.PublishSummary(sessionID, direction, result.MeanMbps)
		}
	}
	return result
}

// toSample converts a raw measurement to an accepted sample, applying the
// throughput sanity bound. Rejected samples are discarded silently.
func (r *Runner) toSample(m Measurement) (types.Sample, bool) {
	seconds := m.Elapsed.Seconds()
	if seconds <= 0 {
		return types.Sample{}, false
	}
	mbps := float64(m.Bytes*8) / (1024 * 1024 * seconds)
	if mbps <= 0 || mbps >= r.maxSaneMbps {
		logging.Debug("sample rejected by sanity filter",
			logging.Field{Key: "error", Value: errors.ErrSanityRejected(mbps)})
		return types.Sample{}, false
	}
	return types.NewSample(mbps, r.now()), true
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
