package probe

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/pion/stun/v3"

	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/pkg/errors"
)

// Strategy is one way of estimating round-trip time. Strategies share a
// uniform signature so the chain can fall through them in order.
type Strategy struct {
	Name    string
	Measure func(ctx context.Context, timeout time.Duration) (float64, error)
}

// LatencyResult is the averaged outcome of a probe run. Estimated is set when
// at least one trial fell through to the synthetic stand-in, marking the
// value as a heuristic rather than a measurement.
type LatencyResult struct {
	AvgMs     float64
	Trials    []float64
	Estimated bool
}

// Chain measures latency by trying strategies in strict order per trial,
// terminating in a synthetic estimate so the operation never fails.
type Chain struct {
	strategies []Strategy
	trials     int
	trialPause time.Duration
	timeout    time.Duration
}

type ChainConfig struct {
	ReferenceURL string
	TinyAssetURL string
	STUNServers  []string
	Trials       int
	TrialPause   time.Duration
	Timeout      time.Duration
}

func NewChain(client *Client, cfg ChainConfig) *Chain {
	if cfg.Trials <= 0 {
		cfg.Trials = 3
	}
	if cfg.TrialPause <= 0 {
		cfg.TrialPause = 200 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Chain{
		strategies: []Strategy{
			{Name: "http-timing", Measure: httpTimingProbe(client, cfg.ReferenceURL)},
			{Name: "tiny-asset", Measure: tinyAssetProbe(client, cfg.TinyAssetURL)},
			{Name: "stun-handshake", Measure: stunHandshakeProbe(cfg.STUNServers)},
			{Name: "synthetic", Measure: syntheticEstimate},
		},
		trials:     cfg.Trials,
		trialPause: cfg.TrialPause,
		timeout:    cfg.Timeout,
	}
}

// Measure runs the configured number of trials and returns their mean.
// It never returns an error: the final strategy always succeeds.
func (c *Chain) Measure(ctx context.Context) LatencyResult {
	result := LatencyResult{Trials: make([]float64, 0, c.trials)}

	for trial := 0; trial < c.trials; trial++ {
		if trial > 0 {
			select {
			case <-time.After(c.trialPause):
			case <-ctx.Done():
			}
		}

		ms, estimated := c.runTrial(ctx)
		result.Trials = append(result.Trials, ms)
		if estimated {
			result.Estimated = true
		}
	}

	var sum float64
	for _, ms := range result.Trials {
		sum += ms
	}
	result.AvgMs = sum / float64(len(result.Trials))
	return result
}

func (c *Chain) runTrial(ctx context.Context) (ms float64, estimated bool) {
	for i, strategy := range c.strategies {
		ms, err := strategy.Measure(ctx, c.timeout)
		if err != nil {
			logging.Debug("latency strategy failed",
				logging.Field{Key: "strategy", Value: strategy.Name},
				logging.Field{Key: "error", Value: err})
			continue
		}
		return ms, i == len(c.strategies)-1
	}
	// Unreachable: syntheticEstimate never fails. Kept as a hard floor.
	ms, _ = syntheticEstimate(ctx, 0)
	return ms, true
}

// httpTimingProbe times a best-effort no-cache request to a fixed reference
// resource. Elapsed wall-clock counts even when the body is unreadable: any
// response at all means the round trip happened.
func httpTimingProbe(client *Client, referenceURL string) func(context.Context, time.Duration) (float64, error) {
	return func(ctx context.Context, timeout time.Duration) (float64, error) {
		req, err := http.NewRequest(http.MethodGet, referenceURL, nil)
		if err != nil {
			return 0, errors.ErrNetworkUnreachable("latency probe", err)
		}
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")

		start := time.Now()
		resp, err := client.Fetch(ctx, req, timeout, "latency probe")
		if err != nil {
			return 0, err
		}
		elapsed := time.Since(start)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return float64(elapsed) / float64(time.Millisecond), nil
	}
}

// tinyAssetProbe loads a small asset with a cache-busting query parameter.
// Both a success and an HTTP error status complete the round trip; only a
// transport-level failure counts as a miss.
func tinyAssetProbe(client *Client, assetURL string) func(context.Context, time.Duration) (float64, error) {
	return func(ctx context.Context, timeout time.Duration) (float64, error) {
		sep := "?"
		if strings.Contains(assetURL, "?") {
			sep = "&"
		}
		url := fmt.Sprintf("%s%st=%d", assetURL, sep, time.Now().UnixNano())

		start := time.Now()
		resp, err := client.Get(ctx, url, timeout, "latency probe")
		if err != nil {
			return 0, err
		}
		elapsed := time.Since(start)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return float64(elapsed) / float64(time.Millisecond), nil
	}
}

// stunHandshakeProbe opens a STUN binding exchange and measures elapsed time
// to the first mapped-address event, approximating RTT to a public reflector.
func stunHandshakeProbe(servers []string) func(context.Context, time.Duration) (float64, error) {
	return func(ctx context.Context, timeout time.Duration) (float64, error) {
		ms, _, err := STUNRoundTrip(ctx, servers, timeout)
		return ms, err
	}
}

// STUNRoundTrip performs a binding request against the first reachable STUN
// server, returning elapsed milliseconds and the discovered mapped address.
func STUNRoundTrip(ctx context.Context, servers []string, timeout time.Duration) (float64, string, error) {
	if len(servers) == 0 {
		return 0, "", errors.ErrCapabilityUnavailable("peer connectivity")
	}

	var lastErr error
	for _, server := range servers {
		ms, addr, err := stunBinding(ctx, server, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		return ms, addr, nil
	}
	return 0, "", errors.ErrNetworkUnreachable("stun handshake", lastErr)
}

func stunBinding(ctx context.Context, server string, timeout time.Duration) (float64, string, error) {
	uriStr := strings.TrimSpace(server)
	if uriStr == "" {
		return 0, "", fmt.Errorf("empty STUN server")
	}
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}

	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return 0, "", err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return 0, "", err
	}
	defer client.Close()

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	result := make(chan stun.XORMappedAddress, 1)
	fail := make(chan error, 1)

	start := time.Now()
	go func() {
		var addr stun.XORMappedAddress
		err := client.Do(msg, func(res stun.Event) {
			if res.Error != nil {
				fail <- res.Error
				return
			}
			if err := addr.GetFrom(res.Message); err != nil {
				fail <- err
				return
			}
			result <- addr
		})
		if err != nil {
			fail <- err
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case addr := <-result:
		return float64(time.Since(start)) / float64(time.Millisecond), addr.String(), nil
	case err := <-fail:
		return 0, "", err
	case <-ctx.Done():
		return 0, "", errors.ErrTimeout("stun handshake")
	}
}

// syntheticEstimate is the terminal fallback: a conservative stand-in
// uniformly distributed in [50,100) ms. A heuristic, not a measurement.
func syntheticEstimate(_ context.Context, _ time.Duration) (float64, error) {
	return 50 + rand.Float64()*50, nil
}
