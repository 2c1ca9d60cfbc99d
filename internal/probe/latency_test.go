package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/netlens/netlens/internal/probe"
)

func fastChainConfig(referenceURL, assetURL string) probe.ChainConfig {
	return probe.ChainConfig{
		ReferenceURL: referenceURL,
		TinyAssetURL: assetURL,
		Trials:       3,
		TrialPause:   time.Millisecond,
		Timeout:      500 * time.Millisecond,
	}
}

func TestChainMeasuresAgainstReachableReference(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	chain := probe.NewChain(probe.NewClient(), fastChainConfig(srv.URL, srv.URL))
	result := chain.Measure(context.Background())

	if len(result.Trials) != 3 {
		t.Fatalf("trials = %d, want 3", len(result.Trials))
	}
	if result.Estimated {
		t.Error("reachable reference marked as estimated")
	}
	if result.AvgMs <= 0 {
		t.Errorf("avg = %v, want > 0", result.AvgMs)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("reference hit %d times, want 3 (one per trial)", got)
	}
}

func TestChainFallsThroughToNextStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Unreachable reference, reachable tiny asset.
	chain := probe.NewChain(probe.NewClient(), fastChainConfig("http://127.0.0.1:1/", srv.URL))
	result := chain.Measure(context.Background())

	if result.Estimated {
		t.Error("tiny-asset success marked as estimated")
	}
	if result.AvgMs <= 0 {
		t.Errorf("avg = %v, want > 0", result.AvgMs)
	}
}

func TestChainNeverFailsWhenEverythingIsDown(t *testing.T) {
	// Every network strategy points at a closed port and there are no STUN
	// servers; only the synthetic estimate can answer.
	chain := probe.NewChain(probe.NewClient(), fastChainConfig("http://127.0.0.1:1/", "http://127.0.0.1:1/x.ico"))
	result := chain.Measure(context.Background())

	if !result.Estimated {
		t.Error("synthetic fallback not flagged as estimated")
	}
	if len(result.Trials) != 3 {
		t.Fatalf("trials = %d, want 3", len(result.Trials))
	}
	for i, ms := range result.Trials {
		if ms < 50 || ms >= 100 {
			t.Errorf("trial %d = %v ms, want in [50, 100)", i, ms)
		}
	}
	if result.AvgMs < 50 || result.AvgMs >= 100 {
		t.Errorf("avg = %v ms, want in [50, 100)", result.AvgMs)
	}
}

func TestChainErrorStatusStillCountsAsRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	chain := probe.NewChain(probe.NewClient(), fastChainConfig(srv.URL, srv.URL))
	result := chain.Measure(context.Background())

	if result.Estimated {
		t.Error("HTTP error status should still complete the timing round trip")
	}
}

func TestSTUNRoundTripWithoutServers(t *testing.T) {
	_, _, err := probe.STUNRoundTrip(context.Background(), nil, time.Second)
	if err == nil {
		t.Fatal("expected capability error with no servers configured")
	}
}
