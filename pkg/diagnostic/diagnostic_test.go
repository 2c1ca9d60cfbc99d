package diagnostic_test

import (
	"strings"
	"testing"

	"github.com/netlens/netlens/pkg/diagnostic"
)

func TestRateLatencyBands(t *testing.T) {
	tests := []struct {
		ms   float64
		want string
	}{
		{0, diagnostic.LatencyExcellent},
		{49.9, diagnostic.LatencyExcellent},
		{50, diagnostic.LatencyGood}, // boundary falls into the slower band
		{99.9, diagnostic.LatencyGood},
		{100, diagnostic.LatencyFair},
		{199.9, diagnostic.LatencyFair},
		{200, diagnostic.LatencyPoor},
		{5000, diagnostic.LatencyPoor},
	}

	for _, tt := range tests {
		if got := diagnostic.RateLatency(tt.ms); got != tt.want {
			t.Errorf("RateLatency(%v) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestQualityFromDownlink(t *testing.T) {
	tests := []struct {
		mbps float64
		want string
	}{
		{10, diagnostic.QualityExcellent},
		{50, diagnostic.QualityExcellent},
		{5, diagnostic.QualityGood},
		{9.9, diagnostic.QualityGood},
		{1, diagnostic.QualityFair},
		{4.9, diagnostic.QualityFair},
		{0.9, diagnostic.QualityPoor},
		{0, diagnostic.QualityPoor},
	}

	for _, tt := range tests {
		if got := diagnostic.QualityFromDownlink(tt.mbps); got != tt.want {
			t.Errorf("QualityFromDownlink(%v) = %q, want %q", tt.mbps, got, tt.want)
		}
	}
}

func TestQualityFromEffectiveType(t *testing.T) {
	tests := []struct {
		effectiveType string
		want          string
	}{
		{"4g", diagnostic.QualityGood},
		{"3g", diagnostic.QualityFair},
		{"2g", diagnostic.QualityPoor},
		{"slow-2g", diagnostic.QualityVeryPoor},
		{"5g", diagnostic.QualityUnknown},
		{"", diagnostic.QualityUnknown},
	}

	for _, tt := range tests {
		if got := diagnostic.QualityFromEffectiveType(tt.effectiveType); got != tt.want {
			t.Errorf("QualityFromEffectiveType(%q) = %q, want %q", tt.effectiveType, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	got := diagnostic.Summary(25.3, 12.1, 42)
	for _, want := range []string{"25.3 Mbps down", "12.1 Mbps up", "42ms latency", "excellent"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary = %q, missing %q", got, want)
		}
	}
}

func TestSummaryOmitsZeroMeasurements(t *testing.T) {
	got := diagnostic.Summary(25.3, 0, 0)
	if strings.Contains(got, "up") || strings.Contains(got, "latency") {
		t.Errorf("Summary = %q, want only the download part", got)
	}

	if got := diagnostic.Summary(0, 0, 0); got != "No measurements recorded" {
		t.Errorf("empty Summary = %q", got)
	}
}
