// Package diagnostic interprets raw measurements into human-readable bands
// and summaries. Everything here is a pure function of its inputs.
package diagnostic

import "fmt"

// Latency bands. Boundaries are half-open and exhaustive: every non-negative
// value maps to exactly one band, and a value exactly on a boundary falls
// into the slower band (50ms is "good", not "excellent").
const (
	LatencyExcellent = "excellent"
	LatencyGood      = "good"
	LatencyFair      = "fair"
	LatencyPoor      = "poor"
)

func RateLatency(ms float64) string {
	switch {
	case ms < 50:
		return LatencyExcellent
	case ms < 100:
		return LatencyGood
	case ms < 200:
		return LatencyFair
	default:
		return LatencyPoor
	}
}

// Connection quality bands.
const (
	QualityExcellent = "Excellent"
	QualityGood      = "Good"
	QualityFair      = "Fair"
	QualityPoor      = "Poor"
	QualityVeryPoor  = "Very Poor"
	QualityUnknown   = "Unknown"
)

// QualityFromDownlink bands a downlink estimate in Mbps.
func QualityFromDownlink(mbps float64) string {
	switch {
	case mbps >= 10:
		return QualityExcellent
	case mbps >= 5:
		return QualityGood
	case mbps >= 1:
		return QualityFair
	default:
		return QualityPoor
	}
}

var effectiveTypeQuality = map[string]string{
	"4g":      QualityGood,
	"3g":      QualityFair,
	"2g":      QualityPoor,
	"slow-2g": QualityVeryPoor,
}

// QualityFromEffectiveType bands a connection effective-type hint; unknown
// types map to QualityUnknown.
func QualityFromEffectiveType(effectiveType string) string {
	if q, ok := effectiveTypeQuality[effectiveType]; ok {
		return q
	}
	return QualityUnknown
}

// Summary builds a one-line description of a finished session.
func Summary(downloadMbps, uploadMbps, latencyMs float64) string {
	parts := []string{}
	if downloadMbps > 0 {
		parts = append(parts, fmt.Sprintf("%.1f Mbps down", downloadMbps))
	}
	if uploadMbps > 0 {
		parts = append(parts, fmt.Sprintf("%.1f Mbps up", uploadMbps))
	}
	if latencyMs > 0 {
		parts = append(parts, fmt.Sprintf("%.0fms latency (%s)", latencyMs, RateLatency(latencyMs)))
	}

	if len(parts) == 0 {
		return "No measurements recorded"
	}
	summary := parts[0]
	for _, part := range parts[1:] {
		summary += ", " + part
	}
	return summary
}
