package types

import "time"

// Direction of a sampling phase.
const (
	DirectionDownload = "download"
	DirectionUpload   = "upload"
)

// Sample is a single accepted throughput measurement. Immutable once created.
type Sample struct {
	Mbps      float64 `json:"mbps"`
	Timestamp string  `json:"timestamp"`
}

// NewSample stamps a throughput value with the wall-clock time it was taken.
func NewSample(mbps float64, at time.Time) Sample {
	return Sample{
		Mbps:      mbps,
		Timestamp: at.Format("15:04:05"),
	}
}

// TestData is the chart-ready projection of one session's sample series.
// Download and Timestamps always have equal length; Upload may lag behind
// during the download-only phase.
type TestData struct {
	Download   []float64 `json:"download"`
	Upload     []float64 `json:"upload"`
	Timestamps []string  `json:"timestamps"`
}

// ChartPoint is one live update pushed to chart consumers. Points tagged with
// a superseded session ID must be discarded by the consumer.
type ChartPoint struct {
	SessionID string  `json:"session_id"`
	Direction string  `json:"direction"`
	Mbps      float64 `json:"mbps"`
	Timestamp string  `json:"timestamp"`
	Summary   bool    `json:"summary,omitempty"`
}
