package types

// SessionStats accumulates monotonically across test sessions for the
// lifetime of the process. A single test's start never resets it; values are
// only incremented when a session completes. Callers are responsible for
// synchronizing access.
type SessionStats struct {
	TestsRun      int     `json:"tests_run"`
	TotalDownload float64 `json:"total_download"`
	TotalUpload   float64 `json:"total_upload"`
	MaxDownload   float64 `json:"max_download"`
	MaxUpload     float64 `json:"max_upload"`
}

// RecordSession folds one completed session's average throughputs into the
// running totals and maxima.
func (s *SessionStats) RecordSession(downloadMbps, uploadMbps float64) {
	s.TestsRun++
	s.TotalDownload += downloadMbps
	s.TotalUpload += uploadMbps
	if downloadMbps > s.MaxDownload {
		s.MaxDownload = downloadMbps
	}
	if uploadMbps > s.MaxUpload {
		s.MaxUpload = uploadMbps
	}
}

func (s SessionStats) AvgDownload() float64 {
	if s.TestsRun == 0 {
		return 0
	}
	return s.TotalDownload / float64(s.TestsRun)
}

func (s SessionStats) AvgUpload() float64 {
	if s.TestsRun == 0 {
		return 0
	}
	return s.TotalUpload / float64(s.TestsRun)
}
