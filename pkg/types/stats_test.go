package types_test

import (
	"testing"

	"github.com/netlens/netlens/pkg/types"
)

func TestStatsAccumulateAcrossSessions(t *testing.T) {
	var s types.SessionStats

	s.RecordSession(10, 5)
	s.RecordSession(20, 3)

	if s.TestsRun != 2 {
		t.Errorf("tests run = %d, want 2", s.TestsRun)
	}
	if s.TotalDownload != 30 {
		t.Errorf("total download = %v, want 30", s.TotalDownload)
	}
	if s.TotalUpload != 8 {
		t.Errorf("total upload = %v, want 8", s.TotalUpload)
	}
	if s.MaxDownload != 20 {
		t.Errorf("max download = %v, want 20", s.MaxDownload)
	}
	if s.MaxUpload != 5 {
		t.Errorf("max upload = %v, want 5", s.MaxUpload)
	}
}

func TestStatsAverages(t *testing.T) {
	var s types.SessionStats

	if got := s.AvgDownload(); got != 0 {
		t.Errorf("avg download with no sessions = %v, want 0", got)
	}
	if got := s.AvgUpload(); got != 0 {
		t.Errorf("avg upload with no sessions = %v, want 0", got)
	}

	s.RecordSession(10, 4)
	s.RecordSession(30, 8)

	if got, want := s.AvgDownload(), 20.0; got != want {
		t.Errorf("avg download = %v, want %v", got, want)
	}
	if got, want := s.AvgUpload(), 6.0; got != want {
		t.Errorf("avg upload = %v, want %v", got, want)
	}
}

func TestStatsMaxKeepsHighWaterMark(t *testing.T) {
	var s types.SessionStats

	s.RecordSession(50, 25)
	s.RecordSession(10, 2)

	if s.MaxDownload != 50 {
		t.Errorf("max download = %v, want 50", s.MaxDownload)
	}
	if s.MaxUpload != 25 {
		t.Errorf("max upload = %v, want 25", s.MaxUpload)
	}
}
