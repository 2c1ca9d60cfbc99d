package session

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/netlens/netlens/pkg/types"
)

// Snapshot is the exported view of a session: chart data, accumulated
// statistics and the last gathered network information, serialized as
// formatted JSON. Export followed by import reconstructs identical test data
// and statistics.
type Snapshot struct {
	Timestamp   string             `json:"timestamp"`
	TestData    types.TestData     `json:"testData"`
	Statistics  types.SessionStats `json:"statistics"`
	NetworkInfo *types.NetworkInfo `json:"networkInfo,omitempty"`
}

// Snapshot captures the orchestrator's current state.
func (o *Orchestrator) Snapshot(info *types.NetworkInfo) Snapshot {
	return Snapshot{
		Timestamp:   time.Now().Format(time.RFC3339),
		TestData:    o.TestData(),
		Statistics:  o.Stats(),
		NetworkInfo: info,
	}
}

// WriteSnapshot serializes snap as indented JSON to path.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses a previously exported snapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
