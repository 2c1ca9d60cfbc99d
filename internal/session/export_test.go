package session_test

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/netlens/netlens/internal/session"
	"github.com/netlens/netlens/pkg/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := fastTestConfig()
	orch, _, _ := newTestOrchestrator(cfg)

	orch.Start(context.Background())
	orch.Wait()

	info := types.NewNetworkInfo()
	info.PublicIP = "203.0.113.9"
	info.City = "Lisbon"

	snap := orch.Snapshot(info)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := session.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	loaded, err := session.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	if !reflect.DeepEqual(loaded.TestData, snap.TestData) {
		t.Errorf("test data did not survive the round trip:\n got %+v\nwant %+v", loaded.TestData, snap.TestData)
	}
	if loaded.Statistics != snap.Statistics {
		t.Errorf("statistics = %+v, want %+v", loaded.Statistics, snap.Statistics)
	}
	if loaded.NetworkInfo == nil || loaded.NetworkInfo.PublicIP != "203.0.113.9" {
		t.Errorf("network info = %+v", loaded.NetworkInfo)
	}
	if loaded.Timestamp != snap.Timestamp {
		t.Errorf("timestamp = %q, want %q", loaded.Timestamp, snap.Timestamp)
	}
}

func TestSnapshotRestoresStatsOnImport(t *testing.T) {
	cfg := fastTestConfig()
	source, _, _ := newTestOrchestrator(cfg)
	source.Start(context.Background())
	source.Wait()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := session.WriteSnapshot(path, source.Snapshot(nil)); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	snap, err := session.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	target, _, _ := newTestOrchestrator(cfg)
	target.RestoreStats(snap.Statistics)

	if target.Stats() != source.Stats() {
		t.Errorf("restored stats = %+v, want %+v", target.Stats(), source.Stats())
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := session.ReadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for a missing snapshot file")
	}
	if !strings.Contains(err.Error(), "read snapshot") {
		t.Errorf("error = %v, want a read-snapshot wrap", err)
	}
}
