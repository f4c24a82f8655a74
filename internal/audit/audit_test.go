package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSidecarPathDefaultsToSiblingOfDataFile(t *testing.T) {
	got := SidecarPath("/data/hmem.db")
	want := "/data/hmem.db.audit-state.json"
	if got != want {
		t.Errorf("SidecarPath() = %q, want %q", got, want)
	}
}

func TestResolvePathPrefersOverride(t *testing.T) {
	if got := ResolvePath("/custom/path.json", "/data/hmem.db"); got != "/custom/path.json" {
		t.Errorf("ResolvePath() = %q, want override", got)
	}
	want := filepath.Clean(SidecarPath("/data/hmem.db"))
	if got := ResolvePath("", "/data/hmem.db"); got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}
}

func TestRecordSidecarWritesAndMergesAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit-state.json")

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := RecordSidecar(path, "agent-a", t1); err != nil {
		t.Fatalf("RecordSidecar() error = %v", err)
	}

	t2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := RecordSidecar(path, "agent-b", t2); err != nil {
		t.Fatalf("RecordSidecar() error = %v", err)
	}

	snap, err := readSnapshot(path)
	if err != nil {
		t.Fatalf("readSnapshot() error = %v", err)
	}
	if !snap.Agents["agent-a"].Equal(t1) {
		t.Errorf("agent-a = %v, want %v", snap.Agents["agent-a"], t1)
	}
	if !snap.Agents["agent-b"].Equal(t2) {
		t.Errorf("agent-b = %v, want %v", snap.Agents["agent-b"], t2)
	}
}

func TestRecordSidecarOverwritesSameAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit-state.json")

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if err := RecordSidecar(path, "agent-a", first); err != nil {
		t.Fatalf("RecordSidecar() #1 error = %v", err)
	}
	if err := RecordSidecar(path, "agent-a", second); err != nil {
		t.Fatalf("RecordSidecar() #2 error = %v", err)
	}

	snap, err := readSnapshot(path)
	if err != nil {
		t.Fatalf("readSnapshot() error = %v", err)
	}
	if !snap.Agents["agent-a"].Equal(second) {
		t.Errorf("agent-a = %v, want %v (latest write wins)", snap.Agents["agent-a"], second)
	}
}
