// Package audit implements the curator audit-queue tools (mark_audited,
// get_audit_queue). The canonical state lives in the store's audit_state
// table; this package additionally mirrors it to a sidecar JSON file
// guarded by a file lock, the same write-to-temp-then-rename pattern the
// teacher's sync command uses to protect a shared file against concurrent
// writers (§4.8, §5).
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Snapshot is the sidecar file's shape: a point-in-time mirror of every
// agent's last-audit timestamp, for tooling that wants to inspect audit
// state without opening the SQLite file.
type Snapshot struct {
	Agents map[string]time.Time `json:"agents"`
}

// SidecarPath returns the default sidecar path for a store file: a
// `.audit-state.json` sibling, matching the "sidecar path defaults to a
// sibling of the data file" environment-variable default (§6).
func SidecarPath(dbPath string) string {
	return dbPath + ".audit-state.json"
}

// RecordSidecar merges agent's new last-audit time into the sidecar
// snapshot at path, writing it atomically under an exclusive file lock so
// two adapter processes on the same store never interleave partial writes.
func RecordSidecar(path, agent string, auditedAt time.Time) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("audit: acquiring sidecar lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("audit: sidecar %s is locked by another process", path)
	}
	defer func() { _ = lock.Unlock() }()

	snap, err := readSnapshot(path)
	if err != nil {
		return err
	}
	if snap.Agents == nil {
		snap.Agents = map[string]time.Time{}
	}
	snap.Agents[agent] = auditedAt

	return writeSnapshotAtomic(path, snap)
}

func readSnapshot(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Snapshot{Agents: map[string]time.Time{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("audit: reading sidecar %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("audit: parsing sidecar %s: %w", path, err)
	}
	return snap, nil
}

func writeSnapshotAtomic(path string, snap Snapshot) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("audit: creating sidecar temp file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("audit: encoding sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("audit: closing sidecar temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("audit: renaming sidecar into place: %w", err)
	}
	return nil
}

// ResolvePath returns a configured override unchanged, or, when it is
// empty, the default sidecar path beside the store at dbPath.
func ResolvePath(override, dbPath string) string {
	if override != "" {
		return override
	}
	return filepath.Clean(SidecarPath(dbPath))
}
