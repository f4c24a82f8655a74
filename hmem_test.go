package hmem_test

import (
	"context"
	"path/filepath"
	"testing"

	hmem "github.com/untoldecay/hmem"
)

func TestOpenAndWriteThroughFacade(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	cfg := hmem.DefaultConfig()
	cfg.Prefixes = map[string]string{"E": "Engineering"}

	ctx := context.Background()
	s, err := hmem.Open(ctx, dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	res, err := s.Write(ctx, "E", "first entry", hmem.RoleAL, hmem.WriteOpts{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if res.ID != "E0001" {
		t.Errorf("ID = %q, want E0001", res.ID)
	}
}

func TestBulkReadThroughFacade(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	cfg := hmem.DefaultConfig()
	cfg.Prefixes = map[string]string{"E": "Engineering"}

	ctx := context.Background()
	s, err := hmem.Open(ctx, dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, err := s.Write(ctx, "E", "first entry", hmem.RoleAL, hmem.WriteOpts{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cache := hmem.NewSessionCache()
	result, err := hmem.BulkRead(ctx, s, hmem.RoleAL, cache, hmem.BulkReadOpts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	if len(result.Groups) != 1 {
		t.Errorf("Groups = %d, want 1", len(result.Groups))
	}
}
