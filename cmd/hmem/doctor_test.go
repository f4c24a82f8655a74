package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/store"
)

func TestDoctorReportsHealthyFreshStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Prefixes = map[string]string{"E": "Engineering"}
	dbPath := filepath.Join(t.TempDir(), "store.db")

	ctx := context.Background()
	s, err := store.Open(ctx, dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	report, err := s.Doctor(ctx)
	if err != nil {
		t.Fatalf("Doctor() error = %v", err)
	}
	if report.IntegrityError != "" {
		t.Errorf("IntegrityError = %q, want empty", report.IntegrityError)
	}
	if report.OrphanedNodes != 0 {
		t.Errorf("OrphanedNodes = %d, want 0", report.OrphanedNodes)
	}
	if report.SchemaVersion == 0 {
		t.Errorf("SchemaVersion = 0, want non-zero")
	}
}
