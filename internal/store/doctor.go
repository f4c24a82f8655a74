package store

import (
	"context"
	"fmt"
)

// DoctorReport is hmem doctor's on-demand diagnostic snapshot (§8,
// adapted from bd's own `doctor` subcommand): schema version, row counts
// per table, an integrity-check result, and a count of orphaned nodes
// (rows whose parent_id no longer resolves to a live row).
type DoctorReport struct {
	SchemaVersion  int
	MemoryCount    int
	NodeCount      int
	OrphanedNodes  int
	IntegrityError string
}

// Doctor runs the checks behind `hmem doctor` without requiring a full
// read: a corruption check, then row counts, reusing checkIntegrity so the
// CLI and Open's own corruption guard never disagree about what "healthy"
// means.
func (s *Store) Doctor(ctx context.Context) (DoctorReport, error) {
	var report DoctorReport

	if err := checkIntegrity(ctx, s.db); err != nil {
		report.IntegrityError = err.Error()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&report.SchemaVersion); err != nil {
		return report, fmt.Errorf("store: reading schema_version: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&report.MemoryCount); err != nil {
		return report, fmt.Errorf("store: counting memories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_nodes`).Scan(&report.NodeCount); err != nil {
		return report, fmt.Errorf("store: counting memory_nodes: %w", err)
	}

	const orphanQuery = `
		SELECT COUNT(*) FROM memory_nodes n
		WHERE n.depth = 2 AND NOT EXISTS (SELECT 1 FROM memories m WHERE m.id = n.root_id)
		   OR n.depth > 2 AND NOT EXISTS (SELECT 1 FROM memory_nodes p WHERE p.id = n.parent_id)`
	if err := s.db.QueryRowContext(ctx, orphanQuery).Scan(&report.OrphanedNodes); err != nil {
		return report, fmt.Errorf("store: counting orphaned nodes: %w", err)
	}

	return report, nil
}
