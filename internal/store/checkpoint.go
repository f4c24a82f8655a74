package store

import (
	"context"
	"fmt"
)

// Checkpoint flushes the write-ahead log into the main database file
// without closing the handle, so a consumer that needs a self-contained
// copy of the file (export's native-file form) can safely read it off
// disk afterward.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("store: checkpointing WAL: %w", err)
	}
	return nil
}
