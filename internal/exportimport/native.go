package exportimport

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/store"
)

// ExportNative writes a byte-identical copy of s's underlying file to
// destPath, with every secret row stripped first — via a temporary copy
// plus delete, exactly as §4.8 specifies, rather than mutating the live
// database in place.
func ExportNative(ctx context.Context, s *store.Store, destPath string) error {
	if err := s.Checkpoint(ctx); err != nil {
		return err
	}
	if err := copyFile(s.Path(), destPath); err != nil {
		return fmt.Errorf("exportimport: copying store file: %w", err)
	}

	db, err := sql.Open("sqlite3", destPath)
	if err != nil {
		return fmt.Errorf("exportimport: opening export copy: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DELETE FROM memories WHERE secret = 1`); err != nil {
		return fmt.Errorf("exportimport: stripping secret roots: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM memory_nodes WHERE secret = 1`); err != nil {
		return fmt.Errorf("exportimport: stripping secret nodes: %w", err)
	}
	if _, err := db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("exportimport: compacting export copy: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// OpenForeign opens an external hmem-format database file read-write (the
// native-file import source), applying the same schema/migration pass a
// normal Open would — the source file is itself a valid hmem store, not
// an opaque blob, so opening it through the regular Store constructor
// keeps behaviour consistent instead of hand-rolling a second code path.
func OpenForeign(ctx context.Context, path string, cfg *config.Config) (*store.Store, error) {
	return store.Open(ctx, path, cfg)
}
