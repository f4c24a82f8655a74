package store

import (
	"database/sql"
	"fmt"

	"github.com/untoldecay/hmem/internal/store/migrations"
)

// migration names one of the ordered, idempotent upgrade steps (§6).
type migration struct {
	Name string
	Func func(*sql.DB) error
}

var migrationsList = []migration{
	{"flatten_legacy_levels", migrations.FlattenLegacyLevels},
	{"insert_prefix_headers", migrations.InsertPrefixHeaders},
	{"zero_obsolete_access_counts", migrations.ZeroObsoleteAccessCounts},
}

// runMigrations applies every registered migration inside one EXCLUSIVE
// transaction, following bd's RunMigrations: foreign keys disabled before
// the transaction starts (SQLite refuses PRAGMA foreign_keys changes mid
// transaction), an EXCLUSIVE lock to serialize concurrent openers, and a
// row-count snapshot compared before/after as a crude invariant check.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("store: disabling foreign keys for migrations: %w", err)
	}
	defer func() { _, _ = db.Exec("PRAGMA foreign_keys = ON") }()

	if _, err := db.Exec("BEGIN EXCLUSIVE"); err != nil {
		return fmt.Errorf("store: acquiring exclusive lock for migrations: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = db.Exec("ROLLBACK")
		}
	}()

	before, err := countRows(db, "memories")
	if err != nil {
		return fmt.Errorf("store: pre-migration snapshot: %w", err)
	}

	for _, m := range migrationsList {
		if err := m.Func(db); err != nil {
			return fmt.Errorf("store: migration %s failed: %w", m.Name, err)
		}
	}

	after, err := countRows(db, "memories")
	if err != nil {
		return fmt.Errorf("store: post-migration snapshot: %w", err)
	}
	if after < before {
		return fmt.Errorf("store: migrations lost rows from memories (%d -> %d)", before, after)
	}

	if _, err := db.Exec("COMMIT"); err != nil {
		return fmt.Errorf("store: committing migrations: %w", err)
	}
	committed = true
	return nil
}

func countRows(db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}
