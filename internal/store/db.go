// Package store implements the memory engine's persistence layer (C1):
// schema, migrations, and the write/read/update/append/bump/delete CRUD
// surface over a single SQLite file per agent.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/types"
)

// currentSchemaVersion is bumped whenever a new migration is appended.
const currentSchemaVersion = 3

// Store is one agent's memory database: a single SQLite file opened with
// WAL journaling so readers never block the writer (§5).
type Store struct {
	db     *sql.DB
	path   string
	cfg    *config.Config
	mu     sync.Mutex // serializes writers; WAL lets readers proceed concurrently
	Cache  *sessioncache.Cache
	caches map[string]*sessioncache.Cache
}

// Open opens (creating if absent) the SQLite file at path, runs pending
// migrations, and verifies integrity. A corrupted file is never silently
// served: Open copies it aside to a "<path>.corrupt-backup" sidecar, then returns a
// Corrupted error so the caller can decide whether to start fresh or
// investigate the backup, mirroring bd's repair workflow of backing up
// before any destructive recovery step.
func Open(ctx context.Context, path string, cfg *config.Config) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setting busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enabling foreign keys: %w", err)
	}

	if err := checkIntegrity(ctx, db); err != nil {
		db.Close()
		backupPath, backupErr := backupCorrupt(path)
		if backupErr != nil {
			return nil, types.Corrupted(fmt.Errorf("backing up %s before failing: %w (original: %v)", path, backupErr, err))
		}
		return nil, types.Corrupted(fmt.Errorf("%s failed integrity check, backed up to %s: %w", path, backupPath, err))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM schema_version)`, currentSchemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: seeding schema_version: %w", err)
	}

	return &Store{
		db:     db,
		path:   path,
		cfg:    cfg,
		Cache:  sessioncache.New(),
		caches: map[string]*sessioncache.Cache{},
	}, nil
}

// checkIntegrity runs SQLite's own integrity_check pragma. There is no
// third-party library surface for this: it is a property of the SQLite
// file format itself, so the only implementation is a query through the
// driver already wired in.
func checkIntegrity(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("running integrity_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity_check reported: %s", result)
	}
	return nil
}

// backupCorrupt copies a failing database file aside before any recovery
// attempt touches it, the same backupPath-before-destructive-operation
// pattern bd's repair command follows.
func backupCorrupt(path string) (string, error) {
	backupPath := path + ".corrupt-backup"
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return backupPath, nil
}

// Path returns the underlying database file path.
func (s *Store) Path() string {
	return s.path
}

// CacheFor returns the session cache scoped to connID, creating one on
// first use. The adapter passes its own connection identity so that two
// concurrent MCP connections never share suppression state (§5, §9).
func (s *Store) CacheFor(connID string) *sessioncache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[connID]
	if !ok {
		c = sessioncache.New()
		s.caches[connID] = c
	}
	return c
}

// Close implements close() (§4.1): checkpoints the write-ahead log so the
// main database file is complete on disk, then closes the handle.
func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.db.Close()
		return fmt.Errorf("store: checkpointing WAL on close: %w", err)
	}
	return s.db.Close()
}
