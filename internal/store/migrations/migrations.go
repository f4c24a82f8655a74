// Package migrations holds hmem's numbered, idempotent schema migrations
// (§6), following the same one-function-per-migration shape as bd's
// internal/storage/sqlite/migrations package.
package migrations

import (
	"database/sql"
	"fmt"
)

// columnExists reports whether table has a column named col, the same
// PRAGMA table_info probe the teacher's migrations use before ALTER TABLE
// to stay idempotent.
func columnExists(db *sql.DB, table, col string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == col {
			return true, nil
		}
	}
	return false, rows.Err()
}

// tableExists reports whether a table by that name is present.
func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FlattenLegacyLevels migrates pre-hierarchical rows that stored their
// sub-tree as flat level_2..level_5 columns on the root into memory_nodes
// rows with compound IDs, the way the teacher's content_hash_column-style
// migrations move data out of deprecated columns rather than dropping it.
func FlattenLegacyLevels(db *sql.DB) error {
	hasTable, err := tableExists(db, "memories")
	if err != nil || !hasTable {
		return err
	}
	for i, col := range []string{"level_2", "level_3", "level_4", "level_5"} {
		has, err := columnExists(db, "memories", col)
		if err != nil {
			return fmt.Errorf("migrations: checking %s: %w", col, err)
		}
		if !has {
			continue
		}
		depth := i + 2
		rows, err := db.Query(fmt.Sprintf(`SELECT id, %s FROM memories WHERE %s IS NOT NULL AND %s != ''`, col, col, col))
		if err != nil {
			return fmt.Errorf("migrations: reading legacy %s: %w", col, err)
		}
		type legacyRow struct{ id, content string }
		var legacy []legacyRow
		for rows.Next() {
			var r legacyRow
			if err := rows.Scan(&r.id, &r.content); err != nil {
				rows.Close()
				return err
			}
			legacy = append(legacy, r)
		}
		rows.Close()

		for _, r := range legacy {
			nodeID := fmt.Sprintf("%s.%d", r.id, depth-1)
			if _, err := db.Exec(
				`INSERT OR IGNORE INTO memory_nodes (id, parent_id, root_id, depth, seq, content)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				nodeID, r.id, r.id, depth, depth-1, r.content,
			); err != nil {
				return fmt.Errorf("migrations: inserting flattened node %s: %w", nodeID, err)
			}
		}

		if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE memories DROP COLUMN %s`, col)); err != nil {
			return fmt.Errorf("migrations: dropping legacy %s: %w", col, err)
		}
	}
	return nil
}

// InsertPrefixHeaders inserts the synthetic seq=0 header entry for every
// prefix already in use by at least one root, for installs that predate
// the header-entry convention.
func InsertPrefixHeaders(db *sql.DB) error {
	rows, err := db.Query(`SELECT DISTINCT prefix FROM memories WHERE seq != 0`)
	if err != nil {
		return fmt.Errorf("migrations: listing prefixes: %w", err)
	}
	var prefixes []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return err
		}
		prefixes = append(prefixes, p)
	}
	rows.Close()

	for _, p := range prefixes {
		headerID := p + "0000"
		if _, err := db.Exec(
			`INSERT OR IGNORE INTO memories (id, prefix, seq, title, level_1, min_role)
			 VALUES (?, ?, 0, ?, '', 'worker')`,
			headerID, p, p,
		); err != nil {
			return fmt.Errorf("migrations: inserting header for prefix %s: %w", p, err)
		}
	}
	return nil
}

// ZeroObsoleteAccessCounts resets access_count to 0 on every pre-existing
// obsolete root, so upgrades converge to the same invariant enforced by
// the obsolete-transfer write path (§7) going forward.
func ZeroObsoleteAccessCounts(db *sql.DB) error {
	_, err := db.Exec(`UPDATE memories SET access_count = 0 WHERE obsolete = 1 AND access_count != 0`)
	if err != nil {
		return fmt.Errorf("migrations: zeroing obsolete access counts: %w", err)
	}
	return nil
}
