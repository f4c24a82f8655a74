package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/untoldecay/hmem/internal/idgen"
	"github.com/untoldecay/hmem/internal/types"
)

// AllRoots returns every root entry, secret and irrelevant included, for
// export/import use — unlike ListCandidates this is not role-filtered or
// irrelevant-excluded, since export/import operate on the whole file.
func (s *Store) AllRoots(ctx context.Context) ([]*types.Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM memories WHERE seq > 0 ORDER BY prefix, seq`, entryColumns))
	if err != nil {
		return nil, fmt.Errorf("store: listing all roots: %w", err)
	}
	defer rows.Close()

	var out []*types.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindByLevel1 looks for an existing root in prefix whose level_1 matches
// text case- and whitespace-insensitively, the merge-detection rule import
// uses before allocating a fresh ID (§4.8).
func (s *Store) FindByLevel1(ctx context.Context, prefix, normalizedLevel1 string) (*types.Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM memories WHERE prefix = ? AND seq > 0`, entryColumns), prefix)
	if err != nil {
		return nil, fmt.Errorf("store: searching for merge target in %s: %w", prefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if normalizeForMerge(e.Level1) == normalizedLevel1 {
			return e, nil
		}
	}
	return nil, rows.Err()
}

// InsertImportedRoot allocates a fresh (prefix, seq) in this store and
// inserts src's fields verbatim (content is not reparsed — the source
// store already split title/level_1), returning the new root ID.
func (s *Store) InsertImportedRoot(ctx context.Context, prefix string, src *types.Entry) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: beginning import-root transaction: %w", err)
	}
	defer tx.Rollback()

	var maxSeq int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM memories WHERE prefix = ?`, prefix).Scan(&maxSeq); err != nil {
		return "", fmt.Errorf("store: allocating import seq: %w", err)
	}
	seq := maxSeq + 1
	id := idgen.RootID(prefix, seq)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (id, prefix, seq, created_at, title, level_1, links, min_role,
			access_count, last_accessed, obsolete, favorite, pinned, irrelevant, active, secret, tags, effective_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, id, prefix, seq, src.CreatedAt, src.Title, src.Level1, encodeList(src.Links), string(src.MinRole),
		src.AccessCount, toNullTime(src.LastAccessed), src.Obsolete, src.Favorite, src.Pinned, src.Irrelevant, src.Active,
		encodeList(src.Tags), src.EffectiveDate)
	if err != nil {
		return "", fmt.Errorf("store: inserting imported root: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: committing imported root: %w", err)
	}
	return id, nil
}

// InsertImportedNode re-keys src under destParentID (itself already a
// valid destination ID, root or node) by allocating the next sibling seq,
// and returns the new compound ID. Callers recurse over src's own children
// themselves, passing the returned ID as the next destParentID.
func (s *Store) InsertImportedNode(ctx context.Context, destParentID, destRootID string, src *types.Node) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: beginning import-node transaction: %w", err)
	}
	defer tx.Rollback()

	var maxSeq int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM memory_nodes WHERE parent_id = ?`, destParentID).Scan(&maxSeq); err != nil {
		return "", fmt.Errorf("store: allocating import node seq: %w", err)
	}
	seq := maxSeq + 1
	id := idgen.ChildID(destParentID, seq)
	depth := idgen.Depth(id)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memory_nodes (id, parent_id, root_id, depth, seq, title, content, created_at,
			access_count, last_accessed, links, obsolete, favorite, secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, id, destParentID, destRootID, depth, seq, src.Title, src.Content, src.CreatedAt,
		src.AccessCount, toNullTime(src.LastAccessed), encodeList(src.Links), src.Obsolete, src.Favorite)
	if err != nil {
		return "", fmt.Errorf("store: inserting imported node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: committing imported node: %w", err)
	}
	return id, nil
}

// normalizeForMerge implements the "identical level_1, case- and
// whitespace-insensitive" merge-detection rule (§4.8).
func normalizeForMerge(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
