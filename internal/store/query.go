package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/rolefilter"
	"github.com/untoldecay/hmem/internal/types"
)

func (s *Store) fetchEntry(ctx context.Context, id string) (*types.Entry, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM memories WHERE id = ?`, entryColumns), id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, types.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetching entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) fetchNode(ctx context.Context, id string) (*types.Node, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM memory_nodes WHERE id = ?`, nodeColumns), id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, types.NotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetching node %s: %w", id, err)
	}
	return n, nil
}

func (s *Store) fetchDirectChildren(ctx context.Context, parentID string) ([]*types.Node, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM memory_nodes WHERE parent_id = ? ORDER BY seq ASC`, nodeColumns), parentID)
	if err != nil {
		return nil, fmt.Errorf("store: fetching children of %s: %w", parentID, err)
	}
	defer rows.Close()

	var out []*types.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// FetchEntry, FetchNode, and FetchDirectChildren are the exported forms of
// the above, used by the selector package to assemble bulk-read result
// records without duplicating the scanning logic.
func (s *Store) FetchEntry(ctx context.Context, id string) (*types.Entry, error) {
	return s.fetchEntry(ctx, id)
}

func (s *Store) FetchNode(ctx context.Context, id string) (*types.Node, error) {
	return s.fetchNode(ctx, id)
}

func (s *Store) FetchDirectChildren(ctx context.Context, parentID string) ([]*types.Node, error) {
	return s.fetchDirectChildren(ctx, parentID)
}

// FetchDescendantsAtDepth returns every node whose root is rootID and whose
// depth equals depth, ordered by parent then seq — used for a pinned
// entry's "titles of all descendants at depth 2" expansion rule (§4.5
// rule 6).
func (s *Store) FetchDescendantsAtDepth(ctx context.Context, rootID string, depth int) ([]*types.Node, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM memory_nodes WHERE root_id = ? AND depth = ? ORDER BY parent_id, seq ASC`, nodeColumns), rootID, depth)
	if err != nil {
		return nil, fmt.Errorf("store: fetching descendants of %s at depth %d: %w", rootID, depth, err)
	}
	defer rows.Close()

	var out []*types.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListCandidates returns every root entry eligible for a bulk read:
// seq > 0, not irrelevant, gated by the caller's role (§4.5 rule 1).
func (s *Store) ListCandidates(ctx context.Context, caller types.Role) ([]*types.Entry, error) {
	pred := rolefilter.Build(caller)
	sqlStr := fmt.Sprintf(`SELECT %s FROM memories WHERE seq > 0 AND irrelevant = 0 AND %s`, entryColumns, pred.SQL)
	rows, err := s.db.QueryContext(ctx, sqlStr, pred.Args...)
	if err != nil {
		return nil, fmt.Errorf("store: listing candidates: %w", err)
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

// ListAllNodes returns every sub-node with a non-zero access count, for the hot-nodes
// top-10 computation (§4.5 rule 7). hmem's expected scale (a single
// agent's memory file) keeps this a full scan rather than needing a
// pre-aggregated rollup table.
func (s *Store) ListAllNodes(ctx context.Context) ([]*types.Node, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM memory_nodes WHERE access_count > 0`, nodeColumns))
	if err != nil {
		return nil, fmt.Errorf("store: listing nodes: %w", err)
	}
	defer rows.Close()

	var out []*types.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// HeaderTitle returns the group-title text for prefix's header entry
// (seq = 0), or the prefix letter itself if no header row exists yet.
func (s *Store) HeaderTitle(ctx context.Context, prefix string) string {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM memories WHERE id = ?`, prefix+"0000").Scan(&title)
	if err != nil || title == "" {
		return prefix
	}
	return title
}

// ObsoleteLookup exposes the obsolete-chain resolver's data dependency to
// other packages (the selector's obsolete-tail ranking, link resolution).
func (s *Store) ObsoleteLookup(ctx context.Context) obsolete.Lookup {
	return s.resolveObsoleteLookup(ctx)
}

// Config returns the store's configuration value.
func (s *Store) Config() *config.Config {
	return s.cfg
}
