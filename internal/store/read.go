package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/untoldecay/hmem/internal/idgen"
	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/rolefilter"
	"github.com/untoldecay/hmem/internal/types"
)

// ReadOpts bundles read()'s arguments (§4.1). Bulk mode (ID, Query, and
// Around all empty) is handled by selector.BulkRead, not here; the
// three-way ID/search/bulk dispatch lives in cmd/hmem's read_memory handler.
type ReadOpts struct {
	ID               string
	FollowObsolete   bool // default true; callers should set it explicitly
	ShowObsoletePath bool
	Query            string
	Around           string // natural-language time expression, e.g. "last tuesday"
	LinkDepth        int    // default 1
}

// timeParser is shared across calls; when.New with the English rule set is
// the same construction the teacher uses wherever it resolves natural
// fuzzy dates for due/defer fields.
var timeParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Read implements read()'s ID-mode and search-mode dispatch (§4.1). Bulk
// mode is out of scope here: call selector.BulkRead instead when opts has
// no ID, Query, or Around set.
func (s *Store) Read(ctx context.Context, opts ReadOpts, caller types.Role) ([]*types.EntryView, error) {
	if opts.ID != "" {
		v, err := s.readByID(ctx, opts, caller)
		if err != nil {
			return nil, err
		}
		return []*types.EntryView{v}, nil
	}
	if opts.Query != "" {
		return s.searchByText(ctx, opts.Query, caller)
	}
	if opts.Around != "" {
		return s.searchByTime(ctx, opts.Around, caller)
	}
	return nil, fmt.Errorf("store: Read called with no id, query, or around; use selector.BulkRead for bulk mode")
}

func (s *Store) readByID(ctx context.Context, opts ReadOpts, caller types.Role) (*types.EntryView, error) {
	if idgen.IsCompound(opts.ID) {
		return s.readNodeByID(ctx, opts.ID, caller)
	}
	return s.readEntryByID(ctx, opts, caller)
}

func (s *Store) readEntryByID(ctx context.Context, opts ReadOpts, caller types.Role) (*types.EntryView, error) {
	entry, err := s.fetchEntry(ctx, opts.ID)
	if err != nil {
		return nil, err
	}
	if !rolefilter.Allows(caller, entry.MinRole) {
		return nil, types.RoleDenied(opts.ID, caller, entry.MinRole)
	}

	view := &types.EntryView{Entry: entry}

	followObsolete := opts.FollowObsolete
	if entry.Obsolete && followObsolete {
		res, err := obsolete.Resolve(entry.ID, s.resolveObsoleteLookup(ctx), false)
		if err != nil {
			return nil, err
		}
		view.ObsoleteChain = res.Chain
		view.CycleDetected = res.CycleFound
		if res.Resolved != entry.ID {
			resolved, err := s.fetchEntry(ctx, res.Resolved)
			if err != nil {
				return nil, err
			}
			view.Entry = resolved
		}
		if opts.ShowObsoletePath {
			path, err := s.fetchObsoletePath(ctx, res.Chain)
			if err != nil {
				return nil, err
			}
			view.ObsoletePath = path
		}
	}

	if err := s.bumpWithBubbleUp(ctx, view.Entry.ID, ""); err != nil {
		return nil, err
	}
	view.Entry.AccessCount++

	children, err := s.fetchDirectChildren(ctx, view.Entry.ID)
	if err != nil {
		return nil, err
	}
	view.Children = children
	view.Expanded = true
	return view, nil
}

// fetchObsoletePath hydrates every ID in an obsolete.Resolve chain into a
// full Entry, for show_obsolete_path = true (§4.1's "additionally returns
// intermediate entries").
func (s *Store) fetchObsoletePath(ctx context.Context, chain []string) ([]*types.Entry, error) {
	path := make([]*types.Entry, 0, len(chain))
	for _, id := range chain {
		e, err := s.fetchEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		path = append(path, e)
	}
	return path, nil
}

func (s *Store) readNodeByID(ctx context.Context, id string, caller types.Role) (*types.EntryView, error) {
	node, err := s.fetchNode(ctx, id)
	if err != nil {
		return nil, err
	}
	root, err := s.fetchEntry(ctx, node.RootID)
	if err != nil {
		return nil, err
	}
	if !rolefilter.Allows(caller, root.MinRole) {
		return nil, types.RoleDenied(id, caller, root.MinRole)
	}

	view := &types.EntryView{IsNode: true, Node: node}
	if node.Obsolete {
		res, err := obsolete.Resolve(node.ID, s.resolveObsoleteLookup(ctx), false)
		if err == nil {
			view.ObsoleteChain = res.Chain
			view.CycleDetected = res.CycleFound
		}
	}

	if err := s.bumpWithBubbleUp(ctx, node.RootID, node.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// bumpWithBubbleUp bumps nodeID (or rootID if nodeID is empty) by 1, and
// the root by a half-weight bump of 1 as well, per §4.5's "ID-mode reads
// bump the target's access_count by 1 and propagate a half-weight bump to
// the root" (read as: root always gets +1, the direct target gets +1 — a
// node read bumps both, a root read bumps only itself once).
func (s *Store) bumpWithBubbleUp(ctx context.Context, rootID, nodeID string) error {
	now := time.Now()
	if nodeID != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE memory_nodes SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`, now, nodeID); err != nil {
			return fmt.Errorf("store: bumping node %s: %w", nodeID, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`, now, rootID); err != nil {
		return fmt.Errorf("store: bumping root %s: %w", rootID, err)
	}
	return nil
}

func (s *Store) resolveObsoleteLookup(ctx context.Context) obsolete.Lookup {
	return func(id string) (string, bool, bool) {
		if idgen.IsCompound(id) {
			n, err := s.fetchNode(ctx, id)
			if err != nil {
				return "", false, false
			}
			return n.Content, n.Obsolete, true
		}
		e, err := s.fetchEntry(ctx, id)
		if err != nil {
			return "", false, false
		}
		return e.Level1, e.Obsolete, true
	}
}

// searchByText implements the full-text branch of search mode: a simple
// case-insensitive substring match over title and level_1. Rich query
// languages are an explicit non-goal, so this deliberately stays a LIKE
// scan rather than growing a query grammar.
func (s *Store) searchByText(ctx context.Context, query string, caller types.Role) ([]*types.EntryView, error) {
	pred := rolefilter.Build(caller)
	like := "%" + strings.ToLower(query) + "%"
	sqlStr := fmt.Sprintf(`SELECT %s FROM memories WHERE seq > 0 AND irrelevant = 0 AND %s
		AND (LOWER(title) LIKE ? OR LOWER(level_1) LIKE ?) ORDER BY effective_date DESC LIMIT 50`, entryColumns, pred.SQL)
	args := append(append([]any{}, pred.Args...), like, like)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("store: searching by text: %w", err)
	}
	defer rows.Close()

	var out []*types.EntryView
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, &types.EntryView{Entry: e})
	}
	return out, rows.Err()
}

// searchByTime implements the time-around branch: parse a natural
// language expression and return entries whose effective_date falls
// within a day of the resolved instant.
func (s *Store) searchByTime(ctx context.Context, expr string, caller types.Role) ([]*types.EntryView, error) {
	result, err := timeParser.Parse(expr, time.Now())
	if err != nil || result == nil {
		return nil, types.NewError(types.KindInvalidID, "", fmt.Sprintf("could not parse time expression %q", expr), err)
	}

	pred := rolefilter.Build(caller)
	sqlStr := fmt.Sprintf(`SELECT %s FROM memories WHERE seq > 0 AND irrelevant = 0 AND %s
		AND effective_date BETWEEN ? AND ? ORDER BY effective_date DESC LIMIT 50`, entryColumns, pred.SQL)
	from := result.Time.Add(-24 * time.Hour)
	to := result.Time.Add(24 * time.Hour)
	args := append(append([]any{}, pred.Args...), from, to)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("store: searching by time: %w", err)
	}
	defer rows.Close()

	var out []*types.EntryView
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, &types.EntryView{Entry: e})
	}
	return out, rows.Err()
}
