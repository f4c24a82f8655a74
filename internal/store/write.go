package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/idgen"
	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/rolefilter"
	"github.com/untoldecay/hmem/internal/tree"
	"github.com/untoldecay/hmem/internal/types"
)

// WriteOpts bundles write()'s optional arguments (§4.1).
type WriteOpts struct {
	Links    []string
	MinRole  types.Role
	Favorite bool
	Pinned   bool
	Active   bool
	Secret   bool
	Tags     []string
}

// WriteResult is write()'s return value.
type WriteResult struct {
	ID        string
	Timestamp time.Time
}

var tagRe = regexp.MustCompile(`^#[a-z0-9_-]+$`)

// normalizeTags folds tags to lowercase ASCII and drops anything that
// doesn't start with # after folding, per the tag-normalisation Open
// Question decision recorded in DESIGN.md.
func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			continue
		}
		if !tagRe.MatchString(t) {
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == 10 {
			break
		}
	}
	return out
}

// Write implements write() (§4.1): allocates the next seq under prefix,
// parses content via the tree parser, and inserts the root and every
// descendant node in one transaction.
func (s *Store) Write(ctx context.Context, prefix, content string, caller types.Role, opts WriteOpts) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !isValidPrefix(prefix, s.cfg) {
		return WriteResult{}, types.InvalidPrefix(prefix)
	}
	if strings.TrimSpace(content) == "" {
		return WriteResult{}, types.NewError(types.KindContentEmpty, "", "content must not be empty", nil)
	}
	minRole := opts.MinRole
	if minRole == "" {
		minRole = types.WriteRole
	}
	if !rolefilter.Allows(caller, types.WriteRole) {
		return WriteResult{}, types.RoleDenied("", caller, types.WriteRole)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("store: beginning write transaction: %w", err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM memories WHERE prefix = ? AND seq > 0`, prefix).Scan(&maxSeq); err != nil {
		return WriteResult{}, fmt.Errorf("store: allocating seq: %w", err)
	}
	seq := 1
	if maxSeq.Valid {
		seq = int(maxSeq.Int64) + 1
	}
	id := idgen.RootID(prefix, seq)

	parsed := tree.Parse(content, s.cfg.MaxTitleChars)
	now := time.Now()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memories (id, prefix, seq, created_at, title, level_1, links, min_role, active, favorite, pinned, secret, tags, effective_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, prefix, seq, now, parsed.Title, parsed.Level1, encodeList(opts.Links), string(minRole),
		opts.Active, opts.Favorite, opts.Pinned, opts.Secret, encodeList(normalizeTags(opts.Tags)), now,
	); err != nil {
		return WriteResult{}, fmt.Errorf("store: inserting root %s: %w", id, err)
	}

	nodes := tree.BuildNodes(id, parsed.Lines, s.cfg.MaxDepth, nil)
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memory_nodes (id, parent_id, root_id, depth, seq, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.ParentID, id, n.Depth, n.Seq, n.Content, now,
		); err != nil {
			return WriteResult{}, fmt.Errorf("store: inserting node %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("store: committing write: %w", err)
	}
	return WriteResult{ID: id, Timestamp: now}, nil
}

func boolOr(v, fallback bool) bool {
	return v || fallback
}

func isValidPrefix(prefix string, cfg *config.Config) bool {
	if len(prefix) != 1 || prefix[0] < 'A' || prefix[0] > 'Z' {
		return false
	}
	if cfg == nil || len(cfg.Prefixes) == 0 {
		return true
	}
	_, ok := cfg.Prefixes[prefix]
	return ok
}

// AppendResult is append_children()'s return value.
type AppendResult struct {
	Count int
	IDs   []string
}

// AppendChildren implements append_children() (§4.1, §4.2 rule 4): parses
// content relative to parentID's depth, continuing sibling numbering after
// parentID's existing children, then bumps parentID (if compound) and its
// root by 1 each — the "bubble-up".
func (s *Store) AppendChildren(ctx context.Context, parentID, content string) (AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(content) == "" {
		return AppendResult{}, types.NewError(types.KindContentEmpty, parentID, "content must not be empty", nil)
	}

	rootID := idgen.RootOf(parentID)
	parentDepth := idgen.Depth(parentID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AppendResult{}, fmt.Errorf("store: beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	var lastSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM memory_nodes WHERE parent_id = ?`, parentID).Scan(&lastSeq); err != nil {
		return AppendResult{}, fmt.Errorf("store: reading existing children of %s: %w", parentID, err)
	}
	startSeq := 0
	if lastSeq.Valid {
		startSeq = int(lastSeq.Int64)
	}

	// Every appended line sits below parentID, so shift each line by one
	// indent unit (the content's own) before parsing; unshifted, tree.Parse
	// would take the unindented lines as a title and body, not children.
	unit := "\t"
	for _, l := range strings.Split(content, "\n") {
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if lead == "" || strings.TrimSpace(l) == "" {
			continue
		}
		if !strings.Contains(lead, "\t") {
			unit = "  "
			if len(lead) >= 4 && len(lead)%4 == 0 {
				unit = "    "
			}
		}
		break
	}
	parsed := tree.Parse(unit+strings.ReplaceAll(content, "\n", "\n"+unit), s.cfg.MaxTitleChars)
	now := time.Now()
	nodes := tree.BuildNodes(parentID, parsed.Lines, s.cfg.MaxDepth-parentDepth+1, map[string]int{parentID: startSeq})

	var ids []string
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memory_nodes (id, parent_id, root_id, depth, seq, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.ParentID, rootID, parentDepth+n.Depth-1, n.Seq, n.Content, now,
		); err != nil {
			return AppendResult{}, fmt.Errorf("store: inserting appended node %s: %w", n.ID, err)
		}
		ids = append(ids, n.ID)
	}

	if idgen.IsCompound(parentID) {
		if _, err := tx.ExecContext(ctx, `UPDATE memory_nodes SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`, now, parentID); err != nil {
			return AppendResult{}, fmt.Errorf("store: bubbling up to parent node %s: %w", parentID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`, now, rootID); err != nil {
		return AppendResult{}, fmt.Errorf("store: bubbling up to root %s: %w", rootID, err)
	}

	if err := tx.Commit(); err != nil {
		return AppendResult{}, fmt.Errorf("store: committing append: %w", err)
	}
	return AppendResult{Count: len(ids), IDs: ids}, nil
}

// resolveLookup adapts a content/obsolete probe on the store's own
// connection pool (not on any open transaction) into an obsolete.Lookup,
// used by update_node's MissingCorrectionRef check.
func (s *Store) resolveLookup(ctx context.Context) obsolete.Lookup {
	return func(id string) (string, bool, bool) {
		var content string
		var isObsolete bool
		err := s.db.QueryRowContext(ctx, `SELECT level_1, obsolete FROM memories WHERE id = ?`, id).Scan(&content, &isObsolete)
		if err != nil {
			return "", false, false
		}
		return content, isObsolete, true
	}
}
