package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/hmem/internal/idgen"
	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/types"
)

// UpdateNodeOpts carries update_node()'s optional arguments (§4.1). A nil
// pointer means "leave unchanged"; Go's zero value can't distinguish
// "false" from "not provided" for booleans, so every flag is a *bool.
type UpdateNodeOpts struct {
	Content       *string
	Links         []string
	Obsolete      *bool
	Favorite      *bool
	Irrelevant    *bool
	Pinned        *bool
	Active        *bool
	Secret        *bool
	CuratorBypass bool
}

// UpdateNode implements update_node() (§4.1): works on both roots and
// compound IDs, applying the obsolete-transfer side effects from §3 when
// a root transitions to obsolete with a resolvable [✓ID] marker.
func (s *Store) UpdateNode(ctx context.Context, id string, opts UpdateNodeOpts) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idgen.IsCompound(id) {
		return s.updateNodeRow(ctx, id, opts)
	}
	return s.updateRootRow(ctx, id, opts)
}

func (s *Store) updateNodeRow(ctx context.Context, id string, opts UpdateNodeOpts) (bool, error) {
	sets := []string{}
	args := []any{}
	if opts.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *opts.Content)
	}
	if opts.Links != nil {
		sets = append(sets, "links = ?")
		args = append(args, encodeList(opts.Links))
	}
	appendBoolSet(&sets, &args, "obsolete", opts.Obsolete)
	appendBoolSet(&sets, &args, "favorite", opts.Favorite)
	appendBoolSet(&sets, &args, "secret", opts.Secret)
	if len(sets) == 0 {
		return true, nil
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE memory_nodes SET %s WHERE id = ?`, join(sets)), args...)
	if err != nil {
		return false, fmt.Errorf("store: updating node %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, types.NotFound(id)
	}
	return true, nil
}

func (s *Store) updateRootRow(ctx context.Context, id string, opts UpdateNodeOpts) (bool, error) {
	var currentContent string
	var currentObsolete bool
	if err := s.db.QueryRowContext(ctx, `SELECT level_1, obsolete FROM memories WHERE id = ?`, id).Scan(&currentContent, &currentObsolete); err != nil {
		return false, types.NotFound(id)
	}

	becomingObsolete := opts.Obsolete != nil && *opts.Obsolete && !currentObsolete
	content := currentContent
	if opts.Content != nil {
		content = *opts.Content
	}

	var correctionID string
	if becomingObsolete && !opts.CuratorBypass {
		correctionID = obsolete.Follow(id, content, s.resolveLookup(ctx))
		if correctionID == id {
			return false, types.MissingCorrectionRef(id)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	sets := []string{}
	args := []any{}
	if opts.Content != nil {
		sets = append(sets, "level_1 = ?")
		args = append(args, *opts.Content)
	}
	if opts.Links != nil {
		sets = append(sets, "links = ?")
		args = append(args, encodeList(opts.Links))
	}
	appendBoolSet(&sets, &args, "obsolete", opts.Obsolete)
	appendBoolSet(&sets, &args, "favorite", opts.Favorite)
	appendBoolSet(&sets, &args, "irrelevant", opts.Irrelevant)
	appendBoolSet(&sets, &args, "pinned", opts.Pinned)
	appendBoolSet(&sets, &args, "active", opts.Active)
	appendBoolSet(&sets, &args, "secret", opts.Secret)

	if len(sets) > 0 {
		args2 := append(append([]any{}, args...), id)
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE memories SET %s WHERE id = ?`, join(sets)), args2...); err != nil {
			return false, fmt.Errorf("store: updating root %s: %w", id, err)
		}
	}

	if correctionID != "" {
		if err := transferObsoleteAccess(ctx, tx, id, correctionID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: committing update: %w", err)
	}
	return true, nil
}

// transferObsoleteAccess implements §3's atomic obsolete-transfer side
// effects: zero the old entry's access_count, add it to the correction
// entry's, and link the pair bidirectionally.
func transferObsoleteAccess(ctx context.Context, tx *sql.Tx, oldID, newID string) error {
	var oldCount int
	var oldLinks, newLinks string
	if err := tx.QueryRowContext(ctx, `SELECT access_count, links FROM memories WHERE id = ?`, oldID).Scan(&oldCount, &oldLinks); err != nil {
		return fmt.Errorf("store: reading %s for obsolete transfer: %w", oldID, err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT links FROM memories WHERE id = ?`, newID).Scan(&newLinks); err != nil {
		return fmt.Errorf("store: reading %s for obsolete transfer: %w", newID, err)
	}

	oldLinkList := addUnique(decodeList(oldLinks), newID)
	newLinkList := addUnique(decodeList(newLinks), oldID)

	if _, err := tx.ExecContext(ctx, `UPDATE memories SET access_count = 0, links = ? WHERE id = ?`, encodeList(oldLinkList), oldID); err != nil {
		return fmt.Errorf("store: zeroing access_count on %s: %w", oldID, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE memories SET access_count = access_count + ?, links = ? WHERE id = ?`, oldCount, encodeList(newLinkList), newID); err != nil {
		return fmt.Errorf("store: transferring access_count to %s: %w", newID, err)
	}
	return nil
}

func addUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

func appendBoolSet(sets *[]string, args *[]any, col string, v *bool) {
	if v == nil {
		return
	}
	*sets = append(*sets, col+" = ?")
	*args = append(*args, *v)
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Bump implements bump() (§4.1): increments access_count and sets
// last_accessed, on roots and compound IDs alike.
func (s *Store) Bump(ctx context.Context, id string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	table := "memories"
	if idgen.IsCompound(id) {
		table = "memory_nodes"
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET access_count = access_count + ?, last_accessed = ? WHERE id = ?`, table), delta, now, id)
	if err != nil {
		return false, fmt.Errorf("store: bumping %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, types.NotFound(id)
	}
	return true, nil
}

// Delete implements delete() (§4.1): removes a root and cascades to its
// nodes via the ON DELETE CASCADE foreign key. Compound IDs cannot be
// deleted directly.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idgen.IsCompound(id) {
		return false, types.InvalidID(id, "compound node IDs cannot be deleted directly; replace the parent's children instead")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("store: deleting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, types.NotFound(id)
	}
	return true, nil
}

// UpdateFields implements update() (§4.1): the curator-only setter used by
// administration tooling, bypassing all ordinary write gating.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(fields) == 0 {
		return true, nil
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for col, v := range fields {
		if !allowedCuratorColumn(col) {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return true, nil
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE memories SET %s WHERE id = ?`, join(sets)), args...)
	if err != nil {
		return false, fmt.Errorf("store: curator update of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func allowedCuratorColumn(col string) bool {
	switch col {
	case "title", "level_1", "links", "min_role", "access_count", "obsolete",
		"favorite", "pinned", "irrelevant", "active", "secret", "tags":
		return true
	default:
		return false
	}
}
