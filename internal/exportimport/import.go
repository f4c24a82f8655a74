package exportimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/untoldecay/hmem/internal/store"
)

// Result is import_memory's return value: how many roots were freshly
// allocated vs merged into an existing root, and the remap report for
// anything that collided on prefix with a non-matching level_1 (§4.8,
// "ImportRemapped").
type Result struct {
	Imported int
	Merged   int
	Remapped []string // "SRCID → DESTID" lines
}

// ImportNative reads every non-secret root (and non-secret descendant)
// from src and folds it into dest: an existing root with the same prefix
// and a case/whitespace-insensitive-identical level_1 absorbs the
// incoming tree as new children; anything else gets a freshly allocated
// (prefix, seq) and a remap-report line.
func ImportNative(ctx context.Context, dest, src *store.Store) (*Result, error) {
	roots, err := src.AllRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("exportimport: loading source roots: %w", err)
	}

	res := &Result{}
	for _, root := range roots {
		if root.Secret {
			continue
		}

		normalized := normalizeForMergeSafe(root.Level1)
		existing, err := dest.FindByLevel1(ctx, root.Prefix, normalized)
		if err != nil {
			return nil, fmt.Errorf("exportimport: checking merge target for %s: %w", root.ID, err)
		}

		if existing != nil {
			res.Merged++
			if err := attachDescendants(ctx, dest, src, root.ID, existing.ID, existing.ID); err != nil {
				return nil, err
			}
			continue
		}

		newID, err := dest.InsertImportedRoot(ctx, root.Prefix, root)
		if err != nil {
			return nil, fmt.Errorf("exportimport: inserting root %s: %w", root.ID, err)
		}
		res.Imported++
		if newID != root.ID {
			res.Remapped = append(res.Remapped, root.ID+" → "+newID)
		}
		if err := attachDescendants(ctx, dest, src, root.ID, newID, newID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// attachDescendants recursively copies srcParentID's direct children
// (skipping secret nodes) under destParentID in dest, re-keying each
// compound ID to the destination's own sibling sequence.
func attachDescendants(ctx context.Context, dest, src *store.Store, srcParentID, destParentID, destRootID string) error {
	children, err := src.FetchDirectChildren(ctx, srcParentID)
	if err != nil {
		return fmt.Errorf("exportimport: loading source children of %s: %w", srcParentID, err)
	}

	for _, n := range children {
		if n.Secret {
			continue
		}
		newID, err := dest.InsertImportedNode(ctx, destParentID, destRootID, n)
		if err != nil {
			return fmt.Errorf("exportimport: inserting node %s: %w", n.ID, err)
		}
		if err := attachDescendants(ctx, dest, src, n.ID, newID, destRootID); err != nil {
			return err
		}
	}
	return nil
}

// normalizeForMergeSafe mirrors store's own unexported normalizeForMerge —
// duplicated here rather than exported solely for this one cross-package
// caller.
func normalizeForMergeSafe(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
