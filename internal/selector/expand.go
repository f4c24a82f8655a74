package selector

import (
	"context"
	"fmt"

	"github.com/untoldecay/hmem/internal/idgen"
	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

const pinnedExpansionDepth = 2

func categoryReason(cat slotCategory) types.PromotedReason {
	switch cat {
	case catFavorite:
		return types.PromotedFavorite
	case catPinned:
		return types.PromotedPinned
	case catAccess:
		return types.PromotedAccess
	default:
		return types.PromotedNone
	}
}

// expand builds the EntryView for e: full children (all descendant titles
// at depth 2 for a pinned entry, direct children otherwise) plus resolved
// links when slotted, or a single-child hint when not (§4.5 rules 6-7).
func expand(ctx context.Context, s *store.Store, e *types.Entry, cat slotCategory, slotted bool) (*types.EntryView, error) {
	view := &types.EntryView{Entry: e, Promoted: categoryReason(cat), Expanded: slotted}

	if e.Obsolete {
		res, err := obsolete.Resolve(e.ID, s.ObsoleteLookup(ctx), false)
		if err != nil {
			return nil, fmt.Errorf("selector: resolving obsolete chain for %s: %w", e.ID, err)
		}
		if len(res.Chain) > 1 {
			view.ObsoleteChain = res.Chain
		}
		view.CycleDetected = res.CycleFound
	}

	if !slotted {
		hint, err := childHint(ctx, s, e.ID)
		if err != nil {
			return nil, err
		}
		view.ChildHint = hint
		return view, nil
	}

	if e.Pinned {
		children, err := s.FetchDescendantsAtDepth(ctx, e.ID, pinnedExpansionDepth)
		if err != nil {
			return nil, fmt.Errorf("selector: fetching pinned descendants of %s: %w", e.ID, err)
		}
		view.Children = children
	} else {
		children, err := s.FetchDirectChildren(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("selector: fetching children of %s: %w", e.ID, err)
		}
		view.Children = children
	}

	links, err := resolveLinks(ctx, s, e.Links)
	if err != nil {
		return nil, err
	}
	view.Links = links

	return view, nil
}

// childHint loads the single most recent direct child of id, plus a count
// of how many older siblings are hidden, for a non-expanded entry (§4.5
// rule 6).
func childHint(ctx context.Context, s *store.Store, id string) (*types.ChildHint, error) {
	children, err := s.FetchDirectChildren(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("selector: fetching children of %s: %w", id, err)
	}
	if len(children) == 0 {
		return nil, nil
	}
	latest := children[len(children)-1]
	return &types.ChildHint{Latest: latest, HiddenCount: len(children) - 1}, nil
}

// resolveLinks follows each outbound link to its current (non-obsolete)
// target, recording the correction chain and how much history was elided.
func resolveLinks(ctx context.Context, s *store.Store, links []string) ([]types.LinkedEntry, error) {
	lookup := s.ObsoleteLookup(ctx)
	out := make([]types.LinkedEntry, 0, len(links))

	for _, id := range links {
		le, err := resolveOneLink(ctx, s, id, lookup)
		if err != nil {
			return nil, err
		}
		if le != nil {
			out = append(out, *le)
		}
	}
	return out, nil
}

func resolveOneLink(ctx context.Context, s *store.Store, id string, lookup obsolete.Lookup) (*types.LinkedEntry, error) {
	res, err := obsolete.Resolve(id, lookup, false)
	if err != nil {
		return nil, fmt.Errorf("selector: resolving link %s: %w", id, err)
	}
	resolvedID := res.Resolved

	if idgen.IsCompound(resolvedID) {
		n, err := s.FetchNode(ctx, resolvedID)
		if err != nil {
			return nil, nil // link target deleted since it was recorded; skip rather than fail the read
		}
		return &types.LinkedEntry{Node: n, ObsoleteChain: chainOrNil(res), HiddenObsolete: hiddenCount(res)}, nil
	}

	e, err := s.FetchEntry(ctx, resolvedID)
	if err != nil {
		return nil, nil
	}
	if e.Irrelevant {
		return nil, nil
	}
	return &types.LinkedEntry{Entry: e, ObsoleteChain: chainOrNil(res), HiddenObsolete: hiddenCount(res)}, nil
}

func chainOrNil(res obsolete.Result) []string {
	if len(res.Chain) <= 1 {
		return nil
	}
	return res.Chain
}

func hiddenCount(res obsolete.Result) int {
	if len(res.Chain) <= 1 {
		return 0
	}
	return len(res.Chain) - 1
}
