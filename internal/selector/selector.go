// Package selector implements the bulk-read V2 pipeline (C5, §4.5): the
// grouping, scoring, slot-allocation, and expansion rules that turn a
// store's full candidate set into a single bounded "snapshot" an agent can
// read in one round.
package selector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/untoldecay/hmem/internal/scorer"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

// Opts bundles bulk-read's optional arguments beyond role and session
// cache, which the caller threads through explicitly.
type Opts struct {
	Prefixes    []string // restrict to these prefixes; nil means all configured prefixes
	Since       *time.Time
	Until       *time.Time
	ShowObsolete bool
}

// BulkRead runs the full V2 pipeline against s for caller, using cache to
// suppress recently-delivered IDs and to pick discover vs essentials mode.
// It records the delivered/promoted ID sets into cache before returning.
func BulkRead(ctx context.Context, s *store.Store, caller types.Role, cache *sessioncache.Cache, opts Opts) (*types.BulkReadResult, error) {
	cfg := s.Config()
	now := time.Now()

	candidates, err := s.ListCandidates(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("selector: listing candidates: %w", err)
	}
	candidates = filterByPrefixAndTime(candidates, opts)

	byPrefix := groupByPrefix(candidates)
	prefixes := orderedPrefixKeys(byPrefix)

	mode := types.ModeDiscover
	if cache.Generation() > 0 {
		mode = types.ModeEssentials
	}
	gen := cache.Generation()

	result := &types.BulkReadResult{Mode: mode}

	var delivered, promoted []string

	for _, prefix := range prefixes {
		entries := byPrefix[prefix]
		active, nonActive := partitionActive(entries)
		eligible := active
		if len(active) == 0 {
			// No entry in this prefix opts into active-only expansion: every
			// entry in the prefix is eligible (§4.5 rule 1).
			eligible = nonActive
		}

		slots := allocateSlots(eligible, mode, cfg, now)
		suppressAndBackfill(slots, eligible, cache, gen)

		group := &types.PrefixGroup{Prefix: prefix, HeaderTitle: s.HeaderTitle(ctx, prefix)}

		expandedIDs := map[string]bool{}
		for _, cat := range []slotCategory{catFavorite, catPinned, catAccess, catNewest} {
			for _, e := range slots.byCategory[cat] {
				if expandedIDs[e.ID] {
					continue
				}
				expandedIDs[e.ID] = true
				view, err := expand(ctx, s, e, cat, true)
				if err != nil {
					return nil, err
				}
				group.Entries = append(group.Entries, view)
				delivered = append(delivered, e.ID)
				if cat != catNewest {
					// Favorite, pinned, and access-slot entries bypass
					// suppression on the next generation; a newest-slot
					// entry ages out normally once it isn't new anymore.
					promoted = append(promoted, e.ID)
				}
			}
		}

		for _, e := range eligible {
			if expandedIDs[e.ID] {
				continue
			}
			view, err := expand(ctx, s, e, catNone, false)
			if err != nil {
				return nil, err
			}
			group.Entries = append(group.Entries, view)
		}
		for _, e := range nonActive {
			if len(active) == 0 || expandedIDs[e.ID] {
				continue
			}
			// Compact title only: still present so the prefix's inactive
			// history isn't invisible, just never expanded (§4.5 rule 1).
			group.Entries = append(group.Entries, &types.EntryView{Entry: e})
		}

		tail, hidden := obsoleteTail(entries, cfg.BulkReadV2.TopObsoleteCount, now, opts.ShowObsolete)
		for _, e := range tail {
			view, err := expand(ctx, s, e, catNone, false)
			if err != nil {
				return nil, err
			}
			group.ObsoleteTail = append(group.ObsoleteTail, view)
		}
		group.ObsoleteHidden = hidden

		result.Groups = append(result.Groups, group)
	}

	hotNodes, err := computeHotNodes(ctx, s, now)
	if err != nil {
		return nil, err
	}
	result.HotNodes = hotNodes

	cache.RecordGeneration(delivered, promoted)
	return result, nil
}

func filterByPrefixAndTime(entries []*types.Entry, opts Opts) []*types.Entry {
	var allow map[string]bool
	if len(opts.Prefixes) > 0 {
		allow = map[string]bool{}
		for _, p := range opts.Prefixes {
			allow[p] = true
		}
	}
	var out []*types.Entry
	for _, e := range entries {
		if allow != nil && !allow[e.Prefix] {
			continue
		}
		if opts.Since != nil && e.EffectiveDate.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.EffectiveDate.After(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func groupByPrefix(entries []*types.Entry) map[string][]*types.Entry {
	out := map[string][]*types.Entry{}
	for _, e := range entries {
		out[e.Prefix] = append(out[e.Prefix], e)
	}
	return out
}

// orderedPrefixKeys returns prefixes in a stable order. The config's
// prefix table is a map with no retained declaration order, so we sort
// alphabetically rather than depend on Go's randomized map iteration —
// a decision recorded in DESIGN.md.
func orderedPrefixKeys(byPrefix map[string][]*types.Entry) []string {
	out := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// partitionActive splits a prefix's entries into active and non-active.
func partitionActive(entries []*types.Entry) (active, nonActive []*types.Entry) {
	for _, e := range entries {
		if e.Active {
			active = append(active, e)
		} else {
			nonActive = append(nonActive, e)
		}
	}
	return active, nonActive
}

// obsoleteTail implements §4.5 rule 5, with the Open Question decision
// that an active && obsolete entry is filtered out of the tail rather
// than double-counted (it's still being shown in its normal expansion
// slot).
func obsoleteTail(entries []*types.Entry, topN int, now time.Time, showAll bool) ([]*types.Entry, int) {
	var obs []*types.Entry
	for _, e := range entries {
		if !e.Obsolete || e.Active {
			continue
		}
		obs = append(obs, e)
	}
	sort.Slice(obs, func(i, j int) bool {
		return scorer.Score(obs[i].AccessCount, obs[i].CreatedAt, now) > scorer.Score(obs[j].AccessCount, obs[j].CreatedAt, now)
	})
	if showAll || len(obs) <= topN {
		return obs, 0
	}
	return obs[:topN], len(obs) - topN
}
