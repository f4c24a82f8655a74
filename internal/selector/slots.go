package selector

import (
	"sort"
	"time"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/scorer"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/types"
)

type slotCategory int

const (
	catNone slotCategory = iota
	catFavorite
	catPinned
	catAccess
	catNewest
)

type slotSet struct {
	byCategory map[slotCategory][]*types.Entry
}

// allocateSlots implements §4.5 rules 3-4: favorite and pinned entries
// always occupy a slot; the remaining newest/access budgets are drawn from
// everything else, shifted toward access once the connection has moved
// past its first (discover) bulk read.
func allocateSlots(entries []*types.Entry, mode types.BulkReadMode, cfg *config.Config, now time.Time) *slotSet {
	slots := &slotSet{byCategory: map[slotCategory][]*types.Entry{}}

	taken := map[string]bool{}
	for _, e := range entries {
		if e.Favorite {
			slots.byCategory[catFavorite] = append(slots.byCategory[catFavorite], e)
			taken[e.ID] = true
		}
	}
	for _, e := range entries {
		if e.Pinned && !taken[e.ID] {
			slots.byCategory[catPinned] = append(slots.byCategory[catPinned], e)
			taken[e.ID] = true
		}
	}

	newestBudget := cfg.BulkReadV2.TopNewestCount
	accessBudget := cfg.BulkReadV2.TopAccessCount
	if mode == types.ModeEssentials {
		// Shift two slots from newest to access: a connection past its
		// first read already knows what's new, so weight toward what's
		// actively being used (§4.5 rule 3).
		shift := 2
		if shift > newestBudget {
			shift = newestBudget
		}
		newestBudget -= shift
		accessBudget += shift
	}

	rest := make([]*types.Entry, 0, len(entries))
	for _, e := range entries {
		if !taken[e.ID] {
			rest = append(rest, e)
		}
	}

	byAccess := append([]*types.Entry(nil), rest...)
	sort.Slice(byAccess, func(i, j int) bool {
		si := scorer.Score(byAccess[i].AccessCount, byAccess[i].CreatedAt, now)
		sj := scorer.Score(byAccess[j].AccessCount, byAccess[j].CreatedAt, now)
		if si != sj {
			return si > sj
		}
		return byAccess[i].ID < byAccess[j].ID
	})
	for _, e := range byAccess {
		if len(slots.byCategory[catAccess]) >= accessBudget {
			break
		}
		if e.AccessCount <= 0 {
			continue
		}
		slots.byCategory[catAccess] = append(slots.byCategory[catAccess], e)
		taken[e.ID] = true
	}

	byNewest := make([]*types.Entry, 0, len(rest))
	for _, e := range rest {
		if !taken[e.ID] {
			byNewest = append(byNewest, e)
		}
	}
	sort.Slice(byNewest, func(i, j int) bool {
		return byNewest[i].EffectiveDate.After(byNewest[j].EffectiveDate)
	})
	for _, e := range byNewest {
		if len(slots.byCategory[catNewest]) >= newestBudget {
			break
		}
		slots.byCategory[catNewest] = append(slots.byCategory[catNewest], e)
		taken[e.ID] = true
	}

	return slots
}

// suppressAndBackfill implements §4.5 rule 4 and §4.6: an ID the session
// cache still considers recently-delivered is dropped from the newest/access
// slots (favorite and pinned bypass suppression entirely) and replaced by
// the next-ranked candidate not already occupying a slot, bounded by that
// category's generation-decayed admission budget for genuinely new IDs.
func suppressAndBackfill(slots *slotSet, eligible []*types.Entry, cache *sessioncache.Cache, gen int) {
	occupied := map[string]bool{}
	for _, cat := range []slotCategory{catFavorite, catPinned, catAccess, catNewest} {
		for _, e := range slots.byCategory[cat] {
			occupied[e.ID] = true
		}
	}

	byID := map[string]*types.Entry{}
	for _, e := range eligible {
		byID[e.ID] = e
	}

	backfill := func(cat slotCategory, budget int, rank func([]*types.Entry)) {
		kept := make([]*types.Entry, 0, len(slots.byCategory[cat]))
		dropped := 0
		for _, e := range slots.byCategory[cat] {
			if cache.Suppressed(e.ID) {
				occupied[e.ID] = false
				dropped++
				continue
			}
			kept = append(kept, e)
		}

		candidates := make([]*types.Entry, 0, len(eligible))
		for _, e := range eligible {
			if occupied[e.ID] || cache.Suppressed(e.ID) {
				continue
			}
			if cat == catAccess && e.AccessCount <= 0 {
				continue
			}
			candidates = append(candidates, e)
		}
		rank(candidates)

		admitted := 0
		for _, e := range candidates {
			if admitted >= dropped || admitted >= budget {
				break
			}
			kept = append(kept, e)
			occupied[e.ID] = true
			admitted++
		}
		slots.byCategory[cat] = kept
	}

	now := time.Now()
	backfill(catAccess, sessioncache.AccessSlotBudget(gen), func(c []*types.Entry) {
		sort.Slice(c, func(i, j int) bool {
			return scorer.Score(c[i].AccessCount, c[i].CreatedAt, now) > scorer.Score(c[j].AccessCount, c[j].CreatedAt, now)
		})
	})
	backfill(catNewest, sessioncache.NewestSlotBudget(gen), func(c []*types.Entry) {
		sort.Slice(c, func(i, j int) bool { return c[i].EffectiveDate.After(c[j].EffectiveDate) })
	})
}
