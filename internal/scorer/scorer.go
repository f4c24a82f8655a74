// Package scorer computes the time-weighted access score used to rank
// entries for expansion slots and the obsolete tail (§4.4), and the
// effective-date rollup that dates an entry by its latest activity.
package scorer

import (
	"math"
	"time"
)

// Score returns accessCount / log2(ageDays + 2), so a frequently accessed
// but old entry can still outrank a freshly written one with few reads,
// while ties in access count favor the more recently created entry.
func Score(accessCount int, createdAt time.Time, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return float64(accessCount) / math.Log2(ageDays+2)
}

// EffectiveDate is the max of a root's own created_at and the latest
// created_at among its descendant nodes (§3): an entry's most-recent
// activity rather than its first-write time.
func EffectiveDate(rootCreatedAt time.Time, descendantCreatedAt []time.Time) time.Time {
	eff := rootCreatedAt
	for _, t := range descendantCreatedAt {
		if t.After(eff) {
			eff = t
		}
	}
	return eff
}
