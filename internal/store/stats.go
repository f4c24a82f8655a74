package store

import (
	"context"
	"fmt"
)

// Stats is stats()'s return value (§4.1, plus the by-role breakdown added
// in §8: a shared store's admins want to see how much content is gated at
// each min_role, not just how much lives under each prefix).
type Stats struct {
	Total    int
	ByPrefix map[string]int
	ByRole   map[string]int
}

// Stats implements stats(): total root entries (excluding header rows), a
// per-prefix breakdown, and a per-min_role breakdown.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	out := Stats{ByPrefix: map[string]int{}, ByRole: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT prefix, COUNT(*) FROM memories WHERE seq > 0 GROUP BY prefix`)
	if err != nil {
		return Stats{}, fmt.Errorf("store: computing stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var prefix string
		var count int
		if err := rows.Scan(&prefix, &count); err != nil {
			return Stats{}, err
		}
		out.ByPrefix[prefix] = count
		out.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	roleRows, err := s.db.QueryContext(ctx, `SELECT min_role, COUNT(*) FROM memories WHERE seq > 0 GROUP BY min_role`)
	if err != nil {
		return Stats{}, fmt.Errorf("store: computing role stats: %w", err)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var role string
		var count int
		if err := roleRows.Scan(&role, &count); err != nil {
			return Stats{}, err
		}
		out.ByRole[role] = count
	}
	return out, roleRows.Err()
}
