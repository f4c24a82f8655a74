package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/untoldecay/hmem/internal/types"
)

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// entryRow mirrors the memories table column order used by every SELECT
// in this package, so scanEntry stays in sync with one place.
const entryColumns = `id, prefix, seq, created_at, title, level_1, links, min_role,
	access_count, last_accessed, obsolete, favorite, pinned, irrelevant, active, secret,
	tags, effective_date`

func scanEntry(row interface{ Scan(...any) error }) (*types.Entry, error) {
	var e types.Entry
	var links, tags string
	var lastAccessed, effectiveDate sql.NullTime
	var minRole string

	err := row.Scan(
		&e.ID, &e.Prefix, &e.Seq, &e.CreatedAt, &e.Title, &e.Level1, &links, &minRole,
		&e.AccessCount, &lastAccessed, &e.Obsolete, &e.Favorite, &e.Pinned, &e.Irrelevant, &e.Active, &e.Secret,
		&tags, &effectiveDate,
	)
	if err != nil {
		return nil, err
	}
	e.Links = decodeList(links)
	e.Tags = decodeList(tags)
	e.MinRole = types.Role(minRole)
	e.LastAccessed = fromNullTime(lastAccessed)
	if effectiveDate.Valid {
		e.EffectiveDate = effectiveDate.Time
	} else {
		e.EffectiveDate = e.CreatedAt
	}
	return &e, nil
}

const nodeColumns = `id, parent_id, root_id, depth, seq, title, content, created_at,
	access_count, last_accessed, links, obsolete, favorite, secret`

func scanNode(row interface{ Scan(...any) error }) (*types.Node, error) {
	var n types.Node
	var links string
	var lastAccessed sql.NullTime

	err := row.Scan(
		&n.ID, &n.ParentID, &n.RootID, &n.Depth, &n.Seq, &n.Title, &n.Content, &n.CreatedAt,
		&n.AccessCount, &lastAccessed, &links, &n.Obsolete, &n.Favorite, &n.Secret,
	)
	if err != nil {
		return nil, err
	}
	n.Links = decodeList(links)
	n.LastAccessed = fromNullTime(lastAccessed)
	return &n, nil
}
