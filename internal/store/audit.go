package store

import (
	"context"
	"fmt"
	"time"

	"github.com/untoldecay/hmem/internal/types"
)

// AuditState is one curator agent's audit bookkeeping row.
type AuditState struct {
	Agent      string
	LastAudit  *time.Time
}

// MarkAudited implements mark_audited: records that agent has just reviewed
// the store, upserting its audit_state row to now.
func (s *Store) MarkAudited(ctx context.Context, agent string) (time.Time, error) {
	if agent == "" {
		return time.Time{}, fmt.Errorf("store: mark_audited requires a non-empty agent id")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_state (agent, last_audit) VALUES (?, ?)
		ON CONFLICT(agent) DO UPDATE SET last_audit = excluded.last_audit
	`, agent, now.Format(time.RFC3339Nano))
	if err != nil {
		return time.Time{}, fmt.Errorf("store: recording audit for %s: %w", agent, err)
	}
	return now, nil
}

// LastAudit returns agent's last recorded audit time, or nil if it has
// never audited the store.
func (s *Store) LastAudit(ctx context.Context, agent string) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT last_audit FROM audit_state WHERE agent = ?`, agent).Scan(&raw)
	if err != nil {
		return nil, nil // never audited; not an error condition for the caller
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("store: parsing last_audit for %s: %w", agent, err)
	}
	return &t, nil
}

// AuditQueue implements get_audit_queue: every root entry whose effective
// date is newer than agent's last recorded audit (everything, if agent has
// never audited), newest first — the curator's "what changed since I last
// looked" list.
func (s *Store) AuditQueue(ctx context.Context, agent string) ([]*types.Entry, error) {
	last, err := s.LastAudit(ctx, agent)
	if err != nil {
		return nil, err
	}

	sqlStr := fmt.Sprintf(`SELECT %s FROM memories WHERE seq > 0`, entryColumns)
	args := []any{}
	if last != nil {
		sqlStr += ` AND effective_date > ?`
		args = append(args, last.Format(time.RFC3339Nano))
	}
	sqlStr += ` ORDER BY effective_date DESC`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("store: building audit queue for %s: %w", agent, err)
	}
	defer rows.Close()

	var out []*types.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
