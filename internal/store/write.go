package store

import (
	"context"
	"fmt"
	"time"
)

// RegisterParticipant claims id at time at. It reports false without error
// when the id is already registered, so concurrent claimants of one id see
// exactly one winner.
func (s *Store) RegisterParticipant(ctx context.Context, id int64, at time.Time) (bool, error) {
	ms := at.UnixMilli()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, created_at, last_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, ms, ms)
	if err != nil {
		return false, fmt.Errorf("register participant %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register participant %d: %w", id, err)
	}
	return n == 1, nil
}

// TouchParticipant records activity for id. Unknown ids are ignored and
// report false.
func (s *Store) TouchParticipant(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET last_seen_at = ? WHERE id = ?
	`, at.UnixMilli(), id)
	if err != nil {
		return false, fmt.Errorf("touch participant %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch participant %d: %w", id, err)
	}
	return n == 1, nil
}
