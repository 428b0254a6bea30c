package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Participant is a registered identity.
type Participant struct {
	ID         int64
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// ParticipantExists reports whether id has been registered.
func (s *Store) ParticipantExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM participants WHERE id = ?
	`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check participant %d: %w", id, err)
	}
	return true, nil
}

// ReadParticipant loads one participant. ok is false for unknown ids.
func (s *Store) ReadParticipant(ctx context.Context, id int64) (p Participant, ok bool, err error) {
	var created, seen int64
	err = s.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_seen_at FROM participants WHERE id = ?
	`, id).Scan(&p.ID, &created, &seen)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, false, nil
	}
	if err != nil {
		return Participant{}, false, fmt.Errorf("read participant %d: %w", id, err)
	}
	p.CreatedAt = time.UnixMilli(created)
	p.LastSeenAt = time.UnixMilli(seen)
	return p, true, nil
}

// CountParticipants returns the number of registered participants.
func (s *Store) CountParticipants(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// CountActiveSince returns the number of participants seen at or after since.
func (s *Store) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM participants WHERE last_seen_at >= ?
	`, since.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active participants: %w", err)
	}
	return n, nil
}
