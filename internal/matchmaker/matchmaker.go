// Package matchmaker pairs waiting participants into matches.
//
// A Matchmaker keeps three pieces of state behind one mutex: the waiting
// list, the table of live matches and the participant→match index. A
// participant is in at most one of the waiting list and the index at any
// time. Operations on unknown ids are no-ops that report "not found".
//
// The matchmaker is generic over the match payload V; the server stores a
// *pair.Pair there.
package matchmaker

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kamstrup/intmap"

	"github.com/roach88/blockduel/internal/pair"
)

// ParticipantID identifies a player for the lifetime of a session.
type ParticipantID int64

// MatchID identifies a live match. Ids start at 1 and are never reused.
type MatchID uint64

// Status is where a participant currently stands.
type Status int

const (
	StatusUnknown Status = iota
	StatusWaiting
	StatusInMatch
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusWaiting:
		return "waiting"
	case StatusInMatch:
		return "in_match"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusUnknown, StatusWaiting, StatusInMatch} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Match is one live match: side A is the participant that waited, side B
// the one that arrived second.
type Match[V any] struct {
	ID    MatchID
	Token string
	A     ParticipantID
	B     ParticipantID
	Field V
}

// SideOf returns the side p plays, or false when p is not in this match.
func (m Match[V]) SideOf(p ParticipantID) (pair.Side, bool) {
	switch p {
	case m.A:
		return pair.SideA, true
	case m.B:
		return pair.SideB, true
	default:
		return pair.SideA, false
	}
}

// Participant returns the participant playing side.
func (m Match[V]) Participant(side pair.Side) ParticipantID {
	if side == pair.SideB {
		return m.B
	}
	return m.A
}

// Opponent returns the participant facing p.
func (m Match[V]) Opponent(p ParticipantID) ParticipantID {
	if p == m.A {
		return m.B
	}
	return m.A
}

// Matchmaker pairs participants and owns the resulting matches.
//
// Thread-safety: all methods are safe for concurrent use. The factory runs
// under the matchmaker's lock and must not call back into it.
type Matchmaker[V any] struct {
	mu      sync.Mutex
	waiting WaitList
	index   *intmap.Map[ParticipantID, MatchID]
	matches *intmap.Map[MatchID, *Match[V]]
	nextID  MatchID
	factory Factory[V]
	tokens  TokenGenerator
	logger  *slog.Logger
}

// Factory builds the payload of a new match between a and b.
type Factory[V any] func(a, b ParticipantID) (V, error)

// Option configures a Matchmaker.
type Option func(*options)

type options struct {
	waiting  WaitList
	tokens   TokenGenerator
	logger   *slog.Logger
	capacity int
}

// WithWaitList replaces the default SetWaitList.
func WithWaitList(w WaitList) Option {
	return func(o *options) {
		o.waiting = w
	}
}

// WithTokenGenerator sets the source of match tokens.
//
// Default: UUIDv7Generator.
// Use NewFixedGenerator in tests that assert on tokens.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(o *options) {
		o.tokens = g
	}
}

// WithLogger sets the logger used for pairing events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCapacity presizes the match table and participant index.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// New returns a Matchmaker that builds each match's payload with factory.
func New[V any](factory func(a, b ParticipantID) (V, error), opts ...Option) *Matchmaker[V] {
	o := options{capacity: 64}
	for _, opt := range opts {
		opt(&o)
	}
	if o.waiting == nil {
		o.waiting = NewSetWaitList()
	}
	if o.tokens == nil {
		o.tokens = UUIDv7Generator{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.capacity < 1 {
		o.capacity = 1
	}

	return &Matchmaker[V]{
		waiting: o.waiting,
		index:   intmap.New[ParticipantID, MatchID](o.capacity * 2),
		matches: intmap.New[MatchID, *Match[V]](o.capacity),
		nextID:  1,
		factory: factory,
		tokens:  o.tokens,
		logger:  o.logger,
	}
}

// FindOrJoin returns p's match, creating one with a waiting opponent if
// possible. Otherwise p joins the waiting list and ok is false.
//
// Calling it again while already matched returns the same id. When the
// factory fails nothing changes: the opponent keeps waiting and p is not
// added.
func (m *Matchmaker[V]) FindOrJoin(p ParticipantID) (id MatchID, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.index.Get(p); ok {
		return existing, true, nil
	}

	opponent, found := m.waiting.FindMatchingPair(p)
	if !found {
		m.waiting.Add(p)
		m.logger.Debug("participant waiting", "participant", int64(p), "waiting", m.waiting.Len())
		return 0, false, nil
	}

	field, err := m.factory(opponent, p)
	if err != nil {
		return 0, false, fmt.Errorf("create match for %d and %d: %w", opponent, p, err)
	}
	m.waiting.Remove(opponent)
	m.waiting.Remove(p)

	id = m.nextID
	m.nextID++
	match := &Match[V]{
		ID:    id,
		Token: m.tokens.Generate(),
		A:     opponent,
		B:     p,
		Field: field,
	}
	m.matches.Put(id, match)
	m.index.Put(opponent, id)
	m.index.Put(p, id)

	m.logger.Info("match created",
		"match", uint64(id),
		"match_token", match.Token,
		"a", int64(opponent),
		"b", int64(p))
	return id, true, nil
}

// RemoveMatch deletes a match and un-indexes both participants. They become
// unknown, not waiting. Unknown ids are ignored and report false.
func (m *Matchmaker[V]) RemoveMatch(id MatchID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches.Get(id)
	if !ok {
		return false
	}
	m.matches.Del(id)
	m.index.Del(match.A)
	m.index.Del(match.B)

	m.logger.Info("match removed", "match", uint64(id), "match_token", match.Token)
	return true
}

// Status reports where p stands. The match id is set only for
// StatusInMatch.
func (m *Matchmaker[V]) Status(p ParticipantID) (Status, MatchID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.index.Get(p); ok {
		return StatusInMatch, id
	}
	if m.waiting.Exists(p) {
		return StatusWaiting, 0
	}
	return StatusUnknown, 0
}

// Match returns a copy of the match record for id.
func (m *Matchmaker[V]) Match(id MatchID) (Match[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match, ok := m.matches.Get(id)
	if !ok {
		return Match[V]{}, false
	}
	return *match, true
}

// MatchFor returns the match p is playing in.
func (m *Matchmaker[V]) MatchFor(p ParticipantID) (Match[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.index.Get(p)
	if !ok {
		return Match[V]{}, false
	}
	match, ok := m.matches.Get(id)
	if !ok {
		return Match[V]{}, false
	}
	return *match, true
}

// Leave takes p off the waiting list. It does not end a running match.
func (m *Matchmaker[V]) Leave(p ParticipantID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.Remove(p)
}

// Len returns the number of live matches.
func (m *Matchmaker[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches.Len()
}

// Waiting returns the number of participants on the waiting list.
func (m *Matchmaker[V]) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.Len()
}
