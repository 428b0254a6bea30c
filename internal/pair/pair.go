// Package pair couples two boards into a head-to-head match.
//
// A Pair owns one board per side. Gravity only advances when both sides have
// asked for a step since the last joint step: a two-party rendezvous that
// keeps a client from gaining ground by polling faster than its opponent.
// Rows cleared on one board come back as garbage rows on the other.
//
// The first step or action that finishes a board also finishes the match.
// From then on the pair is frozen: boards no longer change, and the loser
// recorded at that moment stands.
//
// Thread-safety: every exported method takes the pair's mutex, so the
// flag-check, flag-clear and both board steps of a joint step form a single
// critical section. Two different pairs never share state and progress in
// parallel.
package pair

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/pacer"
	"github.com/roach88/blockduel/internal/tetromino"
)

// Side names one half of a pair.
type Side int

const (
	SideA Side = iota
	SideB
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Valid reports whether s is SideA or SideB.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Outcome reports what a RequestStep call did. Stepped is false while the
// pair is still waiting for the other side; A and B are then zero.
type Outcome struct {
	Stepped bool         `json:"stepped"`
	A       board.Result `json:"a"`
	B       board.Result `json:"b"`
}

// Result returns the step result for one side.
func (o Outcome) Result(s Side) board.Result {
	if s == SideB {
		return o.B
	}
	return o.A
}

// Snapshot is the state of both boards.
type Snapshot struct {
	A board.State `json:"a"`
	B board.State `json:"b"`
}

// Pair is a two-player match.
type Pair struct {
	mu      sync.Mutex
	boards  [2]*board.Board
	pending [2]bool
	acked   [2]bool
	penalty [2]*penaltyMeter
	steps   uint64
	pacing  int
	logger  *slog.Logger

	over    bool
	loser   Side
	decided bool
}

// Option configures a Pair.
type Option func(*Pair)

// WithPenaltyPacing meters garbage delivery: each batch of cleared rows is
// spread over the next steps joint steps instead of landing at once.
// Zero keeps delivery instantaneous.
func WithPenaltyPacing(steps int) Option {
	return func(p *Pair) {
		p.pacing = steps
	}
}

// WithLogger sets the logger used for match events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pair) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pair of width x height boards drawing from srcA and srcB.
func New(width, height int, srcA, srcB tetromino.Source, opts ...Option) (*Pair, error) {
	a, err := board.New(width, height, srcA)
	if err != nil {
		return nil, fmt.Errorf("create board A: %w", err)
	}
	b, err := board.New(width, height, srcB)
	if err != nil {
		return nil, fmt.Errorf("create board B: %w", err)
	}

	p := &Pair{
		boards: [2]*board.Board{a, b},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pacing < 0 {
		return nil, fmt.Errorf("penalty pacing steps must not be negative, got %d", p.pacing)
	}
	if p.pacing > 0 {
		p.penalty = [2]*penaltyMeter{
			newPenaltyMeter(p.pacing),
			newPenaltyMeter(p.pacing),
		}
	}
	return p, nil
}

// RequestStep records that side wants to advance. When both sides have
// asked, both boards step exactly once and the flags reset. Once the match
// is over every request answers at once with GameOver for both sides.
func (p *Pair) RequestStep(side Side) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !side.Valid() {
		return Outcome{}
	}
	if p.over {
		return Outcome{
			Stepped: true,
			A:       board.Result{Kind: board.GameOver},
			B:       board.Result{Kind: board.GameOver},
		}
	}
	p.pending[side] = true
	if !p.pending[SideA] || !p.pending[SideB] {
		return Outcome{}
	}
	p.pending = [2]bool{}
	p.steps++

	p.releasePenaltiesLocked()

	out := Outcome{
		Stepped: true,
		A:       p.boards[SideA].Step(),
		B:       p.boards[SideB].Step(),
	}
	p.routeLocked(SideA, out.A)
	p.routeLocked(SideB, out.B)
	p.settleLocked()
	return out
}

// Apply performs a player action on side's board. Rows cleared by a drop
// are routed to the opponent like rows cleared by gravity. After the match
// is over both sides get GameOver.
func (p *Pair) Apply(side Side, action board.Action) board.Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !side.Valid() {
		return board.Result{Kind: board.Rejected}
	}
	if p.over {
		return board.Result{Kind: board.GameOver}
	}
	res := p.boards[side].Apply(action)
	p.routeLocked(side, res)
	p.settleLocked()
	return res
}

// settleLocked freezes the match the first time a board finishes and
// records who lost.
func (p *Pair) settleLocked() {
	if p.over {
		return
	}
	a, b := p.boards[SideA].IsGameOver(), p.boards[SideB].IsGameOver()
	if !a && !b {
		return
	}
	p.over = true
	switch {
	case a && !b:
		p.loser, p.decided = SideA, true
	case b && !a:
		p.loser, p.decided = SideB, true
	}
	p.logger.Debug("match over",
		"step", p.steps,
		"a", a,
		"b", b,
		"decided", p.decided)
}

// routeLocked sends rows cleared on side to the opposing board.
func (p *Pair) routeLocked(side Side, res board.Result) {
	if res.Lines == 0 {
		return
	}
	target := side.Other()
	if p.boards[target].IsGameOver() {
		return
	}
	if m := p.penalty[target]; m != nil {
		m.add(res.Lines)
		p.logger.Debug("garbage queued", "side", target.String(), "rows", res.Lines)
		return
	}
	p.boards[target].AddExternalRows(res.Lines)
	p.logger.Debug("garbage injected", "side", target.String(), "rows", res.Lines)
}

// releasePenaltiesLocked injects the metered rows due in this joint step.
func (p *Pair) releasePenaltiesLocked() {
	for _, s := range []Side{SideA, SideB} {
		m := p.penalty[s]
		if m == nil {
			continue
		}
		if rows := m.release(); rows > 0 {
			p.boards[s].AddExternalRows(rows)
			p.logger.Debug("garbage injected", "side", s.String(), "rows", rows)
		}
	}
}

// State returns side's board snapshot.
func (p *Pair) State(side Side) board.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if side == SideB {
		return p.boards[SideB].State()
	}
	return p.boards[SideA].State()
}

// Snapshot returns both boards.
func (p *Pair) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		A: p.boards[SideA].State(),
		B: p.boards[SideB].State(),
	}
}

// IsGameOver reports whether either board has finished.
func (p *Pair) IsGameOver() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.over
}

// Loser returns the side whose board finished first. When both boards end
// in the same joint step, or the match is still running, ok is false.
func (p *Pair) Loser() (side Side, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.decided {
		return SideA, false
	}
	return p.loser, true
}

// Acknowledge records that side has seen the finished match. It returns
// true once both sides have acknowledged, at which point the owner may
// discard the pair. Before game over it is a no-op returning false.
func (p *Pair) Acknowledge(side Side) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !side.Valid() || !p.over {
		return false
	}
	p.acked[side] = true
	return p.acked[SideA] && p.acked[SideB]
}

// Pending reports whether side has an unanswered step request.
func (p *Pair) Pending(side Side) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return side.Valid() && p.pending[side]
}

// Steps returns the number of joint steps taken.
func (p *Pair) Steps() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.steps
}

// penaltyMeter meters garbage rows for one board through a pacer. Rows
// arriving while a batch is in flight wait in the backlog for the next batch.
type penaltyMeter struct {
	pacer   pacer.Pacer
	window  int
	left    int
	backlog int
}

func newPenaltyMeter(window int) *penaltyMeter {
	return &penaltyMeter{window: window}
}

func (m *penaltyMeter) add(rows int) {
	m.backlog += rows
}

// pendingRows returns rows queued or still in flight.
func (m *penaltyMeter) pendingRows() int {
	inFlight := 0
	if m.left > 0 {
		inFlight = m.pacer.Events() - m.pacer.Delivered()
	}
	return m.backlog + inFlight
}

// release returns the rows due this step, starting a new batch from the
// backlog when the previous one has drained.
func (m *penaltyMeter) release() int {
	if m.left == 0 {
		if m.backlog == 0 {
			return 0
		}
		// window >= 1 and backlog > 0, so Configure cannot fail.
		_ = m.pacer.Configure(m.window, m.backlog)
		m.backlog = 0
		m.left = m.window
	}
	m.left--
	return m.pacer.Advance()
}

// PendingGarbage returns the rows queued for side but not yet injected.
// It is always zero when penalties are instantaneous.
func (p *Pair) PendingGarbage(side Side) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !side.Valid() || p.penalty[side] == nil {
		return 0
	}
	return p.penalty[side].pendingRows()
}
