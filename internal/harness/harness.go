package harness

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/pair"
	"github.com/roach88/blockduel/internal/testutil"
	"github.com/roach88/blockduel/internal/tetromino"
)

// PCG stream selectors for the two sides, so one seed gives each board its
// own sequence.
const (
	streamA = 0xA
	streamB = 0xB
)

// Harness plays one scenario against a fresh pair.
type Harness struct {
	pair   *pair.Pair
	logger *slog.Logger
}

// Run executes a scenario and returns its result. A scenario that cannot
// be set up returns an error; failed assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with the pair's events sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	srcA, err := sourceFor(scenario.Pieces.A, scenario.Seed, streamA)
	if err != nil {
		return nil, err
	}
	srcB, err := sourceFor(scenario.Pieces.B, scenario.Seed, streamB)
	if err != nil {
		return nil, err
	}

	p, err := pair.New(scenario.Board.Width, scenario.Board.Height, srcA, srcB,
		pair.WithPenaltyPacing(scenario.PacingSteps),
		pair.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	h := &Harness{pair: p, logger: logger}
	result := NewResult(scenario.Name)
	for i, turn := range scenario.Turns {
		if err := h.playTurn(i+1, turn, result); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i+1, err)
		}
	}

	result.Steps = p.Steps()
	result.Final = p.Snapshot()
	result.Outcome = outcome(p)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) playTurn(n int, turn Turn, result *Result) error {
	for _, side := range []pair.Side{pair.SideA, pair.SideB} {
		names := turn.A
		if side == pair.SideB {
			names = turn.B
		}
		for _, name := range names {
			action, err := board.ParseAction(name)
			if err != nil {
				return err
			}
			result.record(n, side, name, h.pair.Apply(side, action))
		}
	}

	for i := 0; i < turn.Steps; i++ {
		h.pair.RequestStep(pair.SideA)
		out := h.pair.RequestStep(pair.SideB)
		if !out.Stepped {
			return fmt.Errorf("joint step %d did not advance", i+1)
		}
		result.record(n, pair.SideA, OpStep, out.A)
		result.record(n, pair.SideB, OpStep, out.B)
	}
	return nil
}

func sourceFor(letters []string, seed, stream uint64) (tetromino.Source, error) {
	if len(letters) == 0 {
		return rand.New(rand.NewPCG(seed, stream)), nil
	}
	draws, err := parsePieces(letters)
	if err != nil {
		return nil, err
	}
	return testutil.NewScriptedSource(draws...), nil
}

func outcome(p *pair.Pair) string {
	if !p.IsGameOver() {
		return "running"
	}
	loser, ok := p.Loser()
	if !ok {
		return "draw"
	}
	return loser.Other().String()
}
