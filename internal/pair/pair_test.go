package pair

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/testutil"
	"github.com/roach88/blockduel/internal/tetromino"
)

// Scripted values reduce modulo 7 for shapes: 0=I, 3=O.
const (
	drawI = 0
	drawO = 3
)

func newTestPair(t *testing.T, width, height int, a, b int64, opts ...Option) *Pair {
	t.Helper()
	p, err := New(width, height,
		testutil.NewScriptedSource(a),
		testutil.NewScriptedSource(b),
		opts...)
	require.NoError(t, err)
	return p
}

// jointStep requests a step from both sides and returns the joint outcome.
func jointStep(t *testing.T, p *Pair) Outcome {
	t.Helper()
	first := p.RequestStep(SideA)
	require.False(t, first.Stepped)
	out := p.RequestStep(SideB)
	require.True(t, out.Stepped)
	return out
}

func emptyCells(row []tetromino.Cell) int {
	n := 0
	for _, c := range row {
		if c == tetromino.Empty {
			n++
		}
	}
	return n
}

func TestSide(t *testing.T) {
	assert.Equal(t, SideB, SideA.Other())
	assert.Equal(t, SideA, SideB.Other())
	assert.Equal(t, "A", SideA.String())
	assert.Equal(t, "B", SideB.String())
	assert.False(t, Side(7).Valid())
}

func TestNew_RejectsBadInput(t *testing.T) {
	src := testutil.NewScriptedSource(0)

	_, err := New(2, 20, src, src)
	assert.ErrorIs(t, err, board.ErrInvalidDimensions)

	_, err = New(10, 20, src, src, WithPenaltyPacing(-1))
	assert.Error(t, err)
}

func TestRequestStep_WaitsForBothSides(t *testing.T) {
	p := newTestPair(t, 10, 20, drawO, drawO)
	before := p.Snapshot()

	// A asking twice is still one request.
	assert.False(t, p.RequestStep(SideA).Stepped)
	assert.False(t, p.RequestStep(SideA).Stepped)
	assert.True(t, p.Pending(SideA))
	assert.False(t, p.Pending(SideB))
	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, uint64(0), p.Steps())

	out := p.RequestStep(SideB)
	require.True(t, out.Stepped)
	assert.Equal(t, board.Spawned, out.A.Kind)
	assert.Equal(t, board.Spawned, out.B.Kind)
	assert.False(t, p.Pending(SideA))
	assert.False(t, p.Pending(SideB))
	assert.Equal(t, uint64(1), p.Steps())

	// The flags reset: one more request from A alone does nothing.
	snap := p.Snapshot()
	assert.False(t, p.RequestStep(SideA).Stepped)
	assert.Equal(t, snap, p.Snapshot())
}

func TestRequestStep_EitherOrder(t *testing.T) {
	p := newTestPair(t, 10, 20, drawO, drawO)

	assert.False(t, p.RequestStep(SideB).Stepped)
	out := p.RequestStep(SideA)
	require.True(t, out.Stepped)
	assert.Equal(t, board.Spawned, out.Result(SideA).Kind)
	assert.Equal(t, board.Spawned, out.Result(SideB).Kind)

	out = jointStep(t, p)
	assert.Equal(t, board.Moved, out.A.Kind)
	assert.Equal(t, board.Moved, out.B.Kind)
}

func TestApply_DropRoutesClearedRowsToOpponent(t *testing.T) {
	// On a 4-wide board every I piece fills a whole row.
	p := newTestPair(t, 4, 6, drawI, drawI)
	jointStep(t, p)

	res := p.Apply(SideA, board.Drop)
	assert.Equal(t, board.LinesCleared, res.Kind)
	assert.Equal(t, 1, res.Lines)

	a := p.State(SideA)
	assert.Equal(t, 1, a.Lines)
	for _, row := range a.Field {
		assert.Equal(t, 4, emptyCells(row))
	}

	b := p.State(SideB)
	assert.Equal(t, 0, b.Lines)
	assert.Equal(t, 1, emptyCells(b.Field[5]), "garbage row has exactly one hole")
	for y := 0; y < 5; y++ {
		assert.Equal(t, 4, emptyCells(b.Field[y]))
	}
}

func TestApply_MovesDoNotRoute(t *testing.T) {
	p := newTestPair(t, 10, 20, drawO, drawO)
	jointStep(t, p)

	before := p.State(SideB)
	assert.Equal(t, board.Moved, p.Apply(SideA, board.MoveLeft).Kind)
	assert.Equal(t, board.Moved, p.Apply(SideA, board.MoveDown).Kind)
	assert.Equal(t, before, p.State(SideB))

	assert.Equal(t, board.Rejected, p.Apply(Side(9), board.MoveLeft).Kind)
}

func TestPenaltyPacing_DelaysGarbageToJointStep(t *testing.T) {
	p := newTestPair(t, 4, 6, drawI, drawI, WithPenaltyPacing(2))
	jointStep(t, p)

	res := p.Apply(SideA, board.Drop)
	require.Equal(t, 1, res.Lines)

	// Queued, not yet on the board.
	assert.Equal(t, 1, p.PendingGarbage(SideB))
	assert.Equal(t, 4, emptyCells(p.State(SideB).Field[5]))

	jointStep(t, p)
	assert.Equal(t, 0, p.PendingGarbage(SideB))
	assert.Equal(t, 1, emptyCells(p.State(SideB).Field[5]))
}

func TestPenaltyMeter_SpreadsBatches(t *testing.T) {
	m := newPenaltyMeter(2)
	assert.Equal(t, 0, m.release())

	m.add(3)
	assert.Equal(t, 3, m.pendingRows())
	assert.Equal(t, 2, m.release())
	assert.Equal(t, 1, m.pendingRows())

	// Rows arriving mid-batch wait for the next batch.
	m.add(1)
	assert.Equal(t, 2, m.pendingRows())
	assert.Equal(t, 1, m.release())
	assert.Equal(t, 1, m.pendingRows())

	assert.Equal(t, 1, m.release())
	assert.Equal(t, 0, m.release())
	assert.Equal(t, 0, m.pendingRows())
}

// stackOut drops O pieces on side until its 4x4 board is full.
func stackOut(t *testing.T, p *Pair, side Side) {
	t.Helper()
	assert.Equal(t, board.Locked, p.Apply(side, board.Drop).Kind)
	assert.Equal(t, board.GameOver, p.Apply(side, board.Drop).Kind)
}

func TestGameOver_LoserAndAcknowledge(t *testing.T) {
	p := newTestPair(t, 4, 4, drawI, drawO)
	jointStep(t, p)

	_, ok := p.Loser()
	assert.False(t, ok)
	assert.False(t, p.Acknowledge(SideA), "no acknowledgement before game over")

	stackOut(t, p, SideB)
	assert.True(t, p.IsGameOver())

	loser, ok := p.Loser()
	require.True(t, ok)
	assert.Equal(t, SideB, loser)

	assert.Equal(t, board.GameOver, p.Apply(SideB, board.MoveLeft).Kind)

	out := p.RequestStep(SideA)
	assert.True(t, out.Stepped, "a finished match answers at once")
	assert.Equal(t, board.GameOver, out.A.Kind)
	assert.Equal(t, board.GameOver, out.B.Kind)
	assert.Equal(t, uint64(1), p.Steps())

	assert.False(t, p.Acknowledge(SideA))
	assert.False(t, p.Acknowledge(SideA))
	assert.True(t, p.Acknowledge(SideB))
}

func TestGameOver_BothSidesNoLoser(t *testing.T) {
	p := newTestPair(t, 4, 4, drawO, drawO)
	jointStep(t, p)

	// Each side locks one O; the next joint step blocks both spawns.
	require.Equal(t, board.Locked, p.Apply(SideA, board.Drop).Kind)
	require.Equal(t, board.Locked, p.Apply(SideB, board.Drop).Kind)
	assert.False(t, p.IsGameOver())

	out := jointStep(t, p)
	assert.Equal(t, board.GameOver, out.A.Kind)
	assert.Equal(t, board.GameOver, out.B.Kind)

	_, ok := p.Loser()
	assert.False(t, ok)
	assert.True(t, p.IsGameOver())
}

func TestGameOver_LoserIsFixed(t *testing.T) {
	p := newTestPair(t, 4, 4, drawO, drawO)
	jointStep(t, p)

	stackOut(t, p, SideA)
	loser, ok := p.Loser()
	require.True(t, ok)
	require.Equal(t, SideA, loser)

	// The survivor cannot play on and stack out into a draw.
	before := p.State(SideB)
	assert.Equal(t, board.GameOver, p.Apply(SideB, board.Drop).Kind)
	assert.Equal(t, board.GameOver, p.Apply(SideB, board.Drop).Kind)
	assert.Equal(t, before, p.State(SideB))
	assert.False(t, p.State(SideB).GameOver)

	p.RequestStep(SideA)
	p.RequestStep(SideB)
	assert.Equal(t, before, p.State(SideB))
	assert.False(t, p.Pending(SideA))

	loser, ok = p.Loser()
	require.True(t, ok)
	assert.Equal(t, SideA, loser)
}

func TestGameOver_NoGarbageForFinishedBoard(t *testing.T) {
	p := newTestPair(t, 4, 6, drawI, drawO)
	jointStep(t, p)

	// B: three O drops fill columns 0-1 of a 6-high board.
	require.Equal(t, board.Locked, p.Apply(SideB, board.Drop).Kind)
	require.Equal(t, board.Locked, p.Apply(SideB, board.Drop).Kind)
	require.Equal(t, board.GameOver, p.Apply(SideB, board.Drop).Kind)
	beforeA, beforeB := p.State(SideA), p.State(SideB)

	assert.Equal(t, board.GameOver, p.Apply(SideA, board.Drop).Kind)
	assert.Equal(t, beforeA, p.State(SideA))
	assert.Equal(t, beforeB, p.State(SideB))
}

func TestRequestStep_Concurrent(t *testing.T) {
	p := newTestPair(t, 10, 20, drawO, drawO)
	const n = 200

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		stepped uint64
	)
	for _, side := range []Side{SideA, SideB} {
		wg.Add(1)
		go func(side Side) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				if p.RequestStep(side).Stepped {
					mu.Lock()
					stepped++
					mu.Unlock()
				}
				_ = p.State(side)
			}
		}(side)
	}
	wg.Wait()

	// Every joint step needs a fresh request from each side.
	assert.Equal(t, stepped, p.Steps())
	assert.GreaterOrEqual(t, stepped, uint64(1))
	assert.LessOrEqual(t, stepped, uint64(n))
}
