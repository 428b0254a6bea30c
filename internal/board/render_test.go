package board

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockduel/internal/tetromino"
)

func assertGolden(t *testing.T, name string, actual string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(actual))
}

// To regenerate golden files, run:
//
//	go test ./internal/board -run TestRender -update
func TestRender_LockThenShift(t *testing.T) {
	// T first, then O, then T again.
	b := newTestBoard(t, 6, 5, drawT, drawO)
	require.True(t, b.SpawnNext())
	require.Equal(t, Locked, b.Apply(Drop).Kind)
	require.Equal(t, Moved, b.Apply(MoveRight).Kind)

	assertGolden(t, "lock_then_shift", b.Render())
}

func TestRender_RotatedPiece(t *testing.T) {
	b := newTestBoard(t, 5, 4, drawJ)
	require.True(t, b.SpawnNext())
	require.True(t, b.TryMove(0, 0, tetromino.R90))
	require.True(t, b.TryMove(0, 1, tetromino.R0))

	assertGolden(t, "rotated_piece", b.Render())
}
