package pacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(p *Pacer, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = p.Advance()
	}
	return out
}

func TestPacer_Distribution(t *testing.T) {
	tests := []struct {
		name          string
		steps, events int
		want          []int
	}{
		{"one per step", 1, 1, []int{1, 1, 1}},
		{"two in one step", 1, 2, []int{2, 2}},
		{"one over two", 2, 1, []int{1, 0, 1, 0}},
		{"five over two", 2, 5, []int{3, 2, 3, 2}},
		{"five over three", 3, 5, []int{2, 2, 1}},
		{"two over five", 5, 2, []int{1, 0, 1, 0, 0}},
		{"none", 4, 0, []int{0, 0, 0, 0}},
		{"even", 4, 8, []int{2, 2, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.steps, tt.events)
			require.NoError(t, err)
			assert.Equal(t, tt.want, run(p, len(tt.want)))
		})
	}
}

func TestPacer_CumulativeIsCeilingOfRatio(t *testing.T) {
	for steps := 1; steps <= 12; steps++ {
		for events := 0; events <= 30; events++ {
			p, err := New(steps, events)
			require.NoError(t, err)

			total := 0
			for k := 1; k <= steps; k++ {
				due := p.Advance()
				total += due
				want := (events*k + steps - 1) / steps
				require.Equal(t, want, total, "steps=%d events=%d k=%d", steps, events, k)

				// Per-step counts never differ by more than one.
				lo := events / steps
				require.GreaterOrEqual(t, due, lo)
				require.LessOrEqual(t, due, lo+1)
			}
			assert.Equal(t, events, total)
		}
	}
}

func TestPacer_WrapsForReuse(t *testing.T) {
	p, err := New(5, 2)
	require.NoError(t, err)

	first := run(p, 5)
	assert.Equal(t, 0, p.Step())
	assert.Equal(t, 0, p.Delivered())

	second := run(p, 5)
	assert.Equal(t, first, second)
}

func TestPacer_ConfigureRestarts(t *testing.T) {
	p, err := New(3, 3)
	require.NoError(t, err)
	p.Advance()

	require.NoError(t, p.Configure(2, 4))
	assert.Equal(t, 2, p.Steps())
	assert.Equal(t, 4, p.Events())
	assert.Equal(t, []int{2, 2}, run(p, 2))
}

func TestPacer_InvalidSchedule(t *testing.T) {
	_, err := New(0, 1)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = New(3, -1)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestPacer_ZeroValue(t *testing.T) {
	var p Pacer
	assert.Equal(t, 0, p.Advance())
}
