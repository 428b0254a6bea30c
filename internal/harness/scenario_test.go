package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/single_line_attack.yaml")
	require.NoError(t, err)

	assert.Equal(t, "single_line_attack", scenario.Name)
	assert.Equal(t, BoardSize{Width: 4, Height: 6}, scenario.Board)
	assert.Equal(t, []string{"I"}, scenario.Pieces.A)
	require.Len(t, scenario.Turns, 2)
	assert.Equal(t, 1, scenario.Turns[0].Steps)
	assert.Equal(t, []string{"drop"}, scenario.Turns[1].B)
	assert.Len(t, scenario.Assertions, 3)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_DefaultBoard(t *testing.T) {
	s, err := ParseScenario(strings.NewReader("name: x\nturns:\n  - steps: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, BoardSize{Width: DefaultWidth, Height: DefaultHeight}, s.Board)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown field", "name: x\nturn:\n  - steps: 1\n", "failed to parse YAML"},
		{"missing name", "turns:\n  - steps: 1\n", "name is required"},
		{"no turns", "name: x\n", "turns list is required"},
		{"small board", "name: x\nboard: {width: 3, height: 8}\nturns:\n  - steps: 1\n", "smaller than"},
		{"bad action", "name: x\nturns:\n  - a: [jump]\n", "turn 1"},
		{"negative steps", "name: x\nturns:\n  - steps: -1\n", "steps must not be negative"},
		{"bad piece", "name: x\npieces: {a: [Q]}\nturns:\n  - steps: 1\n", "pieces"},
		{"negative pacing", "name: x\npacing_steps: -2\nturns:\n  - steps: 1\n", "pacing_steps"},
		{"unknown assertion", "name: x\nturns:\n  - steps: 1\nassertions:\n  - type: vibes\n", "unknown assertion type"},
		{"lines without side", "name: x\nturns:\n  - steps: 1\nassertions:\n  - type: lines\n", "requires side"},
		{"bad side", "name: x\nturns:\n  - steps: 1\nassertions:\n  - type: loser\n    side: C\n", "unknown side"},
		{"bad kind", "name: x\nturns:\n  - steps: 1\nassertions:\n  - type: result_count\n    kind: exploded\n", "unknown result kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_AllFixturesParse(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, p := range paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
		_, err = LoadScenario(p)
		assert.NoError(t, err, p)
	}
}
