package harness

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/pair"
	"github.com/roach88/blockduel/internal/tetromino"
)

// Default board size when a scenario leaves it out.
const (
	DefaultWidth  = 10
	DefaultHeight = 20
)

// Scenario describes one scripted match.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	Board BoardSize `yaml:"board,omitempty"`

	// Seed seeds the PCG source of any side without scripted pieces.
	Seed uint64 `yaml:"seed,omitempty"`

	// Pieces pins each side's draws to a cycling list of shape letters.
	Pieces Pieces `yaml:"pieces,omitempty"`

	// PacingSteps spreads each garbage batch over this many joint steps.
	// Zero delivers garbage immediately.
	PacingSteps int `yaml:"pacing_steps,omitempty"`

	Turns []Turn `yaml:"turns"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// BoardSize is the width and height of both boards.
type BoardSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Pieces holds the scripted shapes per side.
type Pieces struct {
	A []string `yaml:"a,omitempty"`
	B []string `yaml:"b,omitempty"`
}

// Turn is one round of input: A's actions, B's actions, then Steps joint
// steps.
type Turn struct {
	A     []string `yaml:"a,omitempty"`
	B     []string `yaml:"b,omitempty"`
	Steps int      `yaml:"steps,omitempty"`
}

// Assertion checks the trace or the final boards.
type Assertion struct {
	Type  string `yaml:"type"`
	Side  string `yaml:"side,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertLines       = "lines"
	AssertGameOver    = "game_over"
	AssertLoser       = "loser"
	AssertDraw        = "draw"
	AssertResultCount = "result_count"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(bytes.NewReader(data))
}

// ParseScenario decodes a scenario and validates it. Unknown fields are
// rejected so typos do not silently change a script.
func ParseScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if s.Board.Width == 0 && s.Board.Height == 0 {
		s.Board = BoardSize{Width: DefaultWidth, Height: DefaultHeight}
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Board.Width < board.MinSize || s.Board.Height < board.MinSize {
		return fmt.Errorf("board %dx%d is smaller than %dx%d", s.Board.Width, s.Board.Height, board.MinSize, board.MinSize)
	}
	if s.PacingSteps < 0 {
		return fmt.Errorf("pacing_steps must not be negative")
	}
	if len(s.Turns) == 0 {
		return fmt.Errorf("turns list is required and must be non-empty")
	}
	for _, letters := range [][]string{s.Pieces.A, s.Pieces.B} {
		if _, err := parsePieces(letters); err != nil {
			return err
		}
	}
	for i, t := range s.Turns {
		if t.Steps < 0 {
			return fmt.Errorf("turn %d: steps must not be negative", i+1)
		}
		for _, name := range append(append([]string(nil), t.A...), t.B...) {
			if _, err := board.ParseAction(name); err != nil {
				return fmt.Errorf("turn %d: %w", i+1, err)
			}
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i+1, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	if a.Side != "" {
		if _, err := parseSide(a.Side); err != nil {
			return err
		}
	}
	switch a.Type {
	case AssertLines, AssertLoser:
		if a.Side == "" {
			return fmt.Errorf("%s requires side", a.Type)
		}
	case AssertResultCount:
		var k board.ResultKind
		if err := k.UnmarshalText([]byte(a.Kind)); err != nil {
			return err
		}
	case AssertGameOver, AssertDraw:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func parsePieces(letters []string) ([]int64, error) {
	out := make([]int64, 0, len(letters))
	for _, l := range letters {
		shape, err := tetromino.ParseShape(l)
		if err != nil {
			return nil, fmt.Errorf("pieces: %w", err)
		}
		out = append(out, int64(shape))
	}
	return out, nil
}

func parseSide(s string) (pair.Side, error) {
	switch s {
	case "A", "a":
		return pair.SideA, nil
	case "B", "b":
		return pair.SideB, nil
	}
	return pair.SideA, fmt.Errorf("unknown side %q", s)
}
