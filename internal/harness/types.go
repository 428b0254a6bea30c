package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/pair"
)

// OpStep names a joint step in the trace. Every other op is an action name.
const OpStep = "step"

// Event is one recorded result.
type Event struct {
	Seq    int          `json:"seq"`
	Turn   int          `json:"turn"`
	Side   string       `json:"side"`
	Op     string       `json:"op"`
	Result board.Result `json:"result"`
}

func (e Event) String() string {
	s := fmt.Sprintf("%d %d %s %s %s", e.Seq, e.Turn, e.Side, e.Op, e.Result.Kind)
	if e.Result.Lines > 0 {
		s += fmt.Sprintf(" lines=%d", e.Result.Lines)
	}
	return s
}

// Result is the outcome of one scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Scenario string   `json:"scenario"`
	Trace    []Event  `json:"trace"`
	Errors   []string `json:"errors,omitempty"`

	// Steps counts completed joint steps.
	Steps uint64 `json:"steps"`

	// Outcome is "running", "A", "B" (the winner) or "draw".
	Outcome string        `json:"outcome"`
	Final   pair.Snapshot `json:"final"`
}

// NewResult creates a passing result with an empty trace.
func NewResult(name string) *Result {
	return &Result{
		Pass:     true,
		Scenario: name,
		Trace:    []Event{},
		Errors:   []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) record(turn int, side pair.Side, op string, res board.Result) {
	r.Trace = append(r.Trace, Event{
		Seq:    len(r.Trace) + 1,
		Turn:   turn,
		Side:   side.String(),
		Op:     op,
		Result: res,
	})
}

// Text renders the trace, the outcome and both final boards.
func (r *Result) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario %s\n", r.Scenario)
	for _, e := range r.Trace {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "steps %d\n", r.Steps)
	fmt.Fprintf(&sb, "outcome %s\n", r.Outcome)
	for _, b := range []struct {
		side  string
		state board.State
	}{{"A", r.Final.A}, {"B", r.Final.B}} {
		fmt.Fprintf(&sb, "board %s lines=%d game_over=%t\n", b.side, b.state.Lines, b.state.GameOver)
		sb.WriteString(b.state.Render())
	}
	return sb.String()
}
