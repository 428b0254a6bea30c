package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/pair"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []Event
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", ev)
		}
	}
	return buf.String()
}

func finalState(r *Result, side pair.Side) board.State {
	if side == pair.SideB {
		return r.Final.B
	}
	return r.Final.A
}

func assertLines(r *Result, a Assertion, side pair.Side) error {
	got := finalState(r, side).Lines
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLines,
		Expected: fmt.Sprintf("side %s cleared %d rows", side, a.Count),
		Actual:   fmt.Sprintf("%d rows", got),
	}
}

func assertGameOver(r *Result, a Assertion) error {
	if a.Side == "" {
		if r.Outcome != "running" {
			return nil
		}
		return &AssertionError{Type: AssertGameOver, Expected: "match over", Actual: "running", Trace: r.Trace}
	}
	side, _ := parseSide(a.Side)
	if finalState(r, side).GameOver {
		return nil
	}
	return &AssertionError{
		Type:     AssertGameOver,
		Expected: fmt.Sprintf("board %s over", side),
		Actual:   "still playing",
		Trace:    r.Trace,
	}
}

func assertLoser(r *Result, side pair.Side) error {
	if r.Outcome == side.Other().String() {
		return nil
	}
	return &AssertionError{
		Type:     AssertLoser,
		Expected: fmt.Sprintf("side %s lost", side),
		Actual:   "outcome " + r.Outcome,
		Trace:    r.Trace,
	}
}

func assertDraw(r *Result) error {
	if r.Outcome == "draw" {
		return nil
	}
	return &AssertionError{Type: AssertDraw, Expected: "draw", Actual: "outcome " + r.Outcome}
}

// assertResultCount counts trace events with the given kind, restricted to
// one side when the assertion names it.
func assertResultCount(r *Result, a Assertion) error {
	var kind board.ResultKind
	if err := kind.UnmarshalText([]byte(a.Kind)); err != nil {
		return err
	}
	side := ""
	if a.Side != "" {
		s, _ := parseSide(a.Side)
		side = s.String()
	}

	count := 0
	for _, ev := range r.Trace {
		if ev.Result.Kind == kind && (side == "" || ev.Side == side) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultCount,
		Expected: fmt.Sprintf("%d %s results", a.Count, kind),
		Actual:   fmt.Sprintf("%d", count),
		Trace:    r.Trace,
	}
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. An empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertLines, AssertLoser:
			side, perr := parseSide(a.Side)
			if perr != nil {
				err = perr
			} else if a.Type == AssertLines {
				err = assertLines(result, a, side)
			} else {
				err = assertLoser(result, side)
			}
		case AssertGameOver:
			err = assertGameOver(result, a)
		case AssertDraw:
			err = assertDraw(result)
		case AssertResultCount:
			err = assertResultCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}
