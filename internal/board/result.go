package board

import "fmt"

// ResultKind discriminates the outcome of Step and Apply.
type ResultKind int

const (
	// Rejected means the action would have collided and was ignored.
	Rejected ResultKind = iota
	// Moved means the active piece moved or rotated.
	Moved
	// Spawned means a new piece entered an empty board.
	Spawned
	// Locked means the piece landed without completing a row.
	Locked
	// LinesCleared means the piece landed and Lines rows were removed.
	LinesCleared
	// GameOver means the board is in its terminal state.
	GameOver
)

var resultKindNames = [...]string{
	Rejected:     "rejected",
	Moved:        "moved",
	Spawned:      "spawned",
	Locked:       "locked",
	LinesCleared: "lines_cleared",
	GameOver:     "game_over",
}

func (k ResultKind) String() string {
	if k < 0 || int(k) >= len(resultKindNames) {
		return "unknown"
	}
	return resultKindNames[k]
}

// MarshalText encodes the kind by name.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ResultKind) UnmarshalText(text []byte) error {
	for i, n := range resultKindNames {
		if n == string(text) {
			*k = ResultKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", text)
}

// Result is the outcome of one Step or Apply.
//
// Lines is the number of rows removed by the lock that produced the result.
// It is set for LinesCleared and may also be set for GameOver when the
// clearing lock was followed by a blocked spawn.
type Result struct {
	Kind  ResultKind `json:"kind"`
	Lines int        `json:"lines,omitempty"`
}

// Accepted reports whether the action changed the board.
func (r Result) Accepted() bool {
	return r.Kind != Rejected && r.Kind != GameOver
}
