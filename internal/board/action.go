package board

import (
	"fmt"

	"github.com/roach88/blockduel/internal/tetromino"
)

// Action is one player command from the outside world.
type Action int

const (
	MoveLeft Action = iota
	MoveRight
	MoveDown
	RotateLeft
	RotateRight
	// Drop lets the piece fall until it is blocked and locks it at once.
	Drop
	// BottomRefill injects one garbage row. It exists for manual testing
	// independent of the pairing layer.
	BottomRefill
)

var actionNames = [...]string{
	MoveLeft:     "left",
	MoveRight:    "right",
	MoveDown:     "down",
	RotateLeft:   "rotate_left",
	RotateRight:  "rotate_right",
	Drop:         "drop",
	BottomRefill: "bottom_refill",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(actionNames) {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(actionNames[a]), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction maps an action name (as used in URLs and scripts) to an Action.
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Apply performs a player action.
//
// Movement and rotation report Moved or Rejected. Drop reports the lock
// result. BottomRefill reports Moved once the row is in. A finished board
// reports GameOver for everything. While injected rows overlap the active
// piece, movement and rotation are rejected and Drop ends the game.
func (b *Board) Apply(a Action) Result {
	if b.gameOver {
		return Result{Kind: GameOver}
	}

	var ok bool
	switch a {
	case MoveLeft:
		ok = b.TryMove(-1, 0, tetromino.R0)
	case MoveRight:
		ok = b.TryMove(1, 0, tetromino.R0)
	case MoveDown:
		ok = b.TryMove(0, 1, tetromino.R0)
	case RotateLeft:
		ok = b.TryMove(0, 0, tetromino.R270)
	case RotateRight:
		ok = b.TryMove(0, 0, tetromino.R90)
	case Drop:
		return b.drop()
	case BottomRefill:
		b.AddExternalRows(1)
		ok = true
	}

	if ok {
		return Result{Kind: Moved}
	}
	return Result{Kind: Rejected}
}

// drop repeats MoveDown until it is rejected, then locks.
func (b *Board) drop() Result {
	if b.current == nil {
		return Result{Kind: Rejected}
	}
	if b.collides(*b.current) {
		return b.end(0)
	}
	for b.TryMove(0, 1, tetromino.R0) {
	}
	return b.lockAndSpawn()
}
