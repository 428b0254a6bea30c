package board

import (
	"strings"

	"github.com/roach88/blockduel/internal/tetromino"
)

// State is a read-only, self-contained snapshot of a board, ordered for
// JSON encoding. Field holds locked cells only; the active piece is
// reported separately in Current.
type State struct {
	Cols     int                `json:"cols"`
	Rows     int                `json:"rows"`
	Field    [][]tetromino.Cell `json:"field"`
	Current  *Piece             `json:"current,omitempty"`
	Next     tetromino.Shape    `json:"next"`
	Preview  [][]tetromino.Cell `json:"preview"`
	GameOver bool               `json:"game_over"`
	Lines    int                `json:"lines"`
}

// State copies the board into a snapshot. The snapshot shares no memory
// with the board.
func (b *Board) State() State {
	field := make([][]tetromino.Cell, b.height)
	for y, row := range b.grid {
		field[y] = append([]tetromino.Cell(nil), row...)
	}

	s := State{
		Cols:     b.width,
		Rows:     b.height,
		Field:    field,
		Next:     b.next,
		Preview:  b.next.Mask(tetromino.R0),
		GameOver: b.gameOver,
		Lines:    b.lines,
	}
	if b.current != nil {
		p := *b.current
		s.Current = &p
	}
	return s
}

// Composite returns the field with the active piece drawn in.
func (s State) Composite() [][]tetromino.Cell {
	out := make([][]tetromino.Cell, len(s.Field))
	for y, row := range s.Field {
		out[y] = append([]tetromino.Cell(nil), row...)
	}
	if s.Current == nil {
		return out
	}
	p := s.Current
	cell := p.Shape.Cell()
	for cy := 0; cy < p.Shape.Height(p.Rotation); cy++ {
		for cx := 0; cx < p.Shape.Width(p.Rotation); cx++ {
			x, y := p.X+cx, p.Y+cy
			if p.Shape.Occupied(cx, cy, p.Rotation) && y >= 0 && y < len(out) && x >= 0 && x < len(out[y]) {
				out[y][x] = cell
			}
		}
	}
	return out
}

// Render draws the composite field as text, one line per row, using the
// cell letters and '.' for empty squares.
func (s State) Render() string {
	var sb strings.Builder
	for _, row := range s.Composite() {
		for _, c := range row {
			sb.WriteString(c.String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render is shorthand for b.State().Render().
func (b *Board) Render() string {
	return b.State().Render()
}
