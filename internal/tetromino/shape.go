package tetromino

import (
	"fmt"
	"strconv"
)

// Cell is the content of one grid square: empty or the colour of the piece
// that was locked there.
type Cell uint8

const (
	Empty Cell = iota
	CellI
	CellJ
	CellL
	CellO
	CellS
	CellT
	CellZ
)

func (c Cell) String() string {
	if c == Empty || c > CellZ {
		return "."
	}
	return Shape(c - 1).String()
}

// MarshalJSON encodes the cell as its numeric code. Without it a []Cell
// row would be encoded as a base64 byte string.
func (c Cell) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalJSON decodes a numeric cell code.
func (c *Cell) UnmarshalJSON(data []byte) error {
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("decode cell: %w", err)
	}
	if n < int(Empty) || n > int(CellZ) {
		return fmt.Errorf("decode cell: code %d out of range", n)
	}
	*c = Cell(n)
	return nil
}

// Shape is one of the seven standard pieces.
type Shape uint8

const (
	I Shape = iota
	J
	L
	O
	S
	T
	Z
)

// Shapes lists every shape in canonical order.
var Shapes = [...]Shape{I, J, L, O, S, T, Z}

var shapeNames = [...]string{"I", "J", "L", "O", "S", "T", "Z"}

type mask struct {
	cells  [4][4]bool
	width  int
	height int
}

var masks = [...]mask{
	I: {
		cells: [4][4]bool{
			{true, true, true, true},
		},
		width:  4,
		height: 1,
	},
	J: {
		cells: [4][4]bool{
			{true, false, false},
			{true, true, true},
		},
		width:  3,
		height: 2,
	},
	L: {
		cells: [4][4]bool{
			{false, false, true},
			{true, true, true},
		},
		width:  3,
		height: 2,
	},
	O: {
		cells: [4][4]bool{
			{true, true},
			{true, true},
		},
		width:  2,
		height: 2,
	},
	S: {
		cells: [4][4]bool{
			{false, true, true},
			{true, true, false},
		},
		width:  3,
		height: 2,
	},
	T: {
		cells: [4][4]bool{
			{false, true, false},
			{true, true, true},
		},
		width:  3,
		height: 2,
	},
	Z: {
		cells: [4][4]bool{
			{true, true, false},
			{false, true, true},
		},
		width:  3,
		height: 2,
	},
}

// Valid reports whether s is one of the seven shapes.
func (s Shape) Valid() bool {
	return int(s) < len(masks)
}

// Cell returns the grid colour a locked piece of this shape leaves behind.
func (s Shape) Cell() Cell {
	return Cell(s) + 1
}

// Width returns the bounding-box width of the shape under rotation r.
func (s Shape) Width(r Rotation) int {
	m := &masks[s]
	if r%2 == 1 {
		return m.height
	}
	return m.width
}

// Height returns the bounding-box height of the shape under rotation r.
func (s Shape) Height(r Rotation) int {
	m := &masks[s]
	if r%2 == 1 {
		return m.width
	}
	return m.height
}

// Occupied reports whether local cell (x, y) of the rotated bounding box is
// part of the piece. Coordinates outside the box are never occupied.
func (s Shape) Occupied(x, y int, r Rotation) bool {
	if x < 0 || y < 0 || x >= s.Width(r) || y >= s.Height(r) {
		return false
	}
	m := &masks[s]
	switch r % rotationCount {
	case R90:
		return m.cells[m.height-1-x][y]
	case R180:
		return m.cells[m.height-1-y][m.width-1-x]
	case R270:
		return m.cells[x][m.width-1-y]
	default:
		return m.cells[y][x]
	}
}

// Mask returns the rotated occupancy as rows of Height(r) by Width(r) cells,
// filled with the shape colour.
func (s Shape) Mask(r Rotation) [][]Cell {
	h, w := s.Height(r), s.Width(r)
	out := make([][]Cell, h)
	for y := 0; y < h; y++ {
		out[y] = make([]Cell, w)
		for x := 0; x < w; x++ {
			if s.Occupied(x, y, r) {
				out[y][x] = s.Cell()
			}
		}
	}
	return out
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
	return shapeNames[s]
}

// MarshalText encodes the shape as its letter.
func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid shape %d", uint8(s))
	}
	return []byte(shapeNames[s]), nil
}

// UnmarshalText decodes a shape letter.
func (s *Shape) UnmarshalText(text []byte) error {
	p, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// ParseShape parses a single shape letter.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// Source is the randomness a board draws shapes and garbage holes from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Draw picks a uniformly random shape.
func Draw(src Source) Shape {
	return Shapes[src.IntN(len(Shapes))]
}
