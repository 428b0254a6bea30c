// Package board implements the single-player falling-block engine.
//
// A Board owns one rectangular grid of cells, the falling (active) piece and
// the shape that will spawn next. Every mutation of the active piece goes
// through the same collision test, which rejects a candidate before any of
// its coordinates are used as grid indices. Piece coordinates are signed so
// that candidates left of, above or past the grid can be represented and
// rejected.
//
// Game over is terminal: once a spawn fails, Step and Apply report GameOver
// and leave the board untouched.
package board

import (
	"errors"
	"fmt"

	"github.com/roach88/blockduel/internal/tetromino"
)

// MinSize is the smallest width or height a board may have. The spawn
// column width/2-2 must not be negative.
const MinSize = 4

// ErrInvalidDimensions is returned by New for boards smaller than MinSize.
var ErrInvalidDimensions = errors.New("invalid board dimensions")

// Piece is the falling piece: a shape, its rotation and the top-left corner
// of its rotated bounding box in grid coordinates.
type Piece struct {
	Shape    tetromino.Shape    `json:"shape"`
	Rotation tetromino.Rotation `json:"rotation"`
	X        int                `json:"x"`
	Y        int                `json:"y"`
}

// Board is one player's field.
//
// Board is not safe for concurrent use; the owning match serialises access.
type Board struct {
	width  int
	height int
	grid   [][]tetromino.Cell

	current *Piece
	next    tetromino.Shape

	src      tetromino.Source
	gameOver bool
	lines    int
}

// New creates an empty board and draws the first "next" shape from src.
// No piece is active until SpawnNext or the first Step.
func New(width, height int, src tetromino.Source) (*Board, error) {
	if width < MinSize || height < MinSize {
		return nil, fmt.Errorf("%w: %dx%d (minimum %dx%d)", ErrInvalidDimensions, width, height, MinSize, MinSize)
	}
	if src == nil {
		return nil, errors.New("board: nil random source")
	}

	grid := make([][]tetromino.Cell, height)
	for y := range grid {
		grid[y] = make([]tetromino.Cell, width)
	}

	return &Board{
		width:  width,
		height: height,
		grid:   grid,
		next:   tetromino.Draw(src),
		src:    src,
	}, nil
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// Next returns the shape that will spawn next.
func (b *Board) Next() tetromino.Shape { return b.next }

// Current returns a copy of the active piece, if any.
func (b *Board) Current() (Piece, bool) {
	if b.current == nil {
		return Piece{}, false
	}
	return *b.current, true
}

// Cell returns the locked content at (x, y). Out-of-range coordinates read
// as Empty.
func (b *Board) Cell(x, y int) tetromino.Cell {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return tetromino.Empty
	}
	return b.grid[y][x]
}

// IsGameOver reports whether the board has reached its terminal state.
func (b *Board) IsGameOver() bool { return b.gameOver }

// Lines returns the total number of rows this board has cleared.
func (b *Board) Lines() int { return b.lines }

// spawnColumn is the x of a freshly spawned piece's bounding box.
func (b *Board) spawnColumn() int {
	return b.width/2 - 2
}

// collides reports whether p leaves the grid or overlaps a locked cell.
// Bounds are checked on signed coordinates before any index is formed.
func (b *Board) collides(p Piece) bool {
	if p.X < 0 || p.Y < 0 {
		return true
	}
	w := p.Shape.Width(p.Rotation)
	h := p.Shape.Height(p.Rotation)
	if p.X+w > b.width || p.Y+h > b.height {
		return true
	}
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			if p.Shape.Occupied(cx, cy, p.Rotation) && b.grid[p.Y+cy][p.X+cx] != tetromino.Empty {
				return true
			}
		}
	}
	return false
}

// SpawnNext makes the "next" shape the active piece at the top centre and
// draws a new "next" shape. It returns false, leaving the board unchanged,
// when the spawn position is blocked.
func (b *Board) SpawnNext() bool {
	if b.gameOver {
		return false
	}
	p := Piece{
		Shape:    b.next,
		Rotation: tetromino.R0,
		X:        b.spawnColumn(),
		Y:        0,
	}
	if b.collides(p) {
		return false
	}
	b.current = &p
	b.next = tetromino.Draw(b.src)
	return true
}

// TryMove offsets the active piece by (dx, dy) and composes its rotation
// with dr. A colliding candidate is rejected and nothing changes. A piece
// that garbage already overlaps cannot move; the overlap stands until the
// next Step ends the game.
func (b *Board) TryMove(dx, dy int, dr tetromino.Rotation) bool {
	if b.gameOver || b.current == nil || b.collides(*b.current) {
		return false
	}
	candidate := Piece{
		Shape:    b.current.Shape,
		Rotation: b.current.Rotation.Add(dr),
		X:        b.current.X + dx,
		Y:        b.current.Y + dy,
	}
	if b.collides(candidate) {
		return false
	}
	*b.current = candidate
	return true
}

// Step advances the board by one tick of gravity.
func (b *Board) Step() Result {
	if b.gameOver {
		return Result{Kind: GameOver}
	}
	if b.current == nil {
		if !b.SpawnNext() {
			return b.end(0)
		}
		return Result{Kind: Spawned}
	}
	// Garbage injected since the last tick may have pushed locked cells
	// into the active piece.
	if b.collides(*b.current) {
		return b.end(0)
	}
	if b.TryMove(0, 1, tetromino.R0) {
		return Result{Kind: Moved}
	}
	return b.lockAndSpawn()
}

// lockAndSpawn draws the active piece into the grid, clears full rows and
// spawns the next piece.
func (b *Board) lockAndSpawn() Result {
	b.lock()
	cleared := b.clearLines()
	b.lines += cleared

	if !b.SpawnNext() {
		return b.end(cleared)
	}
	if cleared > 0 {
		return Result{Kind: LinesCleared, Lines: cleared}
	}
	return Result{Kind: Locked}
}

func (b *Board) end(cleared int) Result {
	b.gameOver = true
	b.current = nil
	return Result{Kind: GameOver, Lines: cleared}
}

// lock merges the active piece into the grid. Cells that fall outside the
// grid are dropped.
func (b *Board) lock() {
	p := b.current
	if p == nil {
		return
	}
	cell := p.Shape.Cell()
	w := p.Shape.Width(p.Rotation)
	h := p.Shape.Height(p.Rotation)
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			if !p.Shape.Occupied(cx, cy, p.Rotation) {
				continue
			}
			x, y := p.X+cx, p.Y+cy
			if x >= 0 && x < b.width && y >= 0 && y < b.height {
				b.grid[y][x] = cell
			}
		}
	}
	b.current = nil
}

func rowFull(row []tetromino.Cell) bool {
	for _, c := range row {
		if c == tetromino.Empty {
			return false
		}
	}
	return true
}

// clearLines removes every full row, shifts the rows above down and refills
// the top with empty rows. It returns the number of rows removed.
func (b *Board) clearLines() int {
	kept := make([][]tetromino.Cell, 0, b.height)
	for _, row := range b.grid {
		if !rowFull(row) {
			kept = append(kept, row)
		}
	}
	cleared := b.height - len(kept)
	if cleared == 0 {
		return 0
	}

	grid := make([][]tetromino.Cell, 0, b.height)
	for i := 0; i < cleared; i++ {
		grid = append(grid, make([]tetromino.Cell, b.width))
	}
	b.grid = append(grid, kept...)
	return cleared
}

// AddExternalRows pushes n garbage rows in from the bottom. Existing rows
// move up by n and whatever leaves the top is discarded. Overlap with the
// active piece is not checked here; the next Step detects it and ends the
// game.
func (b *Board) AddExternalRows(n int) {
	if n <= 0 || b.gameOver {
		return
	}
	if n > b.height {
		n = b.height
	}
	grid := make([][]tetromino.Cell, 0, b.height)
	grid = append(grid, b.grid[n:]...)
	for i := 0; i < n; i++ {
		grid = append(grid, b.garbageRow())
	}
	b.grid = grid
}

// garbageRow builds a row filled with random colours and exactly one hole,
// so that an injected row is never complete on its own.
func (b *Board) garbageRow() []tetromino.Cell {
	row := make([]tetromino.Cell, b.width)
	hole := b.src.IntN(b.width)
	for x := range row {
		if x == hole {
			continue
		}
		row[x] = tetromino.Draw(b.src).Cell()
	}
	return row
}
