package tetromino

import "fmt"

// Rotation is one of the four 90-degree orientations of a piece.
type Rotation uint8

const (
	R0 Rotation = iota
	R90
	R180
	R270
)

const rotationCount = 4

// Add composes two rotations. The result stays within R0..R270.
func (r Rotation) Add(other Rotation) Rotation {
	return Rotation((uint8(r) + uint8(other)) % rotationCount)
}

// Right turns the rotation one step clockwise.
func (r Rotation) Right() Rotation {
	return r.Add(R90)
}

// Left turns the rotation one step counter-clockwise.
func (r Rotation) Left() Rotation {
	return r.Add(R270)
}

// Inverse returns the rotation that composes with r to R0.
func (r Rotation) Inverse() Rotation {
	return Rotation((rotationCount - uint8(r)%rotationCount) % rotationCount)
}

// Degrees returns the clockwise angle of the rotation.
func (r Rotation) Degrees() int {
	return int(r%rotationCount) * 90
}

func (r Rotation) String() string {
	return fmt.Sprintf("R%d", r.Degrees())
}
