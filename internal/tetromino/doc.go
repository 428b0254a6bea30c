// Package tetromino holds the static piece geometry used by the board engine.
//
// Seven canonical shapes are stored once, unrotated, as 4x4 occupancy masks
// with an intrinsic bounding box. Rotated widths, heights and occupancy are
// derived on demand from the canonical mask; no rotated copies are kept.
//
// Rotation is the cyclic group of order four. Composition goes through
// Rotation.Add so that call sites never do their own modulo arithmetic.
package tetromino
