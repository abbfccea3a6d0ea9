// pkg/core/types.go
package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NoZone marks an empty window endpoint or an out-of-range trajectory lookup.
const NoZone = -1

// FrameID names a reference frame.
type FrameID string

// ClassName names an object class. Zones key their contents by it.
type ClassName string

// Basis is an orthonormal orientation at a point on a curve.
// Forward follows the curve tangent, Up points away from the curve's center
// of rotation and Right completes the right-handed set.
type Basis struct {
	Forward r3.Vec `json:"forward"`
	Up      r3.Vec `json:"up"`
	Right   r3.Vec `json:"right"`
}

// Placement is a world-space position and orientation for one model.
type Placement struct {
	Position r3.Vec `json:"position"`
	Basis    Basis  `json:"basis"`
}

// Offset returns the placement moved along its own basis vectors.
func (p Placement) Offset(forward, up, right float64) Placement {
	pos := p.Position
	pos = r3.Add(pos, r3.Scale(forward, p.Basis.Forward))
	pos = r3.Add(pos, r3.Scale(up, p.Basis.Up))
	pos = r3.Add(pos, r3.Scale(right, p.Basis.Right))
	return Placement{Position: pos, Basis: p.Basis}
}

// Wrap folds a fractional position into [0,1).
func Wrap(f float64) float64 {
	f -= math.Floor(f)
	if f >= 1 {
		// rounding of tiny negatives
		return 0
	}
	return f
}
