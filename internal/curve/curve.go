// Package curve defines what the streaming engine needs from path geometry
// and provides reference paths for closed rings and polylines.
package curve

import (
	"math"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// Interval is a fractional [Start, Finish] range along a path. Start may be
// greater than Finish when the range wraps through fraction 0.
type Interval struct {
	Start  float64
	Finish float64
}

// Full reports whether the interval covers the whole path.
func (i Interval) Full() bool {
	return i.Finish-i.Start >= 1
}

// Provider maps fractional positions in [0,1) on a closed path to world space
// and answers which parts of the path lie inside a camera sphere.
type Provider interface {
	// PointAt returns the position and orientation at fraction f.
	PointAt(f float64) core.Placement
	// VisibleIntervals returns one interval per path segment that intersects
	// the sphere of the given radius around camera. Empty when nothing does.
	VisibleIntervals(camera r3.Vec, radius float64) []Interval
	// Length is the arc length of the whole path in meters.
	Length() float64
}

// Trajectory maps time since spawn to a position along a frame's path.
type Trajectory interface {
	// Duration is how long an object stays on the trajectory.
	Duration() float64
	// FractionAt returns the frame fraction reached after elapsed seconds.
	FractionAt(elapsed float64) float64
	// ZoneIndex returns the zone reached after elapsed seconds, or
	// core.NoZone once elapsed exceeds Duration.
	ZoneIndex(elapsed float64, zones int) int
}

// ZoneOf converts a fraction to a zone index, clamped to [0, zones-1].
func ZoneOf(f float64, zones int) int {
	z := int(math.Floor(f * float64(zones)))
	if z < 0 {
		return 0
	}
	if z > zones-1 {
		return zones - 1
	}
	return z
}

// orthonormal builds an orientation from a tangent and an outward hint.
func orthonormal(forward, outward r3.Vec) core.Basis {
	fwd := r3.Unit(forward)
	up := r3.Sub(outward, r3.Scale(r3.Dot(outward, fwd), fwd))
	if r3.Norm(up) == 0 {
		up = perpendicular(fwd)
	}
	up = r3.Unit(up)
	return core.Basis{
		Forward: fwd,
		Up:      up,
		Right:   r3.Cross(fwd, up),
	}
}

// perpendicular returns some unit vector orthogonal to n.
func perpendicular(n r3.Vec) r3.Vec {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) >= 0.9 {
		ref = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n)))
}
