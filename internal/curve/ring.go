package curve

import (
	"math"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// tangencyTolerance is how close the intersection cosine may come to 1
// before the camera sphere is considered to touch the ring in one point.
const tangencyTolerance = 1e-9

// Ring is a circle in 3D space. Fraction 0 lies along U and fractions
// increase toward V.
type Ring struct {
	Center r3.Vec
	Radius float64
	U      r3.Vec
	V      r3.Vec
}

// NewRing creates a ring of the given radius around center, lying in the
// plane orthogonal to normal.
func NewRing(center r3.Vec, radius float64, normal r3.Vec) *Ring {
	n := r3.Unit(normal)
	u := perpendicular(n)
	return &Ring{
		Center: center,
		Radius: radius,
		U:      u,
		V:      r3.Cross(n, u),
	}
}

// Length returns the circumference.
func (r *Ring) Length() float64 {
	return 2 * math.Pi * r.Radius
}

// PointAt returns the point at fraction f with Up pointing away from Center.
func (r *Ring) PointAt(f float64) core.Placement {
	theta := 2 * math.Pi * f
	sin, cos := math.Sincos(theta)
	radial := r3.Add(r3.Scale(cos, r.U), r3.Scale(sin, r.V))
	tangent := r3.Add(r3.Scale(-sin, r.U), r3.Scale(cos, r.V))
	return core.Placement{
		Position: r3.Add(r.Center, r3.Scale(r.Radius, radial)),
		Basis:    orthonormal(tangent, radial),
	}
}

// VisibleIntervals solves the circle/sphere intersection analytically.
// A ring point at angle t is within radius of the camera when
// A*cos(t) + B*sin(t) >= q, where A and B are the in-plane components of
// the camera offset.
func (r *Ring) VisibleIntervals(camera r3.Vec, radius float64) []Interval {
	d := r3.Sub(camera, r.Center)
	a := r3.Dot(d, r.U)
	b := r3.Dot(d, r.V)
	m := math.Hypot(a, b)
	q := (r.Radius*r.Radius + r3.Norm2(d) - radius*radius) / (2 * r.Radius)

	if m == 0 {
		// camera on the axis: every point is equidistant
		if q <= 0 {
			return []Interval{{Start: 0, Finish: 1}}
		}
		return nil
	}

	k := q / m
	switch {
	case k > 1+tangencyTolerance:
		return nil
	case k <= -1:
		return []Interval{{Start: 0, Finish: 1}}
	}

	phi := math.Atan2(b, a)
	if k >= 1-tangencyTolerance {
		f := core.Wrap(phi / (2 * math.Pi))
		return []Interval{{Start: f, Finish: f}}
	}

	half := math.Acos(k)
	return []Interval{{
		Start:  core.Wrap((phi - half) / (2 * math.Pi)),
		Finish: core.Wrap((phi + half) / (2 * math.Pi)),
	}}
}
