package curve

import (
	"errors"
	"math"
	"sort"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrTooFewPoints is returned when a polyline cannot form a closed path.
var ErrTooFewPoints = errors.New("polyline needs at least three points")

// Polyline is a closed path made of straight segments, indexed by arc
// length. Each segment answers visibility queries on its own, so a camera
// sphere may produce one interval per segment.
type Polyline struct {
	points []r3.Vec
	starts []float64 // cumulative arc length at each point
	length float64
	center r3.Vec
}

// NewPolyline builds a closed polyline through points. Up vectors point away
// from center.
func NewPolyline(points []r3.Vec, center r3.Vec) (*Polyline, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}
	p := &Polyline{
		points: append([]r3.Vec(nil), points...),
		starts: make([]float64, len(points)),
		center: center,
	}
	for i := range p.points {
		p.starts[i] = p.length
		p.length += r3.Norm(r3.Sub(p.next(i), p.points[i]))
	}
	if p.length == 0 {
		return nil, ErrTooFewPoints
	}
	return p, nil
}

// Length returns the total arc length.
func (p *Polyline) Length() float64 {
	return p.length
}

// Segments returns the number of straight segments.
func (p *Polyline) Segments() int {
	return len(p.points)
}

func (p *Polyline) next(i int) r3.Vec {
	return p.points[(i+1)%len(p.points)]
}

// segmentAt returns the segment holding arc length s.
func (p *Polyline) segmentAt(s float64) int {
	i := sort.Search(len(p.starts), func(i int) bool { return p.starts[i] > s }) - 1
	if i < 0 {
		return 0
	}
	return i
}

// PointAt interpolates along the segment containing fraction f.
func (p *Polyline) PointAt(f float64) core.Placement {
	s := core.Wrap(f) * p.length
	i := p.segmentAt(s)
	a, b := p.points[i], p.next(i)
	dir := r3.Sub(b, a)
	segLen := r3.Norm(dir)
	t := 0.0
	if segLen > 0 {
		t = (s - p.starts[i]) / segLen
	}
	pos := r3.Add(a, r3.Scale(t, dir))
	return core.Placement{
		Position: pos,
		Basis:    orthonormal(dir, r3.Sub(pos, p.center)),
	}
}

// VisibleIntervals intersects the camera sphere with every segment.
// Intervals are reported in path order and never wrap.
func (p *Polyline) VisibleIntervals(camera r3.Vec, radius float64) []Interval {
	var out []Interval
	for i, a := range p.points {
		dir := r3.Sub(p.next(i), a)
		segLen := r3.Norm(dir)
		if segLen == 0 {
			continue
		}
		u := r3.Scale(1/segLen, dir)
		w := r3.Sub(a, camera)
		half := r3.Dot(w, u)
		disc := half*half - (r3.Norm2(w) - radius*radius)
		if disc < 0 {
			continue
		}
		root := math.Sqrt(disc)
		t0 := math.Max(-half-root, 0)
		t1 := math.Min(-half+root, segLen)
		if t0 > t1 {
			continue
		}
		out = append(out, Interval{
			Start:  (p.starts[i] + t0) / p.length,
			Finish: (p.starts[i] + t1) / p.length,
		})
	}
	return out
}
