package frame

import (
	"math"

	"github.com/philipswan/TetheredRing-sub000/internal/curve"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Window is a contiguous, inclusive zone range. Start greater than Finish
// wraps through zone 0. Both ends are core.NoZone when nothing is visible.
type Window struct {
	Start  int
	Finish int
}

// NoWindow is the empty window.
var NoWindow = Window{Start: core.NoZone, Finish: core.NoZone}

// Empty reports whether no zone is visible.
func (w Window) Empty() bool {
	return w.Start < 0 || w.Finish < 0
}

// Each calls fn for every zone from Start to Finish, wrapping modulo zones.
func (w Window) Each(zones int, fn func(zone int)) {
	if w.Empty() || w.Start >= zones || w.Finish >= zones {
		return
	}
	for z := w.Start; ; z = (z + 1) % zones {
		fn(z)
		if z == w.Finish {
			return
		}
	}
}

// Len is the number of zones in the window.
func (w Window) Len(zones int) int {
	if w.Empty() {
		return 0
	}
	if w.Finish >= w.Start {
		return w.Finish - w.Start + 1
	}
	return zones - w.Start + w.Finish + 1
}

// Contains reports whether zone lies inside the window.
func (w Window) Contains(zone, zones int) bool {
	if w.Empty() {
		return false
	}
	if w.Start <= w.Finish {
		return zone >= w.Start && zone <= w.Finish
	}
	return zone >= w.Start || zone <= w.Finish
}

// WindowFromIntervals converts path intervals into a zone window for a
// frame whose zones are shifted by offset along the path. Several intervals
// collapse to the minimum start and maximum finish, which may include
// hidden zones between two disjoint arcs.
func WindowFromIntervals(ivs []curve.Interval, offset float64, zones int) Window {
	if len(ivs) == 0 {
		return NoWindow
	}
	start, finish := ivs[0].Start, ivs[0].Finish
	for _, iv := range ivs {
		if iv.Full() {
			return Window{Start: 0, Finish: zones - 1}
		}
	}
	if len(ivs) > 1 {
		start, finish = math.Inf(1), math.Inf(-1)
		for _, iv := range ivs {
			start = math.Min(start, iv.Start)
			finish = math.Max(finish, iv.Finish)
		}
		if finish-start >= 1 {
			return Window{Start: 0, Finish: zones - 1}
		}
	}
	start, finish = shift(start, offset), shift(finish, offset)
	w := Window{
		Start:  curve.ZoneOf(start, zones),
		Finish: curve.ZoneOf(finish, zones),
	}
	// an arc that wraps around and ends in the zone it started in covers
	// nearly the whole path
	if start > finish && w.Start == w.Finish {
		return Window{Start: 0, Finish: zones - 1}
	}
	return w
}

// shift moves a path fraction into frame coordinates. The end of the path
// stays at 1 so that it falls in the last zone.
func shift(f, offset float64) float64 {
	f -= offset
	if f < 0 || f > 1 {
		return core.Wrap(f)
	}
	return f
}
