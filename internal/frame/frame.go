package frame

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/curve"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var (
	ErrInvalidZones = errors.New("zone count must be positive")
	ErrNoPath       = errors.New("frame has no path")
)

// Zone holds, per class, the objects currently located in one angular
// partition of a frame.
type Zone map[core.ClassName][]*Object

// Config describes a reference frame.
type Config struct {
	ID core.FrameID
	// Zones is the fixed partition count Z.
	Zones int
	// RotationRate is in revolutions per second; the sign gives the
	// direction.
	RotationRate float64
	TimeOrigin   float64
	RangeRadius  float64
	Path         curve.Provider
	// Trajectory is required only for frames carrying continuously
	// moving classes.
	Trajectory curve.Trajectory
}

// Frame is an independently rotating coordinate system laid over a path
// and partitioned into a fixed number of zones.
type Frame struct {
	ID           core.FrameID
	RotationRate float64
	TimeOrigin   float64
	RangeRadius  float64
	Path         curve.Provider
	Trajectory   curve.Trajectory

	zones    []Zone
	current  Window
	previous Window
	nextID   uint64
}

// New creates a frame with empty zones and no visible window.
func New(cfg Config) (*Frame, error) {
	if cfg.Zones <= 0 {
		return nil, fmt.Errorf("frame %q: %w", cfg.ID, ErrInvalidZones)
	}
	if cfg.Path == nil {
		return nil, fmt.Errorf("frame %q: %w", cfg.ID, ErrNoPath)
	}
	zones := make([]Zone, cfg.Zones)
	for i := range zones {
		zones[i] = make(Zone)
	}
	return &Frame{
		ID:           cfg.ID,
		RotationRate: cfg.RotationRate,
		TimeOrigin:   cfg.TimeOrigin,
		RangeRadius:  cfg.RangeRadius,
		Path:         cfg.Path,
		Trajectory:   cfg.Trajectory,
		zones:        zones,
		current:      NoWindow,
		previous:     NoWindow,
	}, nil
}

// Zones returns Z.
func (f *Frame) Zones() int {
	return len(f.zones)
}

// Zone returns zone i, taken modulo Z.
func (f *Frame) Zone(i int) Zone {
	z := len(f.zones)
	return f.zones[((i%z)+z)%z]
}

// Rotating reports whether the frame moves relative to the path.
func (f *Frame) Rotating() bool {
	return f.RotationRate != 0
}

// Offset is the frame's rotational offset along the path at time now,
// in [0,1).
func (f *Frame) Offset(now float64) float64 {
	return core.Wrap(f.RotationRate * (now - f.TimeOrigin))
}

// PlacementOf evaluates the world placement of a frame position at time
// now.
func (f *Frame) PlacementOf(position, now float64) core.Placement {
	return f.Path.PointAt(core.Wrap(position + f.Offset(now)))
}

// ZoneOf returns the zone holding frame position p.
func (f *Frame) ZoneOf(p float64) int {
	return curve.ZoneOf(core.Wrap(p), len(f.zones))
}

// Insert stores obj in the zone of its frame position, assigns its ID and
// returns the zone index.
func (f *Frame) Insert(name core.ClassName, obj *Object) int {
	z := f.ZoneOf(obj.FramePosition)
	f.InsertAt(z, name, obj)
	return z
}

// InsertAt stores obj in zone z regardless of its frame position and
// assigns its ID.
func (f *Frame) InsertAt(z int, name core.ClassName, obj *Object) {
	f.nextID++
	obj.ID = f.nextID
	f.Append(z, name, obj)
}

// Append adds an object that already belongs to this frame to zone z.
// It is how migrating objects change zones.
func (f *Frame) Append(z int, name core.ClassName, obj *Object) {
	zone := f.Zone(z)
	zone[name] = append(zone[name], obj)
}

// Objects returns the objects of a class in zone z.
func (f *Frame) Objects(z int, name core.ClassName) []*Object {
	return f.Zone(z)[name]
}

// SetObjects replaces the list of a class in zone z.
func (f *Frame) SetObjects(z int, name core.ClassName, objs []*Object) {
	zone := f.Zone(z)
	if len(objs) == 0 {
		delete(zone, name)
		return
	}
	zone[name] = objs
}

// Count sums the objects of a class across all zones.
func (f *Frame) Count(name core.ClassName) int {
	n := 0
	for _, zone := range f.zones {
		n += len(zone[name])
	}
	return n
}

// Each calls fn for every object of a class with its zone index.
func (f *Frame) Each(name core.ClassName, fn func(z int, obj *Object)) {
	for z, zone := range f.zones {
		for _, obj := range zone[name] {
			fn(z, obj)
		}
	}
}

// Take removes every object of a class from the frame and returns them.
func (f *Frame) Take(name core.ClassName) []*Object {
	var out []*Object
	for _, zone := range f.zones {
		out = append(out, zone[name]...)
		delete(zone, name)
	}
	return out
}

// Current returns the window computed by the last Track.
func (f *Frame) Current() Window {
	return f.current
}

// Previous returns the window of the prior tick.
func (f *Frame) Previous() Window {
	return f.previous
}

// Track recomputes the current window for a camera at time now. The
// previous window is left untouched until Roll.
func (f *Frame) Track(camera r3.Vec, now float64) Window {
	ivs := f.Path.VisibleIntervals(camera, f.RangeRadius)
	f.current = WindowFromIntervals(ivs, f.Offset(now), len(f.zones))
	return f.current
}

// Roll makes the current window the previous one. It runs once the diff
// for the tick has been consumed.
func (f *Frame) Roll() {
	f.previous = f.current
}

// ResetWindows forgets both windows, as after a teardown.
func (f *Frame) ResetWindows() {
	f.current = NoWindow
	f.previous = NoWindow
}
