// Package scene lays the tethered ring out as reference frames and object
// classes and keeps their populations in line with configuration.
package scene

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/curve"
	"github.com/philipswan/TetheredRing-sub000/internal/engine"
	"github.com/philipswan/TetheredRing-sub000/internal/frame"
	"github.com/philipswan/TetheredRing-sub000/internal/geo"
	"github.com/philipswan/TetheredRing-sub000/internal/pool"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var (
	ErrInvalidRing   = errors.New("invalid ring geometry")
	ErrNotMoving     = errors.New("class does not move")
	ErrUnplacedClass = errors.New("class has no frame")
)

// launchSegments is the number of straight pieces of the mass driver.
const launchSegments = 16

// layout assigns every class to the frame its instances live in.
var layout = []struct {
	frame   core.FrameID
	classes []core.ClassName
}{
	{config.StationaryFrame, []core.ClassName{config.Tether, config.Habitat, config.Terminus}},
	{config.MovingRingFrame, []core.ClassName{config.RailSegment}},
	{config.TransitFrame, []core.ClassName{config.TransitVehicle}},
	{config.LaunchFrame, []core.ClassName{config.LaunchVehicle}},
}

// Config is everything Build needs.
type Config struct {
	Ring    config.RingConfig
	Frames  map[core.FrameID]config.FrameConfig
	Classes map[core.ClassName]class.Settings
	// TimeDilation must match the engine's so that pre-launched vehicles
	// start where their trajectory puts them.
	TimeDilation float64
}

// LoadConfig reads the scene configuration through the config package.
func LoadConfig() Config {
	cfg := Config{
		Ring:         config.GetRingConfig(),
		Frames:       make(map[core.FrameID]config.FrameConfig),
		Classes:      make(map[core.ClassName]class.Settings),
		TimeDilation: config.GetEngineConfig().TimeDilation,
	}
	for _, l := range layout {
		cfg.Frames[l.frame] = config.GetFrameConfig(l.frame)
	}
	for _, name := range config.ClassNames() {
		cfg.Classes[name] = config.GetClassSettings(name)
	}
	return cfg
}

// Scene is the engine together with the ring geometry it was built from.
type Scene struct {
	Engine     *engine.Engine
	Registry   *class.Registry
	Ring       *curve.Ring
	LaunchPath *curve.Polyline

	frames    map[core.FrameID]config.FrameConfig
	homes     map[core.ClassName]core.FrameID
	dilation  float64
	schedules map[core.ClassName]*Schedule
}

// Build creates the frames, classes and initial populations at simulation
// time 0.
func Build(cfg Config, models ModelFactory, opts ...engine.Option) (*Scene, error) {
	if cfg.Ring.TransitSpeed <= 0 || cfg.Ring.TransitLaps <= 0 {
		return nil, fmt.Errorf("%w: transit speed and laps must be positive", ErrInvalidRing)
	}
	if cfg.Ring.LaunchAccel <= 0 || cfg.Ring.LaunchLength <= 0 {
		return nil, fmt.Errorf("%w: launch length and acceleration must be positive", ErrInvalidRing)
	}
	if cfg.TimeDilation <= 0 {
		cfg.TimeDilation = 1
	}

	center, radius := geo.LatitudeCircle(cfg.Ring.Latitude, cfg.Ring.Altitude)
	ring := curve.NewRing(center, radius, r3.Vec{Z: 1})
	launch, launchTraj, err := launchTrack(ring, cfg.Ring)
	if err != nil {
		return nil, err
	}

	registry := class.NewRegistry()
	for _, name := range config.ClassNames() {
		kind := kindOf(name, models)
		var template pool.Model
		if kind.Recyclable() {
			template = models(name)
		}
		if err := registry.Add(class.New(name, kind, template, cfg.Classes[name])); err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(registry, append([]engine.Option{engine.WithTimeDilation(cfg.TimeDilation)}, opts...)...)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Engine:     eng,
		Registry:   registry,
		Ring:       ring,
		LaunchPath: launch,
		frames:     cfg.Frames,
		homes:      make(map[core.ClassName]core.FrameID),
		dilation:   cfg.TimeDilation,
		schedules:  make(map[core.ClassName]*Schedule),
	}

	for _, l := range layout {
		fc := frame.Config{
			ID:          l.frame,
			Zones:       cfg.Frames[l.frame].Zones,
			RangeRadius: s.rangeRadius(l.frame, l.classes),
			Path:        ring,
		}
		switch l.frame {
		case config.MovingRingFrame:
			fc.RotationRate = cfg.Ring.MovingRingSpeed / ring.Length()
		case config.TransitFrame:
			fc.Trajectory = curve.Kinematic{
				PathLength: ring.Length(),
				Speed:      cfg.Ring.TransitSpeed,
				Lifetime:   cfg.Ring.TransitLaps * ring.Length() / cfg.Ring.TransitSpeed,
			}
		case config.LaunchFrame:
			fc.Path = launch
			fc.Trajectory = launchTraj
		}
		f, err := frame.New(fc)
		if err != nil {
			return nil, err
		}
		if err := eng.AddFrame(f, l.classes...); err != nil {
			return nil, err
		}
		for _, name := range l.classes {
			s.homes[name] = l.frame
		}
	}

	for _, c := range registry.All() {
		id := s.homes[c.Name]
		if err := eng.Populate(id, c.Name, s.objects(c, 0)); err != nil {
			return nil, err
		}
		s.reschedule(c, 0)
	}
	return s, nil
}

func kindOf(name core.ClassName, models ModelFactory) class.Kind {
	switch name {
	case config.Habitat:
		return stackKind{}
	case config.Terminus:
		return &craftedKind{name: name, models: models}
	case config.TransitVehicle:
		return vehicleKind{lanes: 2}
	case config.LaunchVehicle:
		return vehicleKind{lanes: 1}
	default:
		return structureKind{}
	}
}

// launchTrack builds the mass driver: a straight run tangent to the ring
// at fraction 0 that curves up to the launch altitude. The polyline closes
// back to its start; vehicles leave the trajectory before reaching the
// closing segment.
func launchTrack(ring *curve.Ring, rc config.RingConfig) (*curve.Polyline, curve.Kinematic, error) {
	start := ring.PointAt(0)
	up := r3.Unit(start.Position)
	points := make([]r3.Vec, 0, launchSegments+1)
	for i := 0; i <= launchSegments; i++ {
		t := float64(i) / launchSegments
		p := r3.Add(start.Position, r3.Scale(rc.LaunchLength*t, start.Basis.Forward))
		points = append(points, r3.Add(p, r3.Scale(rc.LaunchAltitude*t*t, up)))
	}
	path, err := curve.NewPolyline(points, r3.Vec{})
	if err != nil {
		return nil, curve.Kinematic{}, fmt.Errorf("%w: %w", ErrInvalidRing, err)
	}
	run := 0.0
	for i := 1; i < len(points); i++ {
		run += r3.Norm(r3.Sub(points[i], points[i-1]))
	}
	return path, curve.Kinematic{
		PathLength:   path.Length(),
		Acceleration: rc.LaunchAccel,
		Lifetime:     math.Sqrt(2 * run / rc.LaunchAccel),
	}, nil
}

// rangeRadius is the configured radius of a frame, or the largest radius
// among its classes when none is configured.
func (s *Scene) rangeRadius(id core.FrameID, names []core.ClassName) float64 {
	if r := s.frames[id].RangeRadius; r > 0 {
		return r
	}
	r := 0.0
	for _, name := range names {
		if c, ok := s.Registry.Get(name); ok {
			r = math.Max(r, c.Settings().RangeRadius)
		}
	}
	return r
}

// Home returns the frame a class lives in.
func (s *Scene) Home(name core.ClassName) (core.FrameID, bool) {
	id, ok := s.homes[name]
	return id, ok
}

// objects lays out the population of a class as of simulation time now.
func (s *Scene) objects(c *class.Class, now float64) []*frame.Object {
	set := c.Settings()
	if set.Count <= 0 {
		return nil
	}
	if c.Moving() {
		return s.vehicles(c, now)
	}
	stack := 1
	if c.Name == config.Habitat && set.StackCount > 1 {
		stack = set.StackCount
	}
	objs := make([]*frame.Object, 0, set.Count*stack)
	for i := 0; i < set.Count; i++ {
		pos := float64(i) / float64(set.Count)
		for j := 0; j < stack; j++ {
			index := i
			if stack > 1 {
				index = j
			}
			objs = append(objs, &frame.Object{FramePosition: pos, ClassIndex: index})
		}
	}
	return objs
}

// vehicles spreads Count vehicles evenly along the trajectory as if they
// had been launched at regular intervals before now.
func (s *Scene) vehicles(c *class.Class, now float64) []*frame.Object {
	f, _ := s.Engine.Frame(s.homes[c.Name])
	traj := f.Trajectory
	n := c.Settings().Count
	gap := traj.Duration() / float64(n)
	objs := make([]*frame.Object, 0, n)
	for i := 0; i < n; i++ {
		elapsed := float64(i) * gap
		objs = append(objs, &frame.Object{
			FramePosition: traj.FractionAt(elapsed),
			ClassIndex:    i,
			SpawnTime:     now - elapsed/s.dilation,
			HasSpawnTime:  true,
		})
	}
	return objs
}

// Apply installs new settings for a class between ticks. The population
// is rebuilt when the instance layout changed.
func (s *Scene) Apply(name core.ClassName, set class.Settings, now float64) error {
	c, ok := s.Registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", class.ErrUnknownClass, name)
	}
	id, ok := s.homes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnplacedClass, name)
	}
	old := *c.Settings()
	c.Apply(set)

	if f, ok := s.Engine.Frame(id); ok {
		for _, l := range layout {
			if l.frame == id {
				f.RangeRadius = s.rangeRadius(id, l.classes)
			}
		}
	}

	if old.Count == set.Count && old.StackCount == set.StackCount {
		return nil
	}
	if err := s.Engine.Repopulate(id, name, s.objects(c, now)); err != nil {
		return err
	}
	s.reschedule(c, now)
	return nil
}

// Launch spawns one vehicle of a moving class at the next tick.
func (s *Scene) Launch(name core.ClassName) error {
	c, ok := s.Registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", class.ErrUnknownClass, name)
	}
	if !c.Moving() {
		return fmt.Errorf("%w: %s", ErrNotMoving, name)
	}
	return s.Engine.Spawn(s.homes[name], name, &frame.Object{})
}

// Session describes the scene for telemetry and the placement stream.
func (s *Scene) Session(id, name string, tickRate float64, start time.Time) *core.Session {
	sess := &core.Session{
		ID:           id,
		Name:         name,
		StartTime:    start,
		TickRate:     tickRate,
		TimeDilation: s.dilation,
	}
	for _, f := range s.Engine.Frames() {
		sess.Frames = append(sess.Frames, core.FrameInfo{ID: f.ID, Zones: f.Zones(), RotationRate: f.RotationRate})
	}
	for _, c := range s.Registry.All() {
		sess.Classes = append(sess.Classes, c.Name)
	}
	return sess
}
