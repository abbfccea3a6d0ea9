// Package engine keeps the bounded model pools of every object class
// assigned to exactly the virtual objects near the camera.
//
// A tick drains queued spawns, re-buckets continuously moving objects,
// recomputes every frame's visible window, diffs it against the previous
// one and runs the remove, assign and update passes across all frames.
// Tick is not safe for concurrent use; Spawn, SetCamera and Status are.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/frame"
	"github.com/philipswan/TetheredRing-sub000/internal/queue"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var (
	ErrUnknownFrame   = errors.New("unknown frame")
	ErrDuplicateFrame = errors.New("frame already added")
	ErrNoTrajectory   = errors.New("moving class needs a frame trajectory")
)

// Logger interface for pluggable logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	dilation float64
	backlog  int
	logger   Logger
}

// WithTimeDilation scales elapsed simulation time for moving objects.
func WithTimeDilation(f float64) Option {
	return func(c *config) {
		c.dilation = f
	}
}

// WithSpawnBacklog bounds the number of spawns waiting for the next tick.
func WithSpawnBacklog(n int) Option {
	return func(c *config) {
		c.backlog = n
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Spawn is a request to add an object to a frame at the next tick.
type Spawn struct {
	Frame  core.FrameID
	Class  core.ClassName
	Object *frame.Object
}

// frameState is a frame plus the classes living in it and the work lists
// of the current tick.
type frameState struct {
	frame   *frame.Frame
	classes []*class.Class
	diff    frame.Diff
}

// Engine is the model assignment engine.
type Engine struct {
	registry *class.Registry
	frames   []*frameState
	byID     map[core.FrameID]*frameState
	differ   *frame.Differ
	spawns   *queue.Queue[Spawn]
	logger   Logger
	dilation float64
	metrics  *metrics

	tick     uint64
	now      float64
	counts   map[core.ClassName]*core.ClassTick
	retry    map[core.ClassName]bool
	shortage map[core.ClassName]int
	invalid  int
	tickBad  int
	discards []core.DiscardRecord

	cameraMu sync.RWMutex
	camera   r3.Vec

	statusMu sync.RWMutex
	status   Status
}

// New creates an engine over the classes of registry.
func New(registry *class.Registry, opts ...Option) (*Engine, error) {
	cfg := &config{
		dilation: 1,
		backlog:  1024,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Engine{
		registry: registry,
		byID:     make(map[core.FrameID]*frameState),
		differ:   frame.NewDiffer(0),
		spawns:   queue.New[Spawn](cfg.backlog),
		logger:   cfg.logger,
		dilation: cfg.dilation,
		counts:   make(map[core.ClassName]*core.ClassTick),
		retry:    make(map[core.ClassName]bool),
		shortage: make(map[core.ClassName]int),
	}

	m, err := newMetrics(e)
	if err != nil {
		return nil, err
	}
	e.metrics = m
	return e, nil
}

// AddFrame registers a frame together with the classes whose objects live
// in it. Frames are added before the first tick.
func (e *Engine) AddFrame(f *frame.Frame, classes ...core.ClassName) error {
	if _, ok := e.byID[f.ID]; ok {
		return fmt.Errorf("frame %q: %w", f.ID, ErrDuplicateFrame)
	}
	st := &frameState{frame: f}
	for _, name := range classes {
		c, ok := e.registry.Get(name)
		if !ok {
			return fmt.Errorf("frame %q: %w: %s", f.ID, class.ErrUnknownClass, name)
		}
		if c.Moving() && f.Trajectory == nil {
			return fmt.Errorf("frame %q, class %s: %w", f.ID, name, ErrNoTrajectory)
		}
		st.classes = append(st.classes, c)
		if _, ok := e.counts[name]; !ok {
			e.counts[name] = &core.ClassTick{Class: name}
		}
	}
	e.frames = append(e.frames, st)
	e.byID[f.ID] = st
	// size the shared flag array for the largest frame
	e.differ.Diff(frame.NoWindow, frame.NoWindow, f.Zones(), &st.diff)
	return nil
}

// Frame returns a registered frame.
func (e *Engine) Frame(id core.FrameID) (*frame.Frame, bool) {
	st, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return st.frame, true
}

// Frames returns the registered frames in the order they were added.
func (e *Engine) Frames() []*frame.Frame {
	out := make([]*frame.Frame, len(e.frames))
	for i, st := range e.frames {
		out[i] = st.frame
	}
	return out
}

// Registry returns the class registry the engine serves.
func (e *Engine) Registry() *class.Registry {
	return e.registry
}

func (e *Engine) lookup(id core.FrameID, name core.ClassName) (*frameState, *class.Class, error) {
	st, ok := e.byID[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFrame, id)
	}
	for _, c := range st.classes {
		if c.Name == name {
			return st, c, nil
		}
	}
	return nil, nil, fmt.Errorf("frame %q: %w: %s", id, class.ErrUnknownClass, name)
}

// Populate inserts the initial objects of a class into a frame. Objects
// get models once their zones become visible.
func (e *Engine) Populate(id core.FrameID, name core.ClassName, objs []*frame.Object) error {
	st, _, err := e.lookup(id, name)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		st.frame.Insert(name, obj)
	}
	return nil
}

// Repopulate replaces every object of a class in a frame, releasing their
// models. It runs between ticks, typically after the instance count of
// the class changed. The class is latched as changed so that visible
// replacements receive models on the next tick.
func (e *Engine) Repopulate(id core.FrameID, name core.ClassName, objs []*frame.Object) error {
	st, c, err := e.lookup(id, name)
	if err != nil {
		return err
	}
	for _, old := range st.frame.Take(name) {
		if old.HasModel() {
			c.Release(old.Detach())
		}
	}
	for _, obj := range objs {
		st.frame.Insert(name, obj)
	}
	c.MarkChanged()
	e.logger.Debug("repopulated class", "frame", id, "class", name, "count", len(objs))
	return nil
}

// Spawn queues an object for insertion at the start of the next tick. A
// moving object without a spawn time starts its trajectory at that tick.
func (e *Engine) Spawn(id core.FrameID, name core.ClassName, obj *frame.Object) error {
	if _, _, err := e.lookup(id, name); err != nil {
		return err
	}
	if err := e.spawns.Push(Spawn{Frame: id, Class: name, Object: obj}); err != nil {
		return fmt.Errorf("spawning %s in %s: %w", name, id, err)
	}
	return nil
}

// SetCamera moves the camera used by the next tick.
func (e *Engine) SetCamera(p r3.Vec) {
	e.cameraMu.Lock()
	defer e.cameraMu.Unlock()
	e.camera = p
}

// Camera returns the current camera position.
func (e *Engine) Camera() r3.Vec {
	e.cameraMu.RLock()
	defer e.cameraMu.RUnlock()
	return e.camera
}

// Teardown releases every model, removes every object from every frame
// and empties the class pools.
func (e *Engine) Teardown() {
	for _, st := range e.frames {
		for _, c := range st.classes {
			for _, obj := range st.frame.Take(c.Name) {
				if obj.HasModel() {
					c.Release(obj.Detach())
				}
			}
		}
		st.frame.ResetWindows()
	}
	for _, c := range e.registry.All() {
		if n := c.Drain(); n > 0 {
			e.logger.Debug("drained model pool", "class", c.Name, "models", n)
		}
	}
	e.spawns.Clear()
}
