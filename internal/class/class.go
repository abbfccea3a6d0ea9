// Package class describes object classes: how their instances behave, how
// their models are placed and where unassigned models wait.
package class

import (
	"errors"
	"fmt"

	"github.com/philipswan/TetheredRing-sub000/internal/pool"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var (
	ErrDuplicateClass = errors.New("class already registered")
	ErrUnknownClass   = errors.New("unknown class")
)

// Kind is the capability set each object class implements.
type Kind interface {
	// ContinuouslyMoving reports whether instances move within their frame
	// on their own, independent of the frame's rotation.
	ContinuouslyMoving() bool
	// Recyclable reports whether models go back to a pool when released.
	Recyclable() bool
	// Place writes the final pose of m. at is the curve placement at the
	// instance's fraction; index is the instance's class index.
	Place(m pool.Model, at core.Placement, index int, s *Settings)
}

// Creator builds models for kinds that are not recyclable.
type Creator interface {
	NewModel(index int) (pool.Model, error)
}

// Destroyer disposes of released models of kinds that are not recyclable.
type Destroyer interface {
	Destroy(m pool.Model)
}

// Settings are the shared display parameters of a class. They are
// recomputed from configuration and read by every placement.
type Settings struct {
	Visible      bool
	Count        int
	RangeRadius  float64
	MaxModels    int
	UpOffset     float64
	RightOffset  float64
	StackSpacing float64
	StackCount   int
}

// Class is one registered object class.
type Class struct {
	Name core.ClassName
	Kind Kind
	Pool *pool.Pool

	settings Settings
	changed  bool
}

// New creates a class. template seeds duplication for recyclable kinds and
// may be nil for kinds that create their own models.
func New(name core.ClassName, kind Kind, template pool.Model, s Settings) *Class {
	return &Class{
		Name:     name,
		Kind:     kind,
		Pool:     pool.New(template, s.MaxModels),
		settings: s,
	}
}

// Settings returns the current shared parameters.
func (c *Class) Settings() *Settings {
	return &c.settings
}

// Apply replaces the settings and latches the class as changed.
func (c *Class) Apply(s Settings) {
	c.settings = s
	c.Pool.SetMax(s.MaxModels)
	c.changed = true
}

// MarkChanged latches the class as changed without new settings.
func (c *Class) MarkChanged() {
	c.changed = true
}

// Changed reports whether the configuration changed this tick.
func (c *Class) Changed() bool {
	return c.changed
}

// ClearChanged resets the latch. The engine calls it once per tick.
func (c *Class) ClearChanged() {
	c.changed = false
}

// Moving is shorthand for Kind.ContinuouslyMoving.
func (c *Class) Moving() bool {
	return c.Kind.ContinuouslyMoving()
}

// Visible reports whether instances of the class should carry models.
func (c *Class) Visible() bool {
	return c.settings.Visible
}

// Acquire hands out a model for an instance with the given class index.
// It reports false on shortage.
func (c *Class) Acquire(index int) (pool.Model, bool, error) {
	if c.Kind.Recyclable() {
		m, ok := c.Pool.Get()
		return m, ok, nil
	}
	creator, ok := c.Kind.(Creator)
	if !ok {
		return nil, false, fmt.Errorf("class %s: not recyclable and cannot create models", c.Name)
	}
	m, err := creator.NewModel(index)
	if err != nil {
		return nil, false, fmt.Errorf("class %s: creating model: %w", c.Name, err)
	}
	return m, m != nil, nil
}

// Release hides m and gives it back to the pool, or destroys it when the
// kind is not recyclable.
func (c *Class) Release(m pool.Model) {
	if m == nil {
		return
	}
	m.SetVisible(false)
	if c.Kind.Recyclable() {
		c.Pool.Put(m)
		return
	}
	if d, ok := c.Kind.(Destroyer); ok {
		d.Destroy(m)
	}
}

// Drain empties the pool, handing the dropped models to the kind's
// Destroyer when it has one, and returns how many were dropped.
func (c *Class) Drain() int {
	dropped := c.Pool.Reset()
	if d, ok := c.Kind.(Destroyer); ok {
		for _, m := range dropped {
			d.Destroy(m)
		}
	}
	return len(dropped)
}

// Place positions m for an instance and makes it visible.
func (c *Class) Place(m pool.Model, at core.Placement, index int) {
	c.Kind.Place(m, at, index, &c.settings)
	m.SetVisible(true)
}
