package class

import (
	"fmt"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Registry holds every class by name in registration order.
type Registry struct {
	classes map[core.ClassName]*Class
	order   []*Class
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[core.ClassName]*Class)}
}

// Add registers c.
func (r *Registry) Add(c *Class) error {
	if _, ok := r.classes[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, c.Name)
	}
	r.classes[c.Name] = c
	r.order = append(r.order, c)
	return nil
}

// Get looks a class up by name.
func (r *Registry) Get(name core.ClassName) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// All returns the classes in registration order.
func (r *Registry) All() []*Class {
	return r.order
}

// Apply updates the settings of a named class.
func (r *Registry) Apply(name core.ClassName, s Settings) error {
	c, ok := r.classes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	c.Apply(s)
	return nil
}

// ClearChanged resets every class's changed latch.
func (r *Registry) ClearChanged() {
	for _, c := range r.order {
		c.ClearChanged()
	}
}
