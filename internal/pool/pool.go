// Package pool holds the per-class supply of renderable models.
package pool

import "github.com/philipswan/TetheredRing-sub000/pkg/core"

// Model is an opaque renderable handle. At any moment it is owned either by
// a Pool or by exactly one virtual object.
type Model interface {
	SetVisible(visible bool)
	SetPlacement(p core.Placement)
	// Clone duplicates the model's geometry into a new, independent handle.
	Clone() Model
}

// Pool is the set of unassigned models of one class. It grows by cloning
// its template when it runs dry and only shrinks on Reset.
//
// Pool is not safe for concurrent use; the engine is its only writer.
type Pool struct {
	template Model
	free     []Model
	created  int
	max      int
}

// New creates a pool that duplicates template on exhaustion. A max of zero
// leaves the pool unbounded. A nil template makes the pool depend entirely
// on seeded models.
func New(template Model, max int) *Pool {
	return &Pool{
		template: template,
		max:      max,
	}
}

// Seed hands pre-built models to the pool.
func (p *Pool) Seed(models ...Model) {
	for _, m := range models {
		if m == nil {
			continue
		}
		p.free = append(p.free, m)
		p.created++
	}
}

// Get pops a free model. When the free list is empty the template is
// duplicated first. It reports false when neither is possible, which the
// caller records as a shortage.
func (p *Pool) Get() (Model, bool) {
	if len(p.free) == 0 && !p.replenish() {
		return nil, false
	}
	last := len(p.free) - 1
	m := p.free[last]
	p.free[last] = nil
	p.free = p.free[:last]
	return m, true
}

// replenish clones the template into the free list.
func (p *Pool) replenish() bool {
	if p.template == nil {
		return false
	}
	if p.max > 0 && p.created >= p.max {
		return false
	}
	clone := p.template.Clone()
	if clone == nil {
		return false
	}
	p.free = append(p.free, clone)
	p.created++
	return true
}

// Put returns a model to the pool.
func (p *Pool) Put(m Model) {
	if m == nil {
		return
	}
	p.free = append(p.free, m)
}

// Free is the number of unassigned models.
func (p *Pool) Free() int {
	return len(p.free)
}

// Created is the number of models in existence, assigned or not.
func (p *Pool) Created() int {
	return p.created
}

// InUse is the number of models currently owned by objects.
func (p *Pool) InUse() int {
	return p.created - len(p.free)
}

// Max is the cap on models in existence, zero when unbounded.
func (p *Pool) Max() int {
	return p.max
}

// SetMax changes the cap. Models already created are kept.
func (p *Pool) SetMax(max int) {
	p.max = max
}

// Reset drops every free model and returns them so the caller can release
// backend resources. Models owned by objects stay counted and may be Put
// back later.
func (p *Pool) Reset() []Model {
	free := p.free
	p.free = nil
	p.created -= len(free)
	return free
}
