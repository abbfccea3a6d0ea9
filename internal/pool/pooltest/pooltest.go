// Package pooltest provides an in-memory pool.Model for tests.
package pooltest

import (
	"sync/atomic"

	"github.com/philipswan/TetheredRing-sub000/internal/pool"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var nextID atomic.Uint64

// Model records every call made on it.
type Model struct {
	ID         uint64
	Visible    bool
	Placement  core.Placement
	Placements int
	Clones     int
}

// New returns a fresh model with a unique ID.
func New() *Model {
	return &Model{ID: nextID.Add(1)}
}

// SetVisible records visibility.
func (m *Model) SetVisible(visible bool) {
	m.Visible = visible
}

// SetPlacement records the placement and counts the call.
func (m *Model) SetPlacement(p core.Placement) {
	m.Placement = p
	m.Placements++
}

// Clone returns a new model and counts the duplication on the source.
func (m *Model) Clone() pool.Model {
	m.Clones++
	return New()
}
