package scene

import (
	"errors"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/pool"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var errNoModel = errors.New("model factory returned nil")

// ModelFactory creates a hidden model of a class.
type ModelFactory func(name core.ClassName) pool.Model

// disposer is implemented by models holding renderer resources.
type disposer interface {
	Dispose()
}

// disposing destroys models dropped by a class, freeing their renderer
// resources.
type disposing struct{}

func (disposing) Destroy(m pool.Model) {
	if d, ok := m.(disposer); ok {
		d.Dispose()
	}
}

// structureKind is fixed hardware along the ring: tethers and rail
// segments.
type structureKind struct{ disposing }

func (structureKind) ContinuouslyMoving() bool { return false }
func (structureKind) Recyclable() bool         { return true }

func (structureKind) Place(m pool.Model, at core.Placement, _ int, s *class.Settings) {
	m.SetPlacement(at.Offset(0, s.UpOffset, s.RightOffset))
}

// stackKind stacks instances sharing a ring position by class index.
type stackKind struct{ disposing }

func (stackKind) ContinuouslyMoving() bool { return false }
func (stackKind) Recyclable() bool         { return true }

func (stackKind) Place(m pool.Model, at core.Placement, index int, s *class.Settings) {
	m.SetPlacement(at.Offset(0, s.UpOffset+float64(index)*s.StackSpacing, s.RightOffset))
}

// craftedKind builds a dedicated model per instance and destroys it on
// release. Termini use it.
type craftedKind struct {
	structureKind
	name   core.ClassName
	models ModelFactory
}

func (*craftedKind) Recyclable() bool { return false }

func (k *craftedKind) NewModel(int) (pool.Model, error) {
	m := k.models(k.name)
	if m == nil {
		return nil, errNoModel
	}
	return m, nil
}

// vehicleKind moves along its frame's trajectory. Vehicles alternate
// between lanes by class index; lanes are RightOffset apart.
type vehicleKind struct {
	disposing
	lanes int
}

func (vehicleKind) ContinuouslyMoving() bool { return true }
func (vehicleKind) Recyclable() bool         { return true }

func (k vehicleKind) Place(m pool.Model, at core.Placement, index int, s *class.Settings) {
	right := 0.0
	if k.lanes > 1 {
		lane := index % k.lanes
		right = (float64(lane) - float64(k.lanes-1)/2) * s.RightOffset
	}
	m.SetPlacement(at.Offset(0, s.UpOffset, right))
}
