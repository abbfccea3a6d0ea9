package frame

import "github.com/philipswan/TetheredRing-sub000/internal/pool"

// Object is a virtual instance: a position in its frame plus metadata,
// independent of any renderable resource.
type Object struct {
	// ID is assigned by the frame on insertion.
	ID uint64
	// FramePosition is the fraction along the frame's path. It is expected
	// in [0,1) and is not wrapped on write.
	FramePosition float64
	// ClassIndex selects a geometric variant at the same position, such as
	// one ring of a stack.
	ClassIndex int
	// SpawnTime is the simulation time at which a moving object starts its
	// trajectory.
	SpawnTime    float64
	HasSpawnTime bool

	model pool.Model
}

// Model returns the attached model, or nil.
func (o *Object) Model() pool.Model {
	return o.model
}

// HasModel reports whether a model is attached.
func (o *Object) HasModel() bool {
	return o.model != nil
}

// Attach links m to the object. Only the assignment engine calls it, and
// only for objects without a model.
func (o *Object) Attach(m pool.Model) {
	o.model = m
}

// Detach unlinks and returns the attached model.
func (o *Object) Detach() pool.Model {
	m := o.model
	o.model = nil
	return m
}
