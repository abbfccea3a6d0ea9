package engine

import (
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Status is a snapshot of the engine taken at the end of a tick.
type Status struct {
	Tick          uint64             `json:"tick"`
	SimTime       float64            `json:"simTime"`
	Camera        core.Position3D    `json:"camera"`
	Windows       []core.WindowState `json:"windows"`
	Pools         []PoolStatus       `json:"pools"`
	Invalid       int                `json:"invalid"`
	PendingSpawns int                `json:"pendingSpawns"`
}

// PoolStatus describes the model pool of one class.
type PoolStatus struct {
	Class   core.ClassName `json:"class"`
	Visible bool           `json:"visible"`
	Free    int            `json:"free"`
	InUse   int            `json:"inUse"`
	Created int            `json:"created"`
	Max     int            `json:"max"`
	// Shortage is the number of failed assignments since start.
	Shortage int `json:"shortage"`
}

// Status returns the snapshot of the last tick. It is safe to call from
// any goroutine.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	s := e.status
	s.PendingSpawns = e.spawns.Len()
	return s
}

func (e *Engine) publish(rec core.TickRecord) {
	s := Status{
		Tick:    rec.Tick,
		SimTime: rec.SimTime,
		Camera:  rec.Camera,
		Windows: rec.Windows,
		Invalid: e.invalid,
	}
	for _, c := range e.registry.All() {
		if _, ok := e.counts[c.Name]; !ok {
			continue
		}
		s.Pools = append(s.Pools, PoolStatus{
			Class:    c.Name,
			Visible:  c.Visible(),
			Free:     c.Pool.Free(),
			InUse:    c.Pool.InUse(),
			Created:  c.Pool.Created(),
			Max:      c.Pool.Max(),
			Shortage: e.shortage[c.Name],
		})
	}

	e.statusMu.Lock()
	e.status = s
	e.statusMu.Unlock()
}
