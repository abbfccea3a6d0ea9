package engine

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/frame"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Tick advances the engine to simulation time now, in seconds, and
// returns a summary of the work done. Anomalies are counted and logged,
// never returned.
func (e *Engine) Tick(now float64) core.TickRecord {
	started := time.Now()
	camera := e.Camera()
	retry := e.beginTick(now)

	e.drainSpawns(now)

	// every frame is re-bucketed before any window is computed
	for _, st := range e.frames {
		e.reassign(st, now)
	}
	for _, st := range e.frames {
		f := st.frame
		f.Track(camera, now)
		e.differ.Diff(f.Previous(), f.Current(), f.Zones(), &st.diff)
	}

	for _, st := range e.frames {
		e.removePass(st)
	}
	for _, st := range e.frames {
		e.assignPass(st, now, retry)
	}
	for _, st := range e.frames {
		e.updatePass(st, now, retry)
	}

	e.registry.ClearChanged()
	for _, st := range e.frames {
		st.frame.Roll()
	}

	return e.finishTick(started, camera)
}

// beginTick resets the per-tick ledger and returns the classes that ran
// short of models on the previous tick.
func (e *Engine) beginTick(now float64) map[core.ClassName]bool {
	e.tick++
	e.now = now
	e.tickBad = 0
	e.discards = nil
	for name, ct := range e.counts {
		*ct = core.ClassTick{Class: name}
	}
	retry := e.retry
	e.retry = make(map[core.ClassName]bool, len(retry))
	return retry
}

func (e *Engine) drainSpawns(now float64) {
	for _, s := range e.spawns.GetAndEmpty() {
		st, c, err := e.lookup(s.Frame, s.Class)
		if err != nil {
			e.logger.Warn("dropping spawn", "error", err)
			continue
		}
		obj := s.Object
		f := st.frame
		if c.Moving() {
			if !obj.HasSpawnTime {
				obj.SpawnTime = now
				obj.HasSpawnTime = true
			}
			elapsed := math.Max(0, (now-obj.SpawnTime)*e.dilation)
			obj.FramePosition = f.Trajectory.FractionAt(elapsed)
		} else {
			c.MarkChanged()
		}
		z := f.Insert(c.Name, obj)
		e.logger.Debug("spawned object", "frame", f.ID, "class", c.Name, "object", obj.ID, "zone", z)
	}
}

func (e *Engine) removePass(st *frameState) {
	for _, z := range st.diff.Remove {
		zone := st.frame.Zone(z)
		for _, c := range st.classes {
			for _, obj := range zone[c.Name] {
				if obj.HasModel() {
					e.release(c, obj)
				}
			}
		}
	}
}

// assignPass attaches models in newly visible zones. Classes the update
// pass walks this tick are left to it so each object is tried once.
func (e *Engine) assignPass(st *frameState, now float64, retry map[core.ClassName]bool) {
	for _, z := range st.diff.Assign {
		zone := st.frame.Zone(z)
		for _, c := range st.classes {
			objs := zone[c.Name]
			if len(objs) == 0 || !c.Visible() || e.updates(st, c, retry) {
				continue
			}
			for _, obj := range objs {
				if obj.HasModel() || !e.valid(st, c, obj) {
					continue
				}
				if e.attach(c, obj) {
					e.place(st, c, obj, now)
				}
			}
		}
	}
}

func (e *Engine) updatePass(st *frameState, now float64, retry map[core.ClassName]bool) {
	for _, c := range st.classes {
		if !e.updates(st, c, retry) {
			continue
		}
		refresh := e.refreshes(st, c)
		visible := c.Visible()
		for _, z := range st.diff.Update {
			for _, obj := range st.frame.Objects(z, c.Name) {
				switch {
				case !visible:
					if obj.HasModel() {
						e.release(c, obj)
					}
				case !obj.HasModel():
					if e.valid(st, c, obj) && e.attach(c, obj) {
						e.place(st, c, obj, now)
					}
				case refresh:
					e.place(st, c, obj, now)
				}
			}
		}
	}
}

// updates reports whether the update pass walks c in the frame this tick.
func (e *Engine) updates(st *frameState, c *class.Class, retry map[core.ClassName]bool) bool {
	return e.refreshes(st, c) || retry[c.Name]
}

// refreshes reports whether the update pass re-places every visible
// object of c in the frame.
func (e *Engine) refreshes(st *frameState, c *class.Class) bool {
	return c.Moving() || c.Changed() || st.frame.Rotating()
}

func (e *Engine) attach(c *class.Class, obj *frame.Object) bool {
	m, ok, err := c.Acquire(obj.ClassIndex)
	if err != nil {
		e.logger.Warn("model creation failed", "class", c.Name, "object", obj.ID, "error", err)
	}
	if !ok {
		e.counts[c.Name].Shortage++
		e.retry[c.Name] = true
		return false
	}
	obj.Attach(m)
	e.counts[c.Name].Assigned++
	return true
}

func (e *Engine) release(c *class.Class, obj *frame.Object) {
	c.Release(obj.Detach())
	e.counts[c.Name].Released++
}

func (e *Engine) valid(st *frameState, c *class.Class, obj *frame.Object) bool {
	p := obj.FramePosition
	if p >= 0 && p < 1 {
		return true
	}
	e.tickBad++
	e.logger.Warn("invalid frame position",
		"frame", st.frame.ID,
		"class", c.Name,
		"object", obj.ID,
		"position", p)
	return false
}

func (e *Engine) place(st *frameState, c *class.Class, obj *frame.Object, now float64) {
	if !e.valid(st, c, obj) {
		return
	}
	c.Place(obj.Model(), st.frame.PlacementOf(obj.FramePosition, now), obj.ClassIndex)
	e.counts[c.Name].Placed++
}

func (e *Engine) finishTick(started time.Time, camera r3.Vec) core.TickRecord {
	rec := core.TickRecord{
		Tick:     e.tick,
		Time:     time.Now(),
		SimTime:  e.now,
		Camera:   core.Position3D{X: camera.X, Y: camera.Y, Z: camera.Z},
		Discards: e.discards,
		Invalid:  e.tickBad,
	}
	for _, st := range e.frames {
		cur := st.frame.Current()
		rec.Windows = append(rec.Windows, core.WindowState{
			Frame:  st.frame.ID,
			Start:  cur.Start,
			Finish: cur.Finish,
			Assign: len(st.diff.Assign),
			Update: len(st.diff.Update),
			Remove: len(st.diff.Remove),
		})
	}
	for _, c := range e.registry.All() {
		ct, ok := e.counts[c.Name]
		if !ok {
			continue
		}
		ct.Free = c.Pool.Free()
		ct.InUse = c.Pool.InUse()
		rec.Classes = append(rec.Classes, *ct)
		if ct.Shortage > 0 {
			e.shortage[c.Name] += ct.Shortage
			e.logger.Warn("model pool exhausted",
				"class", c.Name,
				"missing", ct.Shortage,
				"free", ct.Free,
				"inUse", ct.InUse)
		}
	}
	e.invalid += e.tickBad
	rec.Duration = time.Since(started)

	e.metrics.record(rec)
	e.publish(rec)
	return rec
}
