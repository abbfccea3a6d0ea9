package engine

import (
	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/frame"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

type migration struct {
	obj  *frame.Object
	zone int
}

// reassign re-buckets the objects of every continuously moving class in
// the frame. Each zone list is rebuilt from the objects that stay, and
// migrating objects are appended to their target zones only after all
// zones have been scanned.
func (e *Engine) reassign(st *frameState, now float64) {
	f := st.frame
	if f.Trajectory == nil {
		return
	}
	zones := f.Zones()
	for _, c := range st.classes {
		if !c.Moving() {
			continue
		}
		var moves []migration
		for z := 0; z < zones; z++ {
			objs := f.Objects(z, c.Name)
			if len(objs) == 0 {
				continue
			}
			kept := make([]*frame.Object, 0, len(objs))
			for _, obj := range objs {
				target, ok := e.target(f, obj, z, now)
				switch {
				case !ok:
					e.discard(st, c, obj, now)
				case target == z:
					kept = append(kept, obj)
				default:
					moves = append(moves, migration{obj: obj, zone: target})
				}
			}
			f.SetObjects(z, c.Name, kept)
		}

		prev := f.Previous()
		for _, m := range moves {
			// a model never rides into a zone that was not visible; the
			// assign pass picks the object up if the zone appears now
			if m.obj.HasModel() && !prev.Contains(m.zone, zones) {
				e.release(c, m.obj)
			}
			f.Append(m.zone, c.Name, m.obj)
		}
		e.counts[c.Name].Migrated += len(moves)
	}
}

// target computes the zone an object belongs in at time now and advances
// its frame position. ok is false when the object has left its trajectory.
func (e *Engine) target(f *frame.Frame, obj *frame.Object, zone int, now float64) (int, bool) {
	if !obj.HasSpawnTime {
		return zone, true
	}
	elapsed := (now - obj.SpawnTime) * e.dilation
	if elapsed < 0 {
		// not launched yet
		return zone, true
	}
	traj := f.Trajectory
	if elapsed > traj.Duration() {
		return core.NoZone, false
	}
	z := traj.ZoneIndex(elapsed, f.Zones())
	if z == core.NoZone {
		return core.NoZone, false
	}
	obj.FramePosition = traj.FractionAt(elapsed)
	n := f.Zones()
	return ((z % n) + n) % n, true
}

func (e *Engine) discard(st *frameState, c *class.Class, obj *frame.Object, now float64) {
	if obj.HasModel() {
		e.release(c, obj)
	}
	e.counts[c.Name].Discarded++
	elapsed := (now - obj.SpawnTime) * e.dilation
	e.discards = append(e.discards, core.DiscardRecord{
		Tick:     e.tick,
		SimTime:  now,
		Frame:    st.frame.ID,
		Class:    c.Name,
		ObjectID: obj.ID,
		Elapsed:  elapsed,
	})
	e.logger.Debug("object left its trajectory",
		"frame", st.frame.ID,
		"class", c.Name,
		"object", obj.ID,
		"elapsed", elapsed)
}
