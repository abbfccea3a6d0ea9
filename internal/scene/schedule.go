package scene

import (
	"fmt"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/internal/frame"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Schedule launches vehicles of one class at a fixed interval of
// simulation time so that Count of them are on the trajectory at once.
type Schedule struct {
	Frame    core.FrameID
	Class    core.ClassName
	Interval float64

	next float64
	seq  int
}

// Due returns the launch times that passed by now and advances the
// schedule past them.
func (sc *Schedule) Due(now float64) []float64 {
	var out []float64
	for sc.Interval > 0 && sc.next <= now {
		out = append(out, sc.next)
		sc.next += sc.Interval
	}
	return out
}

// reschedule replaces the launch schedule of a moving class. The vehicle
// launched at now is already part of the population.
func (s *Scene) reschedule(c *class.Class, now float64) {
	if !c.Moving() {
		return
	}
	n := c.Settings().Count
	if n <= 0 {
		delete(s.schedules, c.Name)
		return
	}
	f, _ := s.Engine.Frame(s.homes[c.Name])
	interval := f.Trajectory.Duration() / float64(n) / s.dilation
	s.schedules[c.Name] = &Schedule{
		Frame:    s.homes[c.Name],
		Class:    c.Name,
		Interval: interval,
		next:     now + interval,
		seq:      n,
	}
}

// Schedule returns the launch schedule of a class.
func (s *Scene) Schedule(name core.ClassName) (*Schedule, bool) {
	sc, ok := s.schedules[name]
	return sc, ok
}

// Advance queues every scheduled launch due by now and returns how many
// were queued.
func (s *Scene) Advance(now float64) (int, error) {
	queued := 0
	for _, sc := range s.schedules {
		for _, at := range sc.Due(now) {
			obj := &frame.Object{ClassIndex: sc.seq, SpawnTime: at, HasSpawnTime: true}
			sc.seq++
			if err := s.Engine.Spawn(sc.Frame, sc.Class, obj); err != nil {
				return queued, fmt.Errorf("scheduled launch: %w", err)
			}
			queued++
		}
	}
	return queued, nil
}
