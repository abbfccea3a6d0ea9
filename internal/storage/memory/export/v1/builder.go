package v1

import (
	"time"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// SessionData contains all the data needed to build an export
type SessionData struct {
	Session *core.Session
	EndTime time.Time
	Ticks   []core.TickRecord
}

// Build creates an Export from the session data
func Build(data *SessionData) Export {
	s := data.Session
	export := Export{
		Version:      Version,
		SessionID:    s.ID,
		Name:         s.Name,
		StartTime:    s.StartTime.UTC().Format(time.RFC3339Nano),
		TickRate:     s.TickRate,
		TimeDilation: s.TimeDilation,
		Frames:       make([]Frame, 0, len(s.Frames)),
		Classes:      make([]ClassData, 0, len(s.Classes)),
		Ticks:        make([][]any, 0, len(data.Ticks)),
		Discards:     make([][]any, 0),
	}
	if !data.EndTime.IsZero() {
		export.EndTime = data.EndTime.UTC().Format(time.RFC3339Nano)
	}

	frameIndex := make(map[core.FrameID]int, len(s.Frames))
	for i, f := range s.Frames {
		frameIndex[f.ID] = i
		export.Frames = append(export.Frames, Frame{ID: string(f.ID), Zones: f.Zones, RotationRate: f.RotationRate})
	}
	classIndex := make(map[core.ClassName]int, len(s.Classes))
	for i, name := range s.Classes {
		classIndex[name] = i
		export.Classes = append(export.Classes, ClassData{Name: string(name), Samples: make([][]any, 0)})
	}

	for _, rec := range data.Ticks {
		if rec.Tick > export.EndTick {
			export.EndTick = rec.Tick
		}

		windows := make([][]int, len(export.Frames))
		for _, w := range rec.Windows {
			if i, ok := frameIndex[w.Frame]; ok {
				windows[i] = []int{w.Start, w.Finish}
			}
		}
		export.Ticks = append(export.Ticks, []any{
			rec.Tick,
			rec.SimTime,
			float64(rec.Duration.Microseconds()) / 1000,
			rec.Invalid,
			windows,
		})

		for _, c := range rec.Classes {
			i, ok := classIndex[c.Class]
			if !ok || !active(c) {
				continue
			}
			export.Classes[i].Samples = append(export.Classes[i].Samples, []any{
				rec.Tick, c.Assigned, c.Released, c.Placed, c.Shortage,
				c.Discarded, c.Migrated, c.Free, c.InUse,
			})
		}

		for _, d := range rec.Discards {
			export.Discards = append(export.Discards, []any{
				d.Tick, d.SimTime, string(d.Frame), string(d.Class), d.ObjectID, d.Elapsed,
			})
		}
	}

	return export
}

// active reports whether a class did anything during the tick.
func active(c core.ClassTick) bool {
	return c.Assigned+c.Released+c.Placed+c.Shortage+c.Discarded+c.Migrated > 0
}
