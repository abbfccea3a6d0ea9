// Package convert maps between core records and the gorm schema.
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/philipswan/TetheredRing-sub000/internal/geo"
	"github.com/philipswan/TetheredRing-sub000/internal/model"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// toJSON marshals v for a JSON column, falling back to an empty array.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to its gorm row.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:           s.ID,
		Name:         s.Name,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		TimeDilation: s.TimeDilation,
		Frames:       toJSON(s.Frames),
		Classes:      toJSON(s.Classes),
	}
}

// CoreToTickSample converts the summary part of a tick record.
func CoreToTickSample(sessionID string, r core.TickRecord) model.TickSample {
	return model.TickSample{
		SessionID:  sessionID,
		Tick:       r.Tick,
		Time:       r.Time,
		SimTime:    r.SimTime,
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
		Camera:     geo.PointZ(r.Camera),
		Invalid:    r.Invalid,
		Windows:    toJSON(r.Windows),
	}
}

// CoreToClassSamples converts the per-class counters of a tick, skipping
// classes that neither changed nor hold models.
func CoreToClassSamples(sessionID string, r core.TickRecord) []model.ClassSample {
	out := make([]model.ClassSample, 0, len(r.Classes))
	for _, c := range r.Classes {
		if c == (core.ClassTick{Class: c.Class, Free: c.Free}) {
			continue
		}
		out = append(out, model.ClassSample{
			SessionID: sessionID,
			Tick:      r.Tick,
			Class:     string(c.Class),
			Assigned:  c.Assigned,
			Released:  c.Released,
			Placed:    c.Placed,
			Shortage:  c.Shortage,
			Discarded: c.Discarded,
			Migrated:  c.Migrated,
			Free:      c.Free,
			InUse:     c.InUse,
		})
	}
	return out
}

// CoreToDiscardEvent converts a discard record.
func CoreToDiscardEvent(sessionID string, d core.DiscardRecord) model.DiscardEvent {
	return model.DiscardEvent{
		SessionID: sessionID,
		Tick:      d.Tick,
		SimTime:   d.SimTime,
		Frame:     string(d.Frame),
		Class:     string(d.Class),
		ObjectID:  d.ObjectID,
		Elapsed:   d.Elapsed,
	}
}
