package convert

import (
	"encoding/json"
	"time"

	"github.com/philipswan/TetheredRing-sub000/internal/geo"
	"github.com/philipswan/TetheredRing-sub000/internal/model"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// SessionToCore converts a gorm Session back to a core.Session.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:           s.ID,
		Name:         s.Name,
		StartTime:    s.StartTime,
		TickRate:     s.TickRate,
		TimeDilation: s.TimeDilation,
	}
	if len(s.Frames) > 0 {
		_ = json.Unmarshal(s.Frames, &out.Frames)
	}
	if len(s.Classes) > 0 {
		_ = json.Unmarshal(s.Classes, &out.Classes)
	}
	return out
}

// TickSampleToCore rebuilds the summary of a tick. Class counters and
// discards live in their own tables and are not filled in.
func TickSampleToCore(t model.TickSample) core.TickRecord {
	out := core.TickRecord{
		Tick:     t.Tick,
		Time:     t.Time,
		SimTime:  t.SimTime,
		Duration: time.Duration(t.DurationMs * float64(time.Millisecond)),
		Invalid:  t.Invalid,
	}
	if pos, err := geo.PositionFromPoint(t.Camera); err == nil {
		out.Camera = pos
	}
	if len(t.Windows) > 0 {
		_ = json.Unmarshal(t.Windows, &out.Windows)
	}
	return out
}
