package gormstorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipswan/TetheredRing-sub000/internal/database"
	"github.com/philipswan/TetheredRing-sub000/internal/model"
	"github.com/philipswan/TetheredRing-sub000/internal/queue"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

func newBackend(t *testing.T, limit int) *Backend {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSQLite(filepath.Join(t.TempDir(), "ring.db")))
	t.Cleanup(func() { m.Close() })

	b := New(Dependencies{Manager: m, QueueLimit: limit, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func tickRecord(n uint64) *core.TickRecord {
	return &core.TickRecord{
		Tick:     n,
		Time:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SimTime:  float64(n) / 30,
		Duration: 2 * time.Millisecond,
		Camera:   core.Position3D{X: 6.2e6, Y: 0, Z: 1.5e6},
		Windows:  []core.WindowState{{Frame: "stationary", Start: 1, Finish: 3}},
		Classes: []core.ClassTick{
			{Class: "tether", Assigned: 2, InUse: 2},
			{Class: "habitat", Free: 4},
		},
		Discards: []core.DiscardRecord{{Tick: n, Frame: "transit", Class: "transitVehicle", ObjectID: 7, Elapsed: 120}},
	}
}

func TestRecordTick_RequiresSession(t *testing.T) {
	b := newBackend(t, 0)
	assert.ErrorIs(t, b.RecordTick(tickRecord(1)), ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), ErrNoSession)
}

func TestSessionRoundTrip(t *testing.T) {
	b := newBackend(t, 0)
	require.NoError(t, b.StartSession(&core.Session{
		ID:       "5f1d",
		Name:     "equator",
		TickRate: 30,
		Frames:   []core.FrameInfo{{ID: "stationary", Zones: 256}},
		Classes:  []core.ClassName{"tether", "habitat"},
	}))

	require.NoError(t, b.RecordTick(tickRecord(1)))
	require.NoError(t, b.RecordTick(tickRecord(2)))
	assert.Equal(t, 2+2+2, b.Pending(), "idle habitat rows skipped")

	require.NoError(t, b.EndSession())
	assert.Zero(t, b.Pending())

	db := b.DB()
	var ticks []model.TickSample
	require.NoError(t, db.Order("tick").Find(&ticks).Error)
	require.Len(t, ticks, 2)
	assert.Equal(t, "5f1d", ticks[0].SessionID)
	assert.Equal(t, 2.0, ticks[0].DurationMs)
	assert.JSONEq(t, `[{"Frame":"stationary","Start":1,"Finish":3,"Assign":0,"Update":0,"Remove":0}]`, string(ticks[0].Windows))

	var classes []model.ClassSample
	require.NoError(t, db.Find(&classes).Error)
	require.Len(t, classes, 2)
	assert.Equal(t, "tether", classes[0].Class)

	var discards []model.DiscardEvent
	require.NoError(t, db.Find(&discards).Error)
	require.Len(t, discards, 2)
	assert.Equal(t, uint64(7), discards[0].ObjectID)

	var session model.Session
	require.NoError(t, db.First(&session, "id = ?", "5f1d").Error)
	assert.NotNil(t, session.EndTime)
	assert.JSONEq(t, `["tether","habitat"]`, string(session.Classes))
}

func TestRecordTick_QueueFull(t *testing.T) {
	b := newBackend(t, 1)
	require.NoError(t, b.StartSession(&core.Session{ID: "full"}))

	require.NoError(t, b.RecordTick(&core.TickRecord{Tick: 1}))
	err := b.RecordTick(&core.TickRecord{Tick: 2})
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Equal(t, uint64(1), b.Dropped())
}

func TestClose_FlushesPending(t *testing.T) {
	b := newBackend(t, 0)
	require.NoError(t, b.StartSession(&core.Session{ID: "close"}))
	require.NoError(t, b.RecordTick(&core.TickRecord{Tick: 1}))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, b.DB().Model(&model.TickSample{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
