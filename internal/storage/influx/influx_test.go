package influxstorage

import (
	"bufio"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record() *core.TickRecord {
	return &core.TickRecord{
		Tick:     3,
		Time:     at,
		SimTime:  0.1,
		Duration: 1500 * time.Microsecond,
		Windows:  []core.WindowState{{Frame: "stationary", Start: 4, Finish: 6, Update: 3}},
		Classes: []core.ClassTick{
			{Class: "tether", Placed: 3, InUse: 3},
			{Class: "habitat", Free: 2},
		},
		Discards: []core.DiscardRecord{{Tick: 3, Frame: "transit", Class: "transitVehicle", ObjectID: 12, Elapsed: 60}},
	}
}

func TestPoints(t *testing.T) {
	points := Points("s1", record())
	require.Len(t, points, 4, "idle habitat skipped")

	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	}
	assert.True(t, strings.HasPrefix(lines[0], "tick,session=s1 "))
	assert.Contains(t, lines[0], "duration_ms=1.5")
	assert.True(t, strings.HasPrefix(lines[1], "window,frame=stationary,session=s1 "))
	assert.Contains(t, lines[1], "update=3i")
	assert.True(t, strings.HasPrefix(lines[2], "class,class=tether,session=s1 "))
	assert.True(t, strings.HasPrefix(lines[3], "discard,class=transitVehicle,frame=transit,session=s1 "))
	assert.Contains(t, lines[3], "object_id=12i")
}

func TestBackupWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "influx.lp.gz")
	b := New(config.InfluxConfig{URL: "http://127.0.0.1:1", Org: "ring", Bucket: "ring", BackupPath: path}, zerolog.Nop())
	require.NoError(t, b.Init())
	assert.False(t, b.Online())

	assert.ErrorIs(t, b.RecordTick(record()), ErrNoSession)
	require.NoError(t, b.StartSession(&core.Session{ID: "s1", Name: "backup", StartTime: at}))
	require.NoError(t, b.RecordTick(record()))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "session,session=s1 "))
}

func TestInit_NoBackupPath(t *testing.T) {
	b := New(config.InfluxConfig{URL: "http://127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}
