package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	v1 "github.com/philipswan/TetheredRing-sub000/internal/storage/memory/export/v1"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

func session() *core.Session {
	return &core.Session{
		ID:        "abc",
		Name:      "ring: test",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TickRate:  30,
		Frames:    []core.FrameInfo{{ID: "stationary", Zones: 256}},
		Classes:   []core.ClassName{"tether"},
	}
}

func TestRecordTick_RequiresSession(t *testing.T) {
	b := New(config.MemoryConfig{})
	assert.ErrorIs(t, b.RecordTick(&core.TickRecord{Tick: 1}), ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), ErrNoSession)
}

func TestRecordTick_CopiesSlices(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.StartSession(session()))

	rec := &core.TickRecord{Tick: 1, Classes: []core.ClassTick{{Class: "tether", Placed: 1}}}
	require.NoError(t, b.RecordTick(rec))
	rec.Classes[0].Placed = 99

	assert.Equal(t, 1, b.TickCount())
	assert.Equal(t, 1, b.ticks[0].Classes[0].Placed)
}

func TestStartSession_Resets(t *testing.T) {
	b := New(config.MemoryConfig{})
	require.NoError(t, b.StartSession(session()))
	require.NoError(t, b.RecordTick(&core.TickRecord{Tick: 1}))
	require.NoError(t, b.StartSession(session()))
	assert.Zero(t, b.TickCount())
}

func TestEndSession_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	require.NoError(t, b.StartSession(session()))
	require.NoError(t, b.RecordTick(&core.TickRecord{
		Tick:    1,
		Windows: []core.WindowState{{Frame: "stationary", Start: 1, Finish: 2}},
		Classes: []core.ClassTick{{Class: "tether", Assigned: 2, InUse: 2}},
	}))
	require.NoError(t, b.EndSession())

	path := b.ExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "ring__test_20260301_120000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var export v1.Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "abc", export.SessionID)
	assert.Equal(t, uint64(1), export.EndTick)
	require.Len(t, export.Classes, 1)
	assert.Len(t, export.Classes[0].Samples, 1)
}

func TestEndSession_WritesGzip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	require.NoError(t, b.StartSession(session()))
	require.NoError(t, b.EndSession())

	path := b.ExportedFilePath()
	assert.True(t, strings.HasSuffix(path, ".json.gz"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var export v1.Export
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "ring: test", export.Name)
	assert.NotEmpty(t, export.EndTime)
}
