package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"engine": { "tickRate": 60 },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)
	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, 60.0, GetEngineConfig().TickRate)
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "ringstream", viper.GetString("db.database"))

	ec := GetEngineConfig()
	assert.Equal(t, 30.0, ec.TickRate)
	assert.Equal(t, 1.0, ec.TimeDilation)
	assert.Equal(t, 1024, ec.SpawnBacklog)
	assert.Zero(t, ec.RunFor)

	assert.Equal(t, 10*time.Minute, GetCameraConfig().OrbitPeriod)
	assert.Equal(t, 256, GetFrameConfig(StationaryFrame).Zones)
	assert.Equal(t, 64, GetFrameConfig(LaunchFrame).Zones)
	assert.InDelta(t, 14.33, GetRingConfig().Latitude, 1e-9)

	lc := GetLogConfig()
	assert.Equal(t, "info", lc.Level)
	assert.False(t, lc.Graylog)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetClassSettings(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"classes": { "habitat": { "visible": false, "stackCount": 5 } }
	}`)))

	assert.Equal(t, class.Settings{
		Visible:      false,
		Count:        1024,
		RangeRadius:  50000,
		MaxModels:    512,
		UpOffset:     40,
		StackSpacing: 12,
		StackCount:   5,
	}, GetClassSettings(Habitat))
	assert.Equal(t, 8, GetClassSettings(Terminus).Count)
	assert.Len(t, ClassNames(), len(classDefaults))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
	assert.Empty(t, cfg.SQLite.Path)
	assert.Equal(t, "http://localhost:8086", cfg.Influx.URL)
	assert.Equal(t, "postgres", cfg.Postgres.Username)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false },
			"sqlite": { "path": "/tmp/ring.db", "dumpInterval": "10m" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/ring.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelAndRenderConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"otel": { "enabled": true, "exportInterval": "30s" },
		"render": { "enabled": true, "url": "ws://viewer:9000/placements" }
	}`)))

	oc := GetOTelConfig()
	assert.True(t, oc.Enabled)
	assert.Equal(t, "ringstream", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.ExportInterval)

	rc := GetRenderConfig()
	assert.True(t, rc.Enabled)
	assert.Equal(t, "ws://viewer:9000/placements", rc.URL)

	mc := GetMonitorConfig()
	assert.True(t, mc.Enabled)
	assert.Equal(t, time.Second, mc.Interval)
}

func TestParamsDiff(t *testing.T) {
	before := Params{"a": 1, "b": "x", "gone": true}
	after := Params{"a": 1, "b": "y", "new": 2.5}

	assert.Equal(t, []string{"b", "gone", "new"}, before.Diff(after))
	assert.Empty(t, after.Diff(after))
}

func TestChangedClasses(t *testing.T) {
	keys := []string{
		"classes.habitat.visible",
		"classes.railsegment.count",
		"classes.habitat.count",
		"classes.unknown.count",
		"engine.tickrate",
	}
	got := ChangedClasses(keys, ClassNames())
	assert.Equal(t, []core.ClassName{Habitat, RailSegment}, got)
}

func TestWatcher_Detect(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	w := NewWatcher()
	changed, err := w.Detect()
	require.NoError(t, err)
	assert.Nil(t, changed, "nothing pending")

	viper.Set("classes.tether.visible", false)
	changed, err = w.Detect()
	require.NoError(t, err)
	assert.Nil(t, changed, "changes are only picked up once marked dirty")

	w.MarkDirty()
	assert.True(t, w.Dirty())
	changed, err = w.Detect()
	require.NoError(t, err)
	assert.Equal(t, []string{"classes.tether.visible"}, changed)
	assert.False(t, w.Dirty())

	w.MarkDirty()
	changed, err = w.Detect()
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestWatcher_ReloadsOnTickOnly(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	w := NewWatcher()
	require.NoError(t, w.Watch())
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	body := `{"classes": {"habitat": {"count": 7}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	require.Eventually(t, w.Dirty, 5*time.Second, 10*time.Millisecond)

	// the file is not read until Detect runs
	assert.Equal(t, 1024, GetClassSettings(Habitat).Count)

	changed, err := w.Detect()
	require.NoError(t, err)
	assert.Contains(t, changed, "classes.habitat.count")
	assert.Equal(t, 7, GetClassSettings(Habitat).Count)
}

func TestWatcher_WatchWithoutFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	w := NewWatcher()
	assert.Error(t, w.Watch())
	assert.NoError(t, w.Close())
}
