// Package config loads ringstream.cfg.json through viper and exposes typed
// views of it, plus a flat parameter snapshot used to detect changes.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/philipswan/TetheredRing-sub000/internal/class"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "ringstream.cfg.json"

// Class names known to the defaults.
const (
	Tether         core.ClassName = "tether"
	Habitat        core.ClassName = "habitat"
	RailSegment    core.ClassName = "railSegment"
	Terminus       core.ClassName = "terminus"
	TransitVehicle core.ClassName = "transitVehicle"
	LaunchVehicle  core.ClassName = "launchVehicle"
)

// Frame identifiers known to the defaults.
const (
	StationaryFrame core.FrameID = "stationary"
	MovingRingFrame core.FrameID = "movingRing"
	TransitFrame    core.FrameID = "transit"
	LaunchFrame     core.FrameID = "launch"
)

// EngineConfig holds tick scheduling settings.
type EngineConfig struct {
	TickRate     float64
	TimeDilation float64
	SpawnBacklog int
	// RunFor stops the driver after this long; zero runs until interrupted.
	RunFor time.Duration
}

// CameraConfig places the camera geodetically and orbits it around the
// planet axis.
type CameraConfig struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	OrbitPeriod time.Duration
}

// RingConfig describes the megastructure geometry.
type RingConfig struct {
	Latitude        float64
	Altitude        float64
	MovingRingSpeed float64
	TransitSpeed    float64
	TransitLaps     float64
	LaunchLength    float64
	LaunchAccel     float64
	LaunchAltitude  float64
}

// FrameConfig holds the partitioning of one reference frame.
type FrameConfig struct {
	Zones       int
	RangeRadius float64
}

// LogConfig holds logging outputs.
type LogConfig struct {
	Level          string
	Dir            string
	Graylog        bool
	GraylogAddress string
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage settings. An empty Path keeps the
// database in memory and dumps it to DumpPath periodically.
type SQLiteConfig struct {
	Path         string
	DumpPath     string
	DumpInterval time.Duration
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// BackupPath receives gzipped line protocol while the server is
	// unreachable.
	BackupPath string
}

// StorageConfig selects and configures the telemetry backend.
type StorageConfig struct {
	Type     string
	Memory   MemoryConfig
	SQLite   SQLiteConfig
	Postgres PostgresConfig
	Influx   InfluxConfig
}

// OTelConfig holds metric export settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ExportInterval time.Duration
	// Output is a file path; empty writes to stdout.
	Output string
}

// RenderConfig holds the placement stream settings.
type RenderConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

// UploadConfig holds the recording archive settings.
type UploadConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

// MonitorConfig holds the status file settings.
type MonitorConfig struct {
	Enabled    bool
	StatusFile string
	Interval   time.Duration
}

var classDefaults = map[core.ClassName]class.Settings{
	Tether:         {Visible: true, Count: 4096, RangeRadius: 50000, MaxModels: 512},
	Habitat:        {Visible: true, Count: 1024, RangeRadius: 50000, MaxModels: 512, UpOffset: 40, StackSpacing: 12, StackCount: 3},
	RailSegment:    {Visible: true, Count: 8192, RangeRadius: 50000, MaxModels: 1024, UpOffset: -5},
	Terminus:       {Visible: true, Count: 8, RangeRadius: 200000},
	TransitVehicle: {Visible: true, Count: 256, RangeRadius: 50000, MaxModels: 128, RightOffset: 6},
	LaunchVehicle:  {Visible: true, Count: 0, RangeRadius: 500000, MaxModels: 16},
}

// ClassNames lists the classes that have defaults, in scene order.
func ClassNames() []core.ClassName {
	return []core.ClassName{Tether, Habitat, RailSegment, Terminus, TransitVehicle, LaunchVehicle}
}

// SetDefaults registers every default value with viper.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("engine.tickRate", 30.0)
	viper.SetDefault("engine.timeDilation", 1.0)
	viper.SetDefault("engine.spawnBacklog", 1024)
	viper.SetDefault("engine.runFor", "0s")

	viper.SetDefault("camera.latitude", 14.5)
	viper.SetDefault("camera.longitude", 0.0)
	viper.SetDefault("camera.altitude", 40000.0)
	viper.SetDefault("camera.orbitPeriod", "10m")

	viper.SetDefault("ring.latitude", 14.33)
	viper.SetDefault("ring.altitude", 32000.0)
	viper.SetDefault("ring.movingRingSpeed", 8000.0)
	viper.SetDefault("ring.transitSpeed", 300.0)
	viper.SetDefault("ring.transitLaps", 1.0)
	viper.SetDefault("ring.launchLength", 1000000.0)
	viper.SetDefault("ring.launchAccel", 30.0)
	viper.SetDefault("ring.launchAltitude", 50000.0)

	viper.SetDefault("frames.stationary.zones", 256)
	viper.SetDefault("frames.movingRing.zones", 256)
	viper.SetDefault("frames.transit.zones", 256)
	viper.SetDefault("frames.launch.zones", 64)
	for _, id := range []core.FrameID{StationaryFrame, MovingRingFrame, TransitFrame, LaunchFrame} {
		viper.SetDefault(fmt.Sprintf("frames.%s.rangeRadius", id), 0.0)
	}

	for name, s := range classDefaults {
		prefix := "classes." + string(name) + "."
		viper.SetDefault(prefix+"visible", s.Visible)
		viper.SetDefault(prefix+"count", s.Count)
		viper.SetDefault(prefix+"rangeRadius", s.RangeRadius)
		viper.SetDefault(prefix+"maxModels", s.MaxModels)
		viper.SetDefault(prefix+"upOffset", s.UpOffset)
		viper.SetDefault(prefix+"rightOffset", s.RightOffset)
		viper.SetDefault(prefix+"stackSpacing", s.StackSpacing)
		viper.SetDefault(prefix+"stackCount", s.StackCount)
	}

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./recordings/ringstream.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "ringstream")

	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "ringstream")
	viper.SetDefault("influx.bucket", "ringstream")
	viper.SetDefault("influx.backupPath", "./recordings/influx_backup.lp.gz")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "ringstream")
	viper.SetDefault("otel.exportInterval", "10s")
	viper.SetDefault("otel.output", "")

	viper.SetDefault("render.enabled", false)
	viper.SetDefault("render.url", "ws://localhost:8080/placements")
	viper.SetDefault("render.secret", "")

	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.url", "http://localhost:5000")
	viper.SetDefault("upload.secret", "")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.statusFile", "./status.json")
	viper.SetDefault("monitor.interval", "1s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetEngineConfig returns tick scheduling settings.
func GetEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:     viper.GetFloat64("engine.tickRate"),
		TimeDilation: viper.GetFloat64("engine.timeDilation"),
		SpawnBacklog: viper.GetInt("engine.spawnBacklog"),
		RunFor:       viper.GetDuration("engine.runFor"),
	}
}

// GetCameraConfig returns the camera placement.
func GetCameraConfig() CameraConfig {
	return CameraConfig{
		Latitude:    viper.GetFloat64("camera.latitude"),
		Longitude:   viper.GetFloat64("camera.longitude"),
		Altitude:    viper.GetFloat64("camera.altitude"),
		OrbitPeriod: viper.GetDuration("camera.orbitPeriod"),
	}
}

// GetRingConfig returns the megastructure geometry.
func GetRingConfig() RingConfig {
	return RingConfig{
		Latitude:        viper.GetFloat64("ring.latitude"),
		Altitude:        viper.GetFloat64("ring.altitude"),
		MovingRingSpeed: viper.GetFloat64("ring.movingRingSpeed"),
		TransitSpeed:    viper.GetFloat64("ring.transitSpeed"),
		TransitLaps:     viper.GetFloat64("ring.transitLaps"),
		LaunchLength:    viper.GetFloat64("ring.launchLength"),
		LaunchAccel:     viper.GetFloat64("ring.launchAccel"),
		LaunchAltitude:  viper.GetFloat64("ring.launchAltitude"),
	}
}

// GetFrameConfig returns the partitioning of a frame. A zero range radius
// means the largest range radius of the frame's classes.
func GetFrameConfig(id core.FrameID) FrameConfig {
	prefix := "frames." + string(id) + "."
	return FrameConfig{
		Zones:       viper.GetInt(prefix + "zones"),
		RangeRadius: viper.GetFloat64(prefix + "rangeRadius"),
	}
}

// GetClassSettings returns the shared display parameters of a class.
func GetClassSettings(name core.ClassName) class.Settings {
	prefix := "classes." + string(name) + "."
	return class.Settings{
		Visible:      viper.GetBool(prefix + "visible"),
		Count:        viper.GetInt(prefix + "count"),
		RangeRadius:  viper.GetFloat64(prefix + "rangeRadius"),
		MaxModels:    viper.GetInt(prefix + "maxModels"),
		UpOffset:     viper.GetFloat64(prefix + "upOffset"),
		RightOffset:  viper.GetFloat64(prefix + "rightOffset"),
		StackSpacing: viper.GetFloat64(prefix + "stackSpacing"),
		StackCount:   viper.GetInt(prefix + "stackCount"),
	}
}

// GetLogConfig returns logging outputs.
func GetLogConfig() LogConfig {
	return LogConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		Graylog:        viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetStorageConfig returns the telemetry backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
		Influx: InfluxConfig{
			URL:    viper.GetString("influx.url"),
			Token:  viper.GetString("influx.token"),
			Org:    viper.GetString("influx.org"),
			Bucket: viper.GetString("influx.bucket"),

			BackupPath: viper.GetString("influx.backupPath"),
		},
	}
}

// GetOTelConfig returns metric export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
		Output:         viper.GetString("otel.output"),
	}
}

// GetRenderConfig returns the placement stream settings.
func GetRenderConfig() RenderConfig {
	return RenderConfig{
		Enabled: viper.GetBool("render.enabled"),
		URL:     viper.GetString("render.url"),
		Secret:  viper.GetString("render.secret"),
	}
}

// GetMonitorConfig returns the status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}

// GetUploadConfig returns the recording archive settings.
func GetUploadConfig() UploadConfig {
	return UploadConfig{
		Enabled: viper.GetBool("upload.enabled"),
		URL:     viper.GetString("upload.url"),
		Secret:  viper.GetString("upload.secret"),
	}
}
