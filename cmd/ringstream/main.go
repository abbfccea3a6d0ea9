// Command ringstream builds the tethered ring scene from configuration,
// orbits a camera around it and ticks the streaming engine at a fixed
// rate. Control commands are read from stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/philipswan/TetheredRing-sub000/internal/api"
	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/control"
	"github.com/philipswan/TetheredRing-sub000/internal/engine"
	"github.com/philipswan/TetheredRing-sub000/internal/logging"
	"github.com/philipswan/TetheredRing-sub000/internal/monitor"
	intOtel "github.com/philipswan/TetheredRing-sub000/internal/otel"
	"github.com/philipswan/TetheredRing-sub000/internal/render"
	"github.com/philipswan/TetheredRing-sub000/internal/render/websocket"
	"github.com/philipswan/TetheredRing-sub000/internal/scene"
	"github.com/philipswan/TetheredRing-sub000/internal/storage"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"

	AppName = "ringstream"
)

func main() {
	configDir := "."
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	if err := run(configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the long-lived services of one run.
type app struct {
	log     *slog.Logger
	zl      zerolog.Logger
	scene   *scene.Scene
	render  *render.Scene
	stream  *websocket.Publisher
	backend storage.Backend
	watcher *config.Watcher
	orbit   *control.Orbit
	session *core.Session
	tick    atomic.Uint64
}

func run(configDir string) error {
	start := time.Now()
	cfgErr := config.Load(configDir)

	a := &app{}
	logCfg := config.GetLogConfig()
	logFile, err := logging.OpenLogFile(logCfg.Dir, AppName, start)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var graylog *gelf.Writer
	if logCfg.Graylog {
		if graylog, err = logging.NewGELFWriter(logCfg.GraylogAddress, AppName); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, logCfg.Level, graylog, logging.TickProvider(a.tick.Load))
	defer slogManager.Close()
	a.log = slogManager.Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(logCfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	a.zl = zerolog.New(logFile).Level(level).With().Timestamp().Str("app", AppName).Logger()

	a.log.Info("Starting", "version", Version, "buildDate", BuildDate, "configDir", configDir)
	if cfgErr != nil {
		a.log.Warn("Using default configuration", "error", cfgErr)
	}

	otelCfg := config.GetOTelConfig()
	var metricOut io.Writer = os.Stdout
	if otelCfg.Enabled && otelCfg.Output != "" {
		f, err := os.Create(otelCfg.Output)
		if err != nil {
			return fmt.Errorf("opening metric output: %w", err)
		}
		defer f.Close()
		metricOut = f
	}
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ExportInterval: otelCfg.ExportInterval,
		Writer:         metricOut,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			a.log.Error("OTel shutdown failed", "error", err)
		}
	}()

	if err := a.setup(cfgErr == nil); err != nil {
		return err
	}
	defer a.teardown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engCfg := config.GetEngineConfig()
	sess := a.scene.Session(uuid.NewString(), fmt.Sprintf("%s %s", AppName, start.Format(time.DateTime)), engCfg.TickRate, start)
	if err := a.startSession(sess); err != nil {
		return err
	}
	defer a.endSession()

	dispatcher, err := control.New(a.log)
	if err != nil {
		return err
	}
	defer dispatcher.Close()
	control.RegisterCommands(dispatcher, a.scene, a.orbit, a.scene.Engine)
	go console(ctx, os.Stdin, os.Stdout, dispatcher, a.log)

	monCfg := config.GetMonitorConfig()
	if monCfg.Enabled {
		deps := monitor.Dependencies{
			Source:     a.scene.Engine,
			Logger:     a.log,
			StatusFile: monCfg.StatusFile,
			Interval:   monCfg.Interval,
		}
		if a.stream != nil {
			deps.Sink = func(s engine.Status) error { return a.stream.PublishStatus(s) }
		}
		mon := monitor.NewService(deps)
		if err := mon.Start(); err != nil {
			return err
		}
		defer mon.Stop()
	}

	return a.loop(ctx, start, engCfg)
}

// setup builds the scene and opens the render stream and storage backend.
// watch enables hot reload of the config file.
func (a *app) setup(watch bool) error {
	engCfg := config.GetEngineConfig()

	if rc := config.GetRenderConfig(); rc.Enabled {
		a.stream = websocket.New(websocket.Config{URL: rc.URL, Secret: rc.Secret}, a.log)
		if err := a.stream.Init(); err != nil {
			return fmt.Errorf("placement stream: %w", err)
		}
		a.render = render.NewScene(a.stream)
	} else {
		a.render = render.NewScene(nil)
	}

	var err error
	a.scene, err = scene.Build(scene.LoadConfig(), a.render.Model,
		engine.WithSpawnBacklog(engCfg.SpawnBacklog),
		engine.WithLogger(logging.NewZerologAdapter(a.zl.With().Str("component", "engine").Logger())),
	)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}
	a.log.Info("Scene built",
		"ringLength", a.scene.Ring.Length(),
		"frames", len(a.scene.Engine.Frames()),
		"classes", len(a.scene.Registry.All()))

	a.backend, err = storage.NewBackend(config.GetStorageConfig(), a.zl.With().Str("component", "database").Logger(), a.log)
	if err != nil {
		return err
	}
	if err := a.backend.Init(); err != nil {
		a.log.Error("Storage backend unavailable, telemetry disabled", "error", err)
		a.backend.Close()
		a.backend = storage.Nop{}
	}

	a.orbit = control.NewOrbit(config.GetCameraConfig())

	a.watcher = config.NewWatcher()
	if watch {
		if err := a.watcher.Watch(); err != nil {
			a.log.Warn("Config hot reload disabled", "error", err)
		}
	}
	return nil
}

func (a *app) startSession(sess *core.Session) error {
	a.session = sess
	if err := a.backend.StartSession(sess); err != nil {
		a.log.Error("Failed to start telemetry session", "error", err)
	}
	if a.stream != nil {
		if err := a.stream.StartSession(sess); err != nil {
			return fmt.Errorf("starting placement stream: %w", err)
		}
	}
	a.log.Info("Session started", "id", sess.ID, "tickRate", sess.TickRate)
	return nil
}

func (a *app) endSession() {
	if err := a.backend.EndSession(); err != nil {
		a.log.Error("Failed to end telemetry session", "error", err)
	}
	if ex, ok := a.backend.(storage.Exportable); ok && ex.ExportedFilePath() != "" {
		a.log.Info("Session exported", "path", ex.ExportedFilePath())
		a.upload(ex.ExportedFilePath())
	}
	if a.stream != nil {
		if err := a.stream.EndSession(); err != nil {
			a.log.Error("Failed to end placement stream", "error", err)
		}
	}
}

// upload sends the exported recording to the archive when enabled.
func (a *app) upload(path string) {
	cfg := config.GetUploadConfig()
	if !cfg.Enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := api.New(cfg.URL, cfg.Secret)
	if err := client.Healthcheck(ctx); err != nil {
		a.log.Error("Recording archive unreachable", "url", cfg.URL, "error", err)
		return
	}
	meta := api.Metadata{
		SessionID: a.session.ID,
		Name:      a.session.Name,
		Duration:  time.Since(a.session.StartTime).Seconds(),
		Ticks:     a.tick.Load(),
	}
	if err := client.Upload(ctx, path, meta); err != nil {
		a.log.Error("Recording upload failed", "path", path, "error", err)
		return
	}
	a.log.Info("Recording uploaded", "path", path, "url", cfg.URL)
}

func (a *app) teardown() {
	if err := a.watcher.Close(); err != nil {
		a.log.Error("Closing config watcher", "error", err)
	}
	a.scene.Engine.Teardown()
	if err := a.backend.Close(); err != nil {
		a.log.Error("Closing storage backend", "error", err)
	}
	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.log.Error("Closing placement stream", "error", err)
		}
		if n := a.stream.Dropped(); n > 0 {
			a.log.Warn("Placement batches dropped", "count", n)
		}
	}
}

// loop ticks the engine until ctx is done or the configured run time is
// over.
func (a *app) loop(ctx context.Context, start time.Time, cfg config.EngineConfig) error {
	rate := cfg.TickRate
	if rate <= 0 {
		rate = 30
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if cfg.RunFor > 0 {
		timer := time.NewTimer(cfg.RunFor)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Interrupted, stopping")
			return nil
		case <-deadline:
			a.log.Info("Run time over, stopping", "runFor", cfg.RunFor)
			return nil
		case t := <-ticker.C:
			a.step(ctx, t.Sub(start))
		}
	}
}

// step runs one tick at elapsed wall time.
func (a *app) step(ctx context.Context, elapsed time.Duration) {
	now := elapsed.Seconds()
	a.applyConfig(now)

	if _, err := a.scene.Advance(now); err != nil {
		a.log.Warn("Scheduled launch skipped", "error", err)
	}
	a.scene.Engine.SetCamera(a.orbit.Position(elapsed))

	rec := a.scene.Engine.Tick(now)
	a.tick.Store(rec.Tick)

	if _, err := a.render.Flush(ctx, rec.Tick, rec.SimTime); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn("Placement batch not sent", "error", err)
	}
	if err := a.backend.RecordTick(&rec); err != nil {
		a.log.Warn("Tick not recorded", "error", err)
	}
}

// applyConfig installs class settings changed on disk since the last tick.
func (a *app) applyConfig(now float64) {
	changed, err := a.watcher.Detect()
	if err != nil {
		a.log.Error("Configuration not reloaded", "error", err)
		return
	}
	if len(changed) == 0 {
		return
	}
	a.log.Info("Configuration changed", "keys", changed)
	for _, name := range config.ChangedClasses(changed, config.ClassNames()) {
		if err := a.scene.Apply(name, config.GetClassSettings(name), now); err != nil {
			a.log.Error("Applying class settings", "class", name, "error", err)
		}
	}
}
