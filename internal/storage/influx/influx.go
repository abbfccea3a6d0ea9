// Package influxstorage writes tick telemetry to InfluxDB as time series.
// While the server is unreachable points go to a gzipped line protocol
// backup file instead.
package influxstorage

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

const retention = 60 * 60 * 24 * 90 // 90 days

var ErrNoSession = errors.New("no session started")

// Backend handles the InfluxDB connection and writes.
type Backend struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
	session    *core.Session
}

// New creates a new InfluxDB backend.
func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, logger: log}
}

// Online reports whether points go to the server.
func (b *Backend) Online() bool {
	return b.writer != nil
}

// Init connects to InfluxDB, falling back to the backup file when the
// server does not answer.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(b.cfg.URL, b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.logger.Warn().Err(err).Str("backupPath", b.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return b.openBackup()
	}

	if err := b.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	b.createWriter()
	b.logger.Info().Str("url", b.cfg.URL).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.cfg.BackupPath == "" {
		return errors.New("influxdb unreachable and no backup path set")
	}
	if err := os.MkdirAll(filepath.Dir(b.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backup = gzip.NewWriter(file)
	return nil
}

func (b *Backend) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := b.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.logger.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", b.cfg.Org, err)
		}
	}

	buckets := b.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.logger.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retention,
		})
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

func (b *Backend) createWriter() {
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.logger.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())
}

// Close flushes pending points and closes the client or backup file.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writer != nil {
		b.writer.Flush()
		b.writer = nil
	}
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
	if b.backup != nil {
		err := b.backup.Close()
		if cerr := b.backupFile.Close(); err == nil {
			err = cerr
		}
		b.backup, b.backupFile = nil, nil
		return err
	}
	return nil
}

// StartSession tags every following point with the session.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = s
	return b.write(influxdb2_write.NewPoint("session",
		map[string]string{"session": s.ID},
		map[string]interface{}{"name": s.Name, "tick_rate": s.TickRate, "time_dilation": s.TimeDilation},
		s.StartTime))
}

// EndSession flushes pending points.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ErrNoSession
	}
	b.session = nil
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.backup != nil {
		return b.backup.Flush()
	}
	return nil
}

// RecordTick writes the points of one tick.
func (b *Backend) RecordTick(r *core.TickRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ErrNoSession
	}
	for _, p := range Points(b.session.ID, r) {
		if err := b.write(p); err != nil {
			return err
		}
	}
	return nil
}

// write sends a point to InfluxDB or the backup file.
func (b *Backend) write(p *influxdb2_write.Point) error {
	if b.writer != nil {
		b.writer.WritePoint(p)
		return nil
	}
	if b.backup == nil {
		return errors.New("influxdb client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	if _, err := b.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Points converts a tick record to InfluxDB points: one per tick, one per
// frame window and one per class that did something.
func Points(sessionID string, r *core.TickRecord) []*influxdb2_write.Point {
	tags := func(extra ...string) map[string]string {
		t := map[string]string{"session": sessionID}
		for i := 0; i+1 < len(extra); i += 2 {
			t[extra[i]] = extra[i+1]
		}
		return t
	}

	points := make([]*influxdb2_write.Point, 0, 1+len(r.Windows)+len(r.Classes)+len(r.Discards))
	points = append(points, influxdb2_write.NewPoint("tick", tags(),
		map[string]interface{}{
			"tick":        int64(r.Tick),
			"sim_time":    r.SimTime,
			"duration_ms": float64(r.Duration.Microseconds()) / 1000,
			"invalid":     r.Invalid,
		}, r.Time))

	for _, w := range r.Windows {
		points = append(points, influxdb2_write.NewPoint("window", tags("frame", string(w.Frame)),
			map[string]interface{}{
				"start":  w.Start,
				"finish": w.Finish,
				"assign": w.Assign,
				"update": w.Update,
				"remove": w.Remove,
			}, r.Time))
	}

	for _, c := range r.Classes {
		if c.Assigned+c.Released+c.Placed+c.Shortage+c.Discarded+c.Migrated == 0 {
			continue
		}
		points = append(points, influxdb2_write.NewPoint("class", tags("class", string(c.Class)),
			map[string]interface{}{
				"assigned":  c.Assigned,
				"released":  c.Released,
				"placed":    c.Placed,
				"shortage":  c.Shortage,
				"discarded": c.Discarded,
				"migrated":  c.Migrated,
				"free":      c.Free,
				"in_use":    c.InUse,
			}, r.Time))
	}

	for _, d := range r.Discards {
		points = append(points, influxdb2_write.NewPoint("discard",
			tags("frame", string(d.Frame), "class", string(d.Class)),
			map[string]interface{}{
				"object_id": int64(d.ObjectID),
				"elapsed":   d.Elapsed,
			}, r.Time))
	}
	return points
}
