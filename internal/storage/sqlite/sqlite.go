// Package sqlitestorage stores sessions in SQLite. With no path configured
// the database lives in memory and is dumped to disk periodically via
// VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/database"
	gormstorage "github.com/philipswan/TetheredRing-sub000/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager  *database.Manager
	cfg      config.SQLiteConfig
	log      *slog.Logger
	stopChan chan struct{}
	done     chan struct{}
	started  bool
}

// New opens the SQLite database.
func New(cfg config.SQLiteConfig, zl zerolog.Logger, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	m := database.NewManager(zl)
	if err := m.ConnectSQLite(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}
	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{Manager: m, Logger: log}),
		manager:  m,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// dumping reports whether the periodic dump applies.
func (b *Backend) dumping() bool {
	return b.cfg.Path == "" && b.cfg.DumpPath != ""
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	b.started = true
	if b.dumping() && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}
	return nil
}

// EndSession flushes the session and dumps the in-memory database.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	return b.dump()
}

// Close stops the dump goroutine, writes a last dump and closes the
// database.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
		return nil
	default:
	}
	close(b.stopChan)
	if !b.started {
		return b.manager.Close()
	}
	<-b.done
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if err := b.dump(); err != nil {
		b.log.Error("Final dump failed", "path", b.cfg.DumpPath, "error", err)
	}
	return b.manager.Close()
}

func (b *Backend) dump() error {
	if !b.dumping() {
		return nil
	}
	d, err := database.DumpDuration(b.DB(), b.cfg.DumpPath)
	if err != nil {
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", d)
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.Flush()
			if err := b.dump(); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
