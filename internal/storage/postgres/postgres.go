// Package postgres stores sessions in PostgreSQL with PostGIS through the
// GORM backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/database"
	gormstorage "github.com/philipswan/TetheredRing-sub000/internal/storage/gorm"
)

// Backend connects to Postgres on Init and delegates to the GORM backend.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     config.PostgresConfig
}

// New creates a new Postgres storage backend.
func New(cfg config.PostgresConfig, zl zerolog.Logger, log *slog.Logger) *Backend {
	m := database.NewManager(zl)
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{Manager: m, Logger: log}),
		manager: m,
		cfg:     cfg,
	}
}

// Init connects, migrates the schema and starts the writer.
func (b *Backend) Init() error {
	if err := b.manager.ConnectPostgres(b.cfg); err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return b.Backend.Init()
}

// Close flushes pending rows and closes the connection.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.manager.Close()
}
