package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	influxstorage "github.com/philipswan/TetheredRing-sub000/internal/storage/influx"
	"github.com/philipswan/TetheredRing-sub000/internal/storage/memory"
	"github.com/philipswan/TetheredRing-sub000/internal/storage/postgres"
	sqlitestorage "github.com/philipswan/TetheredRing-sub000/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. The
// backend is not initialized.
func NewBackend(cfg config.StorageConfig, zl zerolog.Logger, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, zl, log)
	case "postgres":
		return postgres.New(cfg.Postgres, zl, log), nil
	case "influx":
		return influxstorage.New(cfg.Influx, zl), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
