package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/storage"
	influxstorage "github.com/philipswan/TetheredRing-sub000/internal/storage/influx"
	"github.com/philipswan/TetheredRing-sub000/internal/storage/memory"
	"github.com/philipswan/TetheredRing-sub000/internal/storage/postgres"
	sqlitestorage "github.com/philipswan/TetheredRing-sub000/internal/storage/sqlite"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*postgres.Backend)(nil)
	_ storage.Backend    = (*influxstorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	cfg := config.StorageConfig{
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "ring.db")},
	}

	tests := []struct {
		typ  string
		want any
	}{
		{"memory", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &postgres.Backend{}},
		{"influx", &influxstorage.Backend{}},
		{"none", storage.Nop{}},
		{"", storage.Nop{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg.Type = tt.typ
			b, err := storage.NewBackend(cfg, zerolog.Nop(), nil)
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}

	cfg.Type = "cassette"
	_, err := storage.NewBackend(cfg, zerolog.Nop(), nil)
	assert.ErrorContains(t, err, "unknown storage type: cassette")
}

func TestNop(t *testing.T) {
	var b storage.Backend = storage.Nop{}
	assert.NoError(t, b.Init())
	assert.NoError(t, b.StartSession(&core.Session{}))
	assert.NoError(t, b.RecordTick(&core.TickRecord{}))
	assert.NoError(t, b.EndSession())
	assert.NoError(t, b.Close())
}
