// Package database opens the gorm connections used by the sql storage
// backends.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/model"
)

var ErrNoDumpPath = errors.New("sqlite dump path not set")

// memoryDSN is a shared in-memory SQLite database.
const memoryDSN = "file::memory:?cache=shared"

var pragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
	"PRAGMA page_size = 32768;",
}

// Manager owns one gorm connection.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// ConnectPostgres opens and pings a Postgres connection.
func (m *Manager) ConnectPostgres(cfg config.PostgresConfig) error {
	db, err := OpenPostgres(cfg)
	if err != nil {
		return fmt.Errorf("opening postgres: %w", err)
	}
	m.DB = db
	if err := m.ping(); err != nil {
		return err
	}
	m.SqlDB.SetMaxOpenConns(10)
	m.Logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to Postgres")
	return nil
}

// ConnectSQLite opens a SQLite database at path, or in memory when path
// is empty.
func (m *Manager) ConnectSQLite(path string) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("opening sqlite: %w", err)
	}
	m.DB = db
	if err := m.ping(); err != nil {
		return err
	}
	if path == "" {
		m.Logger.Info().Msg("Using SQLite DB in memory")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using SQLite DB")
	}
	return nil
}

func (m *Manager) ping() error {
	var err error
	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := m.SqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	return nil
}

// Setup migrates the schema and writes the info row on first use.
func (m *Manager) Setup() error {
	if m.DB.Dialector.Name() == "postgres" {
		if err := m.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS extension: %w", err)
		}
		m.Logger.Info().Msg("PostGIS extension created")
	}

	fresh := !m.DB.Migrator().HasTable(&model.RingstreamInfo{})

	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if fresh {
		err := m.DB.Create(&model.RingstreamInfo{
			SchemaVersion: model.SchemaVersion,
			Description:   "ring model streaming telemetry",
		}).Error
		if err != nil {
			return fmt.Errorf("failed to create info entry: %w", err)
		}
	}

	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close closes the underlying connection.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// OpenPostgres returns a connection to the Postgres database.
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// OpenSQLite returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// DumpToDisk vacuums the database into a file, replacing any previous
// dump.
func DumpToDisk(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoDumpPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	target := strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO 'file:" + target + "';").Error; err != nil {
		return fmt.Errorf("error dumping DB to disk: %w", err)
	}
	return nil
}

// DumpDuration runs DumpToDisk and reports how long it took.
func DumpDuration(db *gorm.DB, path string) (time.Duration, error) {
	start := time.Now()
	err := DumpToDisk(db, path)
	return time.Since(start), err
}
