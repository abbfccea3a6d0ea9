// Package memory keeps a session in memory and exports it as JSON when
// the session ends.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

var ErrNoSession = errors.New("no session started")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	ticks   []core.TickRecord

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.ticks = nil
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	return b.exportJSON(time.Now())
}

// RecordTick appends a tick record. The record's slices are copied so the
// engine may reuse them.
func (b *Backend) RecordTick(r *core.TickRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	rec := *r
	rec.Windows = append([]core.WindowState(nil), r.Windows...)
	rec.Classes = append([]core.ClassTick(nil), r.Classes...)
	rec.Discards = append([]core.DiscardRecord(nil), r.Discards...)
	b.ticks = append(b.ticks, rec)
	return nil
}

// TickCount returns the number of ticks recorded in the current session.
func (b *Backend) TickCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ticks)
}

// ExportedFilePath returns the path of the last export.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
