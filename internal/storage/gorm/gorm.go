// Package gormstorage implements storage.Backend on top of GORM with
// internal queues and a background DB writer goroutine. The sqlite and
// postgres backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/philipswan/TetheredRing-sub000/internal/database"
	"github.com/philipswan/TetheredRing-sub000/internal/model"
	"github.com/philipswan/TetheredRing-sub000/internal/model/convert"
	"github.com/philipswan/TetheredRing-sub000/internal/queue"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

const (
	defaultQueueLimit    = 1 << 16
	defaultFlushInterval = 2 * time.Second
)

var ErrNoSession = errors.New("no session started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// Manager must be connected before Init.
	Manager       *database.Manager
	Logger        *slog.Logger
	QueueLimit    int
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Ticks    *queue.Queue[model.TickSample]
	Classes  *queue.Queue[model.ClassSample]
	Discards *queue.Queue[model.DiscardEvent]
}

func newQueues(limit int) *queues {
	return &queues{
		Ticks:    queue.New[model.TickSample](limit),
		Classes:  queue.New[model.ClassSample](limit),
		Discards: queue.New[model.DiscardEvent](limit),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	queues  *queues
	session atomic.Pointer[model.Session]
	dropped atomic.Uint64

	writeMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.QueueLimit <= 0 {
		deps.QueueLimit = defaultQueueLimit
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.Manager.DB
}

// Init migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.Manager == nil || b.deps.Manager.DB == nil {
		return errors.New("database not connected")
	}
	if err := b.deps.Manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.queues = newQueues(b.deps.QueueLimit)
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
	})
	return nil
}

// StartSession inserts the session row. Tick rows reference it.
func (b *Backend) StartSession(s *core.Session) error {
	row := convert.CoreToSession(*s)
	if err := b.DB().Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	b.session.Store(&row)
	return nil
}

// EndSession flushes pending rows and stamps the end time.
func (b *Backend) EndSession() error {
	row := b.session.Load()
	if row == nil {
		return ErrNoSession
	}
	b.Flush()
	end := time.Now()
	err := b.DB().Model(&model.Session{}).Where("id = ?", row.ID).Update("end_time", end).Error
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", row.ID, err)
	}
	b.session.Store(nil)
	return nil
}

// RecordTick queues the rows of one tick. A full queue drops the tick.
func (b *Backend) RecordTick(r *core.TickRecord) error {
	row := b.session.Load()
	if row == nil {
		return ErrNoSession
	}
	tick := convert.CoreToTickSample(row.ID, *r)
	if err := b.queues.Ticks.Push(tick); err != nil {
		b.dropped.Add(1)
		return fmt.Errorf("tick %d: %w", r.Tick, err)
	}
	if classes := convert.CoreToClassSamples(row.ID, *r); len(classes) > 0 {
		if err := b.queues.Classes.Push(classes...); err != nil {
			b.dropped.Add(1)
			return fmt.Errorf("tick %d classes: %w", r.Tick, err)
		}
	}
	for _, d := range r.Discards {
		if err := b.queues.Discards.Push(convert.CoreToDiscardEvent(row.ID, d)); err != nil {
			b.dropped.Add(1)
			return fmt.Errorf("tick %d discards: %w", r.Tick, err)
		}
	}
	return nil
}

// Dropped returns how many records were refused by full queues.
func (b *Backend) Dropped() uint64 {
	return b.dropped.Load()
}

// Pending returns the number of queued rows.
func (b *Backend) Pending() int {
	return b.queues.Ticks.Len() + b.queues.Classes.Len() + b.queues.Discards.Len()
}

// Flush writes every queued row.
func (b *Backend) Flush() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	db := b.DB()
	writeQueue(db, b.queues.Ticks, "tick samples", b.deps.Logger)
	writeQueue(db, b.queues.Classes, "class samples", b.deps.Logger)
	writeQueue(db, b.queues.Discards, "discard events", b.deps.Logger)
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches go back on the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating rows", "table", name, "error", err)
		tx.Rollback()
		if err := q.Push(items...); err != nil {
			log.Error("Dropping rows", "table", name, "count", len(items), "error", err)
		}
		return
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("Error committing rows", "table", name, "error", err)
	}
}

// writeLoop periodically drains the queues into the DB.
func (b *Backend) writeLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			b.Flush()
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}
