// Package monitor periodically writes the engine status to a file and
// forwards it to an optional sink.
package monitor

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/philipswan/TetheredRing-sub000/internal/engine"
)

// StatusSource reports the engine state published after each tick.
type StatusSource interface {
	Status() engine.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source     StatusSource
	Logger     *slog.Logger
	StatusFile string
	Interval   time.Duration
	// Sink receives every snapshot after it was written. Optional.
	Sink func(engine.Status) error
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	written   int
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Written is the number of snapshots written so far.
func (s *Service) Written() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.written
}

// Snapshot renders the current status as indented JSON.
func (s *Service) Snapshot() (engine.Status, []byte) {
	status := s.deps.Source.Status()
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		out = []byte(fmt.Sprintf(`{"error": %q}`, err))
	}
	return status, out
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusFile != "" {
		f, err := os.Create(s.deps.StatusFile)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("creating status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		if statusFile != nil {
			defer statusFile.Close()
		}

		logger := s.deps.Logger
		logger.Debug("status monitor started", "file", s.deps.StatusFile, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.writeOnce(statusFile, logger)
			}
		}
	}()

	return nil
}

func (s *Service) writeOnce(statusFile *os.File, logger *slog.Logger) {
	status, out := s.Snapshot()
	if status.Tick == 0 {
		return
	}

	if statusFile != nil {
		if err := rewrite(statusFile, out); err != nil {
			logger.Error("error writing status file", "error", err)
		}
	}

	if s.deps.Sink != nil {
		if err := s.deps.Sink(status); err != nil {
			logger.Warn("error forwarding status", "error", err)
		}
	}

	s.mu.Lock()
	s.written++
	s.mu.Unlock()
}

// rewrite replaces the file contents with data.
func rewrite(f *os.File, data []byte) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := f.Write(append(data, '\n'))
	return err
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
