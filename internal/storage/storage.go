// Package storage records streaming sessions for offline analysis.
package storage

import "github.com/philipswan/TetheredRing-sub000/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Record calls come from the tick loop and must not block on I/O.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// RecordTick stores the tick summary together with its class counters
	// and discards.
	RecordTick(r *core.TickRecord) error
}

// Exportable is an optional interface for backends that write a file per
// session.
type Exportable interface {
	ExportedFilePath() string
}

// Nop discards everything.
type Nop struct{}

func (Nop) Init() error                       { return nil }
func (Nop) Close() error                      { return nil }
func (Nop) StartSession(*core.Session) error  { return nil }
func (Nop) EndSession() error                 { return nil }
func (Nop) RecordTick(*core.TickRecord) error { return nil }
