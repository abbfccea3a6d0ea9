// Package websocket streams placement batches to a renderer over a
// WebSocket connection.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
	"github.com/philipswan/TetheredRing-sub000/pkg/streaming"
)

// ErrBackpressure is returned when the renderer cannot keep up.
var ErrBackpressure = errors.New("placement stream send buffer full")

// Config holds the renderer endpoint.
type Config struct {
	URL    string
	Secret string
}

// Publisher sends placement batches to the renderer. Batches are
// fire-and-forget; session start and end wait for an acknowledgement.
type Publisher struct {
	conn    *connection
	cfg     Config
	dropped atomic.Uint64
}

// New creates a publisher. Nothing is dialed until Init.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the renderer.
func (p *Publisher) Init() error {
	return p.conn.dial(p.cfg.URL, p.cfg.Secret)
}

// Close disconnects from the renderer.
func (p *Publisher) Close() error {
	return p.conn.close()
}

// Dropped is the number of batches discarded because of backpressure.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartSession announces the run and waits for the renderer's ack. The
// message is replayed on every reconnect.
func (p *Publisher) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{
		ID:        s.ID,
		Name:      s.Name,
		TickRate:  s.TickRate,
		Frames:    s.Frames,
		Classes:   s.Classes,
		StartedAt: s.StartTime.UnixMilli(),
	})
	if err != nil {
		return err
	}

	p.conn.mu.Lock()
	p.conn.cachedStart = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession tells the renderer the run is over.
func (p *Publisher) EndSession() error {
	data, err := marshalEnvelope(streaming.TypeEndSession, nil)
	if err != nil {
		return err
	}
	err = p.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)

	p.conn.mu.Lock()
	p.conn.cachedStart = nil
	p.conn.mu.Unlock()

	return err
}

// Publish queues one batch for the write loop.
func (p *Publisher) Publish(ctx context.Context, batch streaming.PlacementBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalEnvelope(streaming.TypePlacements, batch)
	if err != nil {
		return err
	}
	if err := p.conn.send(data); err != nil {
		p.dropped.Add(1)
		return fmt.Errorf("tick %d: %w", batch.Tick, err)
	}
	return nil
}

// PublishStatus sends a status snapshot alongside the batches.
func (p *Publisher) PublishStatus(status any) error {
	data, err := marshalEnvelope(streaming.TypeStatus, status)
	if err != nil {
		return err
	}
	return p.conn.send(data)
}
