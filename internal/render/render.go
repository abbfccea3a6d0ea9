// Package render keeps a lightweight proxy for every model handed to the
// engine and turns the proxies touched during a tick into one placement
// batch for a renderer.
package render

import (
	"context"
	"fmt"
	"sort"

	"github.com/philipswan/TetheredRing-sub000/internal/pool"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
	"github.com/philipswan/TetheredRing-sub000/pkg/streaming"
)

// Publisher delivers placement batches to a renderer.
type Publisher interface {
	Publish(ctx context.Context, batch streaming.PlacementBatch) error
}

// Scene owns every proxy and tracks which ones changed since the last
// flush. It is driven from the tick goroutine and is not safe for
// concurrent use.
type Scene struct {
	publisher Publisher
	nextID    uint64
	live      map[uint64]*Proxy
	dirty     map[uint64]*Proxy
	removed   []streaming.ModelUpdate
}

// NewScene creates an empty scene. A nil publisher keeps batches local.
func NewScene(p Publisher) *Scene {
	return &Scene{
		publisher: p,
		live:      make(map[uint64]*Proxy),
		dirty:     make(map[uint64]*Proxy),
	}
}

// NewProxy creates a hidden model of the given class.
func (s *Scene) NewProxy(class core.ClassName) *Proxy {
	s.nextID++
	p := &Proxy{ID: s.nextID, Class: class, scene: s}
	s.live[p.ID] = p
	return p
}

// Model is NewProxy typed for the pool.
func (s *Scene) Model(class core.ClassName) pool.Model {
	return s.NewProxy(class)
}

// Len is the number of live proxies.
func (s *Scene) Len() int {
	return len(s.live)
}

// Pending is the number of proxies waiting for the next flush.
func (s *Scene) Pending() int {
	return len(s.dirty) + len(s.removed)
}

func (s *Scene) touch(p *Proxy) {
	s.dirty[p.ID] = p
}

func (s *Scene) dispose(p *Proxy) {
	if _, ok := s.live[p.ID]; !ok {
		return
	}
	delete(s.live, p.ID)
	delete(s.dirty, p.ID)
	s.removed = append(s.removed, streaming.ModelUpdate{ID: p.ID, Class: p.Class, Removed: true})
}

// Flush collects the pending updates into a batch ordered by model ID and
// hands it to the publisher. Empty batches are not published.
func (s *Scene) Flush(ctx context.Context, tick uint64, simTime float64) (streaming.PlacementBatch, error) {
	batch := streaming.PlacementBatch{Tick: tick, SimTime: simTime}
	for _, p := range s.dirty {
		batch.Updates = append(batch.Updates, p.update())
	}
	batch.Updates = append(batch.Updates, s.removed...)
	sort.Slice(batch.Updates, func(i, j int) bool { return batch.Updates[i].ID < batch.Updates[j].ID })

	clear(s.dirty)
	s.removed = s.removed[:0]

	if s.publisher == nil || batch.Empty() {
		return batch, nil
	}
	if err := s.publisher.Publish(ctx, batch); err != nil {
		return batch, fmt.Errorf("publishing tick %d: %w", tick, err)
	}
	return batch, nil
}

// Proxy is the renderer-side stand-in for one model.
type Proxy struct {
	ID    uint64
	Class core.ClassName

	scene     *Scene
	visible   bool
	placed    bool
	placement core.Placement
}

// SetVisible shows or hides the model.
func (p *Proxy) SetVisible(visible bool) {
	if p.visible == visible {
		return
	}
	p.visible = visible
	p.scene.touch(p)
}

// SetPlacement moves the model.
func (p *Proxy) SetPlacement(pl core.Placement) {
	p.placement = pl
	p.placed = true
	p.scene.touch(p)
}

// Clone creates a new hidden proxy of the same class.
func (p *Proxy) Clone() pool.Model {
	return p.scene.NewProxy(p.Class)
}

// Dispose removes the proxy from the scene. The renderer drops it on the
// next flush.
func (p *Proxy) Dispose() {
	p.scene.dispose(p)
}

// Visible reports the last visibility set.
func (p *Proxy) Visible() bool {
	return p.visible
}

// Placement returns the last placement set, if any.
func (p *Proxy) Placement() (core.Placement, bool) {
	return p.placement, p.placed
}

func (p *Proxy) update() streaming.ModelUpdate {
	u := streaming.ModelUpdate{ID: p.ID, Class: p.Class, Visible: p.visible}
	if p.placed {
		pl := p.placement
		u.Placement = &pl
	}
	return u
}
