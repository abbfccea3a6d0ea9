// Package streaming defines the wire messages of the placement stream that
// feeds a renderer with model updates.
package streaming

import (
	"encoding/json"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Message type constants of the placement stream.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypePlacements   = "placements"
	TypeStatus       = "status"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`
}

// StartSessionPayload announces the frames and classes of a run.
type StartSessionPayload struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	TickRate  float64          `json:"tickRate"`
	Frames    []core.FrameInfo `json:"frames"`
	Classes   []core.ClassName `json:"classes"`
	StartedAt int64            `json:"startedAt"`
}

// ModelUpdate is the latest state of one model handle. Removed handles
// were destroyed and will not be referenced again.
type ModelUpdate struct {
	ID        uint64          `json:"id"`
	Class     core.ClassName  `json:"class"`
	Visible   bool            `json:"visible"`
	Placement *core.Placement `json:"placement,omitempty"`
	Removed   bool            `json:"removed,omitempty"`
}

// PlacementBatch carries every model changed during one tick.
type PlacementBatch struct {
	Tick    uint64        `json:"tick"`
	SimTime float64       `json:"simTime"`
	Updates []ModelUpdate `json:"updates"`
}

// Empty reports whether the batch carries no updates.
func (b PlacementBatch) Empty() bool {
	return len(b.Updates) == 0
}
