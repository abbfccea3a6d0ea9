// Package v1 contains the v1 export format for recorded streaming sessions.
package v1

// Version is written into every export.
const Version = 1

// Export is the root JSON structure for v1 format
type Export struct {
	Version      int         `json:"version"`
	SessionID    string      `json:"sessionId"`
	Name         string      `json:"name"`
	StartTime    string      `json:"startTime"`
	EndTime      string      `json:"endTime,omitempty"`
	TickRate     float64     `json:"tickRate"`
	TimeDilation float64     `json:"timeDilation"`
	EndTick      uint64      `json:"endTick"`
	Frames       []Frame     `json:"frames"`
	Classes      []ClassData `json:"classes"`
	// Ticks are [tick, simTime, durationMs, invalid, windows] where
	// windows is [[start, finish], ...] in frame order.
	Ticks [][]any `json:"ticks"`
	// Discards are [tick, simTime, frame, class, objectId, elapsed].
	Discards [][]any `json:"discards"`
}

// Frame is the static description of a frame.
type Frame struct {
	ID           string  `json:"id"`
	Zones        int     `json:"zones"`
	RotationRate float64 `json:"rotationRate,omitempty"`
}

// ClassData holds the counters of one class. Samples are
// [tick, assigned, released, placed, shortage, discarded, migrated, free, inUse]
// and only present for ticks in which something happened to the class.
type ClassData struct {
	Name    string  `json:"name"`
	Samples [][]any `json:"samples"`
}
