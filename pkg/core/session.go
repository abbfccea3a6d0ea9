// pkg/core/session.go
package core

import "time"

// Session describes one run of the streaming engine.
type Session struct {
	ID           string
	Name         string
	StartTime    time.Time
	TickRate     float64
	TimeDilation float64
	Frames       []FrameInfo
	Classes      []ClassName
}

// FrameInfo is the static description of a reference frame.
type FrameInfo struct {
	ID           FrameID
	Zones        int
	RotationRate float64
}

// WindowState is the visible zone range of one frame at one tick,
// together with the sizes of the work lists it produced.
type WindowState struct {
	Frame  FrameID
	Start  int
	Finish int
	Assign int
	Update int
	Remove int
}

// ClassTick holds per-class counters for one tick.
type ClassTick struct {
	Class     ClassName
	Assigned  int
	Released  int
	Placed    int
	Shortage  int
	Discarded int
	Migrated  int
	Free      int
	InUse     int
}

// TickRecord summarises one engine tick.
type TickRecord struct {
	Tick     uint64
	Time     time.Time
	SimTime  float64
	Duration time.Duration
	Camera   Position3D
	Windows  []WindowState
	Classes  []ClassTick
	Discards []DiscardRecord
	Invalid  int
}

// DiscardRecord is written when a moving object leaves its trajectory.
type DiscardRecord struct {
	Tick     uint64
	SimTime  float64
	Frame    FrameID
	Class    ClassName
	ObjectID uint64
	Elapsed  float64
}

// Position3D is an ECEF position in meters.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
