// Package model holds the gorm schema of recorded streaming sessions.
package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SchemaVersion is stored in ringstream_infos and bumped on breaking
// schema changes.
const SchemaVersion = 1

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RingstreamInfo{},
	&Session{},
	&TickSample{},
	&ClassSample{},
	&DiscardEvent{},
}

// RingstreamInfo describes the database itself.
type RingstreamInfo struct {
	gorm.Model
	SchemaVersion int    `json:"schemaVersion"`
	Description   string `json:"description" gorm:"size:255"`
}

func (*RingstreamInfo) TableName() string {
	return "ringstream_infos"
}

// Session is one run of the engine.
type Session struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	Name         string         `json:"name" gorm:"size:127"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      *time.Time     `json:"endTime"`
	TickRate     float64        `json:"tickRate"`
	TimeDilation float64        `json:"timeDilation"`
	Frames       datatypes.JSON `json:"frames"`
	Classes      datatypes.JSON `json:"classes"`
}

func (*Session) TableName() string {
	return "sessions"
}

// TickSample is the per-tick summary.
type TickSample struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID  string    `json:"sessionId" gorm:"size:36;index:idx_ticksample_session_tick,priority:1"`
	Tick       uint64    `json:"tick" gorm:"index:idx_ticksample_session_tick,priority:2"`
	Time       time.Time `json:"time"`
	SimTime    float64   `json:"simTime"`
	DurationMs float64   `json:"durationMs"`
	// Camera is the ECEF camera position (EPSG:4978).
	Camera  geom.Point     `json:"camera"`
	Invalid int            `json:"invalid"`
	Windows datatypes.JSON `json:"windows"`
}

func (*TickSample) TableName() string {
	return "tick_samples"
}

// ClassSample holds the counters of one class at one tick. Only ticks in
// which the class did something are recorded.
type ClassSample struct {
	ID        uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string `json:"sessionId" gorm:"size:36;index:idx_classsample_session_tick,priority:1"`
	Tick      uint64 `json:"tick" gorm:"index:idx_classsample_session_tick,priority:2"`
	Class     string `json:"class" gorm:"size:64;index"`
	Assigned  int    `json:"assigned"`
	Released  int    `json:"released"`
	Placed    int    `json:"placed"`
	Shortage  int    `json:"shortage"`
	Discarded int    `json:"discarded"`
	Migrated  int    `json:"migrated"`
	Free      int    `json:"free"`
	InUse     int    `json:"inUse"`
}

func (*ClassSample) TableName() string {
	return "class_samples"
}

// DiscardEvent records a moving object that left its trajectory.
type DiscardEvent struct {
	ID        uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string  `json:"sessionId" gorm:"size:36;index"`
	Tick      uint64  `json:"tick"`
	SimTime   float64 `json:"simTime"`
	Frame     string  `json:"frame" gorm:"size:64"`
	Class     string  `json:"class" gorm:"size:64"`
	ObjectID  uint64  `json:"objectId"`
	Elapsed   float64 `json:"elapsed"`
}

func (*DiscardEvent) TableName() string {
	return "discard_events"
}
