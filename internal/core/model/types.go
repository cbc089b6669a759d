package model

import (
	"fmt"
	"time"
)

// EventKind distinguishes the two log line shapes that matter for playtime.
type EventKind string

const (
	KindConnect    EventKind = "connect"
	KindDisconnect EventKind = "disconnect"
)

// LogEvent is a single connect or disconnect extracted from a server log line.
type LogEvent struct {
	Player string    `json:"player"`
	Time   time.Time `json:"time"`
	Kind   EventKind `json:"kind"`
}

func (e LogEvent) IsConnect() bool {
	return e.Kind == KindConnect
}

func (e LogEvent) String() string {
	return fmt.Sprintf("%s %s at %s", e.Player, e.Kind, e.Time.Format(time.DateTime))
}

// FileEvents holds everything extracted from one log file.
type FileEvents struct {
	File   string     `json:"file"`
	Events []LogEvent `json:"events"`
	// Skipped counts malformed lines dropped under the skip policy.
	Skipped int `json:"skipped,omitempty"`
	// Cached is set when the events were served from the extraction cache.
	Cached bool `json:"-"`
}
