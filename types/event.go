package types

import "time"

// EventKind distinguishes the notification events emitted for a job.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
)

// Event is a notification bus message delivered to the UI layer.
// Percent is meaningful for progress events; TerminalStatus for completed
// events.
type Event struct {
	JobID          string        `json:"jobId"`
	Kind           EventKind     `json:"kind"`
	Percent        int           `json:"percent,omitempty"`
	TerminalStatus BookingStatus `json:"terminalStatus,omitempty"`
	Message        string        `json:"message,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}
