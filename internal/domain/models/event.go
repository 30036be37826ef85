package models

import "time"

// EventType identifies a workflow notification.
type EventType string

const (
	EventApprovalRequested EventType = "approval.requested"
	EventSignalApproved    EventType = "signal.approved"
	EventSignalRejected    EventType = "signal.rejected"
	EventSignalDelayed     EventType = "signal.delayed"
	EventSignalTimeout     EventType = "signal.timeout"
	EventEmergencyStop     EventType = "emergency.stop"
	EventSettingsUpdated   EventType = "settings.updated"
)

// DelayInfo carries the payload of a delay event.
type DelayInfo struct {
	Minutes int    `json:"minutes"`
	ActorID string `json:"actorId,omitempty"`
}

// EmergencyStopInfo summarizes an emergency rejection sweep.
type EmergencyStopInfo struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Event is a typed notification emitted by the approval workflow and
// consumed by the notification adapters. The Signal pointer is shared
// read-only; consumers must not mutate it.
type Event struct {
	Type      EventType          `json:"type"`
	Signal    *Signal            `json:"signal,omitempty"`
	Outcome   *ApprovalOutcome   `json:"outcome,omitempty"`
	Delay     *DelayInfo         `json:"delay,omitempty"`
	Stop      *EmergencyStopInfo `json:"stop,omitempty"`
	Settings  map[string]any     `json:"settings,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType) *Event {
	return &Event{Type: t, Timestamp: time.Now()}
}
