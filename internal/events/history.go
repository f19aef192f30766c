package events

import "time"

// HistoryEventType represents history-cache event types.
type HistoryEventType string

// History event type constants.
const (
	HistoryEventSaved   HistoryEventType = "saved"
	HistoryEventDeleted HistoryEventType = "deleted"
	HistoryEventReload  HistoryEventType = "reload"
)

// HistoryEvent represents a change to the locally cached session history.
// Subscribers are expected to re-read the cache; the event carries no
// snapshot data and never implies a merge.
type HistoryEvent struct {
	SessionID string
	Title     string
	Type      HistoryEventType
	Timestamp time.Time
}

// NewHistorySavedEvent creates a session saved (created or updated) event.
func NewHistorySavedEvent(sessionID, title string) HistoryEvent {
	return HistoryEvent{
		SessionID: sessionID,
		Title:     title,
		Type:      HistoryEventSaved,
		Timestamp: time.Now(),
	}
}

// NewHistoryDeletedEvent creates a session deleted event.
func NewHistoryDeletedEvent(sessionID string) HistoryEvent {
	return HistoryEvent{
		SessionID: sessionID,
		Type:      HistoryEventDeleted,
		Timestamp: time.Now(),
	}
}

// NewHistoryReloadEvent creates a reload event, emitted when the backing
// store changed outside this process.
func NewHistoryReloadEvent() HistoryEvent {
	return HistoryEvent{
		Type:      HistoryEventReload,
		Timestamp: time.Now(),
	}
}
