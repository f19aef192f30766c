package events

import "time"

// UIEventType represents UI state event types.
type UIEventType string

// UI event type constants.
const (
	UIEventThemeChanged    UIEventType = "theme_changed"
	UIEventLanguageChanged UIEventType = "language_changed"
	UIEventNotified        UIEventType = "notified"
)

// UIEvent represents a UI state change.
type UIEvent struct {
	Type      UIEventType
	Value     string
	Timestamp time.Time

	// Set for Notified events.
	NotificationID string
	Severity       string
}

// NewThemeChangedEvent creates a theme changed event.
func NewThemeChangedEvent(theme string) UIEvent {
	return UIEvent{
		Type:      UIEventThemeChanged,
		Value:     theme,
		Timestamp: time.Now(),
	}
}

// NewLanguageChangedEvent creates a language changed event.
func NewLanguageChangedEvent(language string) UIEvent {
	return UIEvent{
		Type:      UIEventLanguageChanged,
		Value:     language,
		Timestamp: time.Now(),
	}
}

// NewNotifiedEvent creates a notification enqueued event.
func NewNotifiedEvent(id, message, severity string) UIEvent {
	return UIEvent{
		Type:           UIEventNotified,
		Value:          message,
		NotificationID: id,
		Severity:       severity,
		Timestamp:      time.Now(),
	}
}
