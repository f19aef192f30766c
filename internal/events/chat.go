// Package events defines the event payload types published on the
// application's pub/sub brokers.
package events

import "time"

// ChatEventType represents conversation-specific event types.
type ChatEventType string

// Chat event type constants.
const (
	ChatEventConversationCreated ChatEventType = "conversation_created"
	ChatEventConversationLoaded  ChatEventType = "conversation_loaded"
	ChatEventConversationDeleted ChatEventType = "conversation_deleted"
	ChatEventMessageAppended     ChatEventType = "message_appended"
	ChatEventReset               ChatEventType = "reset"
)

// ChatEvent represents a conversation lifecycle event.
type ChatEvent struct {
	ConversationID int64
	Name           string
	Type           ChatEventType
	Timestamp      time.Time

	// Set for MessageAppended events.
	MessageRole    string
	MessageContent string
}

// NewConversationCreatedEvent creates a conversation created event.
func NewConversationCreatedEvent(id int64, name string) ChatEvent {
	return ChatEvent{
		ConversationID: id,
		Name:           name,
		Type:           ChatEventConversationCreated,
		Timestamp:      time.Now(),
	}
}

// NewConversationLoadedEvent creates a conversation loaded event.
func NewConversationLoadedEvent(id int64, name string) ChatEvent {
	return ChatEvent{
		ConversationID: id,
		Name:           name,
		Type:           ChatEventConversationLoaded,
		Timestamp:      time.Now(),
	}
}

// NewConversationDeletedEvent creates a conversation deleted event.
func NewConversationDeletedEvent(id int64) ChatEvent {
	return ChatEvent{
		ConversationID: id,
		Type:           ChatEventConversationDeleted,
		Timestamp:      time.Now(),
	}
}

// NewMessageAppendedEvent creates a message appended event.
func NewMessageAppendedEvent(conversationID int64, role, content string) ChatEvent {
	return ChatEvent{
		ConversationID: conversationID,
		Type:           ChatEventMessageAppended,
		MessageRole:    role,
		MessageContent: content,
		Timestamp:      time.Now(),
	}
}

// NewChatResetEvent creates a chat reset event.
func NewChatResetEvent() ChatEvent {
	return ChatEvent{
		Type:      ChatEventReset,
		Timestamp: time.Now(),
	}
}
