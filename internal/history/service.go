// Package history maintains the locally cached session history: lightweight
// snapshots of past chat sessions keyed by a client-generated session id,
// persisted through the key-value store so they survive restarts.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/medchat/medchat/internal/events"
	"github.com/medchat/medchat/internal/kv"
	"github.com/medchat/medchat/internal/models"
	"github.com/medchat/medchat/internal/pubsub"
)

// maxTitleLen bounds the derived session titles.
const maxTitleLen = 30

// SavedSession is a snapshot of a chat session kept in the local cache.
type SavedSession struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Service manages the session history cache.
type Service struct {
	store  *kv.Store
	broker *pubsub.Broker[events.HistoryEvent]
}

// NewService creates a history service over the given key-value store.
func NewService(store *kv.Store, broker *pubsub.Broker[events.HistoryEvent]) *Service {
	return &Service{store: store, broker: broker}
}

// Upsert stores a snapshot of the session with the given id. An existing
// session keeps its creation time and gets a fresh update time; a new one
// gets both set to now. Sessions with no messages are not saved.
func (s *Service) Upsert(ctx context.Context, sessionID string, messages []models.Message) (*SavedSession, error) {
	if sessionID == "" {
		return nil, errors.New("session id is empty")
	}
	if len(messages) == 0 {
		return nil, nil
	}

	// Read-modify-write in one transaction so a concurrent writer (see
	// kv.Watcher) cannot be lost.
	var session SavedSession
	err := s.store.Update(ctx, kv.KeyHistory, func(raw []byte) (any, error) {
		sessions, err := decodeSessions(raw)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		session = SavedSession{
			ID:        sessionID,
			Title:     deriveTitle(messages),
			Messages:  messages,
			CreatedAt: now,
			UpdatedAt: now,
		}

		for i, existing := range sessions {
			if existing.ID == sessionID {
				session.CreatedAt = existing.CreatedAt
				sessions[i] = session
				return sessions, nil
			}
		}
		return append(sessions, session), nil
	})
	if err != nil {
		return nil, err
	}

	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated,
			events.NewHistorySavedEvent(session.ID, session.Title))
	}
	return &session, nil
}

// List returns all saved sessions, most recently updated first.
func (s *Service) List(ctx context.Context) ([]SavedSession, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Get returns the saved session with the given id, or nil when absent.
func (s *Service) Get(ctx context.Context, sessionID string) (*SavedSession, error) {
	sessions, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// Delete removes the session with the given id. Deleting an unknown id is
// a no-op.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	removed := false
	err := s.store.Update(ctx, kv.KeyHistory, func(raw []byte) (any, error) {
		sessions, err := decodeSessions(raw)
		if err != nil {
			return nil, err
		}

		kept := sessions[:0]
		for _, session := range sessions {
			if session.ID == sessionID {
				removed = true
				continue
			}
			kept = append(kept, session)
		}
		if !removed {
			return nil, kv.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	if s.broker != nil {
		s.broker.Publish(pubsub.EventDeleted, events.NewHistoryDeletedEvent(sessionID))
	}
	return nil
}

// Search returns sessions whose title or message content contains the query,
// case-insensitively, most recently updated first. An empty query matches
// every session.
func (s *Service) Search(ctx context.Context, query string) ([]SavedSession, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return sessions, nil
	}

	needle := strings.ToLower(query)
	var matched []SavedSession
	for _, session := range sessions {
		if sessionMatches(session, needle) {
			matched = append(matched, session)
		}
	}
	return matched, nil
}

// Clear removes the whole cache.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, kv.KeyHistory); err != nil {
		return err
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.EventDeleted, events.NewHistoryReloadEvent())
	}
	return nil
}

// NotifyExternalChange publishes a reload event. Called when the backing
// store changed outside this process; subscribers re-read the cache.
func (s *Service) NotifyExternalChange() {
	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated, events.NewHistoryReloadEvent())
	}
}

func (s *Service) load(ctx context.Context) ([]SavedSession, error) {
	var sessions []SavedSession
	if err := s.store.Get(ctx, kv.KeyHistory, &sessions); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sessions, nil
}

func decodeSessions(raw []byte) ([]SavedSession, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var sessions []SavedSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decoding session history: %w", err)
	}
	return sessions, nil
}

func sessionMatches(session SavedSession, needle string) bool {
	if strings.Contains(strings.ToLower(session.Title), needle) {
		return true
	}
	for _, msg := range session.Messages {
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			return true
		}
	}
	return false
}

// deriveTitle takes the first user message and truncates it for display.
// Sessions without a user message fall back to a generic title.
func deriveTitle(messages []models.Message) string {
	for _, msg := range messages {
		if msg.Role != models.RoleUser {
			continue
		}
		title := strings.TrimSpace(msg.Content)
		if title == "" {
			break
		}
		runes := []rune(title)
		if len(runes) > maxTitleLen {
			return string(runes[:maxTitleLen]) + "..."
		}
		return title
	}
	return "Untitled session"
}
