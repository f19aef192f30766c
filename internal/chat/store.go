// Package chat provides the conversation state store: the single source
// of truth for the conversation list and the active conversation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medchat/medchat/internal/api"
	"github.com/medchat/medchat/internal/events"
	"github.com/medchat/medchat/internal/models"
	"github.com/medchat/medchat/internal/pubsub"
)

// Validation errors, raised before any network call.
var (
	// ErrNothingToSend is returned for an empty send with no attachments.
	ErrNothingToSend = errors.New("nothing to send")

	// ErrNoConversation is returned when an operation needs an active
	// conversation and none is loaded.
	ErrNoConversation = errors.New("no active conversation")
)

// API is the backend surface the store consumes.
type API interface {
	CreateConversation(ctx context.Context, name, model string) (*models.Summary, error)
	ListConversations(ctx context.Context) ([]models.Summary, error)
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id int64) error
	SendMessage(ctx context.Context, id int64, text string, media []models.Media) (*models.Message, error)
	UploadMedia(ctx context.Context, m models.Media) (string, error)
}

// Store mediates all network-backed conversation mutations.
//
// Each async operation has three observable phases: requested sets the
// loading flag and clears any prior error; success applies the payload;
// failure records a human-readable error message leaving previously held
// data intact. The store does not serialize concurrent operations of the
// same kind; callers disable input while one is in flight.
type Store struct {
	mu sync.RWMutex

	api    API
	broker *pubsub.Broker[events.ChatEvent]

	summaries []models.Summary
	current   *models.Conversation
	loading   bool
	err       string
}

// NewStore creates a conversation store backed by the given API.
func NewStore(backend API, broker *pubsub.Broker[events.ChatEvent]) *Store {
	return &Store{
		api:    backend,
		broker: broker,
	}
}

// begin enters the requested phase.
func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

// fail records the failure, leaving all held data untouched.
func (s *Store) fail(err error) {
	s.mu.Lock()
	s.loading = false
	s.err = humanize(err)
	s.mu.Unlock()
}

// Create creates a conversation, prepends its summary to the list and
// makes it current with an empty message list.
func (s *Store) Create(ctx context.Context, name, model string) (*models.Conversation, error) {
	s.begin()

	summary, err := s.api.CreateConversation(ctx, name, model)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	conv := &models.Conversation{
		ID:        summary.ID,
		Name:      summary.Name,
		Model:     summary.Model,
		CreatedAt: summary.CreatedAt,
		UpdatedAt: summary.UpdatedAt,
		Messages:  []models.Message{},
	}

	s.mu.Lock()
	s.loading = false
	s.summaries = append([]models.Summary{*summary}, s.summaries...)
	s.current = conv
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventCreated,
			events.NewConversationCreatedEvent(summary.ID, summary.Name))
	}

	return conv, nil
}

// List replaces the summary list wholesale. On failure the prior list
// is left untouched.
func (s *Store) List(ctx context.Context) ([]models.Summary, error) {
	s.begin()

	summaries, err := s.api.ListConversations(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.loading = false
	s.summaries = summaries
	s.mu.Unlock()

	return summaries, nil
}

// Load replaces the current conversation wholesale with the fetched one,
// including its full message list.
func (s *Store) Load(ctx context.Context, id int64) (*models.Conversation, error) {
	s.begin()

	conv, err := s.api.GetConversation(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}

	s.mu.Lock()
	s.loading = false
	s.current = conv
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated,
			events.NewConversationLoadedEvent(conv.ID, conv.Name))
	}

	return conv, nil
}

// Delete removes a conversation. The id is removed from the summary
// list; when it was the current conversation, current is cleared.
// Deleting an id twice yields the same list as deleting it once.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.begin()

	if err := s.api.DeleteConversation(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.loading = false
	kept := s.summaries[:0]
	for _, sm := range s.summaries {
		if sm.ID != id {
			kept = append(kept, sm)
		}
	}
	s.summaries = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventDeleted, events.NewConversationDeletedEvent(id))
	}

	return nil
}

// Send sends a message on the current conversation, following the media
// flow ordering: attachments are uploaded first and the whole send is
// aborted when any upload fails; the local user message is appended
// carrying the uploaded URLs; the files travel inline with the text
// since the downstream model consumes inline data rather than URLs.
//
// Send appends the user message itself before the round trip; callers
// must not pair it with AppendLocal for the same text or the message
// appears twice. AppendLocal exists for messages that are never sent.
//
// The assistant reply is appended only when the current conversation
// still matches. A failed send never removes the already-appended user
// message; the error field is set and loading cleared.
func (s *Store) Send(ctx context.Context, text string, attachments []models.Attachment) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, ErrNothingToSend
	}

	s.mu.RLock()
	conv := s.current
	s.mu.RUnlock()
	if conv == nil {
		return nil, ErrNoConversation
	}
	convID := conv.ID

	s.begin()

	urls, err := s.uploadAll(ctx, attachments)
	if err != nil {
		s.fail(err)
		return nil, fmt.Errorf("uploading media: %w", err)
	}

	s.appendLocal(models.RoleUser, text, urls)

	media := make([]models.Media, 0, len(attachments))
	for _, att := range attachments {
		media = append(media, att.Media())
	}

	reply, err := s.api.SendMessage(ctx, convID, text, media)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.loading = false
	if s.current != nil && s.current.ID == convID {
		s.current.Messages = append(s.current.Messages, *reply)
	}
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated,
			events.NewMessageAppendedEvent(convID, string(reply.Role), reply.Content))
	}

	return reply, nil
}

// uploadAll uploads each attachment individually, collecting hosted
// URLs. The first failure aborts the rest.
func (s *Store) uploadAll(ctx context.Context, attachments []models.Attachment) ([]string, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	urls := make([]string, 0, len(attachments))
	for _, att := range attachments {
		url, err := s.api.UploadMedia(ctx, att.Media())
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// AppendLocal synchronously appends a message to the current
// conversation with a client-generated id and timestamp. Used so the
// user's own message renders before the round trip completes.
func (s *Store) AppendLocal(role models.Role, content string, mediaURLs []string) (*models.Message, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current == nil {
		return nil, ErrNoConversation
	}
	return s.appendLocal(role, content, mediaURLs), nil
}

func (s *Store) appendLocal(role models.Role, content string, mediaURLs []string) *models.Message {
	msg := models.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		MediaURLs: mediaURLs,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	convID := int64(0)
	if s.current != nil {
		s.current.Messages = append(s.current.Messages, msg)
		convID = s.current.ID
	}
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated,
			events.NewMessageAppendedEvent(convID, string(role), content))
	}

	return &msg
}

// Reset synchronously clears the current conversation and the
// pending/error flags. Used by "new chat".
func (s *Store) Reset() {
	s.mu.Lock()
	s.current = nil
	s.loading = false
	s.err = ""
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated, events.NewChatResetEvent())
	}
}

// Summaries returns a snapshot of the conversation list.
func (s *Store) Summaries() []models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Summary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Current returns a snapshot of the active conversation, or nil.
func (s *Store) Current() *models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	conv := *s.current
	conv.Messages = make([]models.Message, len(s.current.Messages))
	copy(conv.Messages, s.current.Messages)
	return &conv
}

// Loading reports whether a request is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last recorded error message, empty when none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// humanize converts a failure into the short message held in state.
func humanize(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "not authenticated"
	case errors.Is(err, api.ErrForbidden):
		return "permission denied"
	case errors.Is(err, api.ErrNetwork):
		return "no connection to the server"
	case errors.Is(err, api.ErrServer):
		return "the server reported an error"
	}
	return err.Error()
}
