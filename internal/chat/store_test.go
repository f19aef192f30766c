package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medchat/medchat/internal/models"
)

// fakeAPI implements API in memory for store tests.
type fakeAPI struct {
	nextID        int64
	conversations map[int64]*models.Conversation

	failSend   error
	failUpload error
	failCreate error
	failList   error
	failGet    error
	failDelete error

	uploads int
	reply   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		conversations: make(map[int64]*models.Conversation),
		reply:         "Hello",
	}
}

func (f *fakeAPI) CreateConversation(_ context.Context, name, model string) (*models.Summary, error) {
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextID++
	now := time.Now()
	f.conversations[f.nextID] = &models.Conversation{
		ID: f.nextID, Name: name, Model: model, CreatedAt: now, UpdatedAt: now,
	}
	return &models.Summary{ID: f.nextID, Name: name, Model: model, CreatedAt: now, UpdatedAt: now}, nil
}

func (f *fakeAPI) ListConversations(_ context.Context) ([]models.Summary, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	summaries := make([]models.Summary, 0, len(f.conversations))
	for _, conv := range f.conversations {
		summaries = append(summaries, models.Summary{
			ID: conv.ID, Name: conv.Name, Model: conv.Model,
			MessageCount: len(conv.Messages),
			CreatedAt:    conv.CreatedAt, UpdatedAt: conv.UpdatedAt,
		})
	}
	return summaries, nil
}

func (f *fakeAPI) GetConversation(_ context.Context, id int64) (*models.Conversation, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	conv, ok := f.conversations[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeAPI) DeleteConversation(_ context.Context, id int64) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.conversations, id)
	return nil
}

func (f *fakeAPI) SendMessage(_ context.Context, id int64, text string, _ []models.Media) (*models.Message, error) {
	if f.failSend != nil {
		return nil, f.failSend
	}
	if _, ok := f.conversations[id]; !ok {
		return nil, errors.New("conversation not found")
	}
	return &models.Message{
		ID:        "srv-1",
		Role:      models.RoleAssistant,
		Content:   f.reply,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeAPI) UploadMedia(_ context.Context, _ models.Media) (string, error) {
	if f.failUpload != nil {
		return "", f.failUpload
	}
	f.uploads++
	return "https://media.example/file", nil
}

func TestStoreCreate(t *testing.T) {
	t.Run("prepends summary and sets current with empty messages", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		conv, err := store.Create(ctx, "Test", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		summaries := store.Summaries()
		if len(summaries) != 1 || summaries[0].ID != 1 {
			t.Fatalf("Summaries() = %+v, want one entry with id 1", summaries)
		}

		current := store.Current()
		if current == nil || current.ID != conv.ID {
			t.Fatalf("Current() = %+v, want id %d", current, conv.ID)
		}
		if len(current.Messages) != 0 {
			t.Errorf("new conversation has %d messages, want 0", len(current.Messages))
		}
		if store.Loading() {
			t.Error("Loading() = true after success")
		}
	})

	t.Run("newest conversation comes first", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "First", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := store.Create(ctx, "Second", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		summaries := store.Summaries()
		if summaries[0].Name != "Second" {
			t.Errorf("first summary = %q, want %q", summaries[0].Name, "Second")
		}
	})

	t.Run("failure leaves prior state untouched", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Kept", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		backend.failCreate = errors.New("boom")
		if _, err := store.Create(ctx, "Lost", "m1"); err == nil {
			t.Fatal("expected error")
		}

		if got := len(store.Summaries()); got != 1 {
			t.Errorf("Summaries() has %d entries, want 1", got)
		}
		if store.Current() == nil || store.Current().Name != "Kept" {
			t.Error("current conversation changed on failure")
		}
		if store.Err() == "" {
			t.Error("Err() is empty after failure")
		}
		if store.Loading() {
			t.Error("Loading() = true after failure")
		}
	})
}

func TestStoreSend(t *testing.T) {
	t.Run("append local then send yields user and assistant in order", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Test", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		before := len(store.Current().Messages)

		if _, err := store.Send(ctx, "Hi", nil); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		msgs := store.Current().Messages
		if len(msgs) != before+2 {
			t.Fatalf("message count = %d, want %d", len(msgs), before+2)
		}
		if msgs[len(msgs)-2].Role != models.RoleUser || msgs[len(msgs)-2].Content != "Hi" {
			t.Errorf("second-to-last message = %+v, want user %q", msgs[len(msgs)-2], "Hi")
		}
		if msgs[len(msgs)-1].Role != models.RoleAssistant || msgs[len(msgs)-1].Content != "Hello" {
			t.Errorf("last message = %+v, want assistant %q", msgs[len(msgs)-1], "Hello")
		}
	})

	t.Run("failed send keeps the user message and records the error", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Test", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		backend.failSend = errors.New("boom")
		if _, err := store.Send(ctx, "Hi", nil); err == nil {
			t.Fatal("expected error")
		}

		msgs := store.Current().Messages
		if len(msgs) != 1 || msgs[0].Role != models.RoleUser {
			t.Fatalf("messages = %+v, want only the user message", msgs)
		}
		if store.Err() == "" {
			t.Error("Err() is empty after failed send")
		}
		if store.Loading() {
			t.Error("Loading() = true after failed send")
		}
	})

	t.Run("upload failure aborts before anything is appended", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Test", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		backend.failUpload = errors.New("upload boom")
		att := models.Attachment{FileName: "scan.png", MimeType: "image/png", Data: []byte{1, 2}}
		if _, err := store.Send(ctx, "look", []models.Attachment{att}); err == nil {
			t.Fatal("expected error")
		}

		if got := len(store.Current().Messages); got != 0 {
			t.Errorf("messages appended despite aborted send: %d", got)
		}
	})

	t.Run("attachments are uploaded once each and urls attached to the user message", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Test", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		atts := []models.Attachment{
			{FileName: "a.png", MimeType: "image/png", Data: []byte{1}},
			{FileName: "b.png", MimeType: "image/png", Data: []byte{2}},
		}
		if _, err := store.Send(ctx, "two files", atts); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		if backend.uploads != 2 {
			t.Errorf("uploads = %d, want 2", backend.uploads)
		}
		msgs := store.Current().Messages
		if len(msgs[0].MediaURLs) != 2 {
			t.Errorf("user message carries %d media urls, want 2", len(msgs[0].MediaURLs))
		}
	})

	t.Run("empty send with no attachments is rejected before any call", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		if _, err := store.Create(ctx, "Test", "m1"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		_, err := store.Send(ctx, "   ", nil)
		if !errors.Is(err, ErrNothingToSend) {
			t.Errorf("Send() error = %v, want ErrNothingToSend", err)
		}
	})

	t.Run("send without a conversation is rejected", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)

		_, err := store.Send(context.Background(), "Hi", nil)
		if !errors.Is(err, ErrNoConversation) {
			t.Errorf("Send() error = %v, want ErrNoConversation", err)
		}
	})
}

func TestStoreLoad(t *testing.T) {
	t.Run("replaces current wholesale", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		first, err := store.Create(ctx, "First", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := store.Send(ctx, "Hi", nil); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		second, err := store.Create(ctx, "Second", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if _, err := store.Load(ctx, first.ID); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if store.Current().ID != first.ID {
			t.Errorf("Current().ID = %d, want %d", store.Current().ID, first.ID)
		}

		if _, err := store.Load(ctx, second.ID); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if store.Current().ID != second.ID {
			t.Errorf("Current().ID = %d, want %d", store.Current().ID, second.ID)
		}
	})

	t.Run("failure leaves prior current untouched", func(t *testing.T) {
		backend := newFakeAPI()
		store := NewStore(backend, nil)
		ctx := context.Background()

		conv, err := store.Create(ctx, "Kept", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		backend.failGet = errors.New("boom")
		if _, err := store.Load(ctx, 99); err == nil {
			t.Fatal("expected error")
		}
		if store.Current() == nil || store.Current().ID != conv.ID {
			t.Error("current changed on failed load")
		}
	})
}

func TestStoreDelete(t *testing.T) {
	t.Run("removes from list and clears matching current", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		conv, err := store.Create(ctx, "Doomed", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := store.Delete(ctx, conv.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if got := len(store.Summaries()); got != 0 {
			t.Errorf("Summaries() has %d entries, want 0", got)
		}
		if store.Current() != nil {
			t.Error("Current() is non-nil after deleting the active conversation")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		conv, err := store.Create(ctx, "Doomed", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := store.Delete(ctx, conv.ID); err != nil {
			t.Fatalf("first Delete() error = %v", err)
		}
		once := store.Summaries()

		if err := store.Delete(ctx, conv.ID); err != nil {
			t.Fatalf("second Delete() error = %v", err)
		}
		twice := store.Summaries()

		if len(once) != len(twice) {
			t.Errorf("second delete changed the list: %d vs %d entries", len(once), len(twice))
		}
	})

	t.Run("deleting another conversation keeps current", func(t *testing.T) {
		store := NewStore(newFakeAPI(), nil)
		ctx := context.Background()

		first, err := store.Create(ctx, "First", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		second, err := store.Create(ctx, "Second", "m1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := store.Delete(ctx, first.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if store.Current() == nil || store.Current().ID != second.ID {
			t.Error("current cleared although a different conversation was deleted")
		}
	})
}

func TestStoreReset(t *testing.T) {
	store := NewStore(newFakeAPI(), nil)
	ctx := context.Background()

	if _, err := store.Create(ctx, "Test", "m1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Send(ctx, "Hi", nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	store.Reset()

	if store.Current() != nil {
		t.Error("Current() non-nil after Reset()")
	}
	if store.Loading() || store.Err() != "" {
		t.Error("flags not cleared by Reset()")
	}
	// The summary list survives a reset.
	if got := len(store.Summaries()); got != 1 {
		t.Errorf("Summaries() has %d entries after reset, want 1", got)
	}
}

func TestStoreEndToEnd(t *testing.T) {
	// Create -> append local -> send, checking each observable state.
	store := NewStore(newFakeAPI(), nil)
	ctx := context.Background()

	conv, err := store.Create(ctx, "Test", "m1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if conv.ID != 1 {
		t.Errorf("conversation id = %d, want 1", conv.ID)
	}

	if _, err := store.AppendLocal(models.RoleUser, "Hi", nil); err != nil {
		t.Fatalf("AppendLocal() error = %v", err)
	}
	msgs := store.Current().Messages
	if len(msgs) != 1 || msgs[0].Role != models.RoleUser || msgs[0].Content != "Hi" {
		t.Fatalf("messages after local append = %+v", msgs)
	}
	if msgs[0].ID == "" {
		t.Error("locally appended message has no client-generated id")
	}

	// The store's send appends its own user message; mirror the caller
	// contract by sending a follow-up.
	if _, err := store.Send(ctx, "And again", nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msgs = store.Current().Messages
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3", len(msgs))
	}
	if msgs[2].Role != models.RoleAssistant || msgs[2].Content != "Hello" {
		t.Errorf("final message = %+v, want assistant %q", msgs[2], "Hello")
	}
}
