// Package ui holds presentation state that is independent of any
// conversation: theme, language, sidebar visibility and the transient
// notification queue. Theme and language persist across restarts through
// the key-value store; everything else is session-scoped.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medchat/medchat/internal/events"
	"github.com/medchat/medchat/internal/kv"
	"github.com/medchat/medchat/internal/pubsub"
)

// Theme identifies a color scheme.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Language identifies an interface language.
type Language string

// Supported languages.
const (
	LanguageItalian Language = "it"
	LanguageEnglish Language = "en"
)

// Defaults applied when nothing has been persisted yet.
const (
	DefaultTheme    = ThemeLight
	DefaultLanguage = LanguageItalian
)

// Severity levels for notifications.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// DefaultNotificationTTL is how long a notification stays in the queue
// before it is dismissed automatically.
const DefaultNotificationTTL = 5 * time.Second

// Notification is a transient message queued for display.
type Notification struct {
	ID       string
	Message  string
	Severity string
	Created  time.Time
}

// Store holds UI state behind a mutex.
type Store struct {
	mu sync.RWMutex

	kv     *kv.Store
	broker *pubsub.Broker[events.UIEvent]

	theme       Theme
	language    Language
	sidebarOpen bool

	notifications []Notification
	timers        map[string]*time.Timer
	ttl           time.Duration
}

// NewStore creates a UI store with defaults, then overlays whatever theme
// and language were persisted previously. Unknown persisted values are
// ignored in favor of the defaults.
func NewStore(ctx context.Context, store *kv.Store, broker *pubsub.Broker[events.UIEvent]) *Store {
	s := &Store{
		kv:       store,
		broker:   broker,
		theme:    DefaultTheme,
		language: DefaultLanguage,
		timers:   make(map[string]*time.Timer),
		ttl:      DefaultNotificationTTL,
	}

	if store != nil {
		var theme string
		if err := store.Get(ctx, kv.KeyTheme, &theme); err == nil {
			if t := Theme(theme); t == ThemeLight || t == ThemeDark {
				s.theme = t
			}
		}
		var language string
		if err := store.Get(ctx, kv.KeyLanguage, &language); err == nil {
			if l := Language(language); l == LanguageItalian || l == LanguageEnglish {
				s.language = l
			}
		}
	}
	return s
}

// Theme returns the active theme.
func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Language returns the active language.
func (s *Store) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SidebarOpen reports whether the sidebar is visible.
func (s *Store) SidebarOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarOpen
}

// ToggleTheme flips between light and dark and persists the result.
func (s *Store) ToggleTheme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	if s.theme == ThemeLight {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	theme := s.theme
	s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.Set(ctx, kv.KeyTheme, string(theme)); err != nil {
			return theme, fmt.Errorf("persisting theme: %w", err)
		}
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated, events.NewThemeChangedEvent(string(theme)))
	}
	return theme, nil
}

// SetLanguage switches the interface language and persists it.
func (s *Store) SetLanguage(ctx context.Context, language Language) error {
	if language != LanguageItalian && language != LanguageEnglish {
		return fmt.Errorf("unsupported language %q", language)
	}

	s.mu.Lock()
	s.language = language
	s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.Set(ctx, kv.KeyLanguage, string(language)); err != nil {
			return fmt.Errorf("persisting language: %w", err)
		}
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated, events.NewLanguageChangedEvent(string(language)))
	}
	return nil
}

// ToggleSidebar flips sidebar visibility and returns the new state.
func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
	return s.sidebarOpen
}

// Notify appends a notification to the queue and schedules its automatic
// dismissal. Returns the notification id.
func (s *Store) Notify(message, severity string) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{
		ID:       id,
		Message:  message,
		Severity: severity,
		Created:  time.Now(),
	})
	if s.ttl > 0 {
		s.timers[id] = time.AfterFunc(s.ttl, func() { s.Dismiss(id) })
	}
	s.mu.Unlock()

	if s.broker != nil {
		s.broker.Publish(pubsub.EventCreated, events.NewNotifiedEvent(id, message, severity))
	}
	return id
}

// Dismiss removes the notification with the given id. Unknown ids are
// ignored, so a manual dismissal racing the automatic one is harmless.
func (s *Store) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// Notifications returns the queue in insertion order, oldest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ResetSettings restores the default theme and language and removes the
// persisted values so the next start sees a clean slate.
func (s *Store) ResetSettings(ctx context.Context) error {
	s.mu.Lock()
	s.theme = DefaultTheme
	s.language = DefaultLanguage
	s.sidebarOpen = false
	s.mu.Unlock()

	var errs []error
	if s.kv != nil {
		if err := s.kv.Delete(ctx, kv.KeyTheme); err != nil {
			errs = append(errs, err)
		}
		if err := s.kv.Delete(ctx, kv.KeyLanguage); err != nil {
			errs = append(errs, err)
		}
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.EventUpdated, events.NewThemeChangedEvent(string(DefaultTheme)))
		s.broker.Publish(pubsub.EventUpdated, events.NewLanguageChangedEvent(string(DefaultLanguage)))
	}
	return errors.Join(errs...)
}

// SetNotificationTTL overrides the automatic dismissal delay. A zero or
// negative value disables automatic dismissal.
func (s *Store) SetNotificationTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
}
