package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medchat/medchat/internal/db"
	"github.com/medchat/medchat/internal/kv"
)

func setupTestKV(t *testing.T) *kv.Store {
	t.Helper()

	database, err := db.Open(t.TempDir() + "/medchat.db")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return kv.NewStore(database)
}

func TestStoreDefaults(t *testing.T) {
	store := NewStore(context.Background(), nil, nil)

	if store.Theme() != ThemeLight {
		t.Errorf("Theme() = %q, want %q", store.Theme(), ThemeLight)
	}
	if store.Language() != LanguageItalian {
		t.Errorf("Language() = %q, want %q", store.Language(), LanguageItalian)
	}
	if store.SidebarOpen() {
		t.Error("SidebarOpen() = true, want false")
	}
	if len(store.Notifications()) != 0 {
		t.Error("notification queue not empty at start")
	}
}

func TestStoreTheme(t *testing.T) {
	t.Run("toggle flips and persists", func(t *testing.T) {
		kvStore := setupTestKV(t)
		ctx := context.Background()
		store := NewStore(ctx, kvStore, nil)

		theme, err := store.ToggleTheme(ctx)
		if err != nil {
			t.Fatalf("ToggleTheme() error = %v", err)
		}
		if theme != ThemeDark {
			t.Errorf("ToggleTheme() = %q, want %q", theme, ThemeDark)
		}

		// A fresh store over the same backing data picks up the choice.
		reloaded := NewStore(ctx, kvStore, nil)
		if reloaded.Theme() != ThemeDark {
			t.Errorf("reloaded Theme() = %q, want %q", reloaded.Theme(), ThemeDark)
		}
	})

	t.Run("toggle twice returns to light", func(t *testing.T) {
		ctx := context.Background()
		store := NewStore(ctx, nil, nil)

		if _, err := store.ToggleTheme(ctx); err != nil {
			t.Fatalf("ToggleTheme() error = %v", err)
		}
		theme, err := store.ToggleTheme(ctx)
		if err != nil {
			t.Fatalf("ToggleTheme() error = %v", err)
		}
		if theme != ThemeLight {
			t.Errorf("ToggleTheme() = %q, want %q", theme, ThemeLight)
		}
	})

	t.Run("garbage persisted value falls back to default", func(t *testing.T) {
		kvStore := setupTestKV(t)
		ctx := context.Background()

		if err := kvStore.Set(ctx, kv.KeyTheme, "neon"); err != nil {
			t.Fatalf("seeding theme: %v", err)
		}

		store := NewStore(ctx, kvStore, nil)
		if store.Theme() != ThemeLight {
			t.Errorf("Theme() = %q, want default %q", store.Theme(), ThemeLight)
		}
	})
}

func TestStoreLanguage(t *testing.T) {
	t.Run("set persists across reload", func(t *testing.T) {
		kvStore := setupTestKV(t)
		ctx := context.Background()
		store := NewStore(ctx, kvStore, nil)

		if err := store.SetLanguage(ctx, LanguageEnglish); err != nil {
			t.Fatalf("SetLanguage() error = %v", err)
		}

		reloaded := NewStore(ctx, kvStore, nil)
		if reloaded.Language() != LanguageEnglish {
			t.Errorf("reloaded Language() = %q, want %q", reloaded.Language(), LanguageEnglish)
		}
	})

	t.Run("unsupported language is rejected", func(t *testing.T) {
		ctx := context.Background()
		store := NewStore(ctx, nil, nil)

		if err := store.SetLanguage(ctx, Language("fr")); err == nil {
			t.Fatal("expected error")
		}
		if store.Language() != LanguageItalian {
			t.Errorf("Language() = %q, want unchanged default", store.Language())
		}
	})
}

func TestStoreSidebar(t *testing.T) {
	store := NewStore(context.Background(), nil, nil)

	if open := store.ToggleSidebar(); !open {
		t.Error("first toggle should open the sidebar")
	}
	if open := store.ToggleSidebar(); open {
		t.Error("second toggle should close the sidebar")
	}
}

func TestStoreNotifications(t *testing.T) {
	t.Run("queue keeps insertion order after dismissing the first", func(t *testing.T) {
		store := NewStore(context.Background(), nil, nil)
		store.SetNotificationTTL(0)

		first := store.Notify("one", SeverityInfo)
		store.Notify("two", SeverityWarning)
		store.Notify("three", SeverityError)

		store.Dismiss(first)

		queue := store.Notifications()
		if len(queue) != 2 {
			t.Fatalf("queue has %d entries, want 2", len(queue))
		}
		if queue[0].Message != "two" || queue[1].Message != "three" {
			t.Errorf("queue order = [%q, %q]", queue[0].Message, queue[1].Message)
		}
	})

	t.Run("dismissing an unknown id is a no-op", func(t *testing.T) {
		store := NewStore(context.Background(), nil, nil)
		store.SetNotificationTTL(0)

		store.Notify("keep", SeverityInfo)
		store.Dismiss("not-an-id")

		if got := len(store.Notifications()); got != 1 {
			t.Errorf("queue has %d entries, want 1", got)
		}
	})

	t.Run("notifications expire automatically", func(t *testing.T) {
		store := NewStore(context.Background(), nil, nil)
		store.SetNotificationTTL(20 * time.Millisecond)

		store.Notify("fleeting", SeverityInfo)

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if len(store.Notifications()) == 0 {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Error("notification not dismissed within deadline")
	})

	t.Run("ids are unique", func(t *testing.T) {
		store := NewStore(context.Background(), nil, nil)
		store.SetNotificationTTL(0)

		a := store.Notify("a", SeverityInfo)
		b := store.Notify("b", SeverityInfo)
		if a == b {
			t.Error("two notifications share an id")
		}
	})
}

func TestStoreResetSettings(t *testing.T) {
	kvStore := setupTestKV(t)
	ctx := context.Background()
	store := NewStore(ctx, kvStore, nil)

	if _, err := store.ToggleTheme(ctx); err != nil {
		t.Fatalf("ToggleTheme() error = %v", err)
	}
	if err := store.SetLanguage(ctx, LanguageEnglish); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	store.ToggleSidebar()

	if err := store.ResetSettings(ctx); err != nil {
		t.Fatalf("ResetSettings() error = %v", err)
	}

	if store.Theme() != DefaultTheme || store.Language() != DefaultLanguage {
		t.Errorf("settings not restored: theme %q, language %q", store.Theme(), store.Language())
	}
	if store.SidebarOpen() {
		t.Error("sidebar still open after reset")
	}

	// The persisted keys are gone, not just overwritten.
	var dummy string
	if err := kvStore.Get(ctx, kv.KeyTheme, &dummy); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("theme key still present: %v", err)
	}
	if err := kvStore.Get(ctx, kv.KeyLanguage, &dummy); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("language key still present: %v", err)
	}
}
