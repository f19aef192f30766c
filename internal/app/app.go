// Package app assembles the application: configuration, logging, the local
// database with its key-value store, the API client and the state stores,
// built once at startup and torn down together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/medchat/medchat/internal/api"
	"github.com/medchat/medchat/internal/auth"
	"github.com/medchat/medchat/internal/chat"
	"github.com/medchat/medchat/internal/config"
	"github.com/medchat/medchat/internal/db"
	"github.com/medchat/medchat/internal/events"
	"github.com/medchat/medchat/internal/history"
	"github.com/medchat/medchat/internal/kv"
	"github.com/medchat/medchat/internal/logger"
	"github.com/medchat/medchat/internal/pubsub"
	"github.com/medchat/medchat/internal/ui"
)

// App holds every long-lived component of a running session.
type App struct {
	Config *config.Config
	Log    zerolog.Logger

	Client  *api.Client
	Chat    *chat.Store
	History *history.Service
	UI      *ui.Store
	Auth    *auth.Store

	ChatEvents    *pubsub.Broker[events.ChatEvent]
	HistoryEvents *pubsub.Broker[events.HistoryEvent]
	UIEvents      *pubsub.Broker[events.UIEvent]

	database *db.DB
	watcher  *kv.Watcher
	cancel   context.CancelFunc
	closeLog func() error
}

// New builds the application from the given configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	kvStore := kv.NewStore(database)

	chatBroker := pubsub.NewBroker[events.ChatEvent]("chat")
	historyBroker := pubsub.NewBroker[events.HistoryEvent]("history")
	uiBroker := pubsub.NewBroker[events.UIEvent]("ui")

	client := api.NewClient(cfg.BaseURL(), cfg.Timeout(), log)

	a := &App{
		Config:        cfg,
		Log:           log,
		Client:        client,
		Chat:          chat.NewStore(client, chatBroker),
		History:       history.NewService(kvStore, historyBroker),
		UI:            ui.NewStore(ctx, kvStore, uiBroker),
		Auth:          auth.NewStore(client),
		ChatEvents:    chatBroker,
		HistoryEvents: historyBroker,
		UIEvents:      uiBroker,
		database:      database,
		closeLog:      closeLog,
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if err := a.startWatcher(watchCtx, cfg.DatabasePath()); err != nil {
		// The watcher is a convenience; a session without external
		// change signals still works.
		log.Warn().Err(err).Msg("database watcher unavailable")
	}

	if cfg.Token != "" {
		if _, err := a.Auth.Resume(ctx, cfg.Token); err != nil {
			log.Debug().Err(err).Msg("saved session not resumable")
		}
	}

	return a, nil
}

// startWatcher forwards external database changes into the history broker.
func (a *App) startWatcher(ctx context.Context, dbPath string) error {
	watcher, err := kv.NewWatcher(dbPath, a.Log)
	if err != nil {
		return err
	}
	a.watcher = watcher

	go watcher.Run(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Changes():
				if !ok {
					return
				}
				a.History.NotifyExternalChange()
			}
		}
	}()
	return nil
}

// Close releases every resource the app holds. Safe to call once.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}

	a.ChatEvents.Shutdown()
	a.HistoryEvents.Shutdown()
	a.UIEvents.Shutdown()

	var firstErr error
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			firstErr = err
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildLogger(cfg *config.Config) (zerolog.Logger, func() error, error) {
	if !cfg.Debug {
		return logger.New(cfg.Level()), func() error { return nil }, nil
	}

	logPath := filepath.Join(cfg.DataDir, "medchat.log")
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating data directory: %w", err)
	}
	return logger.NewWithFile(logPath)
}
