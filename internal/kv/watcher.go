package kv

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// coalesceWindow batches bursts of filesystem events (SQLite touches the
// main file and its WAL on every write) into a single change signal.
const coalesceWindow = 200 * time.Millisecond

// Watcher observes the database files for writes made by another process
// and emits a change signal so in-memory caches can re-read. The signal
// carries no data; consumers re-read, they never merge.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan struct{}
	log     zerolog.Logger
	base    string
}

// NewWatcher starts watching the directory containing dbPath.
func NewWatcher(dbPath string, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(dbPath)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher: fw,
		changes: make(chan struct{}, 1),
		log:     log,
		base:    filepath.Base(dbPath),
	}, nil
}

// Changes returns the channel delivering coalesced change signals.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(coalesceWindow)
				fire = timer.C
			} else {
				timer.Reset(coalesceWindow)
			}

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("kv watcher error")
		}
	}
}

// relevant reports whether the event touches the database or its WAL.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.base || strings.HasPrefix(name, w.base+"-")
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
