package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher watches the global settings file for changes so the running
// app can pick up edits without a restart.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan struct{}
	done       chan struct{}

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// NewWatcher creates a new settings file watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}, nil
}

// Events returns the channel that receives a value whenever the settings
// file changed on disk.
func (w *Watcher) Events() <-chan struct{} {
	return w.eventsChan
}

// Start begins watching the global callpopup directory.
func (w *Watcher) Start() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return w.startDir(dir)
}

func (w *Watcher) startDir(dir string) error {
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Accept write, create, and rename events. Rename matters: atomic
	// writes (write tmp, rename to target) produce Rename events on the
	// target file, the standard pattern used by editors.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Base(event.Name) != SettingsFileName {
		return
	}

	// Debounce bursts of events for the same save.
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(100*time.Millisecond, func() {
		select {
		case w.eventsChan <- struct{}{}:
		default:
		}
	})
}
