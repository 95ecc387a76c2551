package store

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/imecue/internal/model"
)

// Change is emitted by Watcher whenever the state file is written or removed.
type Change struct {
	Mode   model.Mode
	Exists bool  // False once the file has been removed
	Err    error // Set when the file exists but holds an unexpected token
	At     time.Time
}

// Watcher watches the state file and emits a Change for every update.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	changes  chan Change
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	running  bool
}

// NewWatcher creates a watcher for the state file at filePath.
func NewWatcher(filePath string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		filePath: filePath,
		changes:  make(chan Change, 8),
		done:     make(chan struct{}),
		logger:   logger,
	}, nil
}

// Changes returns the channel of state file changes. It is closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins watching. The directory is created if needed because the
// daemon may not have written the file yet.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory containing the file: the file is replaced by rename,
	// which drops a watch placed on the file itself.
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()
	return nil
}

func (w *Watcher) watch() {
	defer close(w.changes)
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			change := w.read()
			w.logger.Debug("state file changed", "file", w.filePath, "exists", change.Exists, "mode", change.Mode.Token())

			select {
			case w.changes <- change:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state file watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) read() Change {
	change := Change{At: time.Now()}
	mode, err := ReadMode(w.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return change
	case err != nil:
		change.Exists = true
		change.Err = err
		return change
	}
	change.Exists = true
	change.Mode = mode
	return change
}

// Stop stops the watcher and closes the Changes channel.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
