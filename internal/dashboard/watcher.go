package dashboard

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ArchiveWatcher watches the archive database file and reports changes,
// so the dashboard can announce runs written by other processes. SQLite
// under WAL touches several sibling files per commit, so events are
// debounced into at most one notification per interval.
type ArchiveWatcher struct {
	watcher  *fsnotify.Watcher
	changes  chan string
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	path     string
	debounce time.Duration
}

// NewArchiveWatcher creates a watcher for the archive at path. The
// watcher must be started with Start before it emits events.
func NewArchiveWatcher(path string) (*ArchiveWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ArchiveWatcher{
		watcher:  watcher,
		changes:  make(chan string, 16),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
		path:     path,
		debounce: 250 * time.Millisecond,
	}, nil
}

// Start begins watching the archive's directory. Watching the directory
// rather than the file survives SQLite's checkpoint renames.
func (w *ArchiveWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch archive directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (w *ArchiveWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.wg.Wait()

	close(w.changes)
	close(w.errors)
	return nil
}

// Changes returns the channel emitting the archive path on modification.
// Closed when the watcher stops.
func (w *ArchiveWatcher) Changes() <-chan string {
	return w.changes
}

// Errors returns the channel emitting watch errors.
func (w *ArchiveWatcher) Errors() <-chan error {
	return w.errors
}

// processEvents converts raw fsnotify events into debounced change
// notifications for the archive file.
func (w *ArchiveWatcher) processEvents() {
	defer w.wg.Done()

	var last time.Time
	base := filepath.Base(w.path)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(base, event) {
				continue
			}
			if time.Since(last) < w.debounce {
				continue
			}
			last = time.Now()

			select {
			case w.changes <- w.path:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// matches reports whether the event concerns the archive file or one of
// its WAL siblings (-wal, -shm).
func (w *ArchiveWatcher) matches(base string, event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == base || name == base+"-wal" || name == base+"-shm"
}
