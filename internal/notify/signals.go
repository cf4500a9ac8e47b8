package notify

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const cancelPrefix = "cancel-"

// SignalWatcher monitors a signals directory for workflow cancel requests.
// Dropping a file named cancel-<workflowID> into the directory invokes the
// cancel callback with that workflow ID. This is the only external control
// surface the orchestrator exposes while a workflow is running.
type SignalWatcher struct {
	dir      string
	onCancel func(workflowID string)

	mu      sync.Mutex
	seen    map[string]bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates a watcher over dir, creating it if needed.
// The callback runs on the watcher goroutine and must not block.
func NewSignalWatcher(dir string, onCancel func(workflowID string)) (*SignalWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		dir:      dir,
		onCancel: onCancel,
		seen:     make(map[string]bool),
		done:     make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// No watcher available; callers can still use Scan as a polling
		// fallback.
		log.Printf("[notify] signal watcher unavailable, falling back to polling: %v", err)
		return sw, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	sw.watcher = watcher

	go sw.watch()
	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				sw.handle(filepath.Base(event.Name))
			}
		case <-sw.watcher.Errors:
			// Keep watching; Scan covers missed events.
		}
	}
}

// Scan processes any signal files already present in the directory. It is
// the polling fallback and also catches files written before the watcher
// started.
func (sw *SignalWatcher) Scan() {
	entries, err := os.ReadDir(sw.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			sw.handle(e.Name())
		}
	}
}

// handle dispatches one signal file, at most once per file name.
func (sw *SignalWatcher) handle(name string) {
	if !strings.HasPrefix(name, cancelPrefix) {
		return
	}
	workflowID := strings.TrimPrefix(name, cancelPrefix)
	if workflowID == "" {
		return
	}

	sw.mu.Lock()
	if sw.seen[name] {
		sw.mu.Unlock()
		return
	}
	sw.seen[name] = true
	sw.mu.Unlock()

	log.Printf("[notify] cancel signal received for workflow %s", workflowID)
	os.Remove(filepath.Join(sw.dir, name))
	if sw.onCancel != nil {
		sw.onCancel(workflowID)
	}
}

// Close stops the watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
