package notify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestSignalWatcherScan(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var cancelled []string
	sw, err := NewSignalWatcher(dir, func(id string) {
		mu.Lock()
		cancelled = append(cancelled, id)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("creating watcher: %v", err)
	}
	defer sw.Close()

	path := filepath.Join(dir, "cancel-wf-123")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("writing signal file: %v", err)
	}

	sw.Scan()

	mu.Lock()
	got := append([]string(nil), cancelled...)
	mu.Unlock()
	if len(got) != 1 || got[0] != "wf-123" {
		t.Fatalf("expected cancel for wf-123, got %v", got)
	}

	// A second scan of the same (now removed) signal is a no-op.
	sw.Scan()
	mu.Lock()
	n := len(cancelled)
	mu.Unlock()
	if n != 1 {
		t.Errorf("expected signal to fire once, fired %d times", n)
	}
}

func TestSignalWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	fired := false
	sw, err := NewSignalWatcher(dir, func(string) { fired = true })
	if err != nil {
		t.Fatalf("creating watcher: %v", err)
	}
	defer sw.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	sw.Scan()
	time.Sleep(20 * time.Millisecond)

	if fired {
		t.Error("unrelated file should not trigger cancellation")
	}
}

func TestSignalWatcherEvents(t *testing.T) {
	dir := t.TempDir()

	ch := make(chan string, 1)
	sw, err := NewSignalWatcher(dir, func(id string) { ch <- id })
	if err != nil {
		t.Fatalf("creating watcher: %v", err)
	}
	defer sw.Close()

	if err := os.WriteFile(filepath.Join(dir, "cancel-wf-9"), nil, 0644); err != nil {
		t.Fatalf("writing signal file: %v", err)
	}

	select {
	case id := <-ch:
		if id != "wf-9" {
			t.Errorf("expected wf-9, got %s", id)
		}
	case <-time.After(2 * time.Second):
		// Some filesystems do not deliver inotify events promptly; the
		// polling fallback must still catch it.
		sw.Scan()
		select {
		case id := <-ch:
			if id != "wf-9" {
				t.Errorf("expected wf-9, got %s", id)
			}
		case <-time.After(time.Second):
			t.Fatal("cancel signal was never delivered")
		}
	}
}
