package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collectIngests waits up to timeout for want paths to be reported.
type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := NewWatcher([]string{dir}, []string{".txt"}, true, c.add, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(path, []byte("cat"), 0600); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 3*time.Second, func() bool {
		for _, p := range c.snapshot() {
			if p == path {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Errorf("new file never reported, got %v", c.snapshot())
	}
}

func TestWatcher_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := NewWatcher([]string{dir}, []string{".txt"}, true, c.add, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("filtered extension reported: %v", got)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, true, func(string) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
