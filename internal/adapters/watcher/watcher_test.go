package watcher_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/watcher"
	"go.trai.ch/sift/internal/core/domain"
)

// collect drains the watcher's event iterator into a shared slice.
type collect struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (c *collect) run(w *watcher.Watcher) {
	for event := range w.Events() {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}
}

func (c *collect) find(relPath string, kind domain.ChangeKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.RelativePath == relPath && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestWatcher_ReportsFileLifecycle(t *testing.T) {
	dir := t.TempDir()

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), dir))
	t.Cleanup(func() { _ = w.Stop() })

	c := &collect{}
	go c.run(w)

	path := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(path, []byte("print()"), 0o644))

	assert.Eventually(t, func() bool {
		return c.find("main.py", domain.KindAdd)
	}, 5*time.Second, 10*time.Millisecond, "expected an add event")

	require.NoError(t, os.WriteFile(path, []byte("print(1)"), 0o644))
	assert.Eventually(t, func() bool {
		return c.find("main.py", domain.KindChange)
	}, 5*time.Second, 10*time.Millisecond, "expected a change event")

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		return c.find("main.py", domain.KindUnlink)
	}, 5*time.Second, 10*time.Millisecond, "expected an unlink event")
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), dir))
	t.Cleanup(func() { _ = w.Stop() })

	c := &collect{}
	go c.run(w)

	sub := filepath.Join(dir, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Give the watcher a moment to add the new directory.
	assert.Eventually(t, func() bool {
		if err := os.WriteFile(filepath.Join(sub, "util.py"), []byte("pass"), 0o644); err != nil {
			return false
		}
		return c.find(filepath.Join("src", "util.py"), domain.KindAdd) ||
			c.find(filepath.Join("src", "util.py"), domain.KindChange)
	}, 5*time.Second, 50*time.Millisecond, "expected events from the new directory")
}

func TestWatcher_StopClosesEventStream(t *testing.T) {
	dir := t.TempDir()

	w, err := watcher.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), dir))

	done := make(chan struct{})
	go func() {
		for range w.Events() {
			continue
		}
		close(done)
	}()

	require.NoError(t, w.Stop())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not close after Stop")
	}
}
