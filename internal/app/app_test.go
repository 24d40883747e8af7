package app_test

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/config"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/app"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// stubWatcher lets the test push events by hand and closes the stream on
// Stop.
type stubWatcher struct {
	events chan domain.ChangeEvent
	once   sync.Once
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{events: make(chan domain.ChangeEvent, 16)}
}

func (w *stubWatcher) Start(_ context.Context, _ string) error { return nil }

func (w *stubWatcher) Stop() error {
	w.once.Do(func() { close(w.events) })
	return nil
}

func (w *stubWatcher) Events() iter.Seq[domain.ChangeEvent] {
	return func(yield func(domain.ChangeEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func (w *stubWatcher) send(event domain.ChangeEvent) {
	w.events <- event
}

var _ ports.Watcher = (*stubWatcher)(nil)

func TestApp_Watch_EndToEnd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "core"), 0o755))
		require.NoError(t, os.WriteFile(
			filepath.Join(root, "core", "util.py"), []byte("pass"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(`
batchWindowMs: 100
dependencies:
  api/a.py: [core/util.py]
  api/b.py: [core/util.py]
  api/c.py: [core/util.py]
  api/d.py: [core/util.py]
  api/e.py: [core/util.py]
  api/f.py: [core/util.py]
`), 0o644))

		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Info(gomock.Any()).AnyTimes()
		logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		var (
			mu       sync.Mutex
			batches  []domain.Batch
			analyses []domain.BatchAnalysis
		)
		consumer := mocks.NewMockBatchConsumer(ctrl)
		consumer.EXPECT().ConsumeBatch(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b domain.Batch, a domain.BatchAnalysis) error {
				mu.Lock()
				defer mu.Unlock()
				batches = append(batches, b)
				analyses = append(analyses, a)
				return nil
			}).AnyTimes()

		w := newStubWatcher()
		a := app.New(logger, w, config.NewLoader(), fs.NewWalker(), telemetry.NewNoopTracer()).
			WithConsumer(consumer)

		ctx, cancel := context.WithCancel(t.Context())
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- a.Watch(ctx, root, app.WatchOptions{})
		}()

		// Priming has finished once the pipeline is blocked on the event
		// stream. Change the file afterwards so the digest differs from
		// the primed baseline.
		time.Sleep(10 * time.Millisecond)
		synctest.Wait()
		require.NoError(t, os.WriteFile(
			filepath.Join(root, "core", "util.py"), []byte("raise"), 0o644))
		w.send(domain.ChangeEvent{
			Path:         filepath.Join(root, "core", "util.py"),
			RelativePath: filepath.Join("core", "util.py"),
			Kind:         domain.KindChange,
			SizeBytes:    5,
			Timestamp:    time.Now(),
		})

		// Let the event be classified and the window close.
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		cancel()

		require.NoError(t, <-watchErr)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, batches, 1)
		require.Len(t, batches[0], 1)

		member := batches[0][0]
		// Six dependents promote the change to a critical dependency change.
		assert.Equal(t, domain.ChangeDependency, member.ChangeType)
		assert.Equal(t, domain.PriorityCritical, member.Priority)
		assert.Len(t, member.AffectedFiles, 6)
		assert.Len(t, member.CacheKeys, 7)
		// The hash store was primed, so the write's digest had a baseline.
		assert.NotEmpty(t, member.ContentHash)

		assert.True(t, analyses[0].HasCriticalChanges)
		assert.Equal(t, domain.InvalidateFull, analyses[0].RecommendedAction)
	})
}

func TestApp_Watch_CancelWithoutEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Info(gomock.Any()).AnyTimes()
		logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		consumer := mocks.NewMockBatchConsumer(ctrl)

		w := newStubWatcher()
		a := app.New(logger, w, config.NewLoader(), fs.NewWalker(), telemetry.NewNoopTracer()).
			WithConsumer(consumer)

		root := t.TempDir()
		ctx, cancel := context.WithCancel(t.Context())
		watchErr := make(chan error, 1)
		go func() {
			watchErr <- a.Watch(ctx, root, app.WatchOptions{})
		}()

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		cancel()

		require.NoError(t, <-watchErr)
	})
}
