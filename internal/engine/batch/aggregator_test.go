package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.trai.ch/sift/internal/engine/batch"
	"go.uber.org/mock/gomock"
)

// recordingConsumer captures every delivered batch. err and panicMsg, when
// set, fail the first delivery only.
type recordingConsumer struct {
	mu       sync.Mutex
	batches  []domain.Batch
	analyses []domain.BatchAnalysis
	err      error
	panicMsg string
}

func (r *recordingConsumer) ConsumeBatch(_ context.Context, b domain.Batch, a domain.BatchAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicMsg != "" {
		msg := r.panicMsg
		r.panicMsg = ""
		panic(msg)
	}
	r.batches = append(r.batches, b)
	r.analyses = append(r.analyses, a)
	if r.err != nil {
		err := r.err
		r.err = nil
		return err
	}
	return nil
}

func (r *recordingConsumer) delivered() []domain.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Batch(nil), r.batches...)
}

func testLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return logger
}

func analysisFor(relPath string) domain.ChangeAnalysis {
	return domain.ChangeAnalysis{
		RelativePath: relPath,
		ChangeType:   domain.ChangeContent,
		Priority:     domain.PriorityMedium,
		CacheKeys:    []string{"ast:" + relPath},
	}
}

func TestAggregator_DebounceWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		a.Add(analysisFor("src/a.py"))
		a.Add(analysisFor("src/b.py"))

		// Still inside the window: nothing delivered yet.
		time.Sleep(400 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, consumer.delivered())
		assert.Equal(t, 2, a.Pending())

		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		batches := consumer.delivered()
		require.Len(t, batches, 1)
		require.Len(t, batches[0], 2)
		assert.Equal(t, "src/a.py", batches[0][0].RelativePath)
		assert.Equal(t, "src/b.py", batches[0][1].RelativePath)
		assert.Equal(t, 0, a.Pending())
	})
}

func TestAggregator_WindowSlidesOnEveryAdd(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		// Adds at 0ms, 300ms, 600ms: each one restarts the 500ms window,
		// so no flush happens before 1100ms.
		a.Add(analysisFor("src/a.py"))
		time.Sleep(300 * time.Millisecond)
		a.Add(analysisFor("src/b.py"))
		time.Sleep(300 * time.Millisecond)
		a.Add(analysisFor("src/c.py"))

		time.Sleep(400 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, consumer.delivered())

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		batches := consumer.delivered()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 3)
	})
}

func TestAggregator_MaxBatchSizeFlushesImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		for i := 0; i < 60; i++ {
			a.Add(analysisFor("src/file.py"))
		}
		synctest.Wait()

		// The 50th add flushed without waiting for the window.
		batches := consumer.delivered()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 50)
		assert.Equal(t, 10, a.Pending())

		// The remainder follows after the window goes quiet.
		time.Sleep(600 * time.Millisecond)
		synctest.Wait()

		batches = consumer.delivered()
		require.Len(t, batches, 2)
		assert.Len(t, batches[1], 10)
	})
}

func TestAggregator_MaxAgeForcesFlush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		opts := domain.DefaultOptions()
		opts.BatchWindow = 500 * time.Millisecond
		opts.MaxProcessingTime = 2 * time.Second

		consumer := &recordingConsumer{}
		a := batch.NewAggregator(opts, consumer, testLogger(t))
		defer a.Stop()

		// A continuous stream that never lets the debounce window expire.
		for i := 0; i < 5; i++ {
			a.Add(analysisFor("src/file.py"))
			time.Sleep(400 * time.Millisecond)
		}
		synctest.Wait()

		// The age clock fired at 2s even though the window kept sliding.
		batches := consumer.delivered()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 5)
	})
}

func TestAggregator_FlushIsSynchronous(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		a.Add(analysisFor("src/a.py"))
		a.Add(analysisFor("src/b.py"))

		flushed, analysis := a.Flush()

		// By the time Flush returns the consumer has already run.
		require.Len(t, flushed, 2)
		assert.Equal(t, 2, analysis.TotalChanges)
		assert.Equal(t, domain.InvalidatePartial, analysis.RecommendedAction)
		require.Len(t, consumer.delivered(), 1)
		assert.Equal(t, 0, a.Pending())
	})
}

func TestAggregator_FlushEmptyReturnsZero(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		flushed, analysis := a.Flush()

		assert.Nil(t, flushed)
		assert.Equal(t, domain.BatchAnalysis{}, analysis)
		assert.Empty(t, consumer.delivered())
	})
}

func TestAggregator_StopDropsPending(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		// Dropping a deletion must be warned about.
		logger.EXPECT().Warn(gomock.Any()).MinTimes(1)

		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, logger)

		deletion := analysisFor("src/gone.py")
		deletion.ChangeType = domain.ChangeDeletion
		deletion.Priority = domain.PriorityHigh
		a.Add(deletion)

		a.Stop()
		a.Stop() // idempotent

		// The pending change is gone and later adds are ignored.
		a.Add(analysisFor("src/late.py"))
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Empty(t, consumer.delivered())
		assert.Equal(t, 0, a.Pending())
	})
}

func TestAggregator_ConsumerErrorDoesNotStopPipeline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{err: errors.New("sink unavailable")}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		a.Add(analysisFor("src/a.py"))
		a.Flush()

		a.Add(analysisFor("src/b.py"))
		a.Flush()

		batches := consumer.delivered()
		require.Len(t, batches, 2)
		assert.Equal(t, "src/b.py", batches[1][0].RelativePath)
	})
}

func TestAggregator_ConsumerPanicDoesNotStopPipeline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{panicMsg: "boom"}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		a.Add(analysisFor("src/a.py"))
		a.Flush()

		a.Add(analysisFor("src/b.py"))
		a.Flush()

		batches := consumer.delivered()
		require.Len(t, batches, 1)
		assert.Equal(t, "src/b.py", batches[0][0].RelativePath)
	})
}

func TestAggregator_BatchesDeliverInFlushOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		consumer := &recordingConsumer{}
		a := batch.NewAggregator(domain.DefaultOptions(), consumer, testLogger(t))
		defer a.Stop()

		for _, name := range []string{"first.py", "second.py", "third.py"} {
			a.Add(analysisFor(name))
			a.Flush()
		}

		batches := consumer.delivered()
		require.Len(t, batches, 3)
		assert.Equal(t, "first.py", batches[0][0].RelativePath)
		assert.Equal(t, "second.py", batches[1][0].RelativePath)
		assert.Equal(t, "third.py", batches[2][0].RelativePath)
	})
}
