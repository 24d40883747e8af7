// Package batch implements the debounced batch aggregator that groups
// classified changes into batches and emits one invalidation
// recommendation per batch.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"golang.org/x/sync/semaphore"
)

// emission is one flushed batch waiting for delivery to the consumer.
type emission struct {
	batch    domain.Batch
	analysis domain.BatchAnalysis
	// done is closed after delivery for synchronous flushes.
	done chan struct{}
}

// Aggregator collects classified changes over a sliding debounce window
// and emits each flushed batch to the registered consumer. Flushes happen
// on window expiry, when the pending count reaches MaxBatchSize, or when
// the oldest pending change has waited longer than MaxProcessingTime.
// The last guarantees forward progress under a continuous event stream.
//
// Flush (drain) order is strictly the window order; deliveries start in
// the same order and run concurrently up to MaxConcurrentBatches.
type Aggregator struct {
	opts     domain.Options
	consumer ports.BatchConsumer
	logger   ports.Logger
	sem      *semaphore.Weighted

	mu       sync.Mutex
	pending  []domain.ChangeAnalysis
	queue    []emission
	timer    *time.Timer
	ageTimer *time.Timer
	stopped  bool

	kick   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewAggregator creates an Aggregator and starts its dispatch goroutine.
// Call Stop to release it.
func NewAggregator(opts domain.Options, consumer ports.BatchConsumer, logger ports.Logger) *Aggregator {
	opts = opts.Normalize()
	a := &Aggregator{
		opts:     opts,
		consumer: consumer,
		logger:   logger,
		sem:      semaphore.NewWeighted(opts.MaxConcurrentBatches),
		kick:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.dispatch()
	return a
}

// Add appends one classified change to the pending window. The first add
// of a window starts the age clock; every add slides the debounce timer;
// reaching MaxBatchSize flushes immediately.
func (a *Aggregator) Add(analysis domain.ChangeAnalysis) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		a.warnDropped([]domain.ChangeAnalysis{analysis}, "aggregator stopped")
		return
	}

	a.pending = append(a.pending, analysis)

	if len(a.pending) >= a.opts.MaxBatchSize {
		a.flushLocked(nil)
		a.mu.Unlock()
		return
	}

	if len(a.pending) == 1 {
		a.ageTimer = time.AfterFunc(a.opts.MaxProcessingTime, a.onMaxAge)
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.opts.BatchWindow, a.onWindowExpired)
	a.mu.Unlock()
}

// Flush drains the pending window immediately and blocks until the
// consumer has handled the batch. It returns the flushed batch and its
// analysis; both are zero when nothing was pending or the aggregator is
// stopped.
func (a *Aggregator) Flush() (domain.Batch, domain.BatchAnalysis) {
	a.mu.Lock()
	if a.stopped || len(a.pending) == 0 {
		a.mu.Unlock()
		return nil, domain.BatchAnalysis{}
	}
	done := make(chan struct{})
	batch, analysis := a.flushLocked(done)
	a.mu.Unlock()

	<-done
	return batch, analysis
}

// Pending returns the number of changes waiting in the current window.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Stop cancels outstanding timers and drops unflushed changes. Callers
// needing guaranteed delivery must Flush first. In-flight deliveries run
// to completion. Stop is idempotent.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.stopTimersLocked()
	dropped := a.pending
	a.pending = nil
	close(a.stopCh)
	a.mu.Unlock()

	a.warnDropped(dropped, "aggregator stopped with unflushed changes")
}

// flushLocked drains pending into a batch and queues it for delivery.
// Callers must hold a.mu.
func (a *Aggregator) flushLocked(done chan struct{}) (domain.Batch, domain.BatchAnalysis) {
	a.stopTimersLocked()
	if len(a.pending) == 0 {
		if done != nil {
			close(done)
		}
		return nil, domain.BatchAnalysis{}
	}

	batch := domain.Batch(a.pending)
	a.pending = nil
	analysis := batch.Analyze()

	a.queue = append(a.queue, emission{batch: batch, analysis: analysis, done: done})
	select {
	case a.kick <- struct{}{}:
	default:
	}
	return batch, analysis
}

// stopTimersLocked cancels both timers. Callers must hold a.mu.
func (a *Aggregator) stopTimersLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.ageTimer != nil {
		a.ageTimer.Stop()
		a.ageTimer = nil
	}
}

// onWindowExpired fires when the debounce window has gone quiet.
func (a *Aggregator) onWindowExpired() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.flushLocked(nil)
}

// onMaxAge fires when the oldest pending change has waited too long,
// which happens when a continuous event stream keeps sliding the window.
func (a *Aggregator) onMaxAge() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || len(a.pending) == 0 {
		return
	}
	a.logger.Warn(fmt.Sprintf("force-flushing %d changes: oldest pending change exceeded %s", len(a.pending), a.opts.MaxProcessingTime))
	a.flushLocked(nil)
}

// dispatch starts deliveries in flush order, bounded by the semaphore.
// After Stop it drains the already-flushed queue before exiting: those
// batches were flushed before the stop and still get delivered.
func (a *Aggregator) dispatch() {
	defer a.wg.Done()
	for {
		a.drainQueue()
		select {
		case <-a.kick:
		case <-a.stopCh:
			a.drainQueue()
			a.deliveriesDone()
			return
		}
	}
}

// drainQueue pops queued emissions in FIFO order and starts a delivery
// goroutine for each, blocking on the semaphore when the concurrency cap
// is reached.
func (a *Aggregator) drainQueue() {
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.mu.Unlock()
			return
		}
		em := a.queue[0]
		a.queue = a.queue[1:]
		a.mu.Unlock()

		// Background context: an accepted batch is always delivered.
		_ = a.sem.Acquire(context.Background(), 1)
		a.wg.Add(1)
		go a.deliver(em)
	}
}

// deliver hands one batch to the consumer. Consumer errors and panics are
// logged and never corrupt aggregator state.
func (a *Aggregator) deliver(em emission) {
	defer a.wg.Done()
	defer a.sem.Release(1)
	if em.done != nil {
		defer close(em.done)
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn(fmt.Sprintf("batch consumer panicked: %v", r))
		}
	}()

	if err := a.consumer.ConsumeBatch(context.Background(), em.batch, em.analysis); err != nil {
		a.logger.Warn(fmt.Sprintf("batch consumer failed: %v", err))
	}
}

// deliveriesDone blocks until in-flight deliveries finish by taking the
// whole semaphore.
func (a *Aggregator) deliveriesDone() {
	_ = a.sem.Acquire(context.Background(), a.opts.MaxConcurrentBatches)
	a.sem.Release(a.opts.MaxConcurrentBatches)
}

// warnDropped emits the required diagnostic when deletions or high-impact
// changes are lost; losing those is the likeliest way to serve stale
// results.
func (a *Aggregator) warnDropped(dropped []domain.ChangeAnalysis, reason string) {
	important := 0
	for i := range dropped {
		if dropped[i].Priority >= domain.PriorityHigh || dropped[i].ChangeType == domain.ChangeDeletion {
			important++
		}
	}
	if important > 0 {
		a.logger.Warn(fmt.Sprintf("%s: dropping %d changes (%d high-priority or deletions)", reason, len(dropped), important))
	}
}
