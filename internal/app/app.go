// Package app implements the application layer for sift: it wires the
// watcher, classifier, and aggregator into one running pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/sift/internal/adapters/config"
	"go.trai.ch/sift/internal/adapters/console"
	"go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/batch"
	"go.trai.ch/sift/internal/engine/classify"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	logger  ports.Logger
	watcher ports.Watcher
	loader  *config.Loader
	walker  *fs.Walker
	tracer  ports.Tracer

	// consumer overrides the default console consumer. Used in tests.
	consumer ports.BatchConsumer
}

// New creates a new App instance.
func New(
	log ports.Logger,
	watcher ports.Watcher,
	loader *config.Loader,
	walker *fs.Walker,
	tracer ports.Tracer,
) *App {
	return &App{
		logger:  log,
		watcher: watcher,
		loader:  loader,
		walker:  walker,
		tracer:  tracer,
	}
}

// WithConsumer replaces the default console batch consumer. This is
// primarily used for testing.
func (a *App) WithConsumer(c ports.BatchConsumer) *App {
	a.consumer = c
	return a
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// Window overrides the configured debounce window when positive.
	Window time.Duration
	// JSON switches log output to JSON.
	JSON bool
}

// Watch runs the pipeline against root until the context is canceled:
// prime the hash store, watch the tree, classify every event, and emit
// debounced batches with their invalidation recommendations.
func (a *App) Watch(ctx context.Context, root string, opts WatchOptions) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve watch root")
	}

	if opts.JSON {
		if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
			l.SetJSON(true)
		}
	}

	options, depSeed, err := a.loader.Load(absRoot)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if opts.Window > 0 {
		options.BatchWindow = opts.Window
	}

	hasher, err := fs.NewHasher(options.HashAlgorithm)
	if err != nil {
		return err
	}

	classifier := classify.New(hasher, a.logger, options)
	for path, deps := range depSeed {
		classifier.UpdateDependencyGraph(path, deps)
	}

	consumer := a.consumer
	if consumer == nil {
		consumer = console.NewConsumer(os.Stdout)
	}
	aggregator := batch.NewAggregator(options, consumer, a.logger)

	// Prime the hash store so the first edit after startup is compared
	// against a baseline instead of looking like brand-new content.
	_, span := a.tracer.Start(ctx, "prime")
	primed := classifier.Prime(absRoot, a.walker.WalkFiles(absRoot))
	span.SetAttribute("files", primed)
	span.End()

	a.logger.Info(fmt.Sprintf("watching %s (%d files primed)", absRoot, primed))

	if err := a.watcher.Start(ctx, absRoot); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// Classification loop: single writer for the classifier and the
	// aggregator's pending set.
	g.Go(func() error {
		for event := range a.watcher.Events() {
			_, span := a.tracer.Start(ctx, "classify")
			span.SetAttribute("path", event.RelativePath)
			span.SetAttribute("kind", string(event.Kind))

			if analysis := classifier.Analyze(event); analysis != nil {
				span.SetAttribute("type", analysis.ChangeType.String())
				span.SetAttribute("priority", analysis.Priority.String())
				aggregator.Add(*analysis)
			}
			span.End()
		}
		return nil
	})

	// Shutdown: closing the watcher ends the classification loop.
	g.Go(func() error {
		<-ctx.Done()
		return a.watcher.Stop()
	})

	err = g.Wait()

	// Deliver whatever is still pending before tearing down.
	aggregator.Flush()
	aggregator.Stop()
	classifier.Close()

	stats := classifier.Stats()
	a.logger.Info(fmt.Sprintf("classified %d changes (%d ignored, %d hash failures)",
		stats.Analyzed, stats.Ignored, stats.HashFailures))

	return err
}
