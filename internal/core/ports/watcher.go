package ports

import (
	"context"
	"iter"

	"go.trai.ch/sift/internal/core/domain"
)

// Watcher defines the interface for the file-watch collaborator that feeds
// raw change events into the pipeline.
type Watcher interface {
	// Start begins watching the given root directory recursively.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of change events in observed order.
	Events() iter.Seq[domain.ChangeEvent]
}
