package ports

import (
	"context"

	"go.trai.ch/sift/internal/core/domain"
)

// BatchConsumer receives every flushed batch together with its aggregate
// analysis. The consumer owns the actual cache eviction; the pipeline never
// touches the cache itself. A consumer error or panic must not corrupt the
// aggregator, which logs and proceeds to the next window.
//
//go:generate mockgen -source=consumer.go -destination=mocks/mock_consumer.go -package=mocks
type BatchConsumer interface {
	ConsumeBatch(ctx context.Context, batch domain.Batch, analysis domain.BatchAnalysis) error
}

// BatchConsumerFunc adapts a function to the BatchConsumer interface.
type BatchConsumerFunc func(ctx context.Context, batch domain.Batch, analysis domain.BatchAnalysis) error

// ConsumeBatch calls the underlying function.
func (f BatchConsumerFunc) ConsumeBatch(ctx context.Context, batch domain.Batch, analysis domain.BatchAnalysis) error {
	return f(ctx, batch, analysis)
}
