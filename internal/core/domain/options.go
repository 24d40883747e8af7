package domain

import "time"

// HashAlgorithm selects the content digest implementation.
type HashAlgorithm string

const (
	// HashSHA256 is the default cryptographic digest.
	HashSHA256 HashAlgorithm = "sha256"
	// HashXX64 is a fast non-cryptographic digest for very large trees.
	HashXX64 HashAlgorithm = "xxhash64"
)

// Defaults for the pipeline configuration surface.
const (
	DefaultMaxFileSize          = 10 << 20 // 10 MiB
	DefaultBatchWindow          = 500 * time.Millisecond
	DefaultMaxBatchSize         = 50
	DefaultMaxConcurrentBatches = 3
	DefaultMaxProcessingTime    = 30 * time.Second
)

// Options is the configuration surface of the pipeline. Every field is
// optional; zero values are replaced by defaults via Normalize.
type Options struct {
	// MaxFileSize is the largest file the classifier will consider.
	// Events for larger files are ignored outright.
	MaxFileSize int64
	// HashAlgorithm selects the content digest implementation.
	HashAlgorithm HashAlgorithm
	// BatchWindow is the sliding debounce window. The window only closes
	// after this much quiet time.
	BatchWindow time.Duration
	// MaxBatchSize flushes a batch immediately once this many analyses are
	// pending, regardless of the debounce timer.
	MaxBatchSize int
	// MaxConcurrentBatches caps how many flush emissions may run at once.
	MaxConcurrentBatches int64
	// MaxProcessingTime force-flushes once the oldest pending analysis has
	// waited this long, guaranteeing forward progress under a continuous
	// event stream.
	MaxProcessingTime time.Duration
	// EnableContentComparison turns on hash-based detection of
	// metadata-only writes.
	EnableContentComparison bool
	// EnableImpactAnalysis turns on dependency-graph blast-radius lookups.
	EnableImpactAnalysis bool
}

// DefaultOptions returns the documented defaults for every field.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:             DefaultMaxFileSize,
		HashAlgorithm:           HashSHA256,
		BatchWindow:             DefaultBatchWindow,
		MaxBatchSize:            DefaultMaxBatchSize,
		MaxConcurrentBatches:    DefaultMaxConcurrentBatches,
		MaxProcessingTime:       DefaultMaxProcessingTime,
		EnableContentComparison: true,
		EnableImpactAnalysis:    true,
	}
}

// Normalize replaces zero or invalid values with defaults and returns the
// result. The two booleans are left untouched: false is a valid setting.
func (o Options) Normalize() Options {
	defaults := DefaultOptions()
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = defaults.MaxFileSize
	}
	if o.HashAlgorithm == "" {
		o.HashAlgorithm = defaults.HashAlgorithm
	}
	if o.BatchWindow <= 0 {
		o.BatchWindow = defaults.BatchWindow
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = defaults.MaxBatchSize
	}
	if o.MaxConcurrentBatches <= 0 {
		o.MaxConcurrentBatches = defaults.MaxConcurrentBatches
	}
	if o.MaxProcessingTime <= 0 {
		o.MaxProcessingTime = defaults.MaxProcessingTime
	}
	return o
}
