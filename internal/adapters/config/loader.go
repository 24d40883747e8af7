// Package config provides the configuration loader for sift.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileName is the optional per-root configuration file.
const FileName = "sift.yaml"

// Loader reads pipeline options from sift.yaml at a watched root.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads sift.yaml from the given root. A missing file is not an
// error: documented defaults apply. The second return value is the
// dependency seed for the watch command, keyed by relative path.
func (l *Loader) Load(root string) (domain.Options, map[string][]string, error) {
	opts := domain.DefaultOptions()

	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path) //nolint:gosec // Path is the watched root plus a fixed name
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return opts, nil, nil
		}
		return opts, nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opts, nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	if file.MaxFileSize != nil {
		opts.MaxFileSize = *file.MaxFileSize
	}
	if file.ContentHashAlgorithm != nil {
		opts.HashAlgorithm = domain.HashAlgorithm(*file.ContentHashAlgorithm)
	}
	if file.BatchWindowMs != nil {
		opts.BatchWindow = time.Duration(*file.BatchWindowMs) * time.Millisecond
	}
	if file.MaxBatchSize != nil {
		opts.MaxBatchSize = *file.MaxBatchSize
	}
	if file.MaxConcurrentBatches != nil {
		opts.MaxConcurrentBatches = *file.MaxConcurrentBatches
	}
	if file.MaxProcessingTimeMs != nil {
		opts.MaxProcessingTime = time.Duration(*file.MaxProcessingTimeMs) * time.Millisecond
	}
	if file.EnableContentComparison != nil {
		opts.EnableContentComparison = *file.EnableContentComparison
	}
	if file.EnableImpactAnalysis != nil {
		opts.EnableImpactAnalysis = *file.EnableImpactAnalysis
	}

	return opts.Normalize(), file.Dependencies, nil
}
