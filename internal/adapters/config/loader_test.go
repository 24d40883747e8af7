package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/config"
	"go.trai.ch/sift/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o644))
	return dir
}

func TestLoader_Load_MissingFileUsesDefaults(t *testing.T) {
	opts, deps, err := config.NewLoader().Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultOptions(), opts)
	assert.Nil(t, deps)
}

func TestLoader_Load_PartialOverride(t *testing.T) {
	dir := writeConfig(t, `
batchWindowMs: 250
maxBatchSize: 10
`)

	opts, _, err := config.NewLoader().Load(dir)

	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, opts.BatchWindow)
	assert.Equal(t, 10, opts.MaxBatchSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.HashSHA256, opts.HashAlgorithm)
	assert.Equal(t, int64(domain.DefaultMaxFileSize), opts.MaxFileSize)
	assert.True(t, opts.EnableContentComparison)
}

func TestLoader_Load_FullOverride(t *testing.T) {
	dir := writeConfig(t, `
maxFileSize: 1048576
contentHashAlgorithm: xxhash64
batchWindowMs: 100
maxBatchSize: 5
maxConcurrentBatches: 1
maxProcessingTimeMs: 5000
enableContentComparison: false
enableImpactAnalysis: false
dependencies:
  api/login.py:
    - core/auth.py
    - core/db.py
`)

	opts, deps, err := config.NewLoader().Load(dir)

	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), opts.MaxFileSize)
	assert.Equal(t, domain.HashXX64, opts.HashAlgorithm)
	assert.Equal(t, 100*time.Millisecond, opts.BatchWindow)
	assert.Equal(t, 5, opts.MaxBatchSize)
	assert.Equal(t, int64(1), opts.MaxConcurrentBatches)
	assert.Equal(t, 5*time.Second, opts.MaxProcessingTime)
	assert.False(t, opts.EnableContentComparison)
	assert.False(t, opts.EnableImpactAnalysis)
	assert.Equal(t, map[string][]string{
		"api/login.py": {"core/auth.py", "core/db.py"},
	}, deps)
}

func TestLoader_Load_ExplicitZeroFallsBackToDefault(t *testing.T) {
	dir := writeConfig(t, "batchWindowMs: 0\n")

	opts, _, err := config.NewLoader().Load(dir)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBatchWindow, opts.BatchWindow)
}

func TestLoader_Load_MalformedYAML(t *testing.T) {
	dir := writeConfig(t, "batchWindowMs: [not a number\n")

	_, _, err := config.NewLoader().Load(dir)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfigParseFailed))
}
