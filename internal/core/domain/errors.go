package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnknownHashAlgorithm is returned when the configured content hash
	// algorithm is not supported.
	ErrUnknownHashAlgorithm = zerr.New("unknown content hash algorithm")

	// ErrFileOpenFailed is returned when a file cannot be opened for hashing.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file's content fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrWatcherStartFailed is returned when the file watcher cannot be started.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")
)
