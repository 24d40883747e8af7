// Package fs provides file system adapters for hashing and walking files.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ContentHasher = (*Hasher)(nil)

// Hasher computes content digests of whole files. The algorithm is
// selected at construction: sha256 by default, xxhash64 for very large
// trees where a cryptographic digest is overkill.
type Hasher struct {
	algorithm domain.HashAlgorithm
}

// NewHasher creates a Hasher for the given algorithm.
func NewHasher(algorithm domain.HashAlgorithm) (*Hasher, error) {
	switch algorithm {
	case domain.HashSHA256, domain.HashXX64:
		return &Hasher{algorithm: algorithm}, nil
	default:
		return nil, zerr.With(domain.ErrUnknownHashAlgorithm, "algorithm", string(algorithm))
	}
}

// Algorithm returns the configured digest algorithm.
func (h *Hasher) Algorithm() domain.HashAlgorithm {
	return h.algorithm
}

// HashFile returns the hex-encoded digest of the file's full content.
func (h *Hasher) HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the watched root
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	if h.algorithm == domain.HashXX64 {
		digest := xxhash.New()
		if _, err := io.Copy(digest, f); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
		}
		return fmt.Sprintf("%016x", digest.Sum64()), nil
	}

	var digest hash.Hash = sha256.New()
	if _, err := io.Copy(digest, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
