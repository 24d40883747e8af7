package ports

// ContentHasher computes a digest of a file's full byte content.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type ContentHasher interface {
	// HashFile returns a hex-encoded digest of the file at path.
	HashFile(path string) (string, error)
}
