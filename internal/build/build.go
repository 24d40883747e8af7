// Package build holds build-time metadata.
package build

// Version is the release version, set via linker flags.
var Version = "dev"
