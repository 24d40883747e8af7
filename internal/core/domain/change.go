// Package domain contains the core types for the change-classification pipeline.
package domain

import "time"

// ChangeKind is the raw operation reported by the file watcher.
type ChangeKind string

const (
	// KindAdd indicates a file was created.
	KindAdd ChangeKind = "add"
	// KindChange indicates a file was modified.
	KindChange ChangeKind = "change"
	// KindUnlink indicates a file was removed.
	KindUnlink ChangeKind = "unlink"
)

// ChangeEvent is a single raw file system notification. It is ephemeral:
// the classifier consumes it and never stores it.
type ChangeEvent struct {
	// Path is the absolute path of the file that changed.
	Path string
	// RelativePath is the path relative to the watched root.
	RelativePath string
	// Kind is the raw operation reported by the watcher.
	Kind ChangeKind
	// SizeBytes is the file size at notification time (0 when unknown,
	// e.g. for removed files).
	SizeBytes int64
	// Timestamp is when the notification was observed.
	Timestamp time.Time
}

// ChangeType classifies what actually changed about a file.
type ChangeType uint8

const (
	// ChangeContent indicates the file's byte content changed.
	ChangeContent ChangeType = iota
	// ChangeMetadata indicates only metadata changed (e.g. a touched mtime,
	// or a write that reproduced identical bytes).
	ChangeMetadata
	// ChangeCreation indicates the file was created.
	ChangeCreation
	// ChangeDeletion indicates the file was removed.
	ChangeDeletion
	// ChangeMove is reserved for event sources that report moves. The
	// classifier tolerates never seeing it.
	ChangeMove
	// ChangeDependency indicates the change matters because of its blast
	// radius rather than its own content. It is never an initial
	// classification; the classifier promotes to it after impact analysis.
	ChangeDependency
)

// String returns the wire-friendly name of the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangeContent:
		return "content"
	case ChangeMetadata:
		return "metadata"
	case ChangeCreation:
		return "creation"
	case ChangeDeletion:
		return "deletion"
	case ChangeMove:
		return "move"
	case ChangeDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// Priority orders changes by importance. Comparisons only ever raise a
// priority via Max, never lower it.
type Priority uint8

const (
	// PriorityIgnore marks a change that should be dropped entirely.
	PriorityIgnore Priority = 1
	// PriorityLow marks changes in generated or vendored paths.
	PriorityLow Priority = 2
	// PriorityMedium is the starting score for every change.
	PriorityMedium Priority = 3
	// PriorityHigh marks structurally important changes.
	PriorityHigh Priority = 4
	// PriorityCritical marks changes with a large blast radius.
	PriorityCritical Priority = 5
)

// String returns the human-readable name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityIgnore:
		return "ignore"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Max returns the higher of two priorities.
func (p Priority) Max(other Priority) Priority {
	if other > p {
		return other
	}
	return p
}

// AnalysisMetadata carries per-change facts used for priority tuning and
// batch statistics.
type AnalysisMetadata struct {
	// IsEntryPoint is true when the path matched an entry-point pattern.
	IsEntryPoint bool
	// IsCoreFile is true when the path matched a core-directory pattern.
	IsCoreFile bool
	// DependencyCount is the number of files that depend on the changed file.
	DependencyCount int
	// Language is the language inferred from the file extension, or empty.
	Language string
}

// ChangeAnalysis is the classifier's verdict for one non-ignored event.
// It is immutable once returned and lives only until its batch is flushed.
type ChangeAnalysis struct {
	// RelativePath is the path relative to the watched root.
	RelativePath string
	// ChangeType is the classified kind of change.
	ChangeType ChangeType
	// Priority is the final score after all rule raises and downgrades.
	Priority Priority
	// ContentHash is the digest of the file content, or empty when hashing
	// was disabled, inapplicable, or failed.
	ContentHash string
	// PreviousHash is the last digest stored for the file, or empty.
	PreviousHash string
	// AffectedFiles is the set of files that depend on the changed file.
	// It never includes the changed file itself. Sorted for determinism.
	AffectedFiles []string
	// CacheKeys identifies every cached analysis result to evict. It always
	// contains the key for the changed file plus one per affected file.
	CacheKeys []string
	// Metadata carries facts gathered during classification.
	Metadata AnalysisMetadata
}
