package domain

// InvalidationAction is the aggregate verdict on how broadly the cache
// store should evict in response to one batch.
type InvalidationAction string

const (
	// InvalidatePartial evicts only the per-member cache keys.
	InvalidatePartial InvalidationAction = "partial_invalidation"
	// InvalidateAggressive evicts the per-member keys plus closely related
	// entries; chosen when a batch touches a moderate number of dependents.
	InvalidateAggressive InvalidationAction = "aggressive_invalidation"
	// InvalidateFull evicts everything; chosen when a batch contains a
	// critical change or touches many dependents.
	InvalidateFull InvalidationAction = "full_invalidation"
)

// Thresholds on the union of affected files that escalate the recommended
// invalidation action.
const (
	fullInvalidationAffected       = 20
	aggressiveInvalidationAffected = 10
)

// Batch is the ordered list of analyses collected within one debounce
// window. Members preserve classification order. A batch is consumed once
// by the emission callback and then discarded.
type Batch []ChangeAnalysis

// BatchAnalysis aggregates statistics over one batch. It is derived purely
// from the batch and carries no state beyond it.
type BatchAnalysis struct {
	// TotalChanges is the number of members in the batch.
	TotalChanges int
	// ChangesByType tallies members by change type.
	ChangesByType map[ChangeType]int
	// ChangesByLanguage tallies members by inferred language. Members with
	// no recognized language are omitted.
	ChangesByLanguage map[string]int
	// ChangesByPriority tallies members by final priority.
	ChangesByPriority map[Priority]int
	// AffectedFilesCount is the size of the union of all members'
	// affected-file sets.
	AffectedFilesCount int
	// HasCriticalChanges is true when any member is critical.
	HasCriticalChanges bool
	// RecommendedAction is the invalidation verdict for the whole batch.
	RecommendedAction InvalidationAction
}

// Analyze derives the aggregate statistics and invalidation recommendation
// for the batch.
func (b Batch) Analyze() BatchAnalysis {
	analysis := BatchAnalysis{
		TotalChanges:      len(b),
		ChangesByType:     make(map[ChangeType]int),
		ChangesByLanguage: make(map[string]int),
		ChangesByPriority: make(map[Priority]int),
	}

	affected := make(map[string]struct{})
	for i := range b {
		member := &b[i]
		analysis.ChangesByType[member.ChangeType]++
		analysis.ChangesByPriority[member.Priority]++
		if member.Metadata.Language != "" {
			analysis.ChangesByLanguage[member.Metadata.Language]++
		}
		if member.Priority == PriorityCritical {
			analysis.HasCriticalChanges = true
		}
		for _, path := range member.AffectedFiles {
			affected[path] = struct{}{}
		}
	}
	analysis.AffectedFilesCount = len(affected)

	switch {
	case analysis.HasCriticalChanges || analysis.AffectedFilesCount > fullInvalidationAffected:
		analysis.RecommendedAction = InvalidateFull
	case analysis.AffectedFilesCount > aggressiveInvalidationAffected:
		analysis.RecommendedAction = InvalidateAggressive
	default:
		analysis.RecommendedAction = InvalidatePartial
	}

	return analysis
}
