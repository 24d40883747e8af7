package classify

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/engine/rules"
)

// Dependent-count thresholds that promote a change's priority during
// impact analysis.
const (
	// dependencyCriticalThreshold promotes to critical and reclassifies as
	// a dependency change: the importance derives from the blast radius.
	dependencyCriticalThreshold = 5
	// dependencyHighThreshold promotes to at least high without
	// reclassifying.
	dependencyHighThreshold = 2
)

// cacheKeyPrefix namespaces the keys handed to the cache store.
const cacheKeyPrefix = "ast:"

// Stats counts classifier outcomes since construction.
type Stats struct {
	// Analyzed is the number of events that produced an analysis.
	Analyzed int64
	// Ignored is the number of events dropped by the ignore tests or
	// rule-table drops.
	Ignored int64
	// HashFailures is the number of hashing errors recovered by the
	// conservative content fallback.
	HashFailures int64
}

// Classifier turns raw change events into classified analyses. It owns the
// content hash store exclusively and reads the dependency graph maintained
// by the external parser layer. A single goroutine drives Analyze; the
// store and graph are still locked internally so Prime and Update may be
// called from elsewhere.
type Classifier struct {
	hasher ports.ContentHasher
	logger ports.Logger
	opts   domain.Options

	hashes *ContentHashStore
	deps   *DependencyGraph

	closed atomic.Bool

	statsMu sync.Mutex
	stats   Stats
}

// New creates a Classifier with the given hasher, logger, and options.
func New(hasher ports.ContentHasher, logger ports.Logger, opts domain.Options) *Classifier {
	return &Classifier{
		hasher: hasher,
		logger: logger,
		opts:   opts.Normalize(),
		hashes: NewContentHashStore(),
		deps:   NewDependencyGraph(),
	}
}

// UpdateDependencyGraph replaces the dependency edges for relPath. This is
// the only way the graph is populated; the parser layer calls it after
// re-analyzing a file.
func (c *Classifier) UpdateDependencyGraph(relPath string, deps []string) {
	c.deps.Update(relPath, deps)
}

// Analyze classifies one raw change event. It returns nil when the event
// is ignored or the classifier has been closed. Hashing failures are
// recovered locally: the change is kept as a content change with no digest
// so the consumer re-analyzes rather than going stale.
func (c *Classifier) Analyze(event domain.ChangeEvent) *domain.ChangeAnalysis {
	if c.closed.Load() {
		return nil
	}

	changeType := initialType(event)

	// Ignore tests short-circuit all further work.
	if event.SizeBytes > c.opts.MaxFileSize {
		c.noteIgnored(event, "file exceeds size limit")
		return nil
	}
	if rules.IsTempFile(event.RelativePath) {
		c.noteIgnored(event, "temp file pattern")
		return nil
	}

	var contentHash, previousHash string
	hashed := false

	// For modify events, compare against the stored digest to filter out
	// metadata-only noise such as a touched mtime.
	if c.opts.EnableContentComparison && event.Kind == domain.KindChange {
		digest, err := c.hasher.HashFile(event.Path)
		if err != nil {
			c.noteHashFailure(event, err)
			changeType = domain.ChangeContent
		} else {
			hashed = true
			contentHash = digest
			if stored, ok := c.hashes.Get(event.RelativePath); ok && stored == digest {
				c.noteIgnored(event, "content unchanged")
				return nil
			}
		}
	}

	// Content analysis records the new digest and downgrades writes that
	// reproduced identical bytes.
	if c.opts.EnableContentComparison &&
		(changeType == domain.ChangeCreation || changeType == domain.ChangeContent) {
		if !hashed {
			digest, err := c.hasher.HashFile(event.Path)
			if err != nil {
				c.noteHashFailure(event, err)
				changeType = domain.ChangeContent
				contentHash = ""
			} else {
				hashed = true
				contentHash = digest
			}
		}
		if hashed {
			if prev, ok := c.hashes.Get(event.RelativePath); ok {
				previousHash = prev
			}
			// An in-flight analysis must not touch the store once the
			// classifier is closed.
			if c.closed.Load() {
				return nil
			}
			c.hashes.Store(event.RelativePath, contentHash)
			if previousHash != "" && previousHash == contentHash {
				changeType = domain.ChangeMetadata
			}
		}
	}

	// Priority scoring starts at medium; deletions raise the base before
	// the rule table runs so downgrades still apply as exceptions.
	base := domain.PriorityMedium
	if changeType == domain.ChangeDeletion {
		base = base.Max(domain.PriorityHigh)
	}
	scored := rules.Score(event.RelativePath, base)
	if scored.Drop {
		c.noteIgnored(event, "build-cache artifact")
		return nil
	}
	priority := scored.Priority

	// Impact analysis: promote changes whose blast radius dwarfs their own
	// content.
	var affected []string
	if c.opts.EnableImpactAnalysis {
		affected = c.deps.Dependents(event.RelativePath)
	}
	switch count := len(affected); {
	case count > dependencyCriticalThreshold:
		priority = priority.Max(domain.PriorityCritical)
		changeType = domain.ChangeDependency
	case count > dependencyHighThreshold:
		priority = priority.Max(domain.PriorityHigh)
	}

	analysis := &domain.ChangeAnalysis{
		RelativePath:  event.RelativePath,
		ChangeType:    changeType,
		Priority:      priority,
		ContentHash:   contentHash,
		PreviousHash:  previousHash,
		AffectedFiles: affected,
		CacheKeys:     cacheKeys(event.RelativePath, affected),
		Metadata: domain.AnalysisMetadata{
			IsEntryPoint:    scored.IsEntryPoint,
			IsCoreFile:      scored.IsCoreFile,
			DependencyCount: len(affected),
			Language:        rules.Language(event.RelativePath),
		},
	}

	c.statsMu.Lock()
	c.stats.Analyzed++
	c.statsMu.Unlock()

	return analysis
}

// Prime seeds the content hash store by hashing every file yielded by
// files, so the first real edit after startup is compared against a
// baseline. Hashing failures are skipped; priming is best effort. It
// returns the number of files hashed.
func (c *Classifier) Prime(root string, files iter.Seq[string]) int {
	primed := 0
	for path := range files {
		if c.closed.Load() {
			return primed
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rules.IsTempFile(rel) {
			continue
		}
		if info, err := os.Stat(path); err != nil || info.Size() > c.opts.MaxFileSize {
			continue
		}
		digest, err := c.hasher.HashFile(path)
		if err != nil {
			continue
		}
		c.hashes.Store(rel, digest)
		primed++
	}
	return primed
}

// Stats returns a snapshot of the classifier's counters.
func (c *Classifier) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HashStoreLen returns the number of entries in the content hash store.
func (c *Classifier) HashStoreLen() int {
	return c.hashes.Len()
}

// Close marks the classifier as stopped. It is idempotent. In-flight
// analyses complete but their results are discarded and never mutate the
// hash store.
func (c *Classifier) Close() {
	c.closed.Store(true)
}

// initialType derives the starting classification from the raw event kind.
// Unknown kinds default to content: re-analyzing is cheaper than staleness.
func initialType(event domain.ChangeEvent) domain.ChangeType {
	switch event.Kind {
	case domain.KindAdd:
		return domain.ChangeCreation
	case domain.KindUnlink:
		return domain.ChangeDeletion
	case domain.KindChange:
		if event.SizeBytes > 0 {
			return domain.ChangeContent
		}
		return domain.ChangeMetadata
	default:
		return domain.ChangeContent
	}
}

// cacheKeys builds the deduplicated key set for the triggering file plus
// every affected file.
func cacheKeys(relPath string, affected []string) []string {
	keys := make([]string, 0, 1+len(affected))
	seen := make(map[string]struct{}, 1+len(affected))

	add := func(p string) {
		key := cacheKeyPrefix + rules.Posix(p)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	add(relPath)
	for _, p := range affected {
		add(p)
	}
	return keys
}

// noteIgnored counts a dropped event. Deletions are never dropped
// silently: losing one is the most likely way to ship a stale cache.
func (c *Classifier) noteIgnored(event domain.ChangeEvent, reason string) {
	c.statsMu.Lock()
	c.stats.Ignored++
	c.statsMu.Unlock()

	if event.Kind == domain.KindUnlink {
		c.logger.Warn(fmt.Sprintf("ignoring deletion of %s (%s)", event.RelativePath, reason))
	}
}

// noteHashFailure logs a recovered hashing error.
func (c *Classifier) noteHashFailure(event domain.ChangeEvent, err error) {
	c.statsMu.Lock()
	c.stats.HashFailures++
	c.statsMu.Unlock()

	c.logger.Warn(fmt.Sprintf("hashing %s failed, keeping as content change: %v", event.RelativePath, err))
}
