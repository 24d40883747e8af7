package classify

import (
	"sort"
	"sync"
	"unique"
)

// DependencyGraph maintains reverse dependency edges: for each file, the
// set of files that import or otherwise depend on it. It is populated
// exclusively by the external parser layer via Update; the classifier only
// reads it.
type DependencyGraph struct {
	mu sync.RWMutex
	// dependents[p] is the set of files that depend on p.
	dependents map[unique.Handle[string]]map[unique.Handle[string]]struct{}
	// dependencies[p] is the forward edge set last reported for p, kept so
	// a re-parse replaces stale reverse edges instead of accumulating them.
	dependencies map[unique.Handle[string]]map[unique.Handle[string]]struct{}
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dependents:   make(map[unique.Handle[string]]map[unique.Handle[string]]struct{}),
		dependencies: make(map[unique.Handle[string]]map[unique.Handle[string]]struct{}),
	}
}

// Update replaces the dependency edges for relPath with the given set.
// deps are the files relPath depends on; the reverse index is rebuilt
// accordingly. Self-edges are discarded.
func (g *DependencyGraph) Update(relPath string, deps []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	source := unique.Make(relPath)

	// Drop reverse edges from the previous parse of this file.
	for dep := range g.dependencies[source] {
		if set, ok := g.dependents[dep]; ok {
			delete(set, source)
			if len(set) == 0 {
				delete(g.dependents, dep)
			}
		}
	}

	forward := make(map[unique.Handle[string]]struct{}, len(deps))
	for _, dep := range deps {
		target := unique.Make(dep)
		if target == source {
			continue
		}
		forward[target] = struct{}{}
		set, ok := g.dependents[target]
		if !ok {
			set = make(map[unique.Handle[string]]struct{})
			g.dependents[target] = set
		}
		set[source] = struct{}{}
	}

	if len(forward) == 0 {
		delete(g.dependencies, source)
		return
	}
	g.dependencies[source] = forward
}

// Dependents returns the sorted set of files that depend on relPath. The
// result never contains relPath itself.
func (g *DependencyGraph) Dependents(relPath string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set, ok := g.dependents[unique.Make(relPath)]
	if !ok || len(set) == 0 {
		return nil
	}

	result := make([]string, 0, len(set))
	for handle := range set {
		result = append(result, handle.Value())
	}
	sort.Strings(result)
	return result
}
