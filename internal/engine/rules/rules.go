// Package rules implements the data-driven priority rule tables and
// ignore-pattern matching used by the change classifier. Each rule pairs a
// path predicate with an effect, so the scoring algorithm can be tested one
// rule at a time.
package rules

import (
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/sift/internal/core/domain"
)

// Effect is what a matching rule does to a change's score. RaiseTo only
// ever increases the priority. ForceTo overwrites it and models downgrade
// exceptions for generated or vendored paths. FloorTo re-raises after
// forces. Drop removes the change from the pipeline entirely.
type Effect struct {
	RaiseTo        domain.Priority
	ForceTo        domain.Priority
	FloorTo        domain.Priority
	Drop           bool
	MarkEntryPoint bool
	MarkCoreFile   bool
}

// Rule pairs a named path predicate with its effect. Rules are evaluated
// in table order against the posix-normalized relative path.
type Rule struct {
	Name   string
	Match  func(relPath string) bool
	Effect Effect
}

// Result is the outcome of evaluating the rule table for one path.
type Result struct {
	Priority     domain.Priority
	Drop         bool
	IsEntryPoint bool
	IsCoreFile   bool
}

// PriorityRules is the ordered rule table. Raises come first, downgrades
// after them (they are exceptions applied to already-raised scores), and
// floors last.
var PriorityRules = []Rule{
	{
		Name:   "entry-point",
		Match:  IsEntryPoint,
		Effect: Effect{RaiseTo: domain.PriorityHigh, MarkEntryPoint: true},
	},
	{
		Name:   "core-directory",
		Match:  IsCoreFile,
		Effect: Effect{RaiseTo: domain.PriorityHigh, MarkCoreFile: true},
	},
	{
		Name:   "build-manifest",
		Match:  IsManifest,
		Effect: Effect{RaiseTo: domain.PriorityHigh},
	},
	{
		Name:   "vendored-or-generated",
		Match:  isVendored,
		Effect: Effect{ForceTo: domain.PriorityLow},
	},
	{
		Name:   "build-cache-artifact",
		Match:  isBuildCacheArtifact,
		Effect: Effect{Drop: true},
	},
	{
		Name:   "test-file",
		Match:  IsTestFile,
		Effect: Effect{FloorTo: domain.PriorityMedium},
	},
}

// Score evaluates the rule table for relPath starting from base. The base
// already carries raises that do not depend on the path, such as the
// deletion raise, so downgrades apply after them.
func Score(relPath string, base domain.Priority) Result {
	p := Posix(relPath)
	res := Result{Priority: base}

	for _, rule := range PriorityRules {
		if !rule.Match(p) {
			continue
		}
		if rule.Effect.Drop {
			res.Drop = true
			return res
		}
		if rule.Effect.RaiseTo != 0 {
			res.Priority = res.Priority.Max(rule.Effect.RaiseTo)
		}
		if rule.Effect.ForceTo != 0 {
			res.Priority = rule.Effect.ForceTo
		}
		if rule.Effect.FloorTo != 0 {
			res.Priority = res.Priority.Max(rule.Effect.FloorTo)
		}
		if rule.Effect.MarkEntryPoint {
			res.IsEntryPoint = true
		}
		if rule.Effect.MarkCoreFile {
			res.IsCoreFile = true
		}
	}

	return res
}

// Posix normalizes a relative path to forward slashes.
func Posix(relPath string) string {
	return filepath.ToSlash(relPath)
}

// tempSuffixes are editor and tooling artifacts that never carry real
// content changes.
var tempSuffixes = []string{".tmp", ".temp", "~", ".swp", ".swo", ".bak", "#"}

// IsTempFile reports whether the path looks like an editor temp or backup
// file.
func IsTempFile(relPath string) bool {
	name := path.Base(Posix(relPath))
	if strings.HasPrefix(name, ".#") {
		return true
	}
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// entryPointNames match exactly anywhere in the tree.
var entryPointNames = map[string]bool{
	"main.go":     true,
	"main.py":     true,
	"__main__.py": true,
}

// entryPointStems match by basename-without-extension, but only at a
// recognized root.
var entryPointStems = map[string]bool{
	"index": true,
	"main":  true,
	"app":   true,
}

// entryPointDirs are the recognized roots for stem-based entry points.
var entryPointDirs = map[string]bool{
	".":   true,
	"src": true,
	"lib": true,
	"app": true,
}

// IsEntryPoint reports whether the path matches an entry-point pattern.
func IsEntryPoint(relPath string) bool {
	p := Posix(relPath)
	name := path.Base(p)
	if entryPointNames[name] {
		return true
	}
	stem := strings.TrimSuffix(name, path.Ext(name))
	return entryPointStems[stem] && entryPointDirs[path.Dir(p)]
}

// coreSegments are directory names whose contents are structurally
// important regardless of depth.
var coreSegments = []string{"core", "utils", "helpers"}

// IsCoreFile reports whether the path lives in a core directory.
func IsCoreFile(relPath string) bool {
	p := Posix(relPath)
	if strings.HasPrefix(p, "src/") || strings.HasPrefix(p, "lib/") {
		return true
	}
	for _, seg := range coreSegments {
		if hasSegment(p, seg) {
			return true
		}
	}
	return false
}

// manifestNames are build and config manifests that affect how everything
// else is analyzed.
var manifestNames = map[string]bool{
	"package.json":      true,
	"package-lock.json": true,
	"tsconfig.json":     true,
	"jsconfig.json":     true,
	"go.mod":            true,
	"requirements.txt":  true,
	"pyproject.toml":    true,
	"setup.py":          true,
	"babel.config.js":   true,
	"webpack.config.js": true,
	"rollup.config.js":  true,
	"vite.config.js":    true,
	"vite.config.ts":    true,
}

// IsManifest reports whether the path is a recognized build or config
// manifest. Lint configs match by prefix to cover format variants
// (.eslintrc, .eslintrc.json, ...).
func IsManifest(relPath string) bool {
	name := path.Base(Posix(relPath))
	if manifestNames[name] {
		return true
	}
	return strings.HasPrefix(name, ".eslintrc") || strings.HasPrefix(name, ".prettierrc")
}

// isVendored reports whether the path is generated or vendored output.
func isVendored(relPath string) bool {
	return hasSegment(relPath, "node_modules") || strings.HasSuffix(relPath, ".d.ts")
}

// isBuildCacheArtifact reports whether the path is a language build-cache
// artifact that should be dropped entirely.
func isBuildCacheArtifact(relPath string) bool {
	return hasSegment(relPath, "__pycache__") || strings.HasSuffix(relPath, ".pyc")
}

// IsTestFile reports whether the path looks like a test file.
func IsTestFile(relPath string) bool {
	p := Posix(relPath)
	if hasSegment(p, "tests") || hasSegment(p, "__tests__") {
		return true
	}
	name := path.Base(p)
	switch {
	case strings.HasSuffix(name, "_test.go"):
		return true
	case strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ".py"):
		return true
	}
	for _, marker := range []string{".test.", ".spec."} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// hasSegment reports whether the posix path contains the given directory
// segment.
func hasSegment(p, seg string) bool {
	return strings.Contains("/"+p+"/", "/"+seg+"/")
}

// languageByExt maps file extensions to the language label used for
// priority tuning and batch statistics.
var languageByExt = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "css",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".md":   "markdown",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".sh":   "shell",
}

// Language returns the language label for the path's extension, or the
// empty string when the extension is not recognized.
func Language(relPath string) string {
	return languageByExt[strings.ToLower(path.Ext(Posix(relPath)))]
}
