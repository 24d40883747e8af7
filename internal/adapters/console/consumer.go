// Package console implements a batch consumer that renders each flushed
// batch as a human-readable summary. It stands in for the external cache
// store when sift runs as a CLI: instead of evicting, it reports what an
// attached store should evict.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/ui/style"
)

var _ ports.BatchConsumer = (*Consumer)(nil)

// displayTypes is the rendering order for change-type tallies.
var displayTypes = []domain.ChangeType{
	domain.ChangeContent,
	domain.ChangeMetadata,
	domain.ChangeCreation,
	domain.ChangeDeletion,
	domain.ChangeMove,
	domain.ChangeDependency,
}

// displayPriorities is the rendering order for priority tallies, highest
// first.
var displayPriorities = []domain.Priority{
	domain.PriorityCritical,
	domain.PriorityHigh,
	domain.PriorityMedium,
	domain.PriorityLow,
}

// Consumer renders batch summaries to a writer.
type Consumer struct {
	mu      sync.Mutex
	w       io.Writer
	ren     *lipgloss.Renderer
	batches int
}

// NewConsumer creates a Consumer writing to w. opts tune the underlying
// renderer; tests pass a fixed Ascii profile for determinism.
func NewConsumer(w io.Writer, opts ...termenv.OutputOption) *Consumer {
	return &Consumer{
		w:   w,
		ren: lipgloss.NewRenderer(w, opts...),
	}
}

// ConsumeBatch renders one flushed batch.
func (c *Consumer) ConsumeBatch(_ context.Context, batch domain.Batch, analysis domain.BatchAnalysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batches++
	_, err := fmt.Fprint(c.w, c.Summary(batch, analysis))
	return err
}

// Batches returns how many batches have been rendered.
func (c *Consumer) Batches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}

// Summary renders the aggregate view of one batch.
func (c *Consumer) Summary(batch domain.Batch, analysis domain.BatchAnalysis) string {
	var b strings.Builder

	header := fmt.Sprintf("%s batch: %d changes, %d affected files",
		style.Dot, analysis.TotalChanges, analysis.AffectedFilesCount)
	action := c.ren.NewStyle().
		Foreground(style.ActionColor(analysis.RecommendedAction)).
		Bold(true).
		Render(string(analysis.RecommendedAction))
	b.WriteString(header + " → " + action + "\n")

	var priorities []string
	for _, p := range displayPriorities {
		if n := analysis.ChangesByPriority[p]; n > 0 {
			label := c.ren.NewStyle().Foreground(style.PriorityColor(p)).Render(p.String())
			priorities = append(priorities, fmt.Sprintf("%s: %d", label, n))
		}
	}
	if len(priorities) > 0 {
		b.WriteString("  " + strings.Join(priorities, "  ") + "\n")
	}

	var types []string
	for _, t := range displayTypes {
		if n := analysis.ChangesByType[t]; n > 0 {
			types = append(types, fmt.Sprintf("%s: %d", t, n))
		}
	}
	if len(types) > 0 {
		b.WriteString("  " + strings.Join(types, "  ") + "\n")
	}

	if len(analysis.ChangesByLanguage) > 0 {
		languages := make([]string, 0, len(analysis.ChangesByLanguage))
		for lang := range analysis.ChangesByLanguage {
			languages = append(languages, lang)
		}
		sort.Strings(languages)
		parts := make([]string, 0, len(languages))
		for _, lang := range languages {
			parts = append(parts, fmt.Sprintf("%s: %d", lang, analysis.ChangesByLanguage[lang]))
		}
		b.WriteString("  languages: " + strings.Join(parts, ", ") + "\n")
	}

	keys := 0
	for i := range batch {
		keys += len(batch[i].CacheKeys)
	}
	b.WriteString(fmt.Sprintf("  cache keys: %d\n", keys))

	return b.String()
}
