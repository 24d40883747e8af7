// Package style provides shared UI styling primitives including brand
// colors and icons for consistent presentation across the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/sift/internal/core/domain"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Ink    = lipgloss.Color("#0B0F19")
	Mist   = lipgloss.Color("#F6F7FB")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)

// PriorityColor maps a change priority to its display color.
func PriorityColor(p domain.Priority) lipgloss.Color {
	switch p {
	case domain.PriorityCritical:
		return Red
	case domain.PriorityHigh:
		return Yellow
	case domain.PriorityMedium:
		return Iris
	default:
		return Slate
	}
}

// ActionColor maps an invalidation action to its display color.
func ActionColor(action domain.InvalidationAction) lipgloss.Color {
	switch action {
	case domain.InvalidateFull:
		return Red
	case domain.InvalidateAggressive:
		return Yellow
	default:
		return Green
	}
}
