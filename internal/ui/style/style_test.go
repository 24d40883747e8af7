package style_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/ui/style"
)

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, style.Red, style.PriorityColor(domain.PriorityCritical))
	assert.Equal(t, style.Yellow, style.PriorityColor(domain.PriorityHigh))
	assert.Equal(t, style.Iris, style.PriorityColor(domain.PriorityMedium))
	assert.Equal(t, style.Slate, style.PriorityColor(domain.PriorityLow))
	assert.Equal(t, style.Slate, style.PriorityColor(domain.PriorityIgnore))
}

func TestActionColor(t *testing.T) {
	assert.Equal(t, style.Red, style.ActionColor(domain.InvalidateFull))
	assert.Equal(t, style.Yellow, style.ActionColor(domain.InvalidateAggressive))
	assert.Equal(t, style.Green, style.ActionColor(domain.InvalidatePartial))
}
