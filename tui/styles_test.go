package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatProgressBar(t *testing.T) {
	assert.Contains(t, FormatProgressBar(2, 5, 10), "2/5")
	assert.Equal(t, 10+len(" 9/5"), lipgloss.Width(FormatProgressBar(9, 5, 10)))

	var bar string
	assert.NotPanics(t, func() { bar = FormatProgressBar(-3, 5, 10) })
	assert.Equal(t, 10+len(" -3/5"), lipgloss.Width(bar))
}
