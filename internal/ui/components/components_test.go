package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewStarProgress(t *testing.T) {
	assert.InDelta(t, 0.5, NewStarProgress(10, 20, 40).Percent, 1e-9)
	assert.Equal(t, 1.0, NewStarProgress(35, 20, 40).Percent)
	assert.Equal(t, 0.0, NewStarProgress(5, 0, 40).Percent)
}

func TestProgressBar_ViewShowsPercent(t *testing.T) {
	view := NewStarProgress(5, 20, 40).View()
	assert.Contains(t, view, "Niveau")
	assert.Contains(t, view, "25%")
}

func TestTextInput_BusyIgnoresKeys(t *testing.T) {
	in := NewTextInput("Votre question...", 60)
	in.Model.SetValue("  bonjour  ")
	assert.Equal(t, "bonjour", in.Value())

	in.SetBusy(true)
	assert.True(t, in.Busy())
	in, _ = in.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Equal(t, "bonjour", in.Value())
	assert.True(t, strings.Contains(in.View(), "réfléchit"))

	in.SetBusy(false)
	in.Reset()
	assert.Empty(t, in.Value())
}
