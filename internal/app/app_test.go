package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/ui/layout"
)

type statusScreen struct{}

func (statusScreen) Init() tea.Cmd                             { return nil }
func (s statusScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (statusScreen) View(int, int) string                      { return "contenu" }
func (statusScreen) Title() string                             { return "Fièvre" }
func (statusScreen) Status() (int, string)                     { return 7, "Consultations de base" }
func (statusScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Envoyer"}}
}

func TestAppModel_ViewUsesScreenStatus(t *testing.T) {
	m := newAppModel(statusScreen{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	frame := updated.(AppModel).render()
	assert.Contains(t, frame, "★ 7")
	assert.Contains(t, frame, "Consultations de base")
	assert.Contains(t, frame, "Envoyer")
	assert.Contains(t, frame, "contenu")
}

func TestAppModel_TooSmall(t *testing.T) {
	m := newAppModel(statusScreen{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})

	assert.Contains(t, updated.(AppModel).render(), "Terminal trop petit")
}

func TestAppModel_CtrlCQuits(t *testing.T) {
	m := newAppModel(statusScreen{})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if assert.NotNil(t, cmd) {
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}
