package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mediz/internal/ui/theme"
)

// MessageLimit caps the length of a single learner message.
const MessageLimit = 1000

// TextInput wraps bubbles/textinput for the consultation prompt.
type TextInput struct {
	Model    textinput.Model
	MaxWidth int
	busy     bool
}

// NewTextInput creates a new styled text input.
func NewTextInput(placeholder string, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = MessageLimit
	ti.Focus()

	return TextInput{
		Model:    ti,
		MaxWidth: maxWidth,
	}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages. Keys are ignored while a turn is in flight.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.busy {
		if _, ok := msg.(tea.KeyMsg); ok {
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	if t.busy {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("… le tuteur réfléchit")
	}
	return t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.Reset()
}

// SetBusy toggles the waiting state.
func (t *TextInput) SetBusy(busy bool) {
	t.busy = busy
}

// Busy reports whether a turn is in flight.
func (t TextInput) Busy() bool {
	return t.busy
}
