package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mediz/internal/router"
	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 3000 * time.Millisecond
)

const crossArt = `      ╭───╮
      │   │
  ╭───╯   ╰───╮
  │     ✚     │
  ╰───╮   ╭───╯
      │   │
      ╰───╯`

// pulse frames cycle beside the cross
var pulseFrames = []string{"♥", "♡"}

type tickMsg time.Time

// WelcomeScreen shows a splash animation before the first consultation.
type WelcomeScreen struct {
	next         func() screen.Screen
	learnerName  string
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that replaces itself with the screen
// produced by next on the first key press.
func New(learnerName string, next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		next:        next,
		learnerName: learnerName,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		return w, tick()

	case tea.KeyPressMsg:
		// Any key skips the rest of the animation.
		return w, w.transition()
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	rendered := lipgloss.NewStyle().Foreground(theme.Primary).Render(crossArt)

	if w.elapsed >= phase1End {
		pulse := pulseFrames[w.tickCount%len(pulseFrames)]
		beat := lipgloss.NewStyle().Foreground(theme.Error).Render(pulse)

		lines := strings.Split(rendered, "\n")
		if len(lines) > 3 {
			lines[3] = beat + "  " + lines[3] + "  " + beat
		}
		rendered = strings.Join(lines, "\n")
	}

	sections = append(sections, rendered)

	if w.elapsed >= phase2End {
		sections = append(sections, "", RenderBanner(width), "")

		greeting := "Bienvenue en consultation"
		if w.learnerName != "" {
			greeting += ", " + w.learnerName
		}
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(greeting),
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("Interrogez le patient, puis proposez votre diagnostic."),
		)
	}

	sections = append(sections, "", theme.Hint.Render("appuyez sur une touche pour commencer"))

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
