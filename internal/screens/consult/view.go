package consult

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/ui/components"
	"github.com/abhisek/mediz/internal/ui/theme"
)

func (s *ConsultScreen) View(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	var footer strings.Builder
	footer.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner)))
	footer.WriteString("\n")
	if s.errMsg != "" {
		footer.WriteString(theme.Incorrect.Render("  Erreur: " + s.errMsg))
		footer.WriteString("\n")
	}
	footer.WriteString("  " + components.NewStarProgress(s.TotalStars(), s.threshold, inner-2).View())
	footer.WriteString("\n\n")
	footer.WriteString("  > " + s.input.View())
	bottom := footer.String()

	avail := height - lipgloss.Height(bottom) - 1
	if avail < 1 {
		avail = 1
	}

	lines := s.renderTranscript(inner)
	if len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}

	return strings.Join(lines, "\n") + "\n" + bottom
}

// renderTranscript renders every entry wrapped to width, one element per
// display line.
func (s *ConsultScreen) renderTranscript(width int) []string {
	var lines []string
	for _, e := range s.entries {
		lines = append(lines, renderEntry(e, width)...)
		lines = append(lines, "")
	}
	return lines
}

func renderEntry(e entry, width int) []string {
	var label string
	switch e.who {
	case speakerLearner:
		label = theme.Learner.Render("Vous")
	case speakerTutor:
		label = theme.Tutor.Render("Tuteur")
	default:
		return strings.Split(theme.System.Width(width).Render("  "+e.text), "\n")
	}

	body := lipgloss.NewStyle().
		Foreground(theme.Text).
		Width(width - 4).
		Render(e.text)

	out := []string{"  " + label}
	for _, l := range strings.Split(body, "\n") {
		out = append(out, "    "+l)
	}
	for _, pe := range e.errors {
		out = append(out, "    "+theme.Warning.Render(errorLine(pe)))
	}
	return out
}

func errorLine(pe diagnosis.PedagogicalError) string {
	label := string(pe.Category)
	if entry := diagnosis.Lookup(pe.Category); entry != nil {
		label = entry.Label
	}
	if pe.Suggestion == "" {
		return fmt.Sprintf("⚠ %s", label)
	}
	return fmt.Sprintf("⚠ %s: %s", label, pe.Suggestion)
}
