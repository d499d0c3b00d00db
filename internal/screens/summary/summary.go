package summary

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/router"
	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/ui/layout"
	"github.com/abhisek/mediz/internal/ui/theme"
)

// Consultation is what the summary shows about a finished session.
type Consultation struct {
	CaseTitle    string
	Stars        int
	LearnerTurns int
	Duration     time.Duration
	// DiagnosisCorrect is nil when no diagnosis was proposed.
	DiagnosisCorrect *bool
	Feedback         string
	Errors           map[diagnosis.Category]int
}

// Badge returns the badge earned for the consultation.
func (c Consultation) Badge() stars.Badge {
	return stars.SessionBadge(c.Stars, c.LearnerTurns)
}

// SummaryScreen displays the end-of-consultation summary.
type SummaryScreen struct {
	summary *Consultation
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen.
func New(summary *Consultation) *SummaryScreen {
	return &SummaryScreen{summary: summary}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Bilan de consultation"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Nouvelle consultation"},
		{Key: "Esc", Description: "Retour"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	center := func(style lipgloss.Style, text string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(text))
	}

	var b strings.Builder

	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true), "Consultation terminée"))
	b.WriteString("\n")
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), sum.CaseTitle))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	stats := fmt.Sprintf("Durée: %d:%02d        Messages: %d        Étoiles: %d",
		mins, secs, sum.LearnerTurns, sum.Stars)
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Text), stats))
	b.WriteString("\n\n")

	badge := sum.Badge()
	b.WriteString(center(lipgloss.NewStyle().Foreground(badgeColor(badge)).Bold(true),
		fmt.Sprintf("%s Badge %s", badge.Icon(), badge.DisplayName())))
	b.WriteString("\n\n")

	switch {
	case sum.DiagnosisCorrect == nil:
		b.WriteString(center(theme.Hint, "Aucun diagnostic proposé"))
	case *sum.DiagnosisCorrect:
		b.WriteString(center(theme.Correct, "Diagnostic correct"))
	default:
		b.WriteString(center(theme.Incorrect, "Diagnostic incorrect"))
	}
	b.WriteString("\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))

	if len(sum.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), "Points à revoir"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		for _, line := range errorLines(sum.Errors) {
			b.WriteString(center(theme.Warning, line))
			b.WriteString("\n")
		}
	}

	if sum.Feedback != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Text).Width(min(width-8, 60)).Render(sum.Feedback)))
		b.WriteString("\n")
	}

	return b.String()
}

// errorLines renders error counts, most frequent first.
func errorLines(counts map[diagnosis.Category]int) []string {
	cats := make([]diagnosis.Category, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})

	lines := make([]string, len(cats))
	for i, c := range cats {
		label := string(c)
		if e := diagnosis.Lookup(c); e != nil {
			label = e.Label
		}
		lines[i] = fmt.Sprintf("%s ×%d", label, counts[c])
	}
	return lines
}

// badgeColor returns the theme color for a badge.
func badgeColor(b stars.Badge) color.Color {
	switch b {
	case stars.BadgeRare:
		return theme.Secondary
	case stars.BadgeEpic:
		return theme.Primary
	case stars.BadgeLegendary:
		return theme.Accent
	default:
		return theme.Text
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
