package history

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/router"
	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/tutor"
	"github.com/abhisek/mediz/internal/ui/layout"
	"github.com/abhisek/mediz/internal/ui/theme"
)

// pageSize caps how many past consultations are loaded.
const pageSize = 50

// DigestSource lists a learner's past consultations, newest first.
type DigestSource interface {
	Digests(ctx context.Context, learnerID string, limit int) ([]tutor.SessionDigest, error)
}

type historyLoadedMsg struct {
	Digests []tutor.SessionDigest
	Err     error
}

// HistoryScreen displays past consultations and the errors flagged in each.
type HistoryScreen struct {
	source    DigestSource
	learnerID string
	digests   []tutor.SessionDigest
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(source DigestSource, learnerID string) *HistoryScreen {
	return &HistoryScreen{
		source:    source,
		learnerID: learnerID,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	source, learnerID := s.source, s.learnerID
	return func() tea.Msg {
		digests, err := source.Digests(context.Background(), learnerID, pageSize)
		return historyLoadedMsg{Digests: digests, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Historique"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Détails"},
		{Key: "↑↓", Description: "Naviguer"},
		{Key: "Esc", Description: "Retour"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.digests = msg.Digests
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.digests)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nErreur: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Chargement de l'historique...")
	}
	if len(s.digests) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  Aucune consultation pour l'instant.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, d := range s.digests {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		badge := stars.SessionBadge(d.Stars, d.LearnerTurns)
		line := fmt.Sprintf("%s%s  %d messages  ★ %d  %s%s",
			prefix, d.CaseTitle, d.LearnerTurns, d.Stars, badge.Icon(), verdict(d))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, detail := range details(d) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render("    "+detail)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func verdict(d tutor.SessionDigest) string {
	switch {
	case d.ProposedDiagnosis == "":
		return ""
	case d.DiagnosisCorrect:
		return "  ✓"
	default:
		return "  ✗"
	}
}

// details lists the proposed diagnosis and error counts of a consultation.
func details(d tutor.SessionDigest) []string {
	var out []string
	if d.ProposedDiagnosis != "" {
		out = append(out, "Diagnostic proposé: "+d.ProposedDiagnosis)
	}
	if d.Terminated {
		out = append(out, "Consultation interrompue")
	}

	cats := make([]string, 0, len(d.ErrorCategories))
	for c := range d.ErrorCategories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		label := c
		if e := diagnosis.Lookup(diagnosis.Category(c)); e != nil {
			label = e.Label
		}
		out = append(out, fmt.Sprintf("%s ×%d", label, d.ErrorCategories[c]))
	}

	if len(out) == 0 {
		out = append(out, "Aucune erreur relevée")
	}
	return out
}
