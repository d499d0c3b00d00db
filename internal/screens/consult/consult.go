package consult

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/router"
	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/screens/history"
	"github.com/abhisek/mediz/internal/screens/summary"
	"github.com/abhisek/mediz/internal/session"
	"github.com/abhisek/mediz/internal/ui/components"
	"github.com/abhisek/mediz/internal/ui/layout"
)

// turnTimeout bounds a single round trip through the tutoring pipeline.
const turnTimeout = 2 * time.Minute

// TurnHandler runs one consultation turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req session.TurnRequest) (*session.TurnResult, error)
}

type speaker int

const (
	speakerLearner speaker = iota
	speakerTutor
	speakerSystem
)

type entry struct {
	who    speaker
	text   string
	errors []diagnosis.PedagogicalError
}

// ConsultScreen implements screen.Screen for a live consultation.
type ConsultScreen struct {
	turns     TurnHandler
	history   history.DigestSource
	learnerID string
	threshold int
	banked    int

	sessionID string
	caseTitle string
	level     string
	stars     int
	closed    bool

	// per-consultation tallies for the closing summary
	started   time.Time
	turnCount int
	errCounts map[diagnosis.Category]int
	now       func() time.Time

	entries []entry
	input   components.TextInput
	errMsg  string
}

var _ screen.Screen = (*ConsultScreen)(nil)
var _ screen.KeyHintProvider = (*ConsultScreen)(nil)
var _ screen.StatusProvider = (*ConsultScreen)(nil)

// Options configures a ConsultScreen.
type Options struct {
	LearnerID string
	// SessionID resumes a consultation; empty starts a fresh one.
	SessionID string
	// PriorStars is the learner's total before this run.
	PriorStars int
	// Threshold is the total that unlocks the next level.
	Threshold int
	// History, when set, backs the past consultations screen.
	History history.DigestSource
}

// New creates a ConsultScreen.
func New(turns TurnHandler, opts Options) *ConsultScreen {
	return &ConsultScreen{
		turns:     turns,
		history:   opts.History,
		learnerID: opts.LearnerID,
		sessionID: opts.SessionID,
		threshold: opts.Threshold,
		banked:    opts.PriorStars,
		errCounts: make(map[diagnosis.Category]int),
		now:       time.Now,
		input:     components.NewTextInput("Posez votre question au patient...", 0),
		entries: []entry{{
			who:  speakerSystem,
			text: "Nouvelle consultation. Interrogez le patient puis proposez votre diagnostic.",
		}},
	}
}

func (s *ConsultScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *ConsultScreen) Title() string {
	if s.caseTitle == "" {
		return "Consultation"
	}
	return s.caseTitle
}

func (s *ConsultScreen) Status() (int, string) {
	return s.stars, s.level
}

// TotalStars is the learner's running total including this consultation.
func (s *ConsultScreen) TotalStars() int {
	return s.banked + s.stars
}

// SessionID returns the consultation currently in progress, if any.
func (s *ConsultScreen) SessionID() string {
	return s.sessionID
}

func (s *ConsultScreen) KeyHints() []layout.KeyHint {
	if s.input.Busy() {
		return []layout.KeyHint{
			{Key: "Ctrl+C", Description: "Quitter"},
		}
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Envoyer"}}
	if s.history != nil {
		hints = append(hints, layout.KeyHint{Key: "F2", Description: "Historique"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quitter"})
}

func (s *ConsultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case turnDoneMsg:
		return s.handleTurnDone(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return s.submit()
		case "f2":
			if s.history != nil {
				past := history.New(s.history, s.learnerID)
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: past} }
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ConsultScreen) submit() (screen.Screen, tea.Cmd) {
	if s.input.Busy() {
		return s, nil
	}
	text := s.input.Value()
	if text == "" {
		return s, nil
	}

	if s.closed {
		s.closed = false
		s.banked += s.stars
		s.stars = 0
		s.turnCount = 0
		s.errCounts = make(map[diagnosis.Category]int)
		s.started = time.Time{}
		s.entries = append(s.entries, entry{who: speakerSystem, text: "Nouvelle consultation."})
	}
	if s.started.IsZero() {
		s.started = s.now()
	}

	s.errMsg = ""
	s.entries = append(s.entries, entry{who: speakerLearner, text: text})
	s.input.Reset()
	s.input.SetBusy(true)
	return s, s.sendTurn(text)
}

func (s *ConsultScreen) sendTurn(text string) tea.Cmd {
	turns := s.turns
	req := session.TurnRequest{
		LearnerID: s.learnerID,
		SessionID: s.sessionID,
		Message:   text,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		res, err := turns.HandleTurn(ctx, req)
		return turnDoneMsg{Message: text, Result: res, Err: err}
	}
}

func (s *ConsultScreen) handleTurnDone(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	s.input.SetBusy(false)
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	res := msg.Result
	if n := len(s.entries); n > 0 && s.entries[n-1].who == speakerLearner {
		s.entries[n-1].errors = res.Errors
	}
	s.turnCount++
	for _, e := range res.Errors {
		s.errCounts[e.Category]++
	}

	if s.caseTitle != "" && res.CaseTitle != s.caseTitle && res.SessionID == s.sessionID {
		s.entries = append(s.entries, entry{
			who:  speakerSystem,
			text: "Changement de cas clinique: " + s.caseTitle + " → " + res.CaseTitle,
		})
	}

	s.sessionID = res.SessionID
	s.caseTitle = res.CaseTitle
	s.level = res.CurrentLevel
	s.stars = res.TotalScore
	s.entries = append(s.entries, entry{who: speakerTutor, text: res.Reply})

	if !res.IsClosing {
		return s, nil
	}

	s.closed = true
	if res.Feedback != "" {
		s.entries = append(s.entries, entry{who: speakerTutor, text: res.Feedback})
	}
	s.entries = append(s.entries, entry{who: speakerSystem, text: closingNote(res.DiagnosisCorrect)})

	bilan := summary.New(&summary.Consultation{
		CaseTitle:        res.CaseTitle,
		Stars:            res.TotalScore,
		LearnerTurns:     s.turnCount,
		Duration:         s.now().Sub(s.started),
		DiagnosisCorrect: res.DiagnosisCorrect,
		Feedback:         res.Feedback,
		Errors:           s.errCounts,
	})
	return s, func() tea.Msg { return router.PushScreenMsg{Screen: bilan} }
}

func closingNote(correct *bool) string {
	switch {
	case correct == nil:
		return "Consultation terminée."
	case *correct:
		return "Consultation terminée. Diagnostic correct !"
	default:
		return "Consultation terminée. Le diagnostic n'était pas le bon."
	}
}
