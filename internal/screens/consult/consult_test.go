package consult

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/router"
	"github.com/abhisek/mediz/internal/screens/history"
	"github.com/abhisek/mediz/internal/screens/summary"
	"github.com/abhisek/mediz/internal/session"
	"github.com/abhisek/mediz/internal/tutor"
)

type fakeTurns struct {
	requests []session.TurnRequest
	results  []*session.TurnResult
	err      error
}

func (f *fakeTurns) HandleTurn(_ context.Context, req session.TurnRequest) (*session.TurnResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func enter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

// send types text, presses enter and feeds the resulting message back. It
// returns the command produced by the turn result.
func send(t *testing.T, s *ConsultScreen, text string) tea.Cmd {
	t.Helper()
	s.input.Model.SetValue(text)
	_, cmd := s.Update(enter())
	require.NotNil(t, cmd)
	assert.True(t, s.input.Busy())
	_, next := s.Update(cmd())
	return next
}

func TestConsult_FirstTurn(t *testing.T) {
	turns := &fakeTurns{results: []*session.TurnResult{{
		Reply:        "Le patient a 39°C depuis hier.",
		SessionID:    "s1",
		StarsEarned:  4,
		TotalScore:   4,
		CaseTitle:    "Fièvre chez l'adulte",
		CurrentLevel: "Consultations de base",
	}}}
	s := New(turns, Options{LearnerID: "u1", PriorStars: 6, Threshold: 20})

	send(t, s, "Depuis quand avez-vous de la fièvre ?")

	require.Len(t, turns.requests, 1)
	assert.Equal(t, session.TurnRequest{LearnerID: "u1", Message: "Depuis quand avez-vous de la fièvre ?"}, turns.requests[0])
	assert.False(t, s.input.Busy())
	assert.Empty(t, s.input.Value())
	assert.Equal(t, "s1", s.SessionID())
	assert.Equal(t, "Fièvre chez l'adulte", s.Title())

	stars, level := s.Status()
	assert.Equal(t, 4, stars)
	assert.Equal(t, "Consultations de base", level)
	assert.Equal(t, 10, s.TotalStars())

	view := s.View(100, 30)
	assert.Contains(t, view, "Le patient a 39°C depuis hier.")
	assert.Contains(t, view, "50%")
}

func TestConsult_ErrorsShownUnderLearnerMessage(t *testing.T) {
	turns := &fakeTurns{results: []*session.TurnResult{{
		Reply:     "Quels autres symptômes ?",
		SessionID: "s1",
		CaseTitle: "Fièvre chez l'adulte",
		Errors: []diagnosis.PedagogicalError{{
			Category:   diagnosis.CategoryMissingSymptom,
			Suggestion: "Compléter l'interrogatoire",
		}},
	}}}
	s := New(turns, Options{LearnerID: "u1", Threshold: 20})

	send(t, s, "C'est une grippe")

	require.Len(t, s.entries[len(s.entries)-2].errors, 1)
	assert.Contains(t, s.View(120, 30), "Symptôme manqué: Compléter l'interrogatoire")
}

func TestConsult_CaseChangeAnnounced(t *testing.T) {
	turns := &fakeTurns{results: []*session.TurnResult{
		{Reply: "a", SessionID: "s1", CaseTitle: "Fièvre chez l'adulte"},
		{Reply: "b", SessionID: "s1", CaseTitle: "Douleur thoracique"},
	}}
	s := New(turns, Options{LearnerID: "u1", Threshold: 20})

	send(t, s, "un")
	send(t, s, "deux")

	assert.Equal(t, "s1", turns.requests[1].SessionID)
	found := false
	for _, e := range s.entries {
		if e.who == speakerSystem && strings.Contains(e.text, "Fièvre chez l'adulte → Douleur thoracique") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestConsult_ClosingThenNewConsultation(t *testing.T) {
	correct := true
	turns := &fakeTurns{results: []*session.TurnResult{
		{Reply: "Merci.", SessionID: "s1", CaseTitle: "Fièvre", TotalScore: 8, IsClosing: true, DiagnosisCorrect: &correct, Feedback: "Bonne démarche."},
		{Reply: "Bonjour.", SessionID: "s2", CaseTitle: "Toux", TotalScore: 4},
	}}
	s := New(turns, Options{LearnerID: "u1", Threshold: 20})

	send(t, s, "Je pense à une grippe, merci")
	assert.True(t, s.closed)
	view := s.View(100, 40)
	assert.Contains(t, view, "Bonne démarche.")
	assert.Contains(t, view, "Diagnostic correct")

	send(t, s, "Bonjour")
	assert.False(t, s.closed)
	assert.Equal(t, "s2", s.SessionID())
	assert.Equal(t, 12, s.TotalStars())
}

func TestConsult_ClosingPushesSummary(t *testing.T) {
	correct := false
	turns := &fakeTurns{results: []*session.TurnResult{
		{Reply: "a", SessionID: "s1", CaseTitle: "Fièvre", TotalScore: 4, Errors: []diagnosis.PedagogicalError{
			{Category: diagnosis.CategoryMissingSymptom},
		}},
		{Reply: "b", SessionID: "s1", CaseTitle: "Fièvre", TotalScore: 9, IsClosing: true, DiagnosisCorrect: &correct, Errors: []diagnosis.PedagogicalError{
			{Category: diagnosis.CategoryIncorrectDiagnosis},
			{Category: diagnosis.CategoryMissingSymptom},
		}},
	}}
	s := New(turns, Options{LearnerID: "u1", Threshold: 20})
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := start
	s.now = func() time.Time { return clock }

	assert.Nil(t, send(t, s, "un"))
	clock = start.Add(3 * time.Minute)
	cmd := send(t, s, "C'est une angine, merci")
	require.NotNil(t, cmd)

	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	bilan, ok := push.Screen.(*summary.SummaryScreen)
	require.True(t, ok)

	view := bilan.View(100, 40)
	assert.Contains(t, view, "Fièvre")
	assert.Contains(t, view, "Durée: 3:00")
	assert.Contains(t, view, "Symptôme manqué ×2")
	assert.Contains(t, view, "Diagnostic incorrect ×1")
}

func TestConsult_HandlerError(t *testing.T) {
	s := New(&fakeTurns{err: errors.New("db down")}, Options{LearnerID: "u1"})

	send(t, s, "Bonjour")

	assert.False(t, s.input.Busy())
	assert.Contains(t, s.View(100, 30), "db down")
}

func TestConsult_IgnoresEmptyAndBusySubmit(t *testing.T) {
	turns := &fakeTurns{}
	s := New(turns, Options{LearnerID: "u1"})

	_, cmd := s.Update(enter())
	assert.Nil(t, cmd)

	s.input.Model.SetValue("x")
	s.input.SetBusy(true)
	_, cmd = s.Update(enter())
	assert.Nil(t, cmd)
	assert.Empty(t, turns.requests)
}

type noDigests struct{}

func (noDigests) Digests(context.Context, string, int) ([]tutor.SessionDigest, error) {
	return nil, nil
}

func TestConsult_F2OpensHistory(t *testing.T) {
	s := New(&fakeTurns{}, Options{LearnerID: "u1"})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyF2})
	assert.Nil(t, cmd)
	assert.Len(t, s.KeyHints(), 2)

	s = New(&fakeTurns{}, Options{LearnerID: "u1", History: noDigests{}})
	assert.Len(t, s.KeyHints(), 3)
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyF2})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	_, ok = push.Screen.(*history.HistoryScreen)
	assert.True(t, ok)
}

func TestClosingNote(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "Consultation terminée.", closingNote(nil))
	assert.Contains(t, closingNote(&yes), "correct")
	assert.Contains(t, closingNote(&no), "n'était pas")
}
