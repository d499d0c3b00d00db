package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/llm"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/store"
	"github.com/abhisek/mediz/internal/transcript"
	"github.com/abhisek/mediz/internal/tutor"
)

var testCatalog = clinical.StaticCatalog{
	{
		ID: "cas_grippe", Title: "Consultation de routine", Description: "Patient fébrile",
		Symptoms:         map[string]string{"principaux": "fièvre, courbatures"},
		CorrectDiagnosis: "Syndrome grippal", Differentials: []string{"Covid-19"},
		Difficulty: clinical.DifficultyEasy,
	},
	{
		ID: "cas_angine", Title: "Mal de gorge fébrile", Description: "Odynophagie",
		CorrectDiagnosis: "Angine streptococcique", Difficulty: clinical.DifficultyEasy,
	},
	{
		ID: "cas_pyelo", Title: "Brûlures mictionnelles et fièvre", Description: "Fièvre et lombalgie",
		CorrectDiagnosis: "Pyélonéphrite aiguë", Difficulty: clinical.DifficultyMedium,
	},
}

type harness struct {
	svc      *Service
	mock     *llm.MockProvider
	store    *store.Store
	learners *learner.Service
	cache    *MemoryHistoryCache
	metrics  *countingMetrics
}

type countingMetrics struct {
	turns, closings, terminated, stars int
	categories                         []diagnosis.Category
}

func (m *countingMetrics) TurnHandled(closing bool) {
	m.turns++
	if closing {
		m.closings++
	}
}
func (m *countingMetrics) ErrorsDetected(c []diagnosis.Category) { m.categories = append(m.categories, c...) }
func (m *countingMetrics) StarsAwarded(n int)                    { m.stars += n }
func (m *countingMetrics) SessionTerminated(bool)                { m.terminated++ }

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := llm.NewMockProvider()
	gw := llm.NewGateway(mock, llm.GatewayConfig{}, nil)
	h := &harness{
		mock:     mock,
		store:    st,
		learners: learner.NewService(st.LearnerRepo()),
		cache:    NewMemoryHistoryCache(0),
		metrics:  &countingMetrics{},
	}
	h.svc = NewService(Deps{
		Learners:  h.learners,
		Sessions:  st.SessionRepo(),
		Cases:     testCatalog,
		Detector:  diagnosis.NewDetector(gw),
		Responder: tutor.NewResponder(gw, clinical.NewSelector(testCatalog, nil), tutor.DefaultConfig()),
		Stars:     stars.NewScorer(stars.DefaultPolicy(), st.EventRepo()),
		Cache:     h.cache,
		Metrics:   h.metrics,
	}, cfg)
	return h
}

// queue enqueues generation answers in call order.
func (h *harness) queue(answers ...string) {
	for _, a := range answers {
		h.mock.AddResponse(llm.TextResponse(a))
	}
}

func (h *harness) turn(t *testing.T, learnerID, sessionID, message string) *TurnResult {
	t.Helper()
	res, err := h.svc.HandleTurn(context.Background(), TurnRequest{LearnerID: learnerID, Message: message, SessionID: sessionID})
	require.NoError(t, err)
	return res
}

func (h *harness) interactions(t *testing.T, sessionID string) []store.InteractionRecord {
	t.Helper()
	recs, err := h.store.SessionRepo().Interactions(context.Background(), sessionID)
	require.NoError(t, err)
	return recs
}

func TestHandleTurn_FirstTurnCreatesSession(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.queue("AUCUNE_ERREUR", "J'ai de la fièvre depuis deux jours.")

	res := h.turn(t, "u1", "", "Bonjour, qu'est-ce qui vous amène ?")

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "J'ai de la fièvre depuis deux jours.", res.Reply)
	assert.Equal(t, 4, res.StarsEarned)
	assert.Equal(t, 4, res.TotalScore)
	assert.Equal(t, "Consultation de routine", res.CaseTitle)
	assert.Equal(t, "Consultations de base", res.CurrentLevel)
	assert.False(t, res.IsClosing)
	assert.Nil(t, res.DiagnosisCorrect)
	assert.Empty(t, res.Errors)

	l, err := h.learners.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, learner.DefaultProfile(), l.Profile)

	rec, err := h.store.SessionRepo().Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "ACTIVE", rec.State)
	assert.Equal(t, "cas_grippe", rec.CaseID)
	assert.Equal(t, "niveau_debutant", rec.LevelID)
	assert.Equal(t, DefaultObjective, rec.Objective)
	assert.True(t, rec.FirstTime)

	turns := h.interactions(t, res.SessionID)
	require.Len(t, turns, 2)
	assert.Equal(t, "LEARNER", turns[0].Author)
	assert.Equal(t, "QUESTION", turns[0].MessageType)
	assert.Equal(t, "Nouveau Utilisateur", turns[0].AuthorName)
	assert.Equal(t, "TUTOR", turns[1].Author)
	assert.Equal(t, "REPONSE", turns[1].MessageType)
	assert.Equal(t, "Système Tuteur", turns[1].AuthorName)

	events, err := h.store.EventRepo().QueryStarEvents(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Stars)
	assert.Equal(t, 1, h.metrics.turns)
}

func TestHandleTurn_ResumesAndAccumulates(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.queue("AUCUNE_ERREUR", "Bonjour docteur.", "SYMPTOME_MANQUE", "Avez-vous pensé à la toux ?")

	first := h.turn(t, "u1", "", "Bonjour")
	second := h.turn(t, "u1", first.SessionID, "Vous avez mal où ?")

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.StarsEarned)
	assert.Equal(t, 6, second.TotalScore, "stars add to the session total")
	require.Len(t, second.Errors, 1)
	assert.Equal(t, diagnosis.CategoryMissingSymptom, second.Errors[0].Category)

	// The error steers the learner to the next unseen case of the tier.
	assert.Equal(t, "Mal de gorge fébrile", second.CaseTitle)

	turns := h.interactions(t, first.SessionID)
	require.Len(t, turns, 5)
	for i, tr := range turns {
		assert.Equal(t, i+1, tr.Seq)
	}
	assert.Equal(t, "SYSTEM", turns[3].Author)
	assert.True(t, turns[2].ContainsError)
	require.Len(t, turns[2].Errors, 1)
	assert.Equal(t, "Vous avez mal où ?", turns[2].Errors[0].Context)

	// The detector saw the case title and the responder saw prior history.
	prompts := h.mock.Prompts()
	assert.Contains(t, prompts[2], "cas: Consultation de routine")
	assert.Contains(t, prompts[3], "Nouveau Utilisateur: Bonjour")
	assert.Equal(t, []diagnosis.Category{diagnosis.CategoryMissingSymptom}, h.metrics.categories)
}

func TestHandleTurn_CaseChangeIsRecorded(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	first := h.turn(t, "u1", "", "Bonjour")

	tier := learner.TierIntermediate
	_, err := h.learners.UpdateProfile(ctx, "u1", learner.ProfileUpdate{Tier: &tier})
	require.NoError(t, err)

	h.queue("RAISONNEMENT_FLOU", "Reprenons depuis le début.")
	second := h.turn(t, "u1", first.SessionID, "C'est sûrement rien")
	assert.Equal(t, "Brûlures mictionnelles et fièvre", second.CaseTitle)

	turns := h.interactions(t, first.SessionID)
	require.Len(t, turns, 5)
	assert.Equal(t, "LEARNER", turns[2].Author)
	assert.Equal(t, "SYSTEM", turns[3].Author)
	assert.Equal(t, "SYSTEME", turns[3].MessageType)
	assert.Contains(t, turns[3].Message, "Consultation de routine")
	assert.Contains(t, turns[3].Message, "Brûlures mictionnelles et fièvre")
	assert.Equal(t, "TUTOR", turns[4].Author)

	rec, err := h.store.SessionRepo().Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "cas_pyelo", rec.CaseID)
}

func TestHandleTurn_ClosingTerminatesWithFeedback(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	first := h.turn(t, "u1", "", "Bonjour")

	h.queue("AUCUNE_ERREUR", "Bonne conclusion.", "Démarche rigoureuse, bravo.")
	res := h.turn(t, "u1", first.SessionID, "Je pense que c'est un syndrome GRIPPAL")

	assert.True(t, res.IsClosing)
	require.NotNil(t, res.DiagnosisCorrect)
	assert.True(t, *res.DiagnosisCorrect)
	assert.Equal(t, "Démarche rigoureuse, bravo.", res.Feedback)
	assert.Equal(t, 8, res.TotalScore)

	rec, err := h.store.SessionRepo().Get(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "TERMINATED", rec.State)
	require.NotNil(t, rec.EndedAt)
	require.NotNil(t, rec.ProposedDiagnosis)
	assert.Equal(t, "Syndrome grippal", *rec.ProposedDiagnosis)
	assert.True(t, rec.DiagnosisCorrect)
	assert.Equal(t, "Démarche rigoureuse, bravo.", rec.Feedback)

	turns := h.interactions(t, first.SessionID)
	require.Len(t, turns, 5)
	assert.Equal(t, "FEEDBACK", turns[3].MessageType, "closing reply is an evaluation")
	assert.Equal(t, "FEEDBACK", turns[4].MessageType)
	assert.Equal(t, "Démarche rigoureuse, bravo.", turns[4].Message)

	feedbackPrompt := h.mock.Prompts()[4]
	assert.Contains(t, feedbackPrompt, "DIAGNOSTIC PROPOSÉ: Syndrome grippal")
	assert.Contains(t, feedbackPrompt, "QUESTIONS POSÉES: 2")
	assert.Contains(t, feedbackPrompt, "SCORE: 8 étoiles")
	assert.Equal(t, 1, h.metrics.terminated)
}

func TestHandleTurn_FinalFeedbackDisabled(t *testing.T) {
	h := newHarness(t, Config{FinalFeedback: false})
	h.queue("AUCUNE_ERREUR", "Au revoir.")

	res := h.turn(t, "u1", "", "Merci, au revoir")
	assert.True(t, res.IsClosing)
	assert.Empty(t, res.Feedback)
	assert.Equal(t, 2, h.mock.CallCount())
	require.NotNil(t, res.DiagnosisCorrect)
	assert.False(t, *res.DiagnosisCorrect)
}

func TestHandleTurn_TerminatedSessionStartsFresh(t *testing.T) {
	h := newHarness(t, Config{})
	h.queue("AUCUNE_ERREUR", "Au revoir.")
	first := h.turn(t, "u1", "", "Merci docteur")

	h.queue("AUCUNE_ERREUR", "Bonjour.")
	second := h.turn(t, "u1", first.SessionID, "Bonjour")

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 4, second.TotalScore)
	// The previous case has been seen, so the next unseen one is served.
	assert.Equal(t, "Mal de gorge fébrile", second.CaseTitle)

	rec, err := h.store.SessionRepo().Get(context.Background(), second.SessionID)
	require.NoError(t, err)
	assert.False(t, rec.FirstTime)
}

func TestHandleTurn_ForeignSessionNotResumed(t *testing.T) {
	h := newHarness(t, Config{})
	h.queue("AUCUNE_ERREUR", "Bonjour.", "AUCUNE_ERREUR", "Bonjour.")

	mine := h.turn(t, "u1", "", "Bonjour")
	theirs := h.turn(t, "u2", mine.SessionID, "Bonjour")

	assert.NotEqual(t, mine.SessionID, theirs.SessionID)
	assert.Len(t, h.interactions(t, mine.SessionID), 2)
}

func TestHandleTurn_UnknownSessionStartsFresh(t *testing.T) {
	h := newHarness(t, Config{})
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	res := h.turn(t, "u1", "does-not-exist", "Bonjour")
	assert.NotEqual(t, "does-not-exist", res.SessionID)
}

func TestHandleTurn_RejectsEmptyInput(t *testing.T) {
	h := newHarness(t, Config{})
	_, err := h.svc.HandleTurn(context.Background(), TurnRequest{LearnerID: "u1", Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = h.svc.HandleTurn(context.Background(), TurnRequest{Message: "Bonjour"})
	assert.ErrorIs(t, err, ErrMissingLearner)
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestHandleTurn_GenerationOutageYieldsApology(t *testing.T) {
	h := newHarness(t, Config{})
	h.mock.AddResponse(llm.MockResponse{Err: errors.New("quota exceeded")})
	h.mock.AddResponse(llm.MockResponse{Err: errors.New("quota exceeded")})

	res := h.turn(t, "u1", "", "Bonjour")
	assert.Equal(t, llm.DefaultFallback, res.Reply)
	assert.Empty(t, res.Errors, "an apology is not a classification")
	assert.Equal(t, 4, res.StarsEarned)
}

func TestHandleTurn_MissingCaseFallsBackToDefault(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	_, err := h.learners.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, h.store.SessionRepo().SaveTurn(ctx, store.SessionRecord{
		ID: "s-old", LearnerID: "u1", LevelID: "niveau_inconnu", CaseID: "cas_retire", CaseTitle: "Cas retiré",
		Objective: DefaultObjective, State: "ACTIVE", StartedAt: time.Now().Add(-time.Hour),
	}, nil))

	h.queue("AUCUNE_ERREUR", "Bonjour.")
	res := h.turn(t, "u1", "s-old", "Bonjour")
	assert.Equal(t, "s-old", res.SessionID)
	assert.Equal(t, clinical.DefaultCase().Title, res.CaseTitle)
	assert.Equal(t, learner.Levels[0].Name, res.CurrentLevel)
}

func TestHandleTurn_HistoryIsReadThroughCache(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	first := h.turn(t, "u1", "", "Bonjour")

	cached, ok, err := h.cache.Get(ctx, first.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 2)

	// A cold cache is refilled from storage.
	require.NoError(t, h.cache.Delete(ctx, first.SessionID))
	h.queue("AUCUNE_ERREUR", "Oui.")
	h.turn(t, "u1", first.SessionID, "Avez-vous de la fièvre ?")

	cached, ok, err = h.cache.Get(ctx, first.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 4)
	assert.Equal(t, transcript.AuthorLearner, cached[2].Author)
}

type failingSessions struct {
	store.SessionRepo
}

func (failingSessions) SaveTurn(context.Context, store.SessionRecord, []store.InteractionRecord) error {
	return errors.New("disk full")
}

func TestHandleTurn_PersistFailureLeavesNoStarAward(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	first := h.turn(t, "u1", "", "Bonjour")

	h.svc.d.Sessions = failingSessions{SessionRepo: h.store.SessionRepo()}
	h.queue("AUCUNE_ERREUR", "Oui.")
	_, err := h.svc.HandleTurn(ctx, TurnRequest{LearnerID: "u1", SessionID: first.SessionID, Message: "Avez-vous de la fièvre ?"})
	require.Error(t, err)

	events, err := h.store.EventRepo().QueryStarEvents(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "only the stored turn has a star award")

	_, ok, err := h.cache.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, h.interactions(t, first.SessionID), 2)
}

func TestTerminate(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	res := h.turn(t, "u1", "", "Bonjour")

	ok, err := h.svc.Terminate(ctx, "u1", "missing", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.svc.Terminate(ctx, "u2", res.SessionID, nil)
	require.NoError(t, err)
	assert.False(t, ok, "sessions of other learners are not visible")

	dx := "  syndrome grippal "
	ok, err = h.svc.Terminate(ctx, "u1", res.SessionID, &dx)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := h.store.SessionRepo().Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "TERMINATED", rec.State)
	assert.True(t, rec.DiagnosisCorrect)
	require.NotNil(t, rec.EndedAt)
	endedAt := *rec.EndedAt

	other := "Angine"
	ok, err = h.svc.Terminate(ctx, "u1", res.SessionID, &other)
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := h.store.SessionRepo().Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.True(t, again.EndedAt.Equal(endedAt), "terminated sessions are left untouched")
	assert.Equal(t, "syndrome grippal", *again.ProposedDiagnosis)
	assert.Len(t, h.interactions(t, res.SessionID), 2)
}

func TestSession_TerminateOnce(t *testing.T) {
	c := clinical.DefaultCase()
	s := &Session{State: StateActive, Case: &c}
	dx := "SYNDROME DE FATIGUE CHRONIQUE"
	require.NoError(t, s.Terminate(time.Now(), &dx))
	assert.True(t, s.DiagnosisCorrect)
	assert.ErrorIs(t, s.Terminate(time.Now(), nil), ErrAlreadyTerminated)

	noCase := &Session{State: StateActive}
	require.NoError(t, noCase.Terminate(time.Now(), &dx))
	assert.False(t, noCase.DiagnosisCorrect)
}

func TestProgression(t *testing.T) {
	h := newHarness(t, Config{})
	ctx := context.Background()

	p, err := h.svc.Progression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &Progression{CurrentLevel: "Aucun"}, p)

	h.queue("AUCUNE_ERREUR", "Bonjour.", "AUCUNE_ERREUR", "Au revoir.")
	first := h.turn(t, "u1", "", "Bonjour")
	h.turn(t, "u1", first.SessionID, "Merci")

	h.queue("SYMPTOME_MANQUE", "Hmm.")
	h.turn(t, "u1", "", "Bonjour")

	p, err = h.svc.Progression(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.TotalStars)
	assert.Equal(t, 1, p.CompletedSessions)
	assert.Equal(t, 2, p.SessionCount)
	assert.Equal(t, "Consultations de base", p.CurrentLevel)
	assert.False(t, p.NextLevelUnlocked)
}

func TestHandleTurn_ErrorTurnsCycleThroughTier(t *testing.T) {
	h := newHarness(t, Config{})
	h.queue("AUCUNE_ERREUR", "Bonjour.")
	first := h.turn(t, "u1", "", "Bonjour")
	require.Equal(t, "Consultation de routine", first.CaseTitle)

	h.queue("RAISONNEMENT_FLOU", "Reprenons.")
	second := h.turn(t, "u1", first.SessionID, "C'est sûrement rien")
	assert.NotEqual(t, first.CaseTitle, second.CaseTitle)
	assert.Equal(t, "Mal de gorge fébrile", second.CaseTitle)

	// Only the case in play is excluded now, so the first easy case comes back.
	h.queue("SYMPTOME_MANQUE", "Regardons autre chose.")
	third := h.turn(t, "u1", first.SessionID, "Je ne sais pas")
	assert.Equal(t, "Consultation de routine", third.CaseTitle)

	rec, err := h.store.SessionRepo().Get(context.Background(), first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "cas_grippe", rec.CaseID)
}

func TestWithTitle(t *testing.T) {
	titles := []string{"A", "b", "C"}
	assert.Equal(t, titles, withTitle(titles, "B"))
	assert.Equal(t, titles, withTitle(titles, ""))
	assert.Equal(t, []string{"A", "b", "C", "D"}, withTitle(titles, "D"))
	assert.Equal(t, []string{"A", "b", "C"}, titles)
	assert.Equal(t, []string{"D"}, withTitle(nil, "D"))
}

type sessionRecordingDetector struct {
	ErrorDetector
	sessions []string
}

func (d *sessionRecordingDetector) Analyze(ctx context.Context, message, caseTitle string) diagnosis.Result {
	d.sessions = append(d.sessions, llm.SessionFrom(ctx))
	return d.ErrorDetector.Analyze(ctx, message, caseTitle)
}

func TestHandleTurn_TagsGenerationWithSession(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	det := &sessionRecordingDetector{ErrorDetector: h.svc.d.Detector}
	h.svc.d.Detector = det
	h.queue("AUCUNE_ERREUR", "Bonjour docteur.", "AUCUNE_ERREUR", "Depuis hier.")

	first := h.turn(t, "u1", "", "Bonjour")
	h.turn(t, "u1", first.SessionID, "Depuis quand ?")

	assert.Equal(t, []string{first.SessionID, first.SessionID}, det.sessions)
}
