package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/llm"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/store"
	"github.com/abhisek/mediz/internal/transcript"
	"github.com/abhisek/mediz/internal/tutor"
)

// LearnerResolver finds or registers the learner behind a turn.
type LearnerResolver interface {
	GetOrCreate(ctx context.Context, id string) (*learner.Learner, error)
}

// CaseLookup resolves the case of a reloaded session.
type CaseLookup interface {
	Get(ctx context.Context, id string) (*clinical.Case, error)
}

// ErrorDetector flags reasoning errors in a learner message.
type ErrorDetector interface {
	Analyze(ctx context.Context, message, caseTitle string) diagnosis.Result
}

// Responder produces tutor replies and final feedback.
type Responder interface {
	Respond(ctx context.Context, in tutor.Input) tutor.Output
	FinalFeedback(ctx context.Context, in tutor.FeedbackInput) string
}

// StarAwarder scores a turn and records the award once the turn is stored.
type StarAwarder interface {
	Score(ev stars.Evaluation) int
	Record(ctx context.Context, sessionID, learnerID string, ev stars.Evaluation) error
}

// Metrics receives per-turn counters.
type Metrics interface {
	TurnHandled(closing bool)
	ErrorsDetected(categories []diagnosis.Category)
	StarsAwarded(n int)
	SessionTerminated(correct bool)
}

type nopMetrics struct{}

func (nopMetrics) TurnHandled(bool)                    {}
func (nopMetrics) ErrorsDetected([]diagnosis.Category) {}
func (nopMetrics) StarsAwarded(int)                    {}
func (nopMetrics) SessionTerminated(bool)              {}

// Config controls the orchestrator.
type Config struct {
	// FinalFeedback requests an evaluation of the consultation on closing.
	FinalFeedback bool
}

// DefaultConfig returns the default orchestrator settings.
func DefaultConfig() Config {
	return Config{FinalFeedback: true}
}

// Deps are the collaborators of the Service. Cache, Metrics and Logger
// are optional.
type Deps struct {
	Learners  LearnerResolver
	Sessions  store.SessionRepo
	Cases     CaseLookup
	Detector  ErrorDetector
	Responder Responder
	Stars     StarAwarder
	Cache     HistoryCache
	Metrics   Metrics
	Logger    *zap.Logger
}

// TurnRequest is one learner message.
type TurnRequest struct {
	LearnerID string
	Message   string
	SessionID string
}

// TurnResult is what the learner gets back for a turn.
type TurnResult struct {
	Reply            string                       `json:"reply"`
	SessionID        string                       `json:"session_id"`
	StarsEarned      int                          `json:"stars_earned"`
	TotalScore       int                          `json:"total_score"`
	CaseTitle        string                       `json:"case_title"`
	CurrentLevel     string                       `json:"current_level"`
	IsClosing        bool                         `json:"is_closing"`
	DiagnosisCorrect *bool                        `json:"diagnosis_correct,omitempty"`
	Feedback         string                       `json:"feedback,omitempty"`
	Errors           []diagnosis.PedagogicalError `json:"errors,omitempty"`
}

// Progression summarizes a learner's sessions.
type Progression struct {
	TotalStars        int    `json:"total_stars"`
	CompletedSessions int    `json:"completed_sessions"`
	SessionCount      int    `json:"session_count"`
	CurrentLevel      string `json:"current_level"`
	NextLevelUnlocked bool   `json:"next_level_unlocked"`
}

// Service runs consultations. A Service is safe for concurrent use across
// sessions; turns of one session must be serialized by the caller.
type Service struct {
	d   Deps
	cfg Config
	now func() time.Time
}

// NewService creates a Service.
func NewService(d Deps, cfg Config) *Service {
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{d: d, cfg: cfg, now: time.Now}
}

// HandleTurn runs the full protocol for one learner message.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if req.LearnerID == "" {
		return nil, ErrMissingLearner
	}

	l, err := s.d.Learners.GetOrCreate(ctx, req.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("resolve learner: %w", err)
	}

	sess, err := s.resolve(ctx, l, req.SessionID)
	if err != nil {
		return nil, err
	}
	ctx = llm.WithSession(ctx, sess.ID)

	prior, err := s.d.Sessions.CaseTitles(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("load case titles: %w", err)
	}
	prior = withTitle(prior, sess.CaseTitle())

	detection := s.d.Detector.Analyze(ctx, msg, sess.CaseTitle())
	out := s.d.Responder.Respond(ctx, tutor.Input{
		Profile:     l.Profile,
		Message:     msg,
		Case:        sess.Case,
		History:     sess.History.Turns(),
		Detection:   detection,
		PriorTitles: prior,
	})

	var added []transcript.Turn
	appendTurn := func(t transcript.Turn) error {
		t.ID = uuid.NewString()
		if t.Timestamp.IsZero() {
			t.Timestamp = s.now()
		}
		rec, err := sess.History.Append(t)
		if err != nil {
			return fmt.Errorf("append %s turn: %w", strings.ToLower(string(t.Author)), err)
		}
		added = append(added, rec)
		return nil
	}

	if err := appendTurn(transcript.Turn{
		Author:     transcript.AuthorLearner,
		AuthorName: l.DisplayName(),
		Message:    msg,
		Type:       transcript.TypeQuestion,
		Errors:     detection.Errors,
	}); err != nil {
		return nil, err
	}

	if out.CaseChanged {
		if err := appendTurn(transcript.Turn{
			Author:  transcript.AuthorSystem,
			Message: fmt.Sprintf("Changement de cas clinique: %s → %s", sess.CaseTitle(), out.Case.Title),
			Type:    transcript.TypeSystem,
		}); err != nil {
			return nil, err
		}
		s.d.Logger.Info("case changed",
			zap.String("session", sess.ID),
			zap.String("from", sess.Case.ID),
			zap.String("to", out.Case.ID))
	}
	c := out.Case
	sess.Case = &c

	replyType := transcript.TypeAnswer
	if out.IsClosing {
		replyType = transcript.TypeFeedback
	}
	if err := appendTurn(transcript.Turn{
		Author:     transcript.AuthorTutor,
		AuthorName: transcript.AuthorTutor.DefaultName(),
		Message:    out.Reply,
		Type:       replyType,
	}); err != nil {
		return nil, err
	}

	eval := stars.Evaluation{ErrorCount: len(detection.Errors)}
	earned := s.d.Stars.Score(eval)
	sess.StarScore += earned

	res := &TurnResult{
		Reply:       out.Reply,
		SessionID:   sess.ID,
		StarsEarned: earned,
		IsClosing:   out.IsClosing,
		Errors:      detection.Errors,
	}

	if out.IsClosing {
		if err := sess.Terminate(s.now(), out.ProposedDiagnosis); err != nil {
			return nil, err
		}
		correct := sess.DiagnosisCorrect
		res.DiagnosisCorrect = &correct

		if s.cfg.FinalFeedback {
			sess.Feedback = s.d.Responder.FinalFeedback(ctx, tutor.FeedbackInput{
				Case:              *sess.Case,
				ProposedDiagnosis: sess.ProposedDiagnosis,
				Score:             sess.StarScore,
				QuestionCount:     sess.History.Count(transcript.AuthorLearner),
				History:           sess.History.Turns(),
			})
			if err := appendTurn(transcript.Turn{
				Author:     transcript.AuthorTutor,
				AuthorName: transcript.AuthorTutor.DefaultName(),
				Message:    sess.Feedback,
				Type:       transcript.TypeFeedback,
			}); err != nil {
				return nil, err
			}
			res.Feedback = sess.Feedback
		}
	}

	if err := s.d.Sessions.SaveTurn(ctx, sess.record(), turnRecords(sess.ID, added)); err != nil {
		s.forget(ctx, sess.ID)
		return nil, fmt.Errorf("persist turn: %w", err)
	}
	s.remember(ctx, sess)
	if err := s.d.Stars.Record(ctx, sess.ID, l.ID, eval); err != nil {
		s.d.Logger.Warn("star award not recorded", zap.String("session", sess.ID), zap.Error(err))
	}

	level, _ := learner.LevelByID(sess.LevelID)
	res.TotalScore = sess.StarScore
	res.CaseTitle = sess.CaseTitle()
	res.CurrentLevel = level.Name

	s.d.Metrics.TurnHandled(out.IsClosing)
	s.d.Metrics.StarsAwarded(earned)
	if len(detection.Errors) > 0 {
		cats := make([]diagnosis.Category, len(detection.Errors))
		for i, e := range detection.Errors {
			cats[i] = e.Category
		}
		s.d.Metrics.ErrorsDetected(cats)
	}
	if out.IsClosing {
		s.d.Metrics.SessionTerminated(sess.DiagnosisCorrect)
	}

	s.d.Logger.Debug("turn handled",
		zap.String("session", sess.ID),
		zap.String("learner", l.ID),
		zap.Int("errors", len(detection.Errors)),
		zap.Int("stars", earned),
		zap.Bool("closing", out.IsClosing))

	return res, nil
}

// Terminate ends a session of the learner. It returns false when no such
// session exists for that learner; an already terminated session is left
// untouched and reported as true.
func (s *Service) Terminate(ctx context.Context, learnerID, sessionID string, proposed *string) (bool, error) {
	sess, err := s.Get(ctx, learnerID, sessionID)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}
	if !sess.Active() {
		return true, nil
	}

	if proposed != nil {
		d := strings.TrimSpace(*proposed)
		proposed = &d
	}
	if err := sess.Terminate(s.now(), proposed); err != nil {
		return false, err
	}
	if err := s.d.Sessions.SaveTurn(ctx, sess.record(), nil); err != nil {
		return false, fmt.Errorf("persist termination: %w", err)
	}
	s.d.Metrics.SessionTerminated(sess.DiagnosisCorrect)
	s.d.Logger.Info("session terminated",
		zap.String("session", sess.ID),
		zap.Bool("diagnosis_correct", sess.DiagnosisCorrect))
	return true, nil
}

// Get loads a session owned by the learner, or nil if there is none.
func (s *Service) Get(ctx context.Context, learnerID, sessionID string) (*Session, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.LearnerID != learnerID {
		return nil, nil
	}
	return sess, nil
}

// Progression summarizes the learner's consultations.
func (s *Service) Progression(ctx context.Context, learnerID string) (*Progression, error) {
	recs, err := s.d.Sessions.ListByLearner(ctx, learnerID, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	p := &Progression{SessionCount: len(recs), CurrentLevel: "Aucun"}
	for _, r := range recs {
		p.TotalStars += r.StarScore
		if r.State == string(StateTerminated) {
			p.CompletedSessions++
		}
	}
	if len(recs) > 0 {
		level, _ := learner.LevelByID(recs[0].LevelID)
		p.CurrentLevel = level.Name
		p.NextLevelUnlocked = level.Passed(p.TotalStars)
	}
	return p, nil
}

func (s *Service) resolve(ctx context.Context, l *learner.Learner, sessionID string) (*Session, error) {
	if sessionID != "" {
		sess, err := s.Get(ctx, l.ID, sessionID)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.Active() {
			return sess, nil
		}
		s.d.Logger.Debug("session not resumable, starting a new one",
			zap.String("requested", sessionID), zap.String("learner", l.ID))
	}

	past, err := s.d.Sessions.ListByLearner(ctx, l.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return &Session{
		ID:        uuid.NewString(),
		LearnerID: l.ID,
		LevelID:   learner.LevelFor(l.Profile.Tier).ID,
		Objective: DefaultObjective,
		State:     StateActive,
		StartedAt: s.now(),
		FirstTime: len(past) == 0,
		History:   &transcript.History{},
	}, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*Session, error) {
	rec, err := s.d.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if rec == nil {
		return nil, nil
	}

	sess := &Session{
		ID:                rec.ID,
		LearnerID:         rec.LearnerID,
		LevelID:           rec.LevelID,
		Objective:         rec.Objective,
		StarScore:         rec.StarScore,
		State:             State(rec.State),
		StartedAt:         rec.StartedAt,
		EndedAt:           rec.EndedAt,
		ProposedDiagnosis: rec.ProposedDiagnosis,
		DiagnosisCorrect:  rec.DiagnosisCorrect,
		FirstTime:         rec.FirstTime,
		Feedback:          rec.Feedback,
	}
	if _, ok := learner.LevelByID(rec.LevelID); !ok {
		sess.LevelID = learner.Levels[0].ID
	}

	if rec.CaseID != "" {
		c, err := s.d.Cases.Get(ctx, rec.CaseID)
		if err != nil || c == nil {
			s.d.Logger.Warn("session case unavailable, using default case",
				zap.String("session", rec.ID), zap.String("case", rec.CaseID), zap.Error(err))
			dc := clinical.DefaultCase()
			c = &dc
		}
		sess.Case = c
	}

	turns, err := s.history(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	sess.History = transcript.Restore(turns)
	return sess, nil
}

func (s *Service) history(ctx context.Context, sessionID string) ([]transcript.Turn, error) {
	if s.d.Cache != nil {
		turns, ok, err := s.d.Cache.Get(ctx, sessionID)
		if err != nil {
			s.d.Logger.Warn("history cache read failed", zap.String("session", sessionID), zap.Error(err))
		} else if ok {
			return turns, nil
		}
	}

	recs, err := s.d.Sessions.Interactions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", sessionID, err)
	}
	turns := turnsFromRecords(recs)
	if s.d.Cache != nil {
		if err := s.d.Cache.Put(ctx, sessionID, turns); err != nil {
			s.d.Logger.Warn("history cache write failed", zap.String("session", sessionID), zap.Error(err))
		}
	}
	return turns, nil
}

func (s *Service) remember(ctx context.Context, sess *Session) {
	if s.d.Cache == nil {
		return
	}
	if err := s.d.Cache.Put(ctx, sess.ID, sess.History.Turns()); err != nil {
		s.d.Logger.Warn("history cache write failed", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (s *Service) forget(ctx context.Context, sessionID string) {
	if s.d.Cache == nil {
		return
	}
	if err := s.d.Cache.Delete(ctx, sessionID); err != nil {
		s.d.Logger.Warn("history cache delete failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// withTitle adds the session's own case to the titles already seen, so a
// reselection after an error moves to another case while one is left.
func withTitle(titles []string, title string) []string {
	if title == "" {
		return titles
	}
	for _, t := range titles {
		if strings.EqualFold(t, title) {
			return titles
		}
	}
	return append(titles[:len(titles):len(titles)], title)
}
