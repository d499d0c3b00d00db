// Package session orchestrates consultation sessions: resolution or
// creation, the per-turn protocol, termination and progression.
package session

import (
	"errors"
	"time"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/store"
	"github.com/abhisek/mediz/internal/transcript"
)

var (
	// ErrEmptyMessage is returned for blank learner messages.
	ErrEmptyMessage = errors.New("empty message")

	// ErrMissingLearner is returned when a turn carries no learner identifier.
	ErrMissingLearner = errors.New("missing learner identifier")

	// ErrAlreadyTerminated is returned when terminating a terminated session.
	ErrAlreadyTerminated = errors.New("session already terminated")
)

// State is the lifecycle state of a session.
type State string

const (
	StateActive     State = "ACTIVE"
	StateTerminated State = "TERMINATED"
)

// DefaultObjective is the objective of every new session.
const DefaultObjective = "Apprentissage du diagnostic médical"

// Session is one consultation of a learner on a clinical case.
type Session struct {
	ID        string
	LearnerID string
	LevelID   string
	Objective string

	// Case is nil until the first turn assigns one.
	Case *clinical.Case

	StarScore         int
	State             State
	StartedAt         time.Time
	EndedAt           *time.Time
	ProposedDiagnosis *string
	DiagnosisCorrect  bool

	// FirstTime is set on the learner's very first session.
	FirstTime bool
	Feedback  string

	History *transcript.History
}

// Active reports whether the session still accepts turns.
func (s *Session) Active() bool {
	return s.State == StateActive
}

// CaseTitle returns the assigned case title, or "" before assignment.
func (s *Session) CaseTitle() string {
	if s.Case == nil {
		return ""
	}
	return s.Case.Title
}

// Terminate closes the session at the given time and records the proposed
// diagnosis. Correctness is a case-insensitive comparison with the case's
// diagnosis.
func (s *Session) Terminate(at time.Time, proposed *string) error {
	if !s.Active() {
		return ErrAlreadyTerminated
	}
	s.State = StateTerminated
	s.EndedAt = &at
	s.ProposedDiagnosis = proposed
	s.DiagnosisCorrect = proposed != nil && s.Case != nil && s.Case.VerifyDiagnosis(*proposed)
	return nil
}

func (s *Session) record() store.SessionRecord {
	rec := store.SessionRecord{
		ID:                s.ID,
		LearnerID:         s.LearnerID,
		LevelID:           s.LevelID,
		Objective:         s.Objective,
		StarScore:         s.StarScore,
		State:             string(s.State),
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
		ProposedDiagnosis: s.ProposedDiagnosis,
		DiagnosisCorrect:  s.DiagnosisCorrect,
		FirstTime:         s.FirstTime,
		Feedback:          s.Feedback,
	}
	if s.Case != nil {
		rec.CaseID = s.Case.ID
		rec.CaseTitle = s.Case.Title
	}
	return rec
}

func turnRecords(sessionID string, turns []transcript.Turn) []store.InteractionRecord {
	out := make([]store.InteractionRecord, 0, len(turns))
	for _, t := range turns {
		rec := store.InteractionRecord{
			ID:            t.ID,
			SessionID:     sessionID,
			Seq:           t.Seq,
			Author:        string(t.Author),
			AuthorName:    t.AuthorName,
			Message:       t.Message,
			MessageType:   string(t.Type),
			ContainsError: t.ContainsError(),
			Timestamp:     t.Timestamp,
		}
		for _, e := range t.Errors {
			rec.Errors = append(rec.Errors, store.ErrorRecord{
				ID:            e.ID,
				InteractionID: t.ID,
				Category:      string(e.Category),
				Severity:      string(e.Severity),
				Description:   e.Description,
				Context:       e.Context,
				Suggestion:    e.Suggestion,
				Corrected:     e.Corrected,
			})
		}
		out = append(out, rec)
	}
	return out
}

func turnsFromRecords(recs []store.InteractionRecord) []transcript.Turn {
	out := make([]transcript.Turn, 0, len(recs))
	for _, r := range recs {
		t := transcript.Turn{
			ID:         r.ID,
			Seq:        r.Seq,
			Author:     transcript.Author(r.Author),
			AuthorName: r.AuthorName,
			Message:    r.Message,
			Type:       transcript.MessageType(r.MessageType),
			Timestamp:  r.Timestamp,
		}
		for _, e := range r.Errors {
			t.Errors = append(t.Errors, diagnosis.PedagogicalError{
				ID:          e.ID,
				Category:    diagnosis.Category(e.Category),
				Severity:    diagnosis.Severity(e.Severity),
				Description: e.Description,
				Context:     e.Context,
				Suggestion:  e.Suggestion,
				Corrected:   e.Corrected,
			})
		}
		out = append(out, t)
	}
	return out
}
