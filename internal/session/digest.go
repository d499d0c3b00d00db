package session

import (
	"context"
	"fmt"

	"github.com/abhisek/mediz/internal/transcript"
	"github.com/abhisek/mediz/internal/tutor"
)

// Digests condenses the learner's most recent sessions, newest first, for
// the learner summary. A limit of 0 covers every session.
func (s *Service) Digests(ctx context.Context, learnerID string, limit int) ([]tutor.SessionDigest, error) {
	recs, err := s.d.Sessions.ListByLearner(ctx, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]tutor.SessionDigest, 0, len(recs))
	for _, r := range recs {
		turns, err := s.d.Sessions.Interactions(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("load history of %s: %w", r.ID, err)
		}

		d := tutor.SessionDigest{
			CaseTitle:        r.CaseTitle,
			Stars:            r.StarScore,
			Terminated:       r.State == string(StateTerminated),
			DiagnosisCorrect: r.DiagnosisCorrect,
			ErrorCategories:  make(map[string]int),
		}
		if d.CaseTitle == "" {
			d.CaseTitle = "Consultation sans cas"
		}
		if r.ProposedDiagnosis != nil {
			d.ProposedDiagnosis = *r.ProposedDiagnosis
		}
		for _, t := range turns {
			if t.Author == string(transcript.AuthorLearner) {
				d.LearnerTurns++
			}
			for _, e := range t.Errors {
				d.ErrorCategories[e.Category]++
			}
		}
		out = append(out, d)
	}
	return out, nil
}
