// Package stars awards stars for consultation turns.
package stars

import (
	"context"
	"fmt"

	"github.com/abhisek/mediz/internal/store"
)

// Hard bounds of a single award. A Policy may narrow them, never widen them.
const (
	MinStars = 1
	MaxStars = 5
)

// Policy configures star awards.
type Policy struct {
	CleanTurnStars int // awarded when no error was detected
	ErrorTurnStars int // awarded when at least one error was detected
	Min            int
	Max            int
	LevelThreshold int // stars needed to unlock the next level
}

// DefaultPolicy returns the standard award policy.
func DefaultPolicy() Policy {
	return Policy{
		CleanTurnStars: 4,
		ErrorTurnStars: 2,
		Min:            1,
		Max:            5,
		LevelThreshold: 20,
	}
}

// Validate checks that the bounds are coherent and within [MinStars, MaxStars].
func (p Policy) Validate() error {
	if p.Min < MinStars || p.Max > MaxStars || p.Max < p.Min {
		return fmt.Errorf("invalid star bounds [%d, %d] (must lie within [%d, %d])", p.Min, p.Max, MinStars, MaxStars)
	}
	if p.LevelThreshold <= 0 {
		return fmt.Errorf("level threshold must be positive, got %d", p.LevelThreshold)
	}
	return nil
}

// Clamp bounds n to [Min, Max], itself kept within [MinStars, MaxStars].
func (p Policy) Clamp(n int) int {
	lo := max(MinStars, p.Min)
	hi := min(MaxStars, p.Max)
	if hi < lo {
		hi = lo
	}
	return min(hi, max(lo, n))
}

// Evaluation summarizes one learner turn.
type Evaluation struct {
	ErrorCount int
}

// Scorer computes and records star awards.
type Scorer struct {
	policy Policy
	events store.EventRepo
}

// NewScorer creates a Scorer. events may be nil to skip recording.
func NewScorer(p Policy, events store.EventRepo) *Scorer {
	return &Scorer{policy: p, events: events}
}

// Policy returns the active policy.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score returns the stars for a turn, always within [Min, Max].
func (s *Scorer) Score(ev Evaluation) int {
	n := s.policy.CleanTurnStars
	if ev.ErrorCount > 0 {
		n = s.policy.ErrorTurnStars
	}
	return s.policy.Clamp(n)
}

// Award scores the turn and appends a star event.
func (s *Scorer) Award(ctx context.Context, sessionID, learnerID string, ev Evaluation) (int, error) {
	return s.Score(ev), s.Record(ctx, sessionID, learnerID, ev)
}

// Record appends the star event for a turn already scored with Score.
func (s *Scorer) Record(ctx context.Context, sessionID, learnerID string, ev Evaluation) error {
	if s.events == nil {
		return nil
	}

	reason := "clean turn"
	if ev.ErrorCount > 0 {
		reason = "errors detected"
	}
	err := s.events.AppendStarEvent(ctx, store.StarEventData{
		SessionID:  sessionID,
		LearnerID:  learnerID,
		Stars:      s.Score(ev),
		ErrorCount: ev.ErrorCount,
		Reason:     reason,
	})
	if err != nil {
		return fmt.Errorf("record star award: %w", err)
	}
	return nil
}
