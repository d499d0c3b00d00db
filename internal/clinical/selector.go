package clinical

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/learner"
)

// Selector picks the case a learner should work on next.
type Selector struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewSelector creates a Selector over catalog.
func NewSelector(catalog Catalog, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{catalog: catalog, logger: logger}
}

// Select returns the first case matching the tier's difficulty that the
// learner has not seen yet. When no such case exists the whole catalog is
// used instead, and an empty or unreadable catalog yields DefaultCase.
func (s *Selector) Select(ctx context.Context, tier learner.Tier, priorTitles []string) Case {
	all, err := s.catalog.All(ctx)
	if err != nil {
		s.logger.Error("case catalog unavailable, serving default case", zap.Error(err))
		return DefaultCase()
	}
	if len(all) == 0 {
		return DefaultCase()
	}

	difficulty := DifficultyFor(tier)
	filtered, err := s.catalog.ByDifficulty(ctx, difficulty)
	if err != nil {
		s.logger.Error("case catalog unavailable, serving default case",
			zap.String("difficulty", string(difficulty)), zap.Error(err))
		return DefaultCase()
	}

	candidates := ExcludeTitles(filtered, priorTitles)
	if len(candidates) == 0 {
		s.logger.Debug("no unseen case for difficulty, widening to full catalog",
			zap.String("difficulty", string(difficulty)), zap.Int("prior", len(priorTitles)))
		candidates = all
	}
	return candidates[0]
}
