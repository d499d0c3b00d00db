package learner

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/mediz/internal/store"
)

// Identity carries the registration details of a learner.
type Identity struct {
	ID        string
	Name      string
	FirstName string
	Email     string
}

// ProfileUpdate carries profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	Tier      *Tier
	Specialty *string
	Domain    *string
	AppLevel  *string
}

// Service resolves and updates learners.
type Service struct {
	repo store.LearnerRepo
	now  func() time.Time
}

// NewService creates a learner service backed by repo.
func NewService(repo store.LearnerRepo) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the learner, or nil if unknown.
func (s *Service) Get(ctx context.Context, id string) (*Learner, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get learner %s: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	l := fromRecord(*rec)
	return &l, nil
}

// GetOrCreate returns the learner, registering it with the default profile
// on first sight.
func (s *Service) GetOrCreate(ctx context.Context, id string) (*Learner, error) {
	return s.Register(ctx, Identity{ID: id})
}

// Register creates the learner if it does not exist yet and returns it.
// Missing names default to "Utilisateur"/"Nouveau".
func (s *Service) Register(ctx context.Context, ident Identity) (*Learner, error) {
	if ident.ID == "" {
		return nil, fmt.Errorf("learner id is required")
	}
	if l, err := s.Get(ctx, ident.ID); err != nil || l != nil {
		return l, err
	}

	if ident.Name == "" {
		ident.Name = "Utilisateur"
	}
	if ident.FirstName == "" {
		ident.FirstName = "Nouveau"
	}
	l := Learner{
		ID:           ident.ID,
		Name:         ident.Name,
		FirstName:    ident.FirstName,
		Email:        ident.Email,
		RegisteredAt: s.now(),
		Profile:      DefaultProfile(),
	}
	if err := s.repo.Create(ctx, toRecord(l)); err != nil {
		return nil, fmt.Errorf("create learner %s: %w", ident.ID, err)
	}
	// Re-read so a concurrent registration wins consistently.
	return s.Get(ctx, ident.ID)
}

// UpdateProfile applies upd and returns the updated learner.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Learner, error) {
	var tier *string
	if upd.Tier != nil {
		t := string(*upd.Tier)
		tier = &t
	}
	err := s.repo.UpdateProfile(ctx, id, store.ProfileUpdate{
		ExpertiseTier: tier,
		Specialty:     upd.Specialty,
		Domain:        upd.Domain,
		AppLevel:      upd.AppLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("update profile of %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

// List returns every learner.
func (s *Service) List(ctx context.Context) ([]Learner, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	out := make([]Learner, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

func fromRecord(r store.LearnerRecord) Learner {
	tier, err := ParseTier(r.ExpertiseTier)
	if err != nil {
		tier = TierBeginner
	}
	return Learner{
		ID:           r.ID,
		Name:         r.Name,
		FirstName:    r.FirstName,
		Email:        r.Email,
		RegisteredAt: r.RegisteredAt,
		Profile: Profile{
			Tier:      tier,
			Specialty: r.Specialty,
			Domain:    r.Domain,
			AppLevel:  r.AppLevel,
		},
	}
}

func toRecord(l Learner) store.LearnerRecord {
	return store.LearnerRecord{
		ID:            l.ID,
		Name:          l.Name,
		FirstName:     l.FirstName,
		Email:         l.Email,
		ExpertiseTier: string(l.Profile.Tier),
		Specialty:     l.Profile.Specialty,
		Domain:        l.Profile.Domain,
		AppLevel:      l.Profile.AppLevel,
		RegisteredAt:  l.RegisteredAt,
	}
}
