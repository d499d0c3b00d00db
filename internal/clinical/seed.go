package clinical

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mediz/internal/store"
)

//go:embed cases.yaml
var seedData []byte

// Seed is a versioned set of cases shipped with the binary.
type Seed struct {
	Version string     `yaml:"version"`
	Cases   []seedCase `yaml:"cases"`
}

type seedCase struct {
	ID                 string            `yaml:"id"`
	Title              string            `yaml:"title"`
	Description        string            `yaml:"description"`
	ClinicalContext    string            `yaml:"clinical_context"`
	Symptoms           map[string]string `yaml:"symptoms"`
	CorrectDiagnosis   string            `yaml:"correct_diagnosis"`
	Differentials      []string          `yaml:"differentials"`
	Difficulty         Difficulty        `yaml:"difficulty"`
	PatientMentalState string            `yaml:"patient_mental_state"`
}

// LoadSeed parses the embedded catalog.
func LoadSeed() (*Seed, error) {
	return ParseSeed(seedData)
}

// ParseSeed parses and validates a YAML catalog.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse case catalog: %w", err)
	}
	if !semver.IsValid(s.Version) {
		return nil, fmt.Errorf("case catalog version %q is not a valid semantic version", s.Version)
	}
	ids := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.ID == "" || c.Title == "" || c.CorrectDiagnosis == "" {
			return nil, fmt.Errorf("case %d: id, title and correct_diagnosis are required", i)
		}
		if ids[c.ID] {
			return nil, fmt.Errorf("duplicate case id %q", c.ID)
		}
		ids[c.ID] = true
		switch c.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return nil, fmt.Errorf("case %s: unknown difficulty %q", c.ID, c.Difficulty)
		}
	}
	return &s, nil
}

// Static returns the seed cases in file order as an in-memory catalog.
func (s *Seed) Static() StaticCatalog {
	out := make(StaticCatalog, len(s.Cases))
	for i, c := range s.Cases {
		out[i] = Case{
			ID:                 c.ID,
			Title:              c.Title,
			Description:        c.Description,
			ClinicalContext:    c.ClinicalContext,
			Symptoms:           c.Symptoms,
			CorrectDiagnosis:   c.CorrectDiagnosis,
			Differentials:      c.Differentials,
			Difficulty:         c.Difficulty,
			PatientMentalState: c.PatientMentalState,
		}
	}
	return out
}

// Seeder loads a Seed into the case repository.
type Seeder struct {
	repo   store.CaseRepo
	logger *zap.Logger
}

// NewSeeder creates a Seeder writing to repo.
func NewSeeder(repo store.CaseRepo, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repo: repo, logger: logger}
}

// Sync upserts the seed when its version is newer than the stored catalog,
// or unconditionally when force is set. It reports whether it wrote.
func (s *Seeder) Sync(ctx context.Context, seed *Seed, force bool) (bool, error) {
	current, err := s.repo.CatalogVersion(ctx)
	if err != nil {
		return false, err
	}
	if !force && current != "" && semver.Compare(seed.Version, current) <= 0 {
		s.logger.Debug("case catalog up to date",
			zap.String("stored", current), zap.String("seed", seed.Version))
		return false, nil
	}

	cases := seed.Static()
	recs := make([]store.CaseRecord, len(cases))
	for i, c := range cases {
		recs[i] = toRecord(c, i+1)
	}
	if err := s.repo.Upsert(ctx, recs); err != nil {
		return false, fmt.Errorf("seed cases: %w", err)
	}
	if err := s.repo.SetCatalogVersion(ctx, seed.Version); err != nil {
		return false, err
	}

	s.logger.Info("case catalog seeded",
		zap.String("from", current), zap.String("to", seed.Version), zap.Int("cases", len(recs)))
	return true, nil
}
