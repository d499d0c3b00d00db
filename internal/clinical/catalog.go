package clinical

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mediz/internal/store"
)

// Catalog is read-only access to the clinical cases, in catalog order.
type Catalog interface {
	All(ctx context.Context) ([]Case, error)
	ByDifficulty(ctx context.Context, d Difficulty) ([]Case, error)
}

// StoreCatalog serves cases persisted in the database.
type StoreCatalog struct {
	repo store.CaseRepo
}

// NewStoreCatalog creates a catalog backed by repo.
func NewStoreCatalog(repo store.CaseRepo) *StoreCatalog {
	return &StoreCatalog{repo: repo}
}

func (c *StoreCatalog) All(ctx context.Context) ([]Case, error) {
	recs, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return fromRecords(recs), nil
}

func (c *StoreCatalog) ByDifficulty(ctx context.Context, d Difficulty) ([]Case, error) {
	recs, err := c.repo.ListByDifficulty(ctx, string(d))
	if err != nil {
		return nil, fmt.Errorf("list %s cases: %w", d, err)
	}
	return fromRecords(recs), nil
}

// Get returns one case, or nil if it does not exist.
func (c *StoreCatalog) Get(ctx context.Context, id string) (*Case, error) {
	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	cs := fromRecord(*rec)
	return &cs, nil
}

// StaticCatalog serves a fixed in-memory list.
type StaticCatalog []Case

func (s StaticCatalog) All(context.Context) ([]Case, error) {
	out := make([]Case, len(s))
	copy(out, s)
	return out, nil
}

func (s StaticCatalog) ByDifficulty(_ context.Context, d Difficulty) ([]Case, error) {
	var out []Case
	for _, c := range s {
		if c.Difficulty == d {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns one case, or nil if it does not exist.
func (s StaticCatalog) Get(_ context.Context, id string) (*Case, error) {
	for _, c := range s {
		if c.ID == id {
			cs := c
			return &cs, nil
		}
	}
	return nil, nil
}

// ExcludeTitles drops cases whose title appears in titles, ignoring case.
func ExcludeTitles(cases []Case, titles []string) []Case {
	if len(titles) == 0 {
		return cases
	}
	seen := make(map[string]bool, len(titles))
	for _, t := range titles {
		seen[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var out []Case
	for _, c := range cases {
		if !seen[strings.ToLower(strings.TrimSpace(c.Title))] {
			out = append(out, c)
		}
	}
	return out
}

func fromRecords(recs []store.CaseRecord) []Case {
	out := make([]Case, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out
}

func fromRecord(r store.CaseRecord) Case {
	return Case{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		ClinicalContext:    r.ClinicalContext,
		Symptoms:           r.Symptoms,
		CorrectDiagnosis:   r.CorrectDiagnosis,
		Differentials:      r.Differentials,
		Difficulty:         Difficulty(r.Difficulty),
		PatientMentalState: r.PatientMentalState,
	}
}

func toRecord(c Case, position int) store.CaseRecord {
	return store.CaseRecord{
		ID:                 c.ID,
		Position:           position,
		Title:              c.Title,
		Description:        c.Description,
		ClinicalContext:    c.ClinicalContext,
		Symptoms:           c.Symptoms,
		CorrectDiagnosis:   c.CorrectDiagnosis,
		Differentials:      c.Differentials,
		Difficulty:         string(c.Difficulty),
		PatientMentalState: c.PatientMentalState,
	}
}
