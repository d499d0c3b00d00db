// Package clinical holds the clinical case catalog and the case selection
// policy.
package clinical

import (
	"sort"
	"strings"

	"github.com/abhisek/mediz/internal/learner"
)

// Difficulty grades a clinical case.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "FACILE"
	DifficultyMedium Difficulty = "MOYEN"
	DifficultyHard   Difficulty = "DIFFICILE"
)

// Label returns a human-readable name.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	}
	return string(d)
}

// DifficultyFor maps an expertise tier to the difficulty served to it.
func DifficultyFor(t learner.Tier) Difficulty {
	switch t {
	case learner.TierBeginner:
		return DifficultyEasy
	case learner.TierIntermediate:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Case is an immutable clinical scenario. The patient role is played from
// it; CorrectDiagnosis is never revealed to the learner directly.
type Case struct {
	ID                 string
	Title              string
	Description        string
	ClinicalContext    string
	Symptoms           map[string]string
	CorrectDiagnosis   string
	Differentials      []string
	Difficulty         Difficulty
	PatientMentalState string
}

// VerifyDiagnosis compares a proposed diagnosis with the correct one,
// ignoring case and surrounding whitespace.
func (c Case) VerifyDiagnosis(proposed string) bool {
	return strings.EqualFold(strings.TrimSpace(proposed), strings.TrimSpace(c.CorrectDiagnosis))
}

// Symptom is one named symptom entry.
type Symptom struct {
	Name  string
	Value string
}

// SortedSymptoms returns the symptoms ordered by name.
func (c Case) SortedSymptoms() []Symptom {
	out := make([]Symptom, 0, len(c.Symptoms))
	for k, v := range c.Symptoms {
		out = append(out, Symptom{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultCaseID identifies the built-in fallback case.
const DefaultCaseID = "cas_defaut"

// DefaultCase is served when the catalog is empty or unreadable.
func DefaultCase() Case {
	return Case{
		ID:              DefaultCaseID,
		Title:           "Patient avec symptômes généraux",
		Description:     "Un patient se présente avec des symptômes non spécifiques",
		ClinicalContext: "Consultation en médecine générale",
		Symptoms: map[string]string{
			"principaux":  "fatigue, maux de tête",
			"secondaires": "troubles du sommeil",
		},
		CorrectDiagnosis:   "Syndrome de fatigue chronique",
		Differentials:      []string{"Dépression", "Hypothyroïdie", "Anémie"},
		Difficulty:         DifficultyEasy,
		PatientMentalState: "Patient coopératif mais inquiet",
	}
}
