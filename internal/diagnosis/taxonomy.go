package diagnosis

import (
	"fmt"
	"strings"
)

// Entry describes a known error category.
type Entry struct {
	Category    Category
	Label       string
	Description string
	Suggestion  string
}

var taxonomy = []Entry{
	{
		Category:    CategoryIncorrectDiagnosis,
		Label:       "Diagnostic incorrect",
		Description: "Le diagnostic proposé ne correspond pas au tableau clinique",
		Suggestion:  "Confronter le diagnostic aux symptômes recueillis et aux diagnostics différentiels",
	},
	{
		Category:    CategoryMissingSymptom,
		Label:       "Symptôme manqué",
		Description: "Un symptôme important n'a pas été exploré",
		Suggestion:  "Compléter l'interrogatoire sur les signes associés",
	},
	{
		Category:    CategoryVagueReasoning,
		Label:       "Raisonnement flou",
		Description: "La démarche diagnostique manque de structure",
		Suggestion:  "Formuler des hypothèses puis les vérifier une à une",
	},
	{
		Category:    CategoryTerminology,
		Label:       "Terminologie incorrecte",
		Description: "Un terme médical est mal employé",
		Suggestion:  "Vérifier la définition des termes médicaux utilisés",
	},
}

var byCategory map[Category]*Entry

func init() {
	byCategory = make(map[Category]*Entry, len(taxonomy))
	for i := range taxonomy {
		byCategory[taxonomy[i].Category] = &taxonomy[i]
	}
}

// Taxonomy returns the known categories in prompt order.
func Taxonomy() []Entry {
	out := make([]Entry, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Lookup returns the entry for a category, or nil if it is not a known one.
func Lookup(c Category) *Entry {
	return byCategory[c]
}

// describe returns the description and suggestion for any token, known or not.
func describe(c Category) (description, suggestion string) {
	if e := Lookup(c); e != nil {
		return e.Description, e.Suggestion
	}
	return fmt.Sprintf("Erreur détectée: %s", c), "Réviser les concepts de base"
}

// canonical maps a token onto a known category when it matches one
// case-insensitively.
func canonical(token string) Category {
	c := Category(strings.ToUpper(token))
	if Lookup(c) != nil {
		return c
	}
	return Category(token)
}
