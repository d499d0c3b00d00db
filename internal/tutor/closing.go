package tutor

import (
	"strings"

	"github.com/abhisek/mediz/internal/clinical"
)

// IsClosing reports whether message contains one of keywords.
func IsClosing(message string, keywords []string) bool {
	m := strings.ToLower(message)
	for _, k := range keywords {
		if k != "" && strings.Contains(m, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

type knownDiagnosis struct {
	name     string
	triggers []string
}

var commonDiagnoses = []knownDiagnosis{
	{"Syndrome grippal", []string{"grippe", "grippal", "influenza"}},
	{"Angine streptococcique", []string{"streptocoque", "streptococcique"}},
	{"Angine virale", []string{"angine"}},
	{"Pyélonéphrite aiguë", []string{"pyelonephrite", "infection urinaire haute"}},
	{"Cystite simple", []string{"cystite"}},
	{"Hypothyroïdie", []string{"hypothyroidie", "thyroide"}},
	{"Embolie pulmonaire", []string{"embolie"}},
	{"Insuffisance surrénalienne", []string{"addison", "surrenal"}},
	{"Dépression", []string{"depression"}},
	{"Anémie", []string{"anemie"}},
	{"Covid-19", []string{"covid"}},
}

// ExtractDiagnosis pulls the diagnosis the learner proposes out of a free
// text message. The case's correct diagnosis is tried first, then its
// differentials, then a table of common diagnoses. Mentions in a negated
// clause ("ce n'est pas une grippe") are skipped. Without a match the
// trimmed message is returned as is.
func ExtractDiagnosis(message string, c *clinical.Case) string {
	m := fold(message)

	if c != nil {
		names := append([]string{c.CorrectDiagnosis}, c.Differentials...)
		for _, n := range names {
			if n != "" && affirmed(m, fold(n)) {
				return n
			}
		}
	}
	for _, d := range commonDiagnoses {
		if affirmed(m, fold(d.name)) {
			return d.name
		}
		for _, t := range d.triggers {
			if affirmed(m, t) {
				return d.name
			}
		}
	}
	return strings.TrimSpace(message)
}

var (
	negations = []string{"pas ", "non ", "sans ", "exclu", "elimine", "ecarte", "not ", "rule out", "ruled out"}

	clauseBreaks = []string{",", ";", ".", "!", "?", " mais ", " plutot ", " but ", " rather "}
)

// affirmed reports whether term occurs in m at least once outside a
// negated clause. Both are folded.
func affirmed(m, term string) bool {
	for from := 0; from < len(m); {
		i := strings.Index(m[from:], term)
		if i < 0 {
			return false
		}
		at := from + i
		if !negated(m[clauseStart(m, at):at]) {
			return true
		}
		from = at + len(term)
	}
	return false
}

func clauseStart(m string, at int) int {
	start := 0
	for _, b := range clauseBreaks {
		if i := strings.LastIndex(m[:at], b); i >= 0 && i+len(b) > start {
			start = i + len(b)
		}
	}
	return start
}

func negated(clause string) bool {
	for _, n := range negations {
		if strings.Contains(clause, n) {
			return true
		}
	}
	return false
}

var accents = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c",
)

// fold lowercases s and strips French diacritics.
func fold(s string) string {
	return accents.Replace(strings.ToLower(strings.TrimSpace(s)))
}
