package diagnosis

// Category classifies a reasoning error in a learner message. The set of
// known categories is closed, but unknown tokens returned by the classifier
// are kept verbatim.
type Category string

const (
	CategoryIncorrectDiagnosis Category = "DIAGNOSTIC_INCORRECT"
	CategoryMissingSymptom     Category = "SYMPTOME_MANQUE"
	CategoryVagueReasoning     Category = "RAISONNEMENT_FLOU"
	CategoryTerminology        Category = "TERMINOLOGIE_INCORRECTE"
)

// NoErrorSentinel is the classifier's answer for a clean message.
const NoErrorSentinel = "AUCUNE_ERREUR"

// Severity grades a pedagogical error.
type Severity string

const (
	SeverityLow    Severity = "FAIBLE"
	SeverityMedium Severity = "MOYENNE"
	SeverityHigh   Severity = "ELEVEE"
)

// PedagogicalError is one detected error attached to a learner turn.
type PedagogicalError struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Context     string   `json:"context"` // the learner message that triggered it
	Suggestion  string   `json:"suggestion"`
	Corrected   bool     `json:"corrected"`
}

// Result is the outcome of analysing one learner message.
type Result struct {
	Errors []PedagogicalError
	Raw    string // classifier output, for inspection
}

// ContainsError reports whether any error was detected.
func (r Result) ContainsError() bool {
	return len(r.Errors) > 0
}
