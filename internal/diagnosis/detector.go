package diagnosis

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/abhisek/mediz/internal/llm"
)

// Generator produces free text from a prompt. It never fails; on error it
// returns its Fallback text.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
	Fallback() string
}

// Detector flags reasoning errors in learner messages by asking the
// generation service to classify them against the taxonomy.
type Detector struct {
	gen   Generator
	newID func() string
}

// NewDetector creates a Detector backed by gen.
func NewDetector(gen Generator) *Detector {
	return &Detector{gen: gen, newID: uuid.NewString}
}

// Analyze classifies message. caseTitle may be empty when no case has been
// assigned yet.
func (d *Detector) Analyze(ctx context.Context, message, caseTitle string) Result {
	ctx = llm.WithPurpose(ctx, llm.PurposeErrorDetect)

	prompt, err := buildDetectionPrompt(message, caseTitle)
	if err != nil {
		return Result{}
	}

	raw := d.gen.Generate(ctx, prompt)
	if raw == d.gen.Fallback() {
		// An apology is not a classification.
		return Result{Raw: raw}
	}

	cats := ParseClassification(raw)
	errs := make([]PedagogicalError, 0, len(cats))
	for _, c := range cats {
		desc, sugg := describe(c)
		errs = append(errs, PedagogicalError{
			ID:          d.newID(),
			Category:    c,
			Severity:    SeverityMedium,
			Description: desc,
			Context:     message,
			Suggestion:  sugg,
		})
	}
	return Result{Errors: errs, Raw: raw}
}

// ParseClassification extracts categories from a comma-separated classifier
// answer. Empty tokens and the no-error sentinel are dropped; every other
// token is kept, so a mixed "AUCUNE_ERREUR, SYMPTOME_MANQUE" still reports
// the missing symptom.
func ParseClassification(raw string) []Category {
	var out []Category
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.Trim(strings.TrimSpace(tok), "\"'`.")
		tok = strings.TrimSpace(tok)
		if tok == "" || strings.EqualFold(tok, NoErrorSentinel) {
			continue
		}
		out = append(out, canonical(tok))
	}
	return out
}

var detectionTemplate = template.Must(template.New("detect").Parse(`Analysez ce message d'un étudiant en médecine et identifiez les erreurs ou difficultés:

Message: "{{.Message}}"
Contexte: Session d'apprentissage médical{{if .CaseTitle}} (cas: {{.CaseTitle}}){{end}}

Répondez uniquement par "{{.Sentinel}}" ou listez les types d'erreurs détectées séparées par des virgules.
Types possibles: {{.Types}}
`))

func buildDetectionPrompt(message, caseTitle string) (string, error) {
	types := make([]string, len(taxonomy))
	for i, e := range taxonomy {
		types[i] = string(e.Category)
	}

	var buf bytes.Buffer
	err := detectionTemplate.Execute(&buf, struct {
		Message   string
		CaseTitle string
		Sentinel  string
		Types     string
	}{message, caseTitle, NoErrorSentinel, strings.Join(types, ", ")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
