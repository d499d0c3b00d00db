package tutor

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/transcript"
)

var replyTemplate = template.Must(template.New("reply").Funcs(template.FuncMap{"join": joinComma}).Parse(`Tu es un tuteur médical intelligent qui joue aussi le rôle du patient. Voici le contexte:

CAS CLINIQUE:
- Titre: {{.Case.Title}}
- Description: {{.Case.Description}}
- Contexte clinique: {{.Case.ClinicalContext}}
- Symptômes:
{{- range .Symptoms}}
  - {{.Name}}: {{.Value}}
{{- end}}
- Diagnostic correct (ne pas révéler): {{.Case.CorrectDiagnosis}}
- Diagnostics différentiels: {{join .Case.Differentials}}
- État mental du patient: {{.Case.PatientMentalState}}

PROFIL DE L'ÉTUDIANT:
- Niveau: {{.Tier}}
- Spécialité: {{.Specialty}}

HISTORIQUE RÉCENT:
{{.History}}
{{- if .Errors}}
ERREURS DÉTECTÉES:
{{- range .Errors}}
- {{.Category}}: {{.Description}} (suggestion: {{.Suggestion}})
{{- end}}
{{end}}
MESSAGE ÉTUDIANT: {{.Message}}

Consignes:
a) Si l'étudiant interroge le patient, réponds comme le patient en révélant les symptômes du cas de façon réaliste.
b) Si l'étudiant propose un diagnostic, évalue-le par rapport au cas sans donner directement la réponse.
c) Corrige avec bienveillance les erreurs détectées.
d) Termine par une question pour vérifier sa compréhension.
Reste dans le contexte médical et du cas clinique.
`))

var feedbackTemplate = template.Must(template.New("feedback").Parse(`Génère un feedback pédagogique pour cette consultation médicale:

CAS: {{.Case.Title}}
DIAGNOSTIC CORRECT: {{.Case.CorrectDiagnosis}}
DIAGNOSTIC PROPOSÉ: {{.Proposed}}
SCORE: {{.Score}} étoiles
QUESTIONS POSÉES: {{.Questions}}

HISTORIQUE:
{{.History}}
Fournis un feedback constructif sur:
1. La démarche diagnostique
2. La qualité des questions
3. Les points à améliorer
4. Les points positifs

Sois bienveillant et pédagogique.
`))

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}

type replyData struct {
	Case      clinical.Case
	Symptoms  []clinical.Symptom
	Tier      string
	Specialty string
	History   string
	Errors    []diagnosis.PedagogicalError
	Message   string
}

func buildReplyPrompt(c clinical.Case, p learner.Profile, history []transcript.Turn, errs []diagnosis.PedagogicalError, message string) (string, error) {
	var buf bytes.Buffer
	err := replyTemplate.Execute(&buf, replyData{
		Case:      c,
		Symptoms:  c.SortedSymptoms(),
		Tier:      p.Tier.Label(),
		Specialty: p.Specialty,
		History:   transcript.Format(history),
		Errors:    errs,
		Message:   message,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

type feedbackData struct {
	Case      clinical.Case
	Proposed  string
	Score     int
	Questions int
	History   string
}

func buildFeedbackPrompt(in FeedbackInput, window int) (string, error) {
	proposed := "Aucun"
	if in.ProposedDiagnosis != nil && *in.ProposedDiagnosis != "" {
		proposed = *in.ProposedDiagnosis
	}
	history := in.History
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	var buf bytes.Buffer
	err := feedbackTemplate.Execute(&buf, feedbackData{
		Case:      in.Case,
		Proposed:  proposed,
		Score:     in.Score,
		Questions: in.QuestionCount,
		History:   transcript.Format(history),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
