package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/mediz/internal/llm"
)

// SummarySchema defines the JSON schema for learner summaries.
var SummarySchema = &llm.Schema{
	Name:        "learner-summary",
	Description: "Holistic summary of a medical student's consultation skills",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "3-5 sentence overview of the learner's diagnostic skills, in French",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific strengths (2-4 items)",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific areas to work on (2-4 items)",
			},
			"patterns": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Recurring reasoning patterns or habits",
			},
		},
		"required":             []any{"summary", "strengths", "weaknesses", "patterns"},
		"additionalProperties": false,
	},
}

const summarySystemPrompt = `Tu rédiges le profil pédagogique d'un étudiant en médecine à partir de ses consultations simulées. Ce profil aide à adapter les prochains cas cliniques.`

// StructuredGenerator produces schema-conforming JSON.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, system, prompt string, schema *llm.Schema) (json.RawMessage, error)
}

// SessionDigest is a condensed view of one past consultation.
type SessionDigest struct {
	CaseTitle         string
	Stars             int
	LearnerTurns      int
	Terminated        bool
	ProposedDiagnosis string
	DiagnosisCorrect  bool
	ErrorCategories   map[string]int
}

// SummaryInput holds the context for a learner summary.
type SummaryInput struct {
	LearnerName string
	Tier        string
	Specialty   string
	Sessions    []SessionDigest
}

// LearnerSummary is a holistic summary of the learner's patterns.
type LearnerSummary struct {
	Summary     string
	Strengths   []string
	Weaknesses  []string
	Patterns    []string
	GeneratedAt time.Time
}

// Summarizer builds learner summaries.
type Summarizer struct {
	gen StructuredGenerator
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(gen StructuredGenerator) *Summarizer {
	return &Summarizer{gen: gen}
}

type summaryOutput struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Patterns   []string `json:"patterns"`
}

// Summarize generates a learner summary from their past sessions.
func (s *Summarizer) Summarize(ctx context.Context, in SummaryInput) (*LearnerSummary, error) {
	if len(in.Sessions) == 0 {
		return nil, fmt.Errorf("no sessions to summarize")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeLearnerSummary)

	raw, err := s.gen.GenerateStructured(ctx, summarySystemPrompt, buildSummaryUserMessage(in), SummarySchema)
	if err != nil {
		return nil, fmt.Errorf("learner summary: %w", err)
	}

	var out summaryOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse summary response: %w", err)
	}

	return &LearnerSummary{
		Summary:     out.Summary,
		Strengths:   out.Strengths,
		Weaknesses:  out.Weaknesses,
		Patterns:    out.Patterns,
		GeneratedAt: time.Now(),
	}, nil
}

func buildSummaryUserMessage(in SummaryInput) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Étudiant: %s (niveau %s, spécialité %s)\n", in.LearnerName, in.Tier, in.Specialty))
	b.WriteString(fmt.Sprintf("\nConsultations (%d):\n", len(in.Sessions)))

	totals := map[string]int{}
	for _, d := range in.Sessions {
		outcome := "en cours"
		if d.Terminated {
			outcome = "diagnostic incorrect"
			if d.DiagnosisCorrect {
				outcome = "diagnostic correct"
			}
		}
		b.WriteString(fmt.Sprintf("- %s: %d étoiles, %d messages, %s", d.CaseTitle, d.Stars, d.LearnerTurns, outcome))
		if d.ProposedDiagnosis != "" {
			b.WriteString(fmt.Sprintf(" (proposé: %s)", d.ProposedDiagnosis))
		}
		b.WriteString("\n")
		for cat, n := range d.ErrorCategories {
			totals[cat] += n
		}
	}

	if len(totals) > 0 {
		cats := make([]string, 0, len(totals))
		for c := range totals {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		b.WriteString("\nErreurs détectées:\n")
		for _, c := range cats {
			b.WriteString(fmt.Sprintf("- %s: %d\n", c, totals[c]))
		}
	}

	return b.String()
}
