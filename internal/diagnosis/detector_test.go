package diagnosis

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/abhisek/mediz/internal/llm"
)

func newTestDetector(responses ...llm.MockResponse) (*Detector, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	gw := llm.NewGateway(mock, llm.GatewayConfig{}, nil)
	return NewDetector(gw), mock
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Category
	}{
		{"sentinel only", "AUCUNE_ERREUR", nil},
		{"sentinel with period", "AUCUNE_ERREUR.", nil},
		{"single category", "SYMPTOME_MANQUE", []Category{CategoryMissingSymptom}},
		{"two categories", "DIAGNOSTIC_INCORRECT, RAISONNEMENT_FLOU",
			[]Category{CategoryIncorrectDiagnosis, CategoryVagueReasoning}},
		{"mixed sentinel and category", "AUCUNE_ERREUR, SYMPTOME_MANQUE", []Category{CategoryMissingSymptom}},
		{"empty tokens dropped", " , TERMINOLOGIE_INCORRECTE ,, ", []Category{CategoryTerminology}},
		{"quotes stripped", `"RAISONNEMENT_FLOU"`, []Category{CategoryVagueReasoning}},
		{"lowercase known category", "symptome_manque", []Category{CategoryMissingSymptom}},
		{"unknown token kept verbatim", "ANAMNESE_INCOMPLETE", []Category{"ANAMNESE_INCOMPLETE"}},
		{"duplicates kept", "SYMPTOME_MANQUE, SYMPTOME_MANQUE",
			[]Category{CategoryMissingSymptom, CategoryMissingSymptom}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClassification(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseClassification(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDetector_CleanMessage(t *testing.T) {
	d, mock := newTestDetector(llm.TextResponse("AUCUNE_ERREUR"))

	res := d.Analyze(context.Background(), "Depuis quand avez-vous de la fièvre ?", "Syndrome grippal")
	if res.ContainsError() {
		t.Fatalf("expected no error, got %+v", res.Errors)
	}

	prompt := mock.Prompts()[0]
	for _, want := range []string{"Depuis quand avez-vous de la fièvre ?", "AUCUNE_ERREUR", "TERMINOLOGIE_INCORRECTE", "cas: Syndrome grippal"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestDetector_BuildsErrors(t *testing.T) {
	d, _ := newTestDetector(llm.TextResponse("SYMPTOME_MANQUE, TRUC_INCONNU"))
	msg := "C'est sûrement une grippe"

	res := d.Analyze(context.Background(), msg, "")
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(res.Errors))
	}

	known := res.Errors[0]
	if known.Category != CategoryMissingSymptom {
		t.Errorf("category = %q", known.Category)
	}
	if known.Severity != SeverityMedium {
		t.Errorf("severity = %q, want MOYENNE", known.Severity)
	}
	if known.Context != msg {
		t.Errorf("context = %q, want learner message", known.Context)
	}
	if known.ID == "" || known.ID == res.Errors[1].ID {
		t.Errorf("expected distinct non-empty IDs")
	}

	unknown := res.Errors[1]
	if unknown.Description != "Erreur détectée: TRUC_INCONNU" {
		t.Errorf("description = %q", unknown.Description)
	}
	if unknown.Suggestion != "Réviser les concepts de base" {
		t.Errorf("suggestion = %q", unknown.Suggestion)
	}
}

func TestDetector_ApologyIsNotAClassification(t *testing.T) {
	d, _ := newTestDetector(llm.MockResponse{Err: errors.New("quota")})

	res := d.Analyze(context.Background(), "Bonjour", "")
	if res.ContainsError() {
		t.Fatalf("apology must not produce errors, got %+v", res.Errors)
	}
	if res.Raw != llm.DefaultFallback {
		t.Errorf("raw = %q", res.Raw)
	}
}

func TestDetector_SetsPurpose(t *testing.T) {
	var purposes []string
	gw := llm.NewGateway(nil, llm.GatewayConfig{}, nil)
	gw.OnFallback(func(p string) { purposes = append(purposes, p) })

	NewDetector(gw).Analyze(context.Background(), "x", "")
	if len(purposes) != 1 || purposes[0] != "error-detect" {
		t.Fatalf("purposes = %v", purposes)
	}
}

func TestTaxonomy(t *testing.T) {
	entries := Taxonomy()
	if len(entries) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(entries))
	}
	for _, e := range entries {
		if Lookup(e.Category) == nil {
			t.Errorf("Lookup(%q) = nil", e.Category)
		}
		if e.Description == "" || e.Suggestion == "" {
			t.Errorf("category %q lacks text", e.Category)
		}
	}
	if Lookup("NOPE") != nil {
		t.Error("unknown category should not resolve")
	}
}
