// Package tutor decides how the tutor answers each learner turn: whether
// the consultation is closing, which case is in play, and what the
// generation service is asked to say.
package tutor

import (
	"context"

	"github.com/abhisek/mediz/internal/clinical"
	"github.com/abhisek/mediz/internal/diagnosis"
	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/llm"
	"github.com/abhisek/mediz/internal/transcript"
)

// CaseSelector picks a case for a learner.
type CaseSelector interface {
	Select(ctx context.Context, tier learner.Tier, priorTitles []string) clinical.Case
}

// Input is everything the responder needs for one learner turn.
type Input struct {
	Profile learner.Profile
	Message string

	// Case is the session's current case, nil before the first turn.
	Case *clinical.Case

	// History holds the turns recorded before this message.
	History []transcript.Turn

	Detection   diagnosis.Result
	PriorTitles []string
}

// Output is the responder's decision for one turn.
type Output struct {
	Reply             string
	IsClosing         bool
	ProposedDiagnosis *string

	// Case is the case in play after this turn.
	Case clinical.Case

	// CaseChanged is set when an already assigned case was replaced.
	CaseChanged bool
}

// FeedbackInput feeds the end-of-consultation evaluation.
type FeedbackInput struct {
	Case              clinical.Case
	ProposedDiagnosis *string
	Score             int
	QuestionCount     int
	History           []transcript.Turn
}

// Responder produces tutor replies.
type Responder struct {
	gen      diagnosis.Generator
	selector CaseSelector
	cfg      Config
}

// NewResponder creates a Responder.
func NewResponder(gen diagnosis.Generator, selector CaseSelector, cfg Config) *Responder {
	def := DefaultConfig()
	if cfg.ClosingKeywords == nil {
		cfg.ClosingKeywords = def.ClosingKeywords
	}
	if cfg.HistoryWindow <= 0 || cfg.HistoryWindow > MaxHistoryWindow {
		cfg.HistoryWindow = def.HistoryWindow
	}
	if cfg.FeedbackHistory <= 0 {
		cfg.FeedbackHistory = def.FeedbackHistory
	}
	return &Responder{gen: gen, selector: selector, cfg: cfg}
}

// IsClosing reports whether message ends the consultation.
func (r *Responder) IsClosing(message string) bool {
	return IsClosing(message, r.cfg.ClosingKeywords)
}

// Respond selects the case if needed and asks for the tutor reply.
func (r *Responder) Respond(ctx context.Context, in Input) Output {
	out := Output{IsClosing: r.IsClosing(in.Message)}

	if in.Case == nil || in.Detection.ContainsError() {
		next := r.selector.Select(ctx, in.Profile.Tier, in.PriorTitles)
		out.CaseChanged = in.Case != nil && in.Case.ID != next.ID
		out.Case = next
	} else {
		out.Case = *in.Case
	}

	if out.IsClosing {
		d := ExtractDiagnosis(in.Message, &out.Case)
		out.ProposedDiagnosis = &d
	}

	history := in.History
	if len(history) > r.cfg.HistoryWindow {
		history = history[len(history)-r.cfg.HistoryWindow:]
	}
	prompt, err := buildReplyPrompt(out.Case, in.Profile, history, in.Detection.Errors, in.Message)
	if err != nil {
		out.Reply = r.gen.Fallback()
		return out
	}

	out.Reply = r.gen.Generate(llm.WithPurpose(ctx, llm.PurposeTutorReply), prompt)
	return out
}

// FinalFeedback asks for the closing evaluation of a consultation.
func (r *Responder) FinalFeedback(ctx context.Context, in FeedbackInput) string {
	prompt, err := buildFeedbackPrompt(in, r.cfg.FeedbackHistory)
	if err != nil {
		return r.gen.Fallback()
	}
	return r.gen.Generate(llm.WithPurpose(ctx, llm.PurposeFinalFeedback), prompt)
}
