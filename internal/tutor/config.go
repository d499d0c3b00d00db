package tutor

// FrenchClosingKeywords end a consultation when found in a French message.
var FrenchClosingKeywords = []string{
	"diagnostic",
	"conclusion",
	"je conclus",
	"prescription",
	"je prescris",
	"ordonnance",
	"je pense que",
	"je pense à",
	"merci",
	"au revoir",
}

// EnglishClosingKeywords end a consultation when found in an English message.
var EnglishClosingKeywords = []string{
	"diagnosis",
	"conclusion",
	"i conclude",
	"prescription",
	"i think it is",
	"thank you",
	"goodbye",
}

// MaxHistoryWindow caps the number of past turns quoted in a reply prompt.
const MaxHistoryWindow = 5

// Config controls the responder.
type Config struct {
	// ClosingKeywords are matched as lowercase substrings of the learner message.
	ClosingKeywords []string

	// HistoryWindow is the number of past turns included in the reply prompt.
	HistoryWindow int

	// FeedbackHistory is the number of past turns included in the final
	// feedback prompt.
	FeedbackHistory int
}

// DefaultConfig returns the French-language defaults.
func DefaultConfig() Config {
	return Config{
		ClosingKeywords: FrenchClosingKeywords,
		HistoryWindow:   MaxHistoryWindow,
		FeedbackHistory: 10,
	}
}

// KeywordsForLocale returns the closing keyword list for a locale code.
// Unknown locales get the French list.
func KeywordsForLocale(locale string) []string {
	if locale == "en" {
		return EnglishClosingKeywords
	}
	return FrenchClosingKeywords
}
