package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by mutations that target a missing row.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// LearnerRecord is the persisted learner identity and profile.
type LearnerRecord struct {
	ID            string
	Name          string
	FirstName     string
	Email         string
	ExpertiseTier string
	Specialty     string
	Domain        string
	AppLevel      string
	RegisteredAt  time.Time
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	ExpertiseTier *string
	Specialty     *string
	Domain        *string
	AppLevel      *string
}

// LearnerRepo manages learner identities.
type LearnerRepo interface {
	// Get returns the learner, or nil if it does not exist.
	Get(ctx context.Context, id string) (*LearnerRecord, error)

	// Create inserts a learner. Creating an existing ID is a no-op.
	Create(ctx context.Context, rec LearnerRecord) error

	// UpdateProfile applies the non-nil fields of upd.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error

	// List returns all learners ordered by registration time.
	List(ctx context.Context) ([]LearnerRecord, error)
}

// CaseRecord is a persisted clinical case.
type CaseRecord struct {
	ID                 string
	Position           int
	Title              string
	Description        string
	ClinicalContext    string
	Symptoms           map[string]string
	CorrectDiagnosis   string
	Differentials      []string
	Difficulty         string
	PatientMentalState string
}

// CaseRepo gives access to the clinical case catalog.
type CaseRepo interface {
	// List returns every case in catalog order.
	List(ctx context.Context) ([]CaseRecord, error)

	// ListByDifficulty returns the cases of one difficulty in catalog order.
	ListByDifficulty(ctx context.Context, difficulty string) ([]CaseRecord, error)

	// Get returns a case by ID, or nil if it does not exist.
	Get(ctx context.Context, id string) (*CaseRecord, error)

	// Upsert inserts or replaces the given cases in one transaction.
	Upsert(ctx context.Context, cases []CaseRecord) error

	// CatalogVersion returns the stored catalog version, or "" if never seeded.
	CatalogVersion(ctx context.Context) (string, error)

	// SetCatalogVersion records the catalog version.
	SetCatalogVersion(ctx context.Context, version string) error
}

// SessionRecord is a persisted consultation session header.
type SessionRecord struct {
	ID                string
	LearnerID         string
	LevelID           string
	CaseID            string
	CaseTitle         string
	Objective         string
	StarScore         int
	State             string
	StartedAt         time.Time
	EndedAt           *time.Time
	ProposedDiagnosis *string
	DiagnosisCorrect  bool
	FirstTime         bool
	Feedback          string
}

// InteractionRecord is one persisted turn of a session.
type InteractionRecord struct {
	ID            string
	SessionID     string
	Seq           int
	Author        string
	AuthorName    string
	Message       string
	MessageType   string
	ContainsError bool
	Timestamp     time.Time
	Errors        []ErrorRecord
}

// ErrorRecord is a pedagogical error attached to an interaction.
type ErrorRecord struct {
	ID            string
	InteractionID string
	Category      string
	Severity      string
	Description   string
	Context       string
	Suggestion    string
	Corrected     bool
}

// SessionRepo persists sessions together with their history.
type SessionRepo interface {
	// Get returns the session header, or nil if it does not exist.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// ListByLearner returns the learner's sessions, newest first.
	// A limit of 0 returns all of them.
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]SessionRecord, error)

	// CaseTitles returns the distinct case titles the learner has been assigned.
	CaseTitles(ctx context.Context, learnerID string) ([]string, error)

	// Interactions returns the session's turns in sequence order with their errors.
	Interactions(ctx context.Context, sessionID string) ([]InteractionRecord, error)

	// SaveTurn upserts the session header and appends the new turns in a
	// single transaction. Turn sequence numbers must not already exist.
	SaveTurn(ctx context.Context, sess SessionRecord, turns []InteractionRecord) error

	// MarkErrorCorrected flags a pedagogical error as corrected. Returns
	// ErrNotFound if no such error exists.
	MarkErrorCorrected(ctx context.Context, errorID string) error

	// Delete removes a session and, by cascade, its turns and errors.
	Delete(ctx context.Context, id string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates token usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// StarEventData records stars awarded for one turn.
type StarEventData struct {
	SessionID  string
	LearnerID  string
	Stars      int
	ErrorCount int
	Reason     string
}

// StarEvent is a stored star award.
type StarEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	StarEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates LLM usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates LLM usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendStarEvent records a star award.
	AppendStarEvent(ctx context.Context, data StarEventData) error

	// QueryStarEvents returns the star awards of a session in sequence order.
	QueryStarEvents(ctx context.Context, sessionID string) ([]StarEvent, error)
}
