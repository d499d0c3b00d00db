package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions consumed by the ent migrator. Column order matters: the
// repositories select columns in the same order they are declared here.

var (
	// LearnersColumns holds the columns for the "learners" table.
	LearnersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "first_name", Type: field.TypeString},
		{Name: "email", Type: field.TypeString},
		{Name: "expertise_tier", Type: field.TypeString},
		{Name: "specialty", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "app_level", Type: field.TypeString},
		{Name: "registered_at", Type: field.TypeTime},
	}
	// LearnersTable holds the schema information for the "learners" table.
	LearnersTable = &schema.Table{
		Name:       "learners",
		Columns:    LearnersColumns,
		PrimaryKey: []*schema.Column{LearnersColumns[0]},
	}

	// ClinicalCasesColumns holds the columns for the "clinical_cases" table.
	ClinicalCasesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "position", Type: field.TypeInt},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "clinical_context", Type: field.TypeString, Size: 2147483647},
		{Name: "symptoms", Type: field.TypeString, Size: 2147483647},
		{Name: "correct_diagnosis", Type: field.TypeString},
		{Name: "differentials", Type: field.TypeString, Size: 2147483647},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "patient_mental_state", Type: field.TypeString, Size: 2147483647},
	}
	// ClinicalCasesTable holds the schema information for the "clinical_cases" table.
	ClinicalCasesTable = &schema.Table{
		Name:       "clinical_cases",
		Columns:    ClinicalCasesColumns,
		PrimaryKey: []*schema.Column{ClinicalCasesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "clinicalcase_difficulty_position", Columns: []*schema.Column{ClinicalCasesColumns[8], ClinicalCasesColumns[1]}},
		},
	}

	// CatalogMetaColumns holds the columns for the "catalog_meta" table.
	CatalogMetaColumns = []*schema.Column{
		{Name: "meta_key", Type: field.TypeString, Unique: true},
		{Name: "meta_value", Type: field.TypeString},
	}
	// CatalogMetaTable holds the schema information for the "catalog_meta" table.
	CatalogMetaTable = &schema.Table{
		Name:       "catalog_meta",
		Columns:    CatalogMetaColumns,
		PrimaryKey: []*schema.Column{CatalogMetaColumns[0]},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "level_id", Type: field.TypeString},
		{Name: "case_id", Type: field.TypeString},
		{Name: "case_title", Type: field.TypeString},
		{Name: "objective", Type: field.TypeString},
		{Name: "star_score", Type: field.TypeInt},
		{Name: "state", Type: field.TypeString},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "ended_at", Type: field.TypeTime, Nullable: true},
		{Name: "proposed_diagnosis", Type: field.TypeString, Nullable: true},
		{Name: "diagnosis_correct", Type: field.TypeBool},
		{Name: "first_time", Type: field.TypeBool},
		{Name: "feedback", Type: field.TypeString, Size: 2147483647},
		{Name: "learner_id", Type: field.TypeString},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "sessions_learners_sessions",
				Columns:    []*schema.Column{SessionsColumns[13]},
				RefColumns: []*schema.Column{LearnersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "session_learner_id_state", Columns: []*schema.Column{SessionsColumns[13], SessionsColumns[6]}},
		},
	}

	// InteractionsColumns holds the columns for the "interactions" table.
	InteractionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "seq", Type: field.TypeInt},
		{Name: "author", Type: field.TypeString},
		{Name: "author_name", Type: field.TypeString},
		{Name: "message", Type: field.TypeString, Size: 2147483647},
		{Name: "message_type", Type: field.TypeString},
		{Name: "contains_error", Type: field.TypeBool},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
	}
	// InteractionsTable holds the schema information for the "interactions" table.
	InteractionsTable = &schema.Table{
		Name:       "interactions",
		Columns:    InteractionsColumns,
		PrimaryKey: []*schema.Column{InteractionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "interactions_sessions_interactions",
				Columns:    []*schema.Column{InteractionsColumns[8]},
				RefColumns: []*schema.Column{SessionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "interaction_session_id_seq", Unique: true, Columns: []*schema.Column{InteractionsColumns[8], InteractionsColumns[1]}},
		},
	}

	// PedagogicalErrorsColumns holds the columns for the "pedagogical_errors" table.
	PedagogicalErrorsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "category", Type: field.TypeString},
		{Name: "severity", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: 2147483647},
		{Name: "context", Type: field.TypeString, Size: 2147483647},
		{Name: "suggestion", Type: field.TypeString, Size: 2147483647},
		{Name: "corrected", Type: field.TypeBool},
		{Name: "interaction_id", Type: field.TypeString},
	}
	// PedagogicalErrorsTable holds the schema information for the "pedagogical_errors" table.
	PedagogicalErrorsTable = &schema.Table{
		Name:       "pedagogical_errors",
		Columns:    PedagogicalErrorsColumns,
		PrimaryKey: []*schema.Column{PedagogicalErrorsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "pedagogical_errors_interactions_errors",
				Columns:    []*schema.Column{PedagogicalErrorsColumns[7]},
				RefColumns: []*schema.Column{InteractionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "pedagogicalerror_interaction_id", Columns: []*schema.Column{PedagogicalErrorsColumns[7]}},
			{Name: "pedagogicalerror_category", Columns: []*schema.Column{PedagogicalErrorsColumns[1]}},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LlmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LlmRequestEventsColumns[2]}},
		},
	}

	// StarEventsColumns holds the columns for the "star_events" table.
	StarEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "stars", Type: field.TypeInt},
		{Name: "error_count", Type: field.TypeInt},
		{Name: "reason", Type: field.TypeString},
	}
	// StarEventsTable holds the schema information for the "star_events" table.
	StarEventsTable = &schema.Table{
		Name:       "star_events",
		Columns:    StarEventsColumns,
		PrimaryKey: []*schema.Column{StarEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "starevent_session_id", Columns: []*schema.Column{StarEventsColumns[3]}},
			{Name: "starevent_learner_id", Columns: []*schema.Column{StarEventsColumns[4]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LearnersTable,
		ClinicalCasesTable,
		CatalogMetaTable,
		SessionsTable,
		InteractionsTable,
		PedagogicalErrorsTable,
		LlmRequestEventsTable,
		StarEventsTable,
	}
)

func init() {
	SessionsTable.ForeignKeys[0].RefTable = LearnersTable
	InteractionsTable.ForeignKeys[0].RefTable = SessionsTable
	PedagogicalErrorsTable.ForeignKeys[0].RefTable = InteractionsTable
}
