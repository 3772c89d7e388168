package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	lessonsTable     = "lessons"
	resultsTable     = "quiz_results"
	llmRequestsTable = "llm_request_events"
)

var (
	// lessonsColumns holds the lesson texts authored by teachers.
	lessonsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "author_id", Type: field.TypeInt64},
		{Name: "text", Type: field.TypeString, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	lessonsSchema = &schema.Table{
		Name:       lessonsTable,
		Columns:    lessonsColumns,
		PrimaryKey: []*schema.Column{lessonsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "lesson_author_id", Columns: []*schema.Column{lessonsColumns[1]}},
		},
	}

	// resultsColumns holds one row per finished quiz session.
	resultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "session_id", Type: field.TypeString, Unique: true},
		{Name: "learner_id", Type: field.TypeInt64},
		{Name: "lesson_id", Type: field.TypeString, Default: ""},
		{Name: "correct_count", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "score_pct", Type: field.TypeInt},
		{Name: "completed_at", Type: field.TypeTime},
	}
	resultsSchema = &schema.Table{
		Name:       resultsTable,
		Columns:    resultsColumns,
		PrimaryKey: []*schema.Column{resultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizresult_lesson_id", Columns: []*schema.Column{resultsColumns[4]}},
			{Name: "quizresult_learner_id", Columns: []*schema.Column{resultsColumns[3]}},
		},
	}

	// llmRequestsColumns records every LLM API call for cost tracking and
	// debugging.
	llmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "lesson_id", Type: field.TypeString, Default: ""},
	}
	llmRequestsSchema = &schema.Table{
		Name:       llmRequestsTable,
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestsColumns[5]}},
			{Name: "llmrequestevent_model", Columns: []*schema.Column{llmRequestsColumns[4]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmRequestsColumns[2]}},
			{Name: "llmrequestevent_lesson_id", Columns: []*schema.Column{llmRequestsColumns[13]}},
		},
	}

	tables = []*schema.Table{
		lessonsSchema,
		resultsSchema,
		llmRequestsSchema,
	}
)
