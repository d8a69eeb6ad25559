package stores

import (
	"context"
	"time"

	"github.com/openforma/openforma/pkg/questionnaire"
)

// QuestionOrder is one entry of an authoritative id-to-order mapping for
// a reorder batch.
type QuestionOrder struct {
	QuestionID string `json:"question_id"`
	Order      int    `json:"order"`
}

// AuditEntry records one lifecycle transition or structural mutation.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"` // e.g. "draft.created", "version.published", "question.deleted"
	Actor     string    `json:"actor"`
	VersionID *string   `json:"version_id,omitempty"`
	Details   *string   `json:"details,omitempty"` // JSON blob
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for the versioning persistence layer. All
// multi-row transitions (clone insertion, publish, delete-and-renumber,
// reorder) are atomic: either every row change applies or none does.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Version operations
	GetDraft(ctx context.Context) (*questionnaire.Version, error)
	GetPublished(ctx context.Context) (*questionnaire.Version, error)
	GetVersion(ctx context.Context, id string) (*questionnaire.Version, error)
	ListVersions(ctx context.Context) ([]*questionnaire.Version, error)

	// CreateVersion inserts a version with all of its steps and questions
	// in one transaction. The single-draft unique index makes the
	// "no existing draft" check atomic: a concurrent insert loses with a
	// conflict error.
	CreateVersion(ctx context.Context, v *questionnaire.Version, steps []questionnaire.Step, questions []questionnaire.QuestionTemplate) error

	// PublishVersion atomically assigns the next version number, archives
	// the currently published version if any, and promotes the draft.
	PublishVersion(ctx context.Context, id, publishedBy string) (*questionnaire.Version, error)

	// DeleteVersion removes a version and all owned steps and questions.
	DeleteVersion(ctx context.Context, id string) error

	// Step operations
	GetSteps(ctx context.Context, versionID string) ([]questionnaire.Step, error)
	GetStep(ctx context.Context, versionID string, stepNumber int) (*questionnaire.Step, error)
	UpdateStep(ctx context.Context, step *questionnaire.Step) (*questionnaire.Step, error)

	// Question operations
	GetQuestions(ctx context.Context, versionID string) ([]questionnaire.QuestionTemplate, error)
	GetQuestionsForStep(ctx context.Context, versionID string, stepNumber int) ([]questionnaire.QuestionTemplate, error)
	GetQuestion(ctx context.Context, versionID, questionID string) (*questionnaire.QuestionTemplate, error)
	CreateQuestion(ctx context.Context, q *questionnaire.QuestionTemplate) error

	// UpdateQuestion persists the given question row. When the active
	// flag changes, the step's dense order is adjusted in the same
	// transaction: deactivation closes the gap, reactivation appends.
	UpdateQuestion(ctx context.Context, q *questionnaire.QuestionTemplate) (*questionnaire.QuestionTemplate, error)

	// DeleteQuestion removes a question and renumbers the remaining
	// active questions of its step in one transaction.
	DeleteQuestion(ctx context.Context, versionID, questionID string) error

	// ApplyQuestionOrder applies a full dense renumbering for one step in
	// one transaction and returns the step's active questions in their
	// new order.
	ApplyQuestionOrder(ctx context.Context, versionID string, stepNumber int, order []QuestionOrder) ([]questionnaire.QuestionTemplate, error)

	// Audit operations
	CreateAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, action *string, actor *string, limit, offset int) ([]*AuditEntry, error)
}
