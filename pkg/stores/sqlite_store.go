package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/openforma/openforma/pkg/questionnaire"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
		cfg:  cfg,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; the pool must not
	// open a second one.
	if s.path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(s.cfg.MaxOpenConns)
		db.SetMaxIdleConns(s.cfg.MaxIdleConns)
		db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

const versionColumns = `
	v.id, v.version_number, v.status, v.notes, v.created_by,
	v.published_by, v.published_at, v.created_at, v.updated_at,
	(SELECT COUNT(*) FROM question_templates q
	 WHERE q.version_id = v.id AND q.is_active = 1) AS question_count
`

// GetDraft retrieves the current draft version, if one exists.
func (s *SQLiteStore) GetDraft(ctx context.Context) (*questionnaire.Version, error) {
	return s.getVersionWhere(ctx, "v.status = ?", string(questionnaire.StatusDraft))
}

// GetPublished retrieves the currently published version, if one exists.
func (s *SQLiteStore) GetPublished(ctx context.Context) (*questionnaire.Version, error) {
	return s.getVersionWhere(ctx, "v.status = ?", string(questionnaire.StatusPublished))
}

// GetVersion retrieves a version by ID
func (s *SQLiteStore) GetVersion(ctx context.Context, id string) (*questionnaire.Version, error) {
	return s.getVersionWhere(ctx, "v.id = ?", id)
}

func (s *SQLiteStore) getVersionWhere(ctx context.Context, where string, arg any) (*questionnaire.Version, error) {
	query := `SELECT ` + versionColumns + ` FROM questionnaire_versions v WHERE ` + where

	v, err := scanVersion(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, questionnaire.NewNotFoundError("version", fmt.Sprintf("%v", arg))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return v, nil
}

// ListVersions lists every version of the lineage, newest first.
func (s *SQLiteStore) ListVersions(ctx context.Context) ([]*questionnaire.Version, error) {
	query := `SELECT ` + versionColumns + `
		FROM questionnaire_versions v
		ORDER BY v.created_at DESC, v.id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	versions := []*questionnaire.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	return versions, nil
}

// CreateVersion inserts a version with all of its steps and questions in
// one transaction. A concurrent insert of a second draft loses against
// the single-draft unique index and surfaces as a conflict error.
func (s *SQLiteStore) CreateVersion(ctx context.Context, v *questionnaire.Version, steps []questionnaire.Step, questions []questionnaire.QuestionTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO questionnaire_versions (
			id, version_number, status, notes, created_by,
			published_by, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		nullableInt(v.VersionNumber),
		v.Status,
		v.Notes,
		v.CreatedBy,
		v.PublishedBy,
		v.PublishedAt,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return questionnaire.NewConflictError("a version already occupies the " + string(v.Status) + " slot")
		}
		return fmt.Errorf("failed to create version: %w", err)
	}

	for i := range steps {
		st := &steps[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questionnaire_steps (
				id, version_id, step_number, title_fr, title_en,
				description_fr, description_en, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.VersionID, st.StepNumber, st.TitleFR, st.TitleEN,
			st.DescriptionFR, st.DescriptionEN, st.IsActive, st.CreatedAt, st.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create step %d: %w", st.StepNumber, err)
		}
	}

	for i := range questions {
		q := &questions[i]
		if err := insertQuestion(ctx, tx, q); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version: %w", err)
	}

	return nil
}

// PublishVersion atomically promotes a draft: it assigns the next
// version number, archives the currently published version if any, and
// flips the draft to published. Partial application is impossible; the
// transaction either commits both status changes or neither.
func (s *SQLiteStore) PublishVersion(ctx context.Context, id, publishedBy string) (*questionnaire.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM questionnaire_versions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, questionnaire.NewNotFoundError("version", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version status: %w", err)
	}
	if status != string(questionnaire.StatusDraft) {
		return nil, questionnaire.NewInvalidStateError("publish_draft", questionnaire.VersionStatus(status))
	}

	var maxNumber int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM questionnaire_versions`).Scan(&maxNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read max version number: %w", err)
	}

	now := time.Now().UTC()

	// Demote first so the single-published index never sees two rows.
	_, err = tx.ExecContext(ctx, `
		UPDATE questionnaire_versions
		SET status = ?, updated_at = ?
		WHERE status = ?`,
		questionnaire.StatusArchived, now, questionnaire.StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive published version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE questionnaire_versions
		SET status = ?, version_number = ?, published_by = ?, published_at = ?, updated_at = ?
		WHERE id = ?`,
		questionnaire.StatusPublished, maxNumber+1, publishedBy, now, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to publish version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit publish: %w", err)
	}

	return s.GetVersion(ctx, id)
}

// DeleteVersion deletes a draft; owned steps and questions cascade.
// Published and archived versions form the permanent history and are
// refused at this boundary regardless of what the caller resolved.
func (s *SQLiteStore) DeleteVersion(ctx context.Context, id string) error {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM questionnaire_versions WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return questionnaire.NewNotFoundError("version", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read version status: %w", err)
	}
	if status != string(questionnaire.StatusDraft) {
		return questionnaire.NewInvalidStateError("delete_version", questionnaire.VersionStatus(status))
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM questionnaire_versions WHERE id = ? AND status = ?`,
		id, questionnaire.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return questionnaire.NewNotFoundError("version", id)
	}

	return nil
}

const stepColumns = `
	s.id, s.version_id, s.step_number, s.title_fr, s.title_en,
	s.description_fr, s.description_en, s.is_active, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM question_templates q
	 WHERE q.version_id = s.version_id AND q.step_number = s.step_number
	   AND q.is_active = 1) AS question_count
`

// GetSteps lists all steps of a version ordered by step number.
func (s *SQLiteStore) GetSteps(ctx context.Context, versionID string) ([]questionnaire.Step, error) {
	query := `SELECT ` + stepColumns + `
		FROM questionnaire_steps s
		WHERE s.version_id = ?
		ORDER BY s.step_number ASC`

	rows, err := s.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	steps := []questionnaire.Step{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, *st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// GetStep retrieves one step by version and step number.
func (s *SQLiteStore) GetStep(ctx context.Context, versionID string, stepNumber int) (*questionnaire.Step, error) {
	query := `SELECT ` + stepColumns + `
		FROM questionnaire_steps s
		WHERE s.version_id = ? AND s.step_number = ?`

	st, err := scanStep(s.db.QueryRowContext(ctx, query, versionID, stepNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, questionnaire.NewNotFoundError("step", fmt.Sprintf("%s/%d", versionID, stepNumber))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	return st, nil
}

// UpdateStep persists step metadata and returns the stored row.
func (s *SQLiteStore) UpdateStep(ctx context.Context, step *questionnaire.Step) (*questionnaire.Step, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE questionnaire_steps
		SET title_fr = ?, title_en = ?, description_fr = ?, description_en = ?,
		    is_active = ?, updated_at = ?
		WHERE version_id = ? AND step_number = ?`,
		step.TitleFR, step.TitleEN, step.DescriptionFR, step.DescriptionEN,
		step.IsActive, time.Now().UTC(), step.VersionID, step.StepNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update step: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, questionnaire.NewNotFoundError("step", fmt.Sprintf("%s/%d", step.VersionID, step.StepNumber))
	}

	return s.GetStep(ctx, step.VersionID, step.StepNumber)
}

const questionColumns = `
	q.id, q.version_id, q.step_number, q.persona_type, q.question_text,
	q.question_text_en, q.help_text, q.help_text_en, q.question_type,
	q.sort_order, q.is_required, q.section, q.options, q.options_en,
	q.validation_rules, q.conditional_logic, q.is_active, q.created_at, q.updated_at
`

// GetQuestions lists all questions of a version, active and inactive,
// ordered by step then position.
func (s *SQLiteStore) GetQuestions(ctx context.Context, versionID string) ([]questionnaire.QuestionTemplate, error) {
	query := `SELECT ` + questionColumns + `
		FROM question_templates q
		WHERE q.version_id = ?
		ORDER BY q.step_number ASC, q.sort_order ASC, q.created_at ASC`

	return s.queryQuestions(ctx, query, versionID)
}

// GetQuestionsForStep lists the active questions of one step in order.
func (s *SQLiteStore) GetQuestionsForStep(ctx context.Context, versionID string, stepNumber int) ([]questionnaire.QuestionTemplate, error) {
	query := `SELECT ` + questionColumns + `
		FROM question_templates q
		WHERE q.version_id = ? AND q.step_number = ? AND q.is_active = 1
		ORDER BY q.sort_order ASC`

	return s.queryQuestions(ctx, query, versionID, stepNumber)
}

func (s *SQLiteStore) queryQuestions(ctx context.Context, query string, args ...any) ([]questionnaire.QuestionTemplate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []questionnaire.QuestionTemplate{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// GetQuestion retrieves one question scoped to its owning version.
func (s *SQLiteStore) GetQuestion(ctx context.Context, versionID, questionID string) (*questionnaire.QuestionTemplate, error) {
	query := `SELECT ` + questionColumns + `
		FROM question_templates q
		WHERE q.version_id = ? AND q.id = ?`

	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, versionID, questionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, questionnaire.NewNotFoundError("question", questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// CreateQuestion inserts a new question row.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, q *questionnaire.QuestionTemplate) error {
	if err := insertQuestion(ctx, s.db, q); err != nil {
		return err
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertQuestion(ctx context.Context, db execer, q *questionnaire.QuestionTemplate) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO question_templates (
			id, version_id, step_number, persona_type, question_text,
			question_text_en, help_text, help_text_en, question_type,
			sort_order, is_required, section, options, options_en,
			validation_rules, conditional_logic, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.VersionID, q.StepNumber, q.PersonaType, q.QuestionText,
		q.QuestionTextEN, q.HelpText, q.HelpTextEN, q.Type,
		q.Order, q.IsRequired, q.Section, q.Options, q.OptionsEN,
		q.ValidationRules, q.ConditionalLogic, q.IsActive, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// UpdateQuestion persists a question row. When the active flag changes
// the step's dense order is adjusted in the same transaction:
// deactivation parks the row at order 0 and closes the gap, reactivation
// appends the row after the last active question.
func (s *SQLiteStore) UpdateQuestion(ctx context.Context, q *questionnaire.QuestionTemplate) (*questionnaire.QuestionTemplate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var prevOrder int
	var prevActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT sort_order, is_active FROM question_templates WHERE version_id = ? AND id = ?`,
		q.VersionID, q.ID,
	).Scan(&prevOrder, &prevActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, questionnaire.NewNotFoundError("question", q.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read question: %w", err)
	}

	now := time.Now().UTC()
	order := prevOrder

	switch {
	case prevActive && !q.IsActive:
		order = 0
		_, err = tx.ExecContext(ctx, `
			UPDATE question_templates
			SET sort_order = sort_order - 1, updated_at = ?
			WHERE version_id = ? AND step_number = ? AND is_active = 1 AND sort_order > ?`,
			now, q.VersionID, q.StepNumber, prevOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to renumber step after deactivation: %w", err)
		}
	case !prevActive && q.IsActive:
		var activeCount int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM question_templates
			WHERE version_id = ? AND step_number = ? AND is_active = 1`,
			q.VersionID, q.StepNumber,
		).Scan(&activeCount)
		if err != nil {
			return nil, fmt.Errorf("failed to count active questions: %w", err)
		}
		order = activeCount + 1
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE question_templates
		SET persona_type = ?, question_text = ?, question_text_en = ?,
		    help_text = ?, help_text_en = ?, question_type = ?, sort_order = ?,
		    is_required = ?, section = ?, options = ?, options_en = ?,
		    validation_rules = ?, conditional_logic = ?, is_active = ?, updated_at = ?
		WHERE version_id = ? AND id = ?`,
		q.PersonaType, q.QuestionText, q.QuestionTextEN,
		q.HelpText, q.HelpTextEN, q.Type, order,
		q.IsRequired, q.Section, q.Options, q.OptionsEN,
		q.ValidationRules, q.ConditionalLogic, q.IsActive, now,
		q.VersionID, q.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit question update: %w", err)
	}

	return s.GetQuestion(ctx, q.VersionID, q.ID)
}

// DeleteQuestion removes a question and renumbers the remaining active
// questions of its step in one transaction, preserving contiguity.
func (s *SQLiteStore) DeleteQuestion(ctx context.Context, versionID, questionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stepNumber, order int
	var active bool
	err = tx.QueryRowContext(ctx,
		`SELECT step_number, sort_order, is_active FROM question_templates WHERE version_id = ? AND id = ?`,
		versionID, questionID,
	).Scan(&stepNumber, &order, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return questionnaire.NewNotFoundError("question", questionID)
	}
	if err != nil {
		return fmt.Errorf("failed to read question: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM question_templates WHERE version_id = ? AND id = ?`,
		versionID, questionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	if active {
		_, err = tx.ExecContext(ctx, `
			UPDATE question_templates
			SET sort_order = sort_order - 1, updated_at = ?
			WHERE version_id = ? AND step_number = ? AND is_active = 1 AND sort_order > ?`,
			time.Now().UTC(), versionID, stepNumber, order,
		)
		if err != nil {
			return fmt.Errorf("failed to renumber step after delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question delete: %w", err)
	}

	return nil
}

// ApplyQuestionOrder applies a full dense renumbering for one step in
// one transaction and returns the step's active questions in their new
// order. The mapping is treated as authoritative; callers validate it
// against the current step contents first.
func (s *SQLiteStore) ApplyQuestionOrder(ctx context.Context, versionID string, stepNumber int, order []QuestionOrder) ([]questionnaire.QuestionTemplate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, entry := range order {
		result, err := tx.ExecContext(ctx, `
			UPDATE question_templates
			SET sort_order = ?, updated_at = ?
			WHERE version_id = ? AND step_number = ? AND id = ? AND is_active = 1`,
			entry.Order, now, versionID, stepNumber, entry.QuestionID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to apply order for question %s: %w", entry.QuestionID, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return nil, questionnaire.NewNotFoundError("question", entry.QuestionID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reorder: %w", err)
	}

	return s.GetQuestionsForStep(ctx, versionID, stepNumber)
}

// CreateAuditEntry creates a new audit log entry
func (s *SQLiteStore) CreateAuditEntry(ctx context.Context, entry *AuditEntry) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO audit (action, actor, version_id, details, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		entry.Action, entry.Actor, entry.VersionID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// ListAuditEntries lists audit entries with optional filters and pagination
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, action *string, actor *string, limit, offset int) ([]*AuditEntry, error) {
	query := `
		SELECT id, action, actor, version_id, details, timestamp
		FROM audit
		WHERE (? IS NULL OR action = ?)
		  AND (? IS NULL OR actor = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, action, action, actor, actor, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*AuditEntry{}
	for rows.Next() {
		entry := &AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Actor,
			&entry.VersionID,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*questionnaire.Version, error) {
	v := &questionnaire.Version{}
	var number sql.NullInt64
	err := row.Scan(
		&v.ID,
		&number,
		&v.Status,
		&v.Notes,
		&v.CreatedBy,
		&v.PublishedBy,
		&v.PublishedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.QuestionCount,
	)
	if err != nil {
		return nil, err
	}
	if number.Valid {
		n := int(number.Int64)
		v.VersionNumber = &n
	}
	return v, nil
}

func scanStep(row rowScanner) (*questionnaire.Step, error) {
	st := &questionnaire.Step{}
	err := row.Scan(
		&st.ID,
		&st.VersionID,
		&st.StepNumber,
		&st.TitleFR,
		&st.TitleEN,
		&st.DescriptionFR,
		&st.DescriptionEN,
		&st.IsActive,
		&st.CreatedAt,
		&st.UpdatedAt,
		&st.QuestionCount,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func scanQuestion(row rowScanner) (*questionnaire.QuestionTemplate, error) {
	q := &questionnaire.QuestionTemplate{}
	err := row.Scan(
		&q.ID,
		&q.VersionID,
		&q.StepNumber,
		&q.PersonaType,
		&q.QuestionText,
		&q.QuestionTextEN,
		&q.HelpText,
		&q.HelpTextEN,
		&q.Type,
		&q.Order,
		&q.IsRequired,
		&q.Section,
		&q.Options,
		&q.OptionsEN,
		&q.ValidationRules,
		&q.ConditionalLogic,
		&q.IsActive,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
