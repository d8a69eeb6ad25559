package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/stores"
	"github.com/openforma/openforma/pkg/telemetry"
)

// Gateway is the structural edit surface. Every operation names the
// version it targets and is refused unless that version is the current
// draft.
type Gateway struct {
	store   stores.Store
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	events  *telemetry.EventPublisher
	now     func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway's logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(g *Gateway) {
		g.log = log.NewComponentLogger("mutation")
	}
}

// WithMetrics sets the gateway's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// WithTracer sets the gateway's tracer.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tracer
	}
}

// WithEvents sets the gateway's event publisher.
func WithEvents(events *telemetry.EventPublisher) Option {
	return func(g *Gateway) {
		g.events = events
	}
}

// WithClock overrides the gateway's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// NewGateway creates a mutation gateway backed by the given store.
// Telemetry is off unless wired in through options.
func NewGateway(store stores.Store, opts ...Option) *Gateway {
	g := &Gateway{
		store: store,
		log:   telemetry.NewNopLogger(),
		now:   time.Now,
	}
	// Disabled constructors cannot fail.
	g.metrics, _ = telemetry.NewMetrics(telemetry.MetricsConfig{})
	g.tracer, _ = telemetry.NewTracer(telemetry.TracingConfig{}, "", "", "")
	g.events, _ = telemetry.NewEventPublisher(telemetry.EventsConfig{})
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// requireDraft loads the targeted version and refuses the operation
// unless it is the current draft. This is the scoping guard that keeps
// published and archived versions immutable.
func (g *Gateway) requireDraft(ctx context.Context, operation, versionID string) (*questionnaire.Version, error) {
	v, err := g.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if !v.IsDraft() {
		return nil, questionnaire.NewInvalidStateError(operation, v.Status)
	}
	return v, nil
}

// CreateQuestion appends a question to a step of the draft. The new
// question always lands at the end of its step's dense order.
func (g *Gateway) CreateQuestion(ctx context.Context, versionID, actor string, payload questionnaire.NewQuestion) (*questionnaire.QuestionTemplate, error) {
	ctx, span := g.tracer.StartMutationSpan(ctx, "create_question", versionID, payload.StepNumber)
	defer span.End()

	if _, err := g.requireDraft(ctx, "createQuestion", versionID); err != nil {
		return nil, g.reject(span, "create_question", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, g.reject(span, "create_question", err)
	}
	if _, err := g.store.GetStep(ctx, versionID, payload.StepNumber); err != nil {
		return nil, g.reject(span, "create_question", err)
	}

	active, err := g.store.GetQuestionsForStep(ctx, versionID, payload.StepNumber)
	if err != nil {
		return nil, g.reject(span, "create_question", err)
	}

	now := g.now().UTC()
	q := &questionnaire.QuestionTemplate{
		ID:               uuid.New().String(),
		VersionID:        versionID,
		StepNumber:       payload.StepNumber,
		PersonaType:      payload.PersonaType,
		QuestionText:     payload.QuestionText,
		QuestionTextEN:   payload.QuestionTextEN,
		HelpText:         payload.HelpText,
		HelpTextEN:       payload.HelpTextEN,
		Type:             payload.Type,
		Order:            AppendPosition(active),
		IsRequired:       payload.IsRequired,
		Section:          payload.Section,
		Options:          payload.Options,
		OptionsEN:        payload.OptionsEN,
		ValidationRules:  payload.ValidationRules,
		ConditionalLogic: payload.ConditionalLogic,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := g.store.CreateQuestion(ctx, q); err != nil {
		return nil, g.reject(span, "create_question", err)
	}

	g.applied(ctx, span, "create_question", telemetry.EventTypeQuestionCreated, versionID, payload.StepNumber, q.ID, actor)
	return g.store.GetQuestion(ctx, versionID, q.ID)
}

// UpdateQuestion applies a partial update to a question of the draft
// and returns the stored row. Flipping is_active adjusts the step's
// dense order: deactivation closes the gap, reactivation appends.
func (g *Gateway) UpdateQuestion(ctx context.Context, versionID, actor, questionID string, patch questionnaire.QuestionPatch) (*questionnaire.QuestionTemplate, error) {
	ctx, span := g.tracer.StartMutationSpan(ctx, "update_question", versionID, 0)
	defer span.End()

	if _, err := g.requireDraft(ctx, "updateQuestion", versionID); err != nil {
		return nil, g.reject(span, "update_question", err)
	}

	current, err := g.store.GetQuestion(ctx, versionID, questionID)
	if err != nil {
		return nil, g.reject(span, "update_question", err)
	}

	merged, err := patch.Apply(*current)
	if err != nil {
		return nil, g.reject(span, "update_question", err)
	}

	updated, err := g.store.UpdateQuestion(ctx, &merged)
	if err != nil {
		return nil, g.reject(span, "update_question", err)
	}

	g.applied(ctx, span, "update_question", telemetry.EventTypeQuestionUpdated, versionID, updated.StepNumber, updated.ID, actor)
	return updated, nil
}

// DeleteQuestion removes a question from the draft. The remaining
// active questions of its step are renumbered to stay dense.
func (g *Gateway) DeleteQuestion(ctx context.Context, versionID, actor, questionID string) error {
	ctx, span := g.tracer.StartMutationSpan(ctx, "delete_question", versionID, 0)
	defer span.End()

	if _, err := g.requireDraft(ctx, "deleteQuestion", versionID); err != nil {
		return g.reject(span, "delete_question", err)
	}

	q, err := g.store.GetQuestion(ctx, versionID, questionID)
	if err != nil {
		return g.reject(span, "delete_question", err)
	}

	if err := g.store.DeleteQuestion(ctx, versionID, questionID); err != nil {
		return g.reject(span, "delete_question", err)
	}

	g.applied(ctx, span, "delete_question", telemetry.EventTypeQuestionDeleted, versionID, q.StepNumber, questionID, actor)
	return nil
}

// ReorderQuestions applies a complete new ordering to one step of the
// draft and returns the step's active questions in their new order. The
// requested ordering must name each active question exactly once.
func (g *Gateway) ReorderQuestions(ctx context.Context, versionID, actor string, stepNumber int, orderedIDs []string) ([]questionnaire.QuestionTemplate, error) {
	ctx, span := g.tracer.StartMutationSpan(ctx, "reorder_questions", versionID, stepNumber)
	defer span.End()

	if _, err := g.requireDraft(ctx, "reorderQuestions", versionID); err != nil {
		return nil, g.reject(span, "reorder_questions", err)
	}
	if _, err := g.store.GetStep(ctx, versionID, stepNumber); err != nil {
		return nil, g.reject(span, "reorder_questions", err)
	}

	active, err := g.store.GetQuestionsForStep(ctx, versionID, stepNumber)
	if err != nil {
		return nil, g.reject(span, "reorder_questions", err)
	}

	mapping, err := ResolveReorder(active, orderedIDs)
	if err != nil {
		return nil, g.reject(span, "reorder_questions", err)
	}

	reordered, err := g.store.ApplyQuestionOrder(ctx, versionID, stepNumber, mapping)
	if err != nil {
		return nil, g.reject(span, "reorder_questions", err)
	}

	g.applied(ctx, span, "reorder_questions", telemetry.EventTypeQuestionsReordered, versionID, stepNumber, "", actor)
	return reordered, nil
}

// UpdateStep applies a partial update to a step's metadata in the draft
// and returns the stored row. Step numbers are not editable.
func (g *Gateway) UpdateStep(ctx context.Context, versionID, actor string, stepNumber int, patch questionnaire.StepPatch) (*questionnaire.Step, error) {
	ctx, span := g.tracer.StartMutationSpan(ctx, "update_step", versionID, stepNumber)
	defer span.End()

	if _, err := g.requireDraft(ctx, "updateStep", versionID); err != nil {
		return nil, g.reject(span, "update_step", err)
	}

	current, err := g.store.GetStep(ctx, versionID, stepNumber)
	if err != nil {
		return nil, g.reject(span, "update_step", err)
	}

	merged, err := patch.Apply(*current)
	if err != nil {
		return nil, g.reject(span, "update_step", err)
	}

	updated, err := g.store.UpdateStep(ctx, &merged)
	if err != nil {
		return nil, g.reject(span, "update_step", err)
	}

	g.applied(ctx, span, "update_step", telemetry.EventTypeStepUpdated, versionID, stepNumber, "", actor)
	return updated, nil
}

// reject records a refused mutation and passes the error through
// unchanged.
func (g *Gateway) reject(span trace.Span, operation string, err error) error {
	kind := "internal"
	var e *questionnaire.Error
	if errors.As(err, &e) {
		kind = string(e.Kind)
	}
	g.metrics.RecordMutationRejected(operation, kind)
	telemetry.RecordError(span, err)
	return err
}

// applied records a successful mutation: metrics, event, audit entry,
// and log line.
func (g *Gateway) applied(ctx context.Context, span trace.Span, operation, eventType, versionID string, stepNumber int, questionID, actor string) {
	g.metrics.RecordMutationApplied(operation)
	if questionID != "" {
		g.events.PublishQuestionMutation(eventType, versionID, stepNumber, questionID, actor)
	} else if eventType == telemetry.EventTypeStepUpdated {
		g.events.PublishStepUpdated(versionID, stepNumber, actor)
	} else {
		g.events.Publish(telemetry.Event{
			ID:         uuid.New().String(),
			Timestamp:  g.now().UTC(),
			Type:       eventType,
			VersionID:  versionID,
			StepNumber: stepNumber,
			Actor:      actor,
		})
	}

	entry := &stores.AuditEntry{
		Action:    eventType,
		Actor:     actor,
		VersionID: &versionID,
		Timestamp: g.now(),
	}
	details := map[string]any{"step_number": stepNumber}
	if questionID != "" {
		details["question_id"] = questionID
	}
	if raw, err := json.Marshal(details); err == nil {
		s := string(raw)
		entry.Details = &s
	}
	if err := g.store.CreateAuditEntry(ctx, entry); err != nil {
		g.log.WithError(err).WithVersionID(versionID).Warn("failed to write audit entry")
	}

	g.log.WithActor(actor).WithVersionID(versionID).WithStepNumber(stepNumber).WithOperation(operation).Info("mutation applied")
	telemetry.RecordSuccess(span)
}
