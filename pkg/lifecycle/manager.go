package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/stores"
	"github.com/openforma/openforma/pkg/telemetry"
)

// Manager owns the version lifecycle. It sits between callers and the
// store: it verifies transition preconditions, delegates the atomic
// multi-row work to the store, and emits telemetry and audit records
// for every transition.
type Manager struct {
	store   stores.Store
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	events  *telemetry.EventPublisher
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(m *Manager) {
		m.log = log.NewComponentLogger("lifecycle")
	}
}

// WithMetrics sets the manager's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTracer sets the manager's tracer.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(m *Manager) {
		m.tracer = tracer
	}
}

// WithEvents sets the manager's event publisher.
func WithEvents(events *telemetry.EventPublisher) Option {
	return func(m *Manager) {
		m.events = events
	}
}

// WithClock overrides the manager's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a lifecycle manager backed by the given store.
// Telemetry is off unless wired in through options.
func NewManager(store stores.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   telemetry.NewNopLogger(),
		now:   time.Now,
	}
	// Disabled constructors cannot fail.
	m.metrics, _ = telemetry.NewMetrics(telemetry.MetricsConfig{})
	m.tracer, _ = telemetry.NewTracer(telemetry.TracingConfig{}, "", "", "")
	m.events, _ = telemetry.NewEventPublisher(telemetry.EventsConfig{})
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetActive returns the version the admin surface should display: the
// draft when one exists, otherwise the published version.
func (m *Manager) GetActive(ctx context.Context) (*questionnaire.Snapshot, error) {
	draft, err := m.store.GetDraft(ctx)
	if err == nil {
		return m.loadSnapshot(ctx, draft)
	}
	if !questionnaire.IsNotFound(err) {
		return nil, err
	}

	published, err := m.store.GetPublished(ctx)
	if err != nil {
		if questionnaire.IsNotFound(err) {
			return nil, questionnaire.NewNotFoundError("version", "active")
		}
		return nil, err
	}
	return m.loadSnapshot(ctx, published)
}

// GetPublished returns the live version, fully loaded.
func (m *Manager) GetPublished(ctx context.Context) (*questionnaire.Snapshot, error) {
	published, err := m.store.GetPublished(ctx)
	if err != nil {
		return nil, err
	}
	return m.loadSnapshot(ctx, published)
}

// GetVersion returns one version by id, fully loaded.
func (m *Manager) GetVersion(ctx context.Context, id string) (*questionnaire.Snapshot, error) {
	v, err := m.store.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.loadSnapshot(ctx, v)
}

// History returns every version in the lineage, newest first.
func (m *Manager) History(ctx context.Context) ([]*questionnaire.Version, error) {
	versions, err := m.store.ListVersions(ctx)
	if err != nil {
		return nil, err
	}
	archived := 0
	for _, v := range versions {
		if v.Status == questionnaire.StatusArchived {
			archived++
		}
	}
	m.metrics.SetArchivedVersions(float64(archived))
	return versions, nil
}

// CreateDraft clones the published version into a new mutable draft.
// When nothing has ever been published the draft starts empty. At most
// one draft may exist at a time; a second request is a conflict.
func (m *Manager) CreateDraft(ctx context.Context, actor string, notes *string) (*questionnaire.Snapshot, error) {
	ctx, span := m.tracer.StartSpan(ctx, "lifecycle.create_draft", telemetry.AttrActor.String(actor))
	defer span.End()
	timer := telemetry.NewTimer()

	if _, err := m.store.GetDraft(ctx); err == nil {
		err := questionnaire.NewConflictError("a draft already exists").WithOperation("createDraft")
		telemetry.RecordError(span, err)
		return nil, err
	} else if !questionnaire.IsNotFound(err) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var src *questionnaire.Snapshot
	source := "empty"
	published, err := m.store.GetPublished(ctx)
	switch {
	case err == nil:
		src, err = m.loadSnapshot(ctx, published)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		source = "published"
	case questionnaire.IsNotFound(err):
		// Bootstrap: the very first draft starts with no steps or
		// questions.
	default:
		telemetry.RecordError(span, err)
		return nil, err
	}

	draft, steps, questions := cloneSnapshot(src, actor, notes, m.now())
	if err := m.store.CreateVersion(ctx, draft, steps, questions); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	sourceID := ""
	if src != nil {
		sourceID = src.Version.ID
	}
	m.metrics.RecordDraftCreated(source)
	m.metrics.RecordTransition("create_draft", timer.Duration())
	m.events.PublishDraftCreated(draft.ID, sourceID, actor)
	m.writeAudit(ctx, "draft.created", actor, draft.ID, map[string]any{"source_version_id": sourceID})
	m.log.WithActor(actor).WithVersionID(draft.ID).Info("draft created")
	telemetry.RecordSuccess(span)

	return m.loadSnapshot(ctx, draft)
}

// PublishDraft promotes a draft to published. versionID may name the
// draft explicitly or be empty to mean "the current draft"; naming a
// published or archived version is an invalid-state error. The
// previously published version, if any, is archived in the same
// transaction, and the draft receives the next version number in the
// lineage.
func (m *Manager) PublishDraft(ctx context.Context, versionID, actor string) (*questionnaire.Version, error) {
	ctx, span := m.tracer.StartSpan(ctx, "lifecycle.publish", telemetry.AttrActor.String(actor))
	defer span.End()
	timer := telemetry.NewTimer()

	draft, err := m.resolveDraft(ctx, "publishDraft", versionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	archivedID := ""
	if prev, err := m.store.GetPublished(ctx); err == nil {
		archivedID = prev.ID
	} else if !questionnaire.IsNotFound(err) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	published, err := m.store.PublishVersion(ctx, draft.ID, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	number := 0
	if published.VersionNumber != nil {
		number = *published.VersionNumber
	}
	m.metrics.RecordVersionPublished()
	m.metrics.RecordTransition("publish", timer.Duration())
	m.events.PublishVersionPublished(published.ID, number, archivedID, actor)
	m.writeAudit(ctx, "version.published", actor, published.ID, map[string]any{
		"version_number":      number,
		"archived_version_id": archivedID,
	})
	m.log.WithActor(actor).WithVersionID(published.ID).Infof("published version %d", number)
	telemetry.RecordSuccess(span)

	return published, nil
}

// DiscardDraft deletes a draft and everything it owns. versionID may
// name the draft explicitly or be empty to mean "the current draft".
// The published version is untouched.
func (m *Manager) DiscardDraft(ctx context.Context, versionID, actor string) error {
	ctx, span := m.tracer.StartSpan(ctx, "lifecycle.discard_draft", telemetry.AttrActor.String(actor))
	defer span.End()
	timer := telemetry.NewTimer()

	draft, err := m.resolveDraft(ctx, "discardDraft", versionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := m.store.DeleteVersion(ctx, draft.ID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	m.metrics.RecordDraftDiscarded()
	m.metrics.RecordTransition("discard_draft", timer.Duration())
	m.events.PublishDraftDiscarded(draft.ID, actor)
	m.writeAudit(ctx, "draft.discarded", actor, draft.ID, nil)
	m.log.WithActor(actor).WithVersionID(draft.ID).Info("draft discarded")
	telemetry.RecordSuccess(span)

	return nil
}

// RestoreVersion creates a new draft as a deep clone of a historical
// version. The source version is never modified; restore is clone, not
// rollback. A draft must not already exist.
func (m *Manager) RestoreVersion(ctx context.Context, sourceID, actor string) (*questionnaire.Snapshot, error) {
	ctx, span := m.tracer.StartSpan(ctx, "lifecycle.restore",
		telemetry.AttrActor.String(actor),
		telemetry.AttrVersionID.String(sourceID),
	)
	defer span.End()
	timer := telemetry.NewTimer()

	if _, err := m.store.GetDraft(ctx); err == nil {
		err := questionnaire.NewConflictError("a draft already exists").WithOperation("restoreVersion")
		telemetry.RecordError(span, err)
		return nil, err
	} else if !questionnaire.IsNotFound(err) {
		telemetry.RecordError(span, err)
		return nil, err
	}

	source, err := m.store.GetVersion(ctx, sourceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	src, err := m.loadSnapshot(ctx, source)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	notes := restoreNotes(source)
	draft, steps, questions := cloneSnapshot(src, actor, &notes, m.now())
	if err := m.store.CreateVersion(ctx, draft, steps, questions); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	m.metrics.RecordDraftCreated("restore")
	m.metrics.RecordTransition("restore", timer.Duration())
	m.events.PublishVersionRestored(draft.ID, sourceID, actor)
	m.writeAudit(ctx, "version.restored", actor, draft.ID, map[string]any{"source_version_id": sourceID})
	m.log.WithActor(actor).WithVersionID(draft.ID).WithField("source_version_id", sourceID).Info("version restored into draft")
	telemetry.RecordSuccess(span)

	return m.loadSnapshot(ctx, draft)
}

// resolveDraft locates the draft a transition targets. An empty
// versionID means the current draft; an explicit id must name a
// version in draft status.
func (m *Manager) resolveDraft(ctx context.Context, operation, versionID string) (*questionnaire.Version, error) {
	if versionID == "" {
		draft, err := m.store.GetDraft(ctx)
		if err != nil {
			if questionnaire.IsNotFound(err) {
				err = questionnaire.NewNotFoundError("draft", "").WithOperation(operation)
			}
			return nil, err
		}
		return draft, nil
	}

	v, err := m.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if !v.IsDraft() {
		return nil, questionnaire.NewInvalidStateError(operation, v.Status)
	}
	return v, nil
}

// loadSnapshot assembles a fully loaded snapshot for a version row.
func (m *Manager) loadSnapshot(ctx context.Context, v *questionnaire.Version) (*questionnaire.Snapshot, error) {
	steps, err := m.store.GetSteps(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	questions, err := m.store.GetQuestions(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &questionnaire.Snapshot{
		Version:   *v,
		Steps:     steps,
		Questions: questions,
	}, nil
}

// writeAudit records a transition in the audit log. Audit failures are
// logged and swallowed: the transition itself already committed.
func (m *Manager) writeAudit(ctx context.Context, action, actor, versionID string, details map[string]any) {
	entry := &stores.AuditEntry{
		Action:    action,
		Actor:     actor,
		VersionID: &versionID,
		Timestamp: m.now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			s := string(raw)
			entry.Details = &s
		}
	}
	if err := m.store.CreateAuditEntry(ctx, entry); err != nil {
		m.log.WithError(err).WithVersionID(versionID).Warn("failed to write audit entry")
	}
}

func restoreNotes(source *questionnaire.Version) string {
	if source.VersionNumber != nil {
		return fmt.Sprintf("Restored from version %d", *source.VersionNumber)
	}
	return fmt.Sprintf("Restored from version %s", source.ID)
}
