package mirror

import (
	"context"
	"sort"
	"sync"

	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/telemetry"
)

// ActiveFetcher retrieves the server's active snapshot: the draft when
// one exists, otherwise the published version.
type ActiveFetcher interface {
	FetchActive(ctx context.Context) (*questionnaire.Snapshot, error)
}

// FetcherFunc adapts a function to the ActiveFetcher interface.
type FetcherFunc func(ctx context.Context) (*questionnaire.Snapshot, error)

// FetchActive calls f.
func (f FetcherFunc) FetchActive(ctx context.Context) (*questionnaire.Snapshot, error) {
	return f(ctx)
}

// Mirror is a client-side copy of the active version. All methods are
// safe for concurrent use.
//
// Two flags describe the mirror's state. dirty means unpublished local
// edits exist: it is raised by every successfully applied patch and
// cleared when the mirror reloads from the server. stale means the
// mirrored state can no longer be trusted (a patch did not apply
// coherently, or the mirror was never loaded) and a Resync is required.
type Mirror struct {
	mu      sync.RWMutex
	fetcher ActiveFetcher
	log     *telemetry.Logger
	snap    *questionnaire.Snapshot
	dirty   bool
	stale   bool
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the mirror's logger.
func WithLogger(log *telemetry.Logger) Option {
	return func(m *Mirror) {
		m.log = log.NewComponentLogger("mirror")
	}
}

// New creates a mirror that loads from the given fetcher. The mirror is
// empty and stale until the first Load.
func New(fetcher ActiveFetcher, opts ...Option) *Mirror {
	m := &Mirror{
		fetcher: fetcher,
		log:     telemetry.NewNopLogger(),
		stale:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the active snapshot and replaces the mirror's state.
func (m *Mirror) Load(ctx context.Context) error {
	snap, err := m.fetcher.FetchActive(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	m.dirty = false
	m.stale = false
	m.log.WithVersionID(snap.Version.ID).Debug("mirror loaded")
	return nil
}

// Resync discards the mirror's state and reloads from the server. It is
// the recovery path after a patch could not be applied, and the way the
// mirror learns about lifecycle transitions such as a publish.
func (m *Mirror) Resync(ctx context.Context) error {
	return m.Load(ctx)
}

// Snapshot returns a deep copy of the mirrored state, or nil when the
// mirror has never been loaded.
func (m *Mirror) Snapshot() *questionnaire.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone()
}

// Dirty reports whether unpublished local edits exist: at least one
// patch was applied since the mirror last loaded from the server.
func (m *Mirror) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// Stale reports whether the mirror needs a Resync before its state can
// be trusted.
func (m *Mirror) Stale() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stale
}

// VersionID returns the id of the mirrored version, or "" when the
// mirror is empty.
func (m *Mirror) VersionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return ""
	}
	return m.snap.Version.ID
}

// ApplyQuestionCreated patches the mirror with a question returned by
// the server's create operation.
func (m *Mirror) ApplyQuestionCreated(q questionnaire.QuestionTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(q.VersionID) {
		return
	}
	if _, ok := m.snap.QuestionByID(q.ID); ok {
		m.markStale("create patch for a known question id")
		return
	}
	m.snap.Questions = append(m.snap.Questions, q)
	m.dirty = true
}

// ApplyQuestionUpdated patches the mirror with a question returned by
// the server's update operation. An activity flip renumbers the step
// locally the same way the server does: deactivation closes the gap,
// reactivation already carries the appended order.
func (m *Mirror) ApplyQuestionUpdated(q questionnaire.QuestionTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(q.VersionID) {
		return
	}
	current, ok := m.snap.QuestionByID(q.ID)
	if !ok {
		m.markStale("update patch for an unknown question id")
		return
	}

	wasActive := current.IsActive
	prevOrder := current.Order
	*current = q
	m.dirty = true

	if wasActive && !q.IsActive {
		m.closeGap(q.StepNumber, prevOrder)
	}
}

// ApplyQuestionDeleted removes a question from the mirror and renumbers
// its step to stay dense.
func (m *Mirror) ApplyQuestionDeleted(versionID, questionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(versionID) {
		return
	}
	idx := -1
	for i := range m.snap.Questions {
		if m.snap.Questions[i].ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.markStale("delete patch for an unknown question id")
		return
	}

	removed := m.snap.Questions[idx]
	m.snap.Questions = append(m.snap.Questions[:idx], m.snap.Questions[idx+1:]...)
	m.dirty = true
	if removed.IsActive {
		m.closeGap(removed.StepNumber, removed.Order)
	}
}

// ApplyReorder replaces one step's active questions with the server's
// authoritative renumbered rows.
func (m *Mirror) ApplyReorder(versionID string, stepNumber int, questions []questionnaire.QuestionTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(versionID) {
		return
	}
	byID := make(map[string]questionnaire.QuestionTemplate, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	replaced := 0
	for i := range m.snap.Questions {
		q, ok := byID[m.snap.Questions[i].ID]
		if !ok {
			continue
		}
		m.snap.Questions[i] = q
		replaced++
	}
	if replaced != len(questions) {
		m.markStale("reorder patch names questions the mirror does not hold")
		return
	}
	m.dirty = true
}

// ApplyStepUpdated patches the mirror with a step returned by the
// server's update operation.
func (m *Mirror) ApplyStepUpdated(step questionnaire.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(step.VersionID) {
		return
	}
	current, ok := m.snap.StepByNumber(step.StepNumber)
	if !ok {
		m.markStale("step patch for an unknown step number")
		return
	}
	*current = step
	m.dirty = true
}

// matches reports whether a patch targets the mirrored version. A
// mismatch means the client missed a lifecycle transition; the mirror
// is marked stale.
func (m *Mirror) matches(versionID string) bool {
	if m.snap == nil {
		m.stale = true
		return false
	}
	if m.snap.Version.ID != versionID {
		m.markStale("patch for a different version")
		return false
	}
	return true
}

// closeGap shifts active questions of a step down by one position past
// the vacated order.
func (m *Mirror) closeGap(stepNumber, vacatedOrder int) {
	for i := range m.snap.Questions {
		q := &m.snap.Questions[i]
		if q.StepNumber == stepNumber && q.IsActive && q.Order > vacatedOrder {
			q.Order--
		}
	}
}

func (m *Mirror) markStale(reason string) {
	m.stale = true
	m.log.WithField("reason", reason).Warn("mirror out of sync, resync required")
}

// QuestionsForStep returns the mirrored active questions of one step in
// order. It is a convenience over Snapshot for render loops.
func (m *Mirror) QuestionsForStep(stepNumber int) []questionnaire.QuestionTemplate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return nil
	}
	out := []questionnaire.QuestionTemplate{}
	for _, q := range m.snap.Questions {
		if q.StepNumber == stepNumber && q.IsActive {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
