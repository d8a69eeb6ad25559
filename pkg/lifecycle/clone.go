package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/openforma/openforma/pkg/questionnaire"
)

// cloneSnapshot deep-copies a source version into a brand-new draft.
// Every id is regenerated; step numbers and question order are
// preserved so the clone satisfies the same contiguity invariants as
// its source. The source is never modified. Both createDraft and
// restoreVersion go through this one routine so the two paths cannot
// drift apart.
func cloneSnapshot(src *questionnaire.Snapshot, actor string, notes *string, now time.Time) (*questionnaire.Version, []questionnaire.Step, []questionnaire.QuestionTemplate) {
	draft := &questionnaire.Version{
		ID:        uuid.New().String(),
		Status:    questionnaire.StatusDraft,
		Notes:     notes,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if src == nil {
		return draft, nil, nil
	}

	copied := src.Clone()

	steps := make([]questionnaire.Step, len(copied.Steps))
	for i, st := range copied.Steps {
		st.ID = uuid.New().String()
		st.VersionID = draft.ID
		st.CreatedAt = now
		st.UpdatedAt = now
		steps[i] = st
	}

	questions := make([]questionnaire.QuestionTemplate, len(copied.Questions))
	for i, q := range copied.Questions {
		q.ID = uuid.New().String()
		q.VersionID = draft.ID
		q.CreatedAt = now
		q.UpdatedAt = now
		questions[i] = q
	}

	return draft, steps, questions
}
