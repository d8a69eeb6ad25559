package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openforma/openforma/pkg/questionnaire"
	"github.com/openforma/openforma/pkg/stores"
)

func setupTestManager(t *testing.T) (*Manager, stores.Store) {
	t.Helper()

	store, err := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewManager(store), store
}

// seedDraft inserts a draft with one step and two active questions
// directly through the store.
func seedDraft(t *testing.T, store stores.Store) *questionnaire.Version {
	t.Helper()

	now := time.Now().UTC()
	v := &questionnaire.Version{
		ID:        uuid.New().String(),
		Status:    questionnaire.StatusDraft,
		CreatedBy: "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}
	steps := []questionnaire.Step{{
		ID:         uuid.New().String(),
		VersionID:  v.ID,
		StepNumber: 1,
		TitleFR:    "Votre profil",
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
	questions := []questionnaire.QuestionTemplate{
		{
			ID:           uuid.New().String(),
			VersionID:    v.ID,
			StepNumber:   1,
			QuestionText: "Quel est votre nom ?",
			Type:         questionnaire.QuestionTypeShortText,
			Order:        1,
			IsRequired:   true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.New().String(),
			VersionID:    v.ID,
			StepNumber:   1,
			QuestionText: "Quel est votre budget ?",
			Type:         questionnaire.QuestionTypeCurrency,
			Order:        2,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	if err := store.CreateVersion(context.Background(), v, steps, questions); err != nil {
		t.Fatalf("failed to seed draft: %v", err)
	}
	return v
}

func TestCreateDraftBootstrap(t *testing.T) {
	mgr, _ := setupTestManager(t)
	ctx := context.Background()

	snap, err := mgr.CreateDraft(ctx, "alice", nil)
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if snap.Version.Status != questionnaire.StatusDraft {
		t.Errorf("expected status draft, got %s", snap.Version.Status)
	}
	if snap.Version.VersionNumber != nil {
		t.Errorf("expected nil version number on draft, got %d", *snap.Version.VersionNumber)
	}
	if len(snap.Steps) != 0 || len(snap.Questions) != 0 {
		t.Errorf("expected empty bootstrap draft, got %d steps and %d questions", len(snap.Steps), len(snap.Questions))
	}
	if snap.Version.CreatedBy != "alice" {
		t.Errorf("expected created_by alice, got %s", snap.Version.CreatedBy)
	}
}

func TestCreateDraftConflict(t *testing.T) {
	mgr, _ := setupTestManager(t)
	ctx := context.Background()

	if _, err := mgr.CreateDraft(ctx, "alice", nil); err != nil {
		t.Fatalf("first CreateDraft failed: %v", err)
	}
	_, err := mgr.CreateDraft(ctx, "bob", nil)
	if !questionnaire.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateDraftClonesPublished(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seeded := seedDraft(t, store)
	if _, err := mgr.PublishDraft(ctx, "", "alice"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	snap, err := mgr.CreateDraft(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if snap.Version.ID == seeded.ID {
		t.Error("clone must not reuse the source version id")
	}
	if snap.Version.VersionNumber != nil {
		t.Error("cloned draft must not carry a version number")
	}
	if len(snap.Steps) != 1 {
		t.Fatalf("expected 1 cloned step, got %d", len(snap.Steps))
	}
	if snap.Steps[0].VersionID != snap.Version.ID {
		t.Error("cloned step must belong to the new draft")
	}
	if len(snap.Questions) != 2 {
		t.Fatalf("expected 2 cloned questions, got %d", len(snap.Questions))
	}
	src, err := mgr.GetVersion(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("failed to load source version: %v", err)
	}
	for _, q := range snap.Questions {
		if _, ok := src.QuestionByID(q.ID); ok {
			t.Errorf("clone reused question id %s", q.ID)
		}
	}
	got := snap.QuestionsForStep(1)
	if got[0].Order != 1 || got[1].Order != 2 {
		t.Errorf("clone must preserve question order, got %d and %d", got[0].Order, got[1].Order)
	}
}

func TestPublishAssignsSequentialNumbers(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, "", "alice")
	if err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if v1.VersionNumber == nil || *v1.VersionNumber != 1 {
		t.Fatalf("expected version number 1, got %v", v1.VersionNumber)
	}
	if v1.PublishedBy == nil || *v1.PublishedBy != "alice" {
		t.Errorf("expected published_by alice, got %v", v1.PublishedBy)
	}
	if v1.PublishedAt == nil {
		t.Error("expected published_at to be set")
	}

	if _, err := mgr.CreateDraft(ctx, "bob", nil); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	v2, err := mgr.PublishDraft(ctx, "", "bob")
	if err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if v2.VersionNumber == nil || *v2.VersionNumber != 2 {
		t.Fatalf("expected version number 2, got %v", v2.VersionNumber)
	}

	prev, err := mgr.GetVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("failed to reload v1: %v", err)
	}
	if prev.Version.Status != questionnaire.StatusArchived {
		t.Errorf("expected v1 archived after second publish, got %s", prev.Version.Status)
	}
	if prev.Version.VersionNumber == nil || *prev.Version.VersionNumber != 1 {
		t.Error("archiving must not change the version number")
	}
}

func TestPublishWithoutDraft(t *testing.T) {
	mgr, _ := setupTestManager(t)

	_, err := mgr.PublishDraft(context.Background(), "", "alice")
	if !questionnaire.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestPublishNamedDraft(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	draft := seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, draft.ID, "alice")
	if err != nil {
		t.Fatalf("publish by id failed: %v", err)
	}
	if v1.ID != draft.ID {
		t.Errorf("expected version %s published, got %s", draft.ID, v1.ID)
	}

	// The id now names a published version; publishing it again is an
	// invalid-state error, not a silent no-op.
	if _, err := mgr.PublishDraft(ctx, draft.ID, "alice"); !questionnaire.IsInvalidState(err) {
		t.Errorf("expected invalid-state error for a published target, got %v", err)
	}
	if _, err := mgr.PublishDraft(ctx, uuid.New().String(), "alice"); !questionnaire.IsNotFound(err) {
		t.Errorf("expected not-found error for an unknown target, got %v", err)
	}
}

func TestDiscardNamedNonDraft(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, "", "alice")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mgr.DiscardDraft(ctx, v1.ID, "alice"); !questionnaire.IsInvalidState(err) {
		t.Errorf("expected invalid-state error discarding a published version, got %v", err)
	}
	if _, err := mgr.GetVersion(ctx, v1.ID); err != nil {
		t.Errorf("refused discard must leave the version in place, got %v", err)
	}
}

func TestDiscardDraft(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, "", "alice")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	draft, err := mgr.CreateDraft(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	if err := mgr.DiscardDraft(ctx, "", "bob"); err != nil {
		t.Fatalf("DiscardDraft failed: %v", err)
	}
	if _, err := mgr.GetVersion(ctx, draft.Version.ID); !questionnaire.IsNotFound(err) {
		t.Fatalf("expected draft gone, got %v", err)
	}

	active, err := mgr.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active.Version.ID != v1.ID {
		t.Error("discard must not touch the published version")
	}
	if len(active.Questions) != 2 {
		t.Errorf("published content lost on discard: %d questions", len(active.Questions))
	}
}

func TestDiscardWithoutDraft(t *testing.T) {
	mgr, _ := setupTestManager(t)

	err := mgr.DiscardDraft(context.Background(), "", "alice")
	if !questionnaire.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetActivePrefersDraft(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	if _, err := mgr.PublishDraft(ctx, "", "alice"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	draft, err := mgr.CreateDraft(ctx, "bob", nil)
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	active, err := mgr.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active.Version.ID != draft.Version.ID {
		t.Errorf("GetActive must prefer the draft, got %s", active.Version.Status)
	}
}

func TestGetActiveEmptyLineage(t *testing.T) {
	mgr, _ := setupTestManager(t)

	_, err := mgr.GetActive(context.Background())
	if !questionnaire.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRestoreVersion(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, "", "alice")
	if err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if _, err := mgr.CreateDraft(ctx, "alice", nil); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if _, err := mgr.PublishDraft(ctx, "", "alice"); err != nil {
		t.Fatalf("second publish failed: %v", err)
	}

	restored, err := mgr.RestoreVersion(ctx, v1.ID, "carol")
	if err != nil {
		t.Fatalf("RestoreVersion failed: %v", err)
	}
	if restored.Version.Status != questionnaire.StatusDraft {
		t.Errorf("restore must produce a draft, got %s", restored.Version.Status)
	}
	if restored.Version.Notes == nil || *restored.Version.Notes != "Restored from version 1" {
		t.Errorf("unexpected restore notes: %v", restored.Version.Notes)
	}
	if len(restored.Questions) != 2 {
		t.Errorf("expected restored content, got %d questions", len(restored.Questions))
	}

	// Restore is clone, not rollback: the source stays archived.
	src, err := mgr.GetVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("failed to reload source: %v", err)
	}
	if src.Version.Status != questionnaire.StatusArchived {
		t.Errorf("source must remain archived, got %s", src.Version.Status)
	}
}

func TestRestoreConflictsWithExistingDraft(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	v1, err := mgr.PublishDraft(ctx, "", "alice")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := mgr.CreateDraft(ctx, "bob", nil); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	_, err = mgr.RestoreVersion(ctx, v1.ID, "carol")
	if !questionnaire.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRestoreUnknownVersion(t *testing.T) {
	mgr, _ := setupTestManager(t)

	_, err := mgr.RestoreVersion(context.Background(), uuid.New().String(), "alice")
	if !questionnaire.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestHistoryOrder(t *testing.T) {
	mgr, store := setupTestManager(t)
	ctx := context.Background()

	seedDraft(t, store)
	if _, err := mgr.PublishDraft(ctx, "", "alice"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := mgr.CreateDraft(ctx, "alice", nil); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if _, err := mgr.PublishDraft(ctx, "", "alice"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if _, err := mgr.CreateDraft(ctx, "bob", nil); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	versions, err := mgr.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	statuses := map[questionnaire.VersionStatus]int{}
	for _, v := range versions {
		statuses[v.Status]++
	}
	if statuses[questionnaire.StatusDraft] != 1 || statuses[questionnaire.StatusPublished] != 1 || statuses[questionnaire.StatusArchived] != 1 {
		t.Errorf("unexpected status distribution: %v", statuses)
	}
}

func TestCloneSnapshotRegeneratesIDs(t *testing.T) {
	now := time.Now().UTC()
	num := 3
	src := &questionnaire.Snapshot{
		Version: questionnaire.Version{
			ID:            uuid.New().String(),
			VersionNumber: &num,
			Status:        questionnaire.StatusArchived,
			CreatedBy:     "alice",
		},
		Steps: []questionnaire.Step{{
			ID:         uuid.New().String(),
			StepNumber: 4,
			TitleFR:    "Financement",
			IsActive:   true,
		}},
		Questions: []questionnaire.QuestionTemplate{{
			ID:           uuid.New().String(),
			StepNumber:   4,
			QuestionText: "Montant demandé ?",
			Type:         questionnaire.QuestionTypeCurrency,
			Order:        1,
			IsActive:     true,
		}},
	}

	draft, steps, questions := cloneSnapshot(src, "bob", nil, now)

	if draft.ID == src.Version.ID {
		t.Error("clone must regenerate the version id")
	}
	if draft.VersionNumber != nil {
		t.Error("clone must not carry the source version number")
	}
	if draft.Status != questionnaire.StatusDraft {
		t.Errorf("clone must be a draft, got %s", draft.Status)
	}
	if draft.CreatedBy != "bob" {
		t.Errorf("expected created_by bob, got %s", draft.CreatedBy)
	}
	if steps[0].ID == src.Steps[0].ID {
		t.Error("clone must regenerate step ids")
	}
	if steps[0].StepNumber != 4 {
		t.Error("clone must preserve step numbers")
	}
	if steps[0].VersionID != draft.ID {
		t.Error("cloned step must point at the new draft")
	}
	if questions[0].ID == src.Questions[0].ID {
		t.Error("clone must regenerate question ids")
	}
	if questions[0].Order != 1 {
		t.Error("clone must preserve question order")
	}
}

func TestCloneSnapshotNilSource(t *testing.T) {
	draft, steps, questions := cloneSnapshot(nil, "alice", nil, time.Now())
	if draft.Status != questionnaire.StatusDraft {
		t.Errorf("expected draft status, got %s", draft.Status)
	}
	if len(steps) != 0 || len(questions) != 0 {
		t.Error("nil source must produce an empty draft")
	}
}
