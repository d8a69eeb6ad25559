package mirror

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/openforma/openforma/pkg/questionnaire"
)

func testSnapshot() *questionnaire.Snapshot {
	versionID := uuid.New().String()
	snap := &questionnaire.Snapshot{
		Version: questionnaire.Version{
			ID:        versionID,
			Status:    questionnaire.StatusDraft,
			CreatedBy: "alice",
		},
		Steps: []questionnaire.Step{{
			ID:         uuid.New().String(),
			VersionID:  versionID,
			StepNumber: 1,
			TitleFR:    "Votre profil",
			IsActive:   true,
		}},
	}
	for i, text := range []string{"Nom ?", "Secteur ?", "Budget ?"} {
		snap.Questions = append(snap.Questions, questionnaire.QuestionTemplate{
			ID:           uuid.New().String(),
			VersionID:    versionID,
			StepNumber:   1,
			QuestionText: text,
			Type:         questionnaire.QuestionTypeShortText,
			Order:        i + 1,
			IsActive:     true,
		})
	}
	return snap
}

func loadedMirror(t *testing.T, snap *questionnaire.Snapshot) *Mirror {
	t.Helper()
	m := New(FetcherFunc(func(context.Context) (*questionnaire.Snapshot, error) {
		return snap, nil
	}))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m
}

func TestMirrorStartsStale(t *testing.T) {
	m := New(FetcherFunc(func(context.Context) (*questionnaire.Snapshot, error) {
		return testSnapshot(), nil
	}))
	if !m.Stale() {
		t.Error("unloaded mirror must be stale")
	}
	if m.Snapshot() != nil {
		t.Error("unloaded mirror must have no snapshot")
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Stale() {
		t.Error("loaded mirror must not be stale")
	}
	if m.Dirty() {
		t.Error("freshly loaded mirror has no unpublished edits")
	}
}

func TestPatchesRaiseDirtyAndResyncClears(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	q := questionnaire.QuestionTemplate{
		ID:           uuid.New().String(),
		VersionID:    src.Version.ID,
		StepNumber:   1,
		QuestionText: "Effectif ?",
		Type:         questionnaire.QuestionTypeNumber,
		Order:        4,
		IsActive:     true,
	}
	m.ApplyQuestionCreated(q)

	if !m.Dirty() {
		t.Fatal("an applied patch must raise the dirty flag: unpublished edits exist")
	}
	if m.Stale() {
		t.Fatal("a coherent patch must not mark the mirror stale")
	}
	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if m.Dirty() {
		t.Error("Resync must clear the dirty flag")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	out := m.Snapshot()
	out.Questions[0].QuestionText = "modified"

	if got := m.Snapshot().Questions[0].QuestionText; got != "Nom ?" {
		t.Errorf("mirror state leaked to caller copy: %q", got)
	}
}

func TestApplyQuestionCreated(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	q := questionnaire.QuestionTemplate{
		ID:           uuid.New().String(),
		VersionID:    src.Version.ID,
		StepNumber:   1,
		QuestionText: "Effectif ?",
		Type:         questionnaire.QuestionTypeNumber,
		Order:        4,
		IsActive:     true,
	}
	m.ApplyQuestionCreated(q)

	if !m.Dirty() {
		t.Fatal("create patch must raise the dirty flag")
	}
	got := m.QuestionsForStep(1)
	if len(got) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(got))
	}
	if got[3].ID != q.ID || got[3].Order != 4 {
		t.Errorf("new question must sit at the end, got %s at order %d", got[3].ID, got[3].Order)
	}
}

func TestApplyQuestionUpdated(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	updated := src.Questions[1]
	updated.QuestionText = "Dans quel secteur travaillez-vous ?"
	m.ApplyQuestionUpdated(updated)

	snap := m.Snapshot()
	q, ok := snap.QuestionByID(updated.ID)
	if !ok {
		t.Fatal("question disappeared")
	}
	if q.QuestionText != updated.QuestionText {
		t.Errorf("expected updated text, got %q", q.QuestionText)
	}
	if q.Order != 2 {
		t.Errorf("update must not move the question, got order %d", q.Order)
	}
}

func TestApplyQuestionDeactivatedClosesGap(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	deactivated := src.Questions[0]
	deactivated.IsActive = false
	deactivated.Order = 0
	m.ApplyQuestionUpdated(deactivated)

	got := m.QuestionsForStep(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 active questions, got %d", len(got))
	}
	if got[0].ID != src.Questions[1].ID || got[0].Order != 1 {
		t.Errorf("gap not closed: %s at order %d", got[0].ID, got[0].Order)
	}
	if got[1].ID != src.Questions[2].ID || got[1].Order != 2 {
		t.Errorf("gap not closed: %s at order %d", got[1].ID, got[1].Order)
	}
}

func TestApplyQuestionDeleted(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	m.ApplyQuestionDeleted(src.Version.ID, src.Questions[1].ID)

	got := m.QuestionsForStep(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Order != 1 || got[1].Order != 2 {
		t.Errorf("delete must renumber, got orders %d and %d", got[0].Order, got[1].Order)
	}
	if got[1].ID != src.Questions[2].ID {
		t.Error("relative order of survivors changed")
	}
}

func TestApplyReorder(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	reordered := []questionnaire.QuestionTemplate{
		src.Questions[2], src.Questions[0], src.Questions[1],
	}
	for i := range reordered {
		reordered[i].Order = i + 1
	}
	m.ApplyReorder(src.Version.ID, 1, reordered)

	if !m.Dirty() {
		t.Fatal("reorder patch must raise the dirty flag")
	}
	if m.Stale() {
		t.Fatal("a complete reorder patch must not mark the mirror stale")
	}
	got := m.QuestionsForStep(1)
	want := []string{src.Questions[2].ID, src.Questions[0].ID, src.Questions[1].ID}
	for i, q := range got {
		if q.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i+1, want[i], q.ID)
		}
	}
}

func TestApplyStepUpdated(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	step := src.Steps[0]
	titleEN := "Your profile"
	step.TitleEN = &titleEN
	m.ApplyStepUpdated(step)

	snap := m.Snapshot()
	got, ok := snap.StepByNumber(1)
	if !ok {
		t.Fatal("step disappeared")
	}
	if got.TitleEN == nil || *got.TitleEN != titleEN {
		t.Errorf("expected EN title, got %v", got.TitleEN)
	}
}

func TestUnknownQuestionPatchMarksStale(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	ghost := questionnaire.QuestionTemplate{
		ID:        uuid.New().String(),
		VersionID: src.Version.ID,
	}
	m.ApplyQuestionUpdated(ghost)

	if !m.Stale() {
		t.Fatal("patch for an unknown question must mark the mirror stale")
	}
	if m.Dirty() {
		t.Error("a refused patch applies no edit")
	}
	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if m.Stale() {
		t.Error("Resync must clear the stale flag")
	}
}

func TestCrossVersionPatchMarksStale(t *testing.T) {
	src := testSnapshot()
	m := loadedMirror(t, src)

	other := src.Questions[0]
	other.VersionID = uuid.New().String()
	m.ApplyQuestionUpdated(other)

	if !m.Stale() {
		t.Error("patch for a different version must mark the mirror stale")
	}
	// The mirrored state itself is untouched.
	if got := m.Snapshot().Questions[0].VersionID; got != src.Version.ID {
		t.Errorf("cross-version patch applied: %s", got)
	}
}

func TestResyncPicksUpNewVersion(t *testing.T) {
	current := testSnapshot()
	m := New(FetcherFunc(func(context.Context) (*questionnaire.Snapshot, error) {
		return current, nil
	}))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first := m.VersionID()

	current = testSnapshot()
	if err := m.Resync(context.Background()); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if m.VersionID() == first {
		t.Error("Resync must replace the mirrored version")
	}
}
