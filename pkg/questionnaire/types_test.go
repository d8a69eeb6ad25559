package questionnaire

import (
	"testing"
	"time"
)

func TestQuestionTypeValid(t *testing.T) {
	for _, typ := range []QuestionType{
		QuestionTypeShortText, QuestionTypeLongText, QuestionTypeSingleChoice,
		QuestionTypeMultipleChoice, QuestionTypeNumber, QuestionTypeCurrency,
		QuestionTypePercentage, QuestionTypeDate, QuestionTypeYesNo, QuestionTypeScale,
	} {
		if !typ.Valid() {
			t.Errorf("%s must be valid", typ)
		}
	}
	if QuestionType("dropdown").Valid() {
		t.Error("unknown type must be invalid")
	}
}

func TestRequiresOptions(t *testing.T) {
	withOptions := []QuestionType{QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeScale}
	for _, typ := range withOptions {
		if !typ.RequiresOptions() {
			t.Errorf("%s must require options", typ)
		}
	}
	if QuestionTypeShortText.RequiresOptions() {
		t.Error("short_text must not require options")
	}
	if QuestionTypeYesNo.RequiresOptions() {
		t.Error("yes_no must not require options")
	}
}

func TestQuestionsForStep(t *testing.T) {
	snap := &Snapshot{
		Questions: []QuestionTemplate{
			{ID: "c", StepNumber: 1, Order: 3, IsActive: true},
			{ID: "a", StepNumber: 1, Order: 1, IsActive: true},
			{ID: "x", StepNumber: 1, Order: 0, IsActive: false},
			{ID: "b", StepNumber: 1, Order: 2, IsActive: true},
			{ID: "other", StepNumber: 2, Order: 1, IsActive: true},
		},
	}

	got := snap.QuestionsForStep(1)
	if len(got) != 3 {
		t.Fatalf("expected 3 active questions, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i+1, want, got[i].ID)
		}
	}
}

func TestSnapshotClone(t *testing.T) {
	num := 2
	notes := "original"
	en := "Profile"
	now := time.Now().UTC()
	src := &Snapshot{
		Version: Version{
			ID:            "v1",
			VersionNumber: &num,
			Status:        StatusPublished,
			Notes:         &notes,
			CreatedAt:     now,
		},
		Steps: []Step{
			{ID: "s1", StepNumber: 1, TitleFR: "Profil", TitleEN: &en},
		},
		Questions: []QuestionTemplate{
			{ID: "q1", StepNumber: 1, QuestionText: "Nom ?", Order: 1, IsActive: true},
		},
	}

	out := src.Clone()

	// Same values...
	if out.Version.VersionNumber == nil || *out.Version.VersionNumber != 2 {
		t.Errorf("version number not copied: %v", out.Version.VersionNumber)
	}
	if out.Steps[0].TitleEN == nil || *out.Steps[0].TitleEN != "Profile" {
		t.Errorf("step EN title not copied: %v", out.Steps[0].TitleEN)
	}

	// ...but no shared memory.
	*out.Version.Notes = "mutated"
	*out.Steps[0].TitleEN = "mutated"
	out.Questions[0].QuestionText = "mutated"
	if notes != "original" {
		t.Error("clone shares the notes pointer")
	}
	if en != "Profile" {
		t.Error("clone shares the step title pointer")
	}
	if src.Questions[0].QuestionText != "Nom ?" {
		t.Error("clone shares the questions slice")
	}
}

func TestSnapshotCloneNil(t *testing.T) {
	var s *Snapshot
	if s.Clone() != nil {
		t.Error("nil snapshot must clone to nil")
	}
}

func TestStepByNumber(t *testing.T) {
	snap := &Snapshot{Steps: []Step{{StepNumber: 1}, {StepNumber: 3}}}

	if _, ok := snap.StepByNumber(3); !ok {
		t.Error("expected to find step 3")
	}
	if _, ok := snap.StepByNumber(2); ok {
		t.Error("must not find step 2")
	}
}
