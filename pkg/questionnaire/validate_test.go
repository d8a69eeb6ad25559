package questionnaire

import "testing"

func strPtr(s string) *string { return &s }

func TestNewQuestionValidate(t *testing.T) {
	valid := NewQuestion{
		StepNumber:   1,
		QuestionText: "Quel est votre nom ?",
		Type:         QuestionTypeShortText,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	cases := map[string]NewQuestion{
		"missing step":   {QuestionText: "X", Type: QuestionTypeShortText},
		"missing text":   {StepNumber: 1, Type: QuestionTypeShortText},
		"missing type":   {StepNumber: 1, QuestionText: "X"},
		"unknown type":   {StepNumber: 1, QuestionText: "X", Type: "dropdown"},
		"choice no opts": {StepNumber: 1, QuestionText: "X", Type: QuestionTypeSingleChoice},
		"scale no opts":  {StepNumber: 1, QuestionText: "X", Type: QuestionTypeScale},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			err := payload.Validate()
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	choice := NewQuestion{
		StepNumber:   1,
		QuestionText: "Forme juridique ?",
		Type:         QuestionTypeSingleChoice,
		Options:      strPtr(`["SARL","SAS"]`),
	}
	if err := choice.Validate(); err != nil {
		t.Errorf("choice with options rejected: %v", err)
	}
}

func TestQuestionPatchApply(t *testing.T) {
	base := QuestionTemplate{
		ID:           "q1",
		StepNumber:   2,
		QuestionText: "Nom ?",
		HelpText:     strPtr("Votre nom complet."),
		Type:         QuestionTypeShortText,
		Order:        1,
		IsActive:     true,
	}

	patch := QuestionPatch{
		QuestionText: strPtr("Quel est votre nom ?"),
		HelpText:     strPtr(""),
	}
	merged, err := patch.Apply(base)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if merged.QuestionText != "Quel est votre nom ?" {
		t.Errorf("text not patched: %s", merged.QuestionText)
	}
	if merged.HelpText != nil {
		t.Errorf("empty string must clear help text, got %v", *merged.HelpText)
	}
	if merged.Order != 1 || merged.StepNumber != 2 {
		t.Error("patch must not touch placement")
	}
	// Source untouched.
	if base.QuestionText != "Nom ?" || base.HelpText == nil {
		t.Error("Apply mutated the source question")
	}
}

func TestQuestionPatchValidatesResult(t *testing.T) {
	base := QuestionTemplate{
		QuestionText: "Nom ?",
		Type:         QuestionTypeShortText,
	}

	empty := QuestionPatch{QuestionText: strPtr("")}
	if _, err := empty.Apply(base); !IsValidation(err) {
		t.Errorf("blank text must fail validation, got %v", err)
	}

	choice := QuestionTypeMultipleChoice
	toChoice := QuestionPatch{Type: &choice}
	if _, err := toChoice.Apply(base); !IsValidation(err) {
		t.Errorf("choice type without options must fail validation, got %v", err)
	}

	withOpts := QuestionPatch{Type: &choice, Options: strPtr(`["A","B"]`)}
	if _, err := withOpts.Apply(base); err != nil {
		t.Errorf("choice type with options rejected: %v", err)
	}
}

func TestStepPatchApply(t *testing.T) {
	base := Step{
		StepNumber:    1,
		TitleFR:       "Profil",
		DescriptionFR: strPtr("Qui êtes-vous ?"),
		IsActive:      true,
	}

	patch := StepPatch{
		TitleEN:       strPtr("Profile"),
		DescriptionFR: strPtr(""),
	}
	merged, err := patch.Apply(base)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if merged.TitleEN == nil || *merged.TitleEN != "Profile" {
		t.Errorf("EN title not patched: %v", merged.TitleEN)
	}
	if merged.DescriptionFR != nil {
		t.Error("empty string must clear the description")
	}
	if merged.TitleFR != "Profil" {
		t.Errorf("unpatched title changed: %s", merged.TitleFR)
	}

	blank := StepPatch{TitleFR: strPtr("")}
	if _, err := blank.Apply(base); !IsValidation(err) {
		t.Errorf("blank FR title must fail validation, got %v", err)
	}
}
