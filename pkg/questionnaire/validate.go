package questionnaire

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for payload structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// NewQuestion is the payload for creating a question in a draft. Order
// is not part of the payload: new questions are always appended to the
// end of their step.
type NewQuestion struct {
	StepNumber       int          `json:"step_number" validate:"required,min=1"`
	PersonaType      *string      `json:"persona_type,omitempty"`
	QuestionText     string       `json:"question_text" validate:"required"`
	QuestionTextEN   *string      `json:"question_text_en,omitempty"`
	HelpText         *string      `json:"help_text,omitempty"`
	HelpTextEN       *string      `json:"help_text_en,omitempty"`
	Type             QuestionType `json:"question_type" validate:"required"`
	IsRequired       bool         `json:"is_required"`
	Section          *string      `json:"section,omitempty"`
	Options          *string      `json:"options,omitempty"`
	OptionsEN        *string      `json:"options_en,omitempty"`
	ValidationRules  *string      `json:"validation_rules,omitempty"`
	ConditionalLogic *string      `json:"conditional_logic,omitempty"`
}

// Validate checks the payload: struct-level constraints plus the
// type-specific required-field set. Choice and scale questions must
// carry a non-empty options list.
func (n *NewQuestion) Validate() error {
	if err := validate.Struct(n); err != nil {
		return NewValidationError("invalid question payload", err)
	}
	if !n.Type.Valid() {
		return NewValidationError(fmt.Sprintf("unknown question type: %q", n.Type), nil)
	}
	if err := checkOptionsRequirement(n.Type, n.Options); err != nil {
		return err
	}
	return nil
}

// QuestionPatch is a partial update to a question. Nil fields are left
// unchanged; optional text fields are cleared by setting them to the
// empty string.
type QuestionPatch struct {
	PersonaType      *string       `json:"persona_type,omitempty"`
	QuestionText     *string       `json:"question_text,omitempty"`
	QuestionTextEN   *string       `json:"question_text_en,omitempty"`
	HelpText         *string       `json:"help_text,omitempty"`
	HelpTextEN       *string       `json:"help_text_en,omitempty"`
	Type             *QuestionType `json:"question_type,omitempty"`
	IsRequired       *bool         `json:"is_required,omitempty"`
	Section          *string       `json:"section,omitempty"`
	Options          *string       `json:"options,omitempty"`
	OptionsEN        *string       `json:"options_en,omitempty"`
	ValidationRules  *string       `json:"validation_rules,omitempty"`
	ConditionalLogic *string       `json:"conditional_logic,omitempty"`
	IsActive         *bool         `json:"is_active,omitempty"`
}

// Apply merges the patch into a copy of the question and validates the
// merged result. The source question is not modified.
func (p *QuestionPatch) Apply(q QuestionTemplate) (QuestionTemplate, error) {
	if p.PersonaType != nil {
		q.PersonaType = clearable(p.PersonaType)
	}
	if p.QuestionText != nil {
		q.QuestionText = *p.QuestionText
	}
	if p.QuestionTextEN != nil {
		q.QuestionTextEN = clearable(p.QuestionTextEN)
	}
	if p.HelpText != nil {
		q.HelpText = clearable(p.HelpText)
	}
	if p.HelpTextEN != nil {
		q.HelpTextEN = clearable(p.HelpTextEN)
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.IsRequired != nil {
		q.IsRequired = *p.IsRequired
	}
	if p.Section != nil {
		q.Section = clearable(p.Section)
	}
	if p.Options != nil {
		q.Options = clearable(p.Options)
	}
	if p.OptionsEN != nil {
		q.OptionsEN = clearable(p.OptionsEN)
	}
	if p.ValidationRules != nil {
		q.ValidationRules = clearable(p.ValidationRules)
	}
	if p.ConditionalLogic != nil {
		q.ConditionalLogic = clearable(p.ConditionalLogic)
	}
	if p.IsActive != nil {
		q.IsActive = *p.IsActive
	}

	if q.QuestionText == "" {
		return q, NewValidationError("question text is required", nil)
	}
	if !q.Type.Valid() {
		return q, NewValidationError(fmt.Sprintf("unknown question type: %q", q.Type), nil)
	}
	if err := checkOptionsRequirement(q.Type, q.Options); err != nil {
		return q, err
	}
	return q, nil
}

// StepPatch is a partial update to step metadata. Nil fields are left
// unchanged; optional text fields are cleared by the empty string.
type StepPatch struct {
	TitleFR       *string `json:"title_fr,omitempty"`
	TitleEN       *string `json:"title_en,omitempty"`
	DescriptionFR *string `json:"description_fr,omitempty"`
	DescriptionEN *string `json:"description_en,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// Apply merges the patch into a copy of the step and validates the
// merged result.
func (p *StepPatch) Apply(s Step) (Step, error) {
	if p.TitleFR != nil {
		s.TitleFR = *p.TitleFR
	}
	if p.TitleEN != nil {
		s.TitleEN = clearable(p.TitleEN)
	}
	if p.DescriptionFR != nil {
		s.DescriptionFR = clearable(p.DescriptionFR)
	}
	if p.DescriptionEN != nil {
		s.DescriptionEN = clearable(p.DescriptionEN)
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
	if s.TitleFR == "" {
		return s, NewValidationError("step title is required", nil)
	}
	return s, nil
}

func checkOptionsRequirement(t QuestionType, options *string) error {
	if t.RequiresOptions() && (options == nil || *options == "") {
		return NewValidationError(
			fmt.Sprintf("question type %s requires an options list", t), nil)
	}
	return nil
}

// clearable maps an explicit empty string to nil so callers can clear
// optional fields through a patch.
func clearable(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}
