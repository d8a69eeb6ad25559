package questionnaire

import (
	"sort"
	"time"
)

// VersionStatus represents the lifecycle state of a questionnaire version.
type VersionStatus string

const (
	// StatusDraft is the single mutable working copy of the questionnaire.
	StatusDraft VersionStatus = "draft"

	// StatusPublished is the single live version consumed by end users.
	StatusPublished VersionStatus = "published"

	// StatusArchived is an immutable historical version retained for
	// audit and restore.
	StatusArchived VersionStatus = "archived"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s VersionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// QuestionType enumerates the supported question input kinds.
type QuestionType string

const (
	QuestionTypeShortText      QuestionType = "short_text"
	QuestionTypeLongText       QuestionType = "long_text"
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeNumber         QuestionType = "number"
	QuestionTypeCurrency       QuestionType = "currency"
	QuestionTypePercentage     QuestionType = "percentage"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeYesNo          QuestionType = "yes_no"
	QuestionTypeScale          QuestionType = "scale"
)

// questionTypes is the exhaustive set of valid question types.
var questionTypes = map[QuestionType]bool{
	QuestionTypeShortText:      true,
	QuestionTypeLongText:       true,
	QuestionTypeSingleChoice:   true,
	QuestionTypeMultipleChoice: true,
	QuestionTypeNumber:         true,
	QuestionTypeCurrency:       true,
	QuestionTypePercentage:     true,
	QuestionTypeDate:           true,
	QuestionTypeYesNo:          true,
	QuestionTypeScale:          true,
}

// Valid reports whether the question type is a known type.
func (t QuestionType) Valid() bool {
	return questionTypes[t]
}

// RequiresOptions reports whether questions of this type must carry a
// serialized options list.
func (t QuestionType) RequiresOptions() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeScale:
		return true
	}
	return false
}

// Version is one entry in the questionnaire lineage.
type Version struct {
	// ID is the unique identifier for this version.
	ID string `json:"id"`

	// VersionNumber is assigned at publish time and is strictly
	// increasing across the lineage. Nil while the version is a draft.
	VersionNumber *int `json:"version_number,omitempty"`

	// Status is the lifecycle state (draft, published, archived).
	Status VersionStatus `json:"status"`

	// Notes is optional free text describing the version.
	Notes *string `json:"notes,omitempty"`

	// CreatedBy is the actor that created this version.
	CreatedBy string `json:"created_by"`

	// PublishedBy is the actor that published this version, if published.
	PublishedBy *string `json:"published_by,omitempty"`

	// PublishedAt is set exactly once, when the version is published.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// QuestionCount is derived from the version's active questions.
	QuestionCount int `json:"question_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDraft reports whether this version is the mutable working copy.
func (v *Version) IsDraft() bool {
	return v.Status == StatusDraft
}

// Step is one page of the questionnaire wizard, owned by exactly one
// version. Step numbers are 1-based, unique within the version, and
// stable across clones.
type Step struct {
	ID            string  `json:"id"`
	VersionID     string  `json:"version_id"`
	StepNumber    int     `json:"step_number"`
	TitleFR       string  `json:"title_fr"`
	TitleEN       *string `json:"title_en,omitempty"`
	DescriptionFR *string `json:"description_fr,omitempty"`
	DescriptionEN *string `json:"description_en,omitempty"`
	IsActive      bool    `json:"is_active"`

	// QuestionCount is derived from the step's active questions.
	QuestionCount int `json:"question_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionTemplate is a single question owned by one version and
// attached to one of its steps. Order is dense (1..N, no gaps or
// duplicates) within (VersionID, StepNumber) over active questions.
type QuestionTemplate struct {
	ID        string `json:"id"`
	VersionID string `json:"version_id"`

	// StepNumber associates the question with a step of the same version.
	StepNumber int `json:"step_number"`

	// PersonaType restricts the question to one persona. Nil applies the
	// question to every persona.
	PersonaType *string `json:"persona_type,omitempty"`

	QuestionText   string  `json:"question_text"`
	QuestionTextEN *string `json:"question_text_en,omitempty"`
	HelpText       *string `json:"help_text,omitempty"`
	HelpTextEN     *string `json:"help_text_en,omitempty"`

	Type QuestionType `json:"question_type"`

	// Order is the 1-based position within the step. Inactive questions
	// carry order 0 and sit outside the dense sequence.
	Order int `json:"order"`

	IsRequired bool `json:"is_required"`

	// Section is a free-text grouping label within the step.
	Section *string `json:"section,omitempty"`

	// Options and OptionsEN are serialized option lists, required for
	// choice and scale types. Opaque to the engine.
	Options   *string `json:"options,omitempty"`
	OptionsEN *string `json:"options_en,omitempty"`

	// ValidationRules and ConditionalLogic are opaque rule blobs owned
	// by the rendering layer.
	ValidationRules  *string `json:"validation_rules,omitempty"`
	ConditionalLogic *string `json:"conditional_logic,omitempty"`

	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is a fully loaded version: the version row plus all of its
// steps and questions. It is what consumers hold in memory and what the
// clone routine copies from.
type Snapshot struct {
	Version   Version            `json:"version"`
	Steps     []Step             `json:"steps"`
	Questions []QuestionTemplate `json:"questions"`
}

// StepByNumber returns the step with the given number, if present.
func (s *Snapshot) StepByNumber(stepNumber int) (*Step, bool) {
	for i := range s.Steps {
		if s.Steps[i].StepNumber == stepNumber {
			return &s.Steps[i], true
		}
	}
	return nil, false
}

// QuestionByID returns the question with the given id, if present.
func (s *Snapshot) QuestionByID(id string) (*QuestionTemplate, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// QuestionsForStep returns the active questions of one step in order.
func (s *Snapshot) QuestionsForStep(stepNumber int) []QuestionTemplate {
	out := []QuestionTemplate{}
	for _, q := range s.Questions {
		if q.StepNumber == stepNumber && q.IsActive {
			out = append(out, q)
		}
	}
	sortQuestionsByOrder(out)
	return out
}

// Clone returns a deep copy of the snapshot. Pointer-typed optional
// fields are re-allocated so the copy shares no memory with the source.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Version:   s.Version,
		Steps:     make([]Step, len(s.Steps)),
		Questions: make([]QuestionTemplate, len(s.Questions)),
	}
	out.Version.VersionNumber = copyIntPtr(s.Version.VersionNumber)
	out.Version.Notes = copyStrPtr(s.Version.Notes)
	out.Version.PublishedBy = copyStrPtr(s.Version.PublishedBy)
	out.Version.PublishedAt = copyTimePtr(s.Version.PublishedAt)
	for i, st := range s.Steps {
		st.TitleEN = copyStrPtr(st.TitleEN)
		st.DescriptionFR = copyStrPtr(st.DescriptionFR)
		st.DescriptionEN = copyStrPtr(st.DescriptionEN)
		out.Steps[i] = st
	}
	for i, q := range s.Questions {
		q.PersonaType = copyStrPtr(q.PersonaType)
		q.QuestionTextEN = copyStrPtr(q.QuestionTextEN)
		q.HelpText = copyStrPtr(q.HelpText)
		q.HelpTextEN = copyStrPtr(q.HelpTextEN)
		q.Section = copyStrPtr(q.Section)
		q.Options = copyStrPtr(q.Options)
		q.OptionsEN = copyStrPtr(q.OptionsEN)
		q.ValidationRules = copyStrPtr(q.ValidationRules)
		q.ConditionalLogic = copyStrPtr(q.ConditionalLogic)
		out.Questions[i] = q
	}
	return out
}

func sortQuestionsByOrder(qs []QuestionTemplate) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
}

func copyStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
