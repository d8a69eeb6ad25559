package questionnaire

import "fmt"

// Locale selects which language variant of a label to render. French is
// the authoring language; English labels are optional and fall back to
// French when absent. The locale is always passed explicitly at the
// query boundary rather than read from ambient state.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"
)

// ParseLocale parses a locale string, defaulting empty input to French.
func ParseLocale(s string) (Locale, error) {
	switch s {
	case "", "fr":
		return LocaleFR, nil
	case "en":
		return LocaleEN, nil
	}
	return "", fmt.Errorf("unsupported locale: %q", s)
}

// resolve returns the EN variant when requested and present, else the FR
// value.
func resolve(locale Locale, fr string, en *string) string {
	if locale == LocaleEN && en != nil && *en != "" {
		return *en
	}
	return fr
}

func resolveOpt(locale Locale, fr, en *string) string {
	var base string
	if fr != nil {
		base = *fr
	}
	if locale == LocaleEN && en != nil && *en != "" {
		return *en
	}
	return base
}

// TitleIn returns the step title for the given locale.
func (s *Step) TitleIn(locale Locale) string {
	return resolve(locale, s.TitleFR, s.TitleEN)
}

// DescriptionIn returns the step description for the given locale.
func (s *Step) DescriptionIn(locale Locale) string {
	return resolveOpt(locale, s.DescriptionFR, s.DescriptionEN)
}

// TextIn returns the question text for the given locale.
func (q *QuestionTemplate) TextIn(locale Locale) string {
	return resolve(locale, q.QuestionText, q.QuestionTextEN)
}

// HelpTextIn returns the question help text for the given locale.
func (q *QuestionTemplate) HelpTextIn(locale Locale) string {
	return resolveOpt(locale, q.HelpText, q.HelpTextEN)
}

// OptionsIn returns the serialized options list for the given locale.
func (q *QuestionTemplate) OptionsIn(locale Locale) string {
	return resolveOpt(locale, q.Options, q.OptionsEN)
}
