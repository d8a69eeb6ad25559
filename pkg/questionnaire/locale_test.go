package questionnaire

import "testing"

func TestParseLocale(t *testing.T) {
	cases := []struct {
		in   string
		want Locale
		ok   bool
	}{
		{"", LocaleFR, true},
		{"fr", LocaleFR, true},
		{"en", LocaleEN, true},
		{"de", "", false},
		{"FR", "", false},
	}
	for _, c := range cases {
		got, err := ParseLocale(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseLocale(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseLocale(%q) must fail", c.in)
		}
	}
}

func TestLocaleFallback(t *testing.T) {
	en := "What is your name?"
	q := QuestionTemplate{QuestionText: "Quel est votre nom ?", QuestionTextEN: &en}

	if got := q.TextIn(LocaleFR); got != "Quel est votre nom ?" {
		t.Errorf("FR text: %q", got)
	}
	if got := q.TextIn(LocaleEN); got != en {
		t.Errorf("EN text: %q", got)
	}

	// Missing EN falls back to FR.
	bare := QuestionTemplate{QuestionText: "Quel est votre budget ?"}
	if got := bare.TextIn(LocaleEN); got != "Quel est votre budget ?" {
		t.Errorf("EN fallback: %q", got)
	}

	// Empty EN string also falls back.
	empty := ""
	blank := QuestionTemplate{QuestionText: "Secteur ?", QuestionTextEN: &empty}
	if got := blank.TextIn(LocaleEN); got != "Secteur ?" {
		t.Errorf("empty EN fallback: %q", got)
	}
}

func TestStepLocaleHelpers(t *testing.T) {
	titleEN := "Your financing"
	s := Step{TitleFR: "Votre financement", TitleEN: &titleEN}

	if got := s.TitleIn(LocaleEN); got != titleEN {
		t.Errorf("EN title: %q", got)
	}
	if got := s.DescriptionIn(LocaleFR); got != "" {
		t.Errorf("missing description must be empty, got %q", got)
	}

	desc := "Comment financez-vous le projet ?"
	s.DescriptionFR = &desc
	if got := s.DescriptionIn(LocaleEN); got != desc {
		t.Errorf("EN description must fall back to FR, got %q", got)
	}
}
