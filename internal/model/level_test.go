package model

import "testing"

func TestParseLevelSpec(t *testing.T) {
	for _, tc := range []struct {
		input    string
		id       int
		typ      PunishType
		duration string
	}{
		{"1=WARN", 1, TypeWarn, ""},
		{"2=KICK", 2, TypeKick, ""},
		{"3=TEMPMUTE:30m", 3, TypeTempMute, "30m"},
		{"4=TEMPBAN:7d", 4, TypeTempBan, "7d"},
		{"5=BAN:perm", 5, TypeBan, "perm"},
		{"  6 = ban : 14d ", 6, TypeBan, "14d"},
		{"7=BAN", 7, TypeBan, ""},
	} {
		spec, err := ParseLevelSpec(tc.input)
		if err != nil {
			t.Fatalf("ParseLevelSpec(%q): %v", tc.input, err)
		}
		if spec.ID != tc.id || spec.Type != tc.typ || spec.Duration != tc.duration {
			t.Errorf("ParseLevelSpec(%q) = %+v, want id=%d type=%s duration=%q",
				tc.input, spec, tc.id, tc.typ, tc.duration)
		}
	}
}

func TestParseLevelSpec_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"3",
		"=BAN",
		"3=",
		"x=BAN",
		"3=FROB",
		"1=WARN:30m", // WARN does not take a duration
		"2=KICK:1h",
	} {
		if _, err := ParseLevelSpec(input); err == nil {
			t.Errorf("ParseLevelSpec(%q): expected error", input)
		}
	}
}

func TestLevelSpecPermanent(t *testing.T) {
	for _, tc := range []struct {
		duration string
		want     bool
	}{
		{"", true},
		{"perm", true},
		{"PERMANENT", true},
		{"30m", false},
		{"7d", false},
	} {
		l := LevelSpec{ID: 1, Type: TypeBan, Duration: tc.duration}
		if got := l.Permanent(); got != tc.want {
			t.Errorf("Permanent(%q) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  Kind
	}{
		{"BAN", KindBan},
		{"TEMPBAN", KindBan},
		{"mute", KindMute},
		{"TEMPMUTE", KindMute},
		{"WARN", KindWarn},
		{"KICK", KindKick},
		{"", ""},
		{"OTHER", ""},
	} {
		if got := ParseKind(tc.input); got != tc.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestKindMutable(t *testing.T) {
	if KindKick.Mutable() {
		t.Error("kicks must not have a removal lifecycle")
	}
	for _, k := range []Kind{KindBan, KindMute, KindWarn} {
		if !k.Mutable() {
			t.Errorf("%s should be mutable", k)
		}
	}
}

func TestCategoryLevel(t *testing.T) {
	c := Category{ID: "griefing", Levels: []LevelSpec{
		{ID: 1, Type: TypeWarn},
		{ID: 2, Type: TypeTempBan, Duration: "1d"},
	}}

	if l, ok := c.Level(2); !ok || l.Type != TypeTempBan {
		t.Errorf("Level(2) = %+v, %v", l, ok)
	}
	if _, ok := c.Level(9); ok {
		t.Error("Level(9) should not exist")
	}
}
