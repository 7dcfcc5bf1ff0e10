package locale

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]Tag{
		"ru":    Russian,
		"ru-RU": Russian,
		"en":    English,
		"de":    English,
		"":      English,
	}
	for code, want := range cases {
		if got := Normalize(code); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	in := "a_b*c.d!e"
	out := EscapeMarkdown(in)
	for _, ch := range []string{"\\_", "\\*", "\\.", "\\!"} {
		if !strings.Contains(out, ch) {
			t.Fatalf("escaped %q missing in %q", ch, out)
		}
	}
}

func TestCalendarShare(t *testing.T) {
	msg := CalendarShare(English, "Ann", "my_bot", "abc123")
	if !strings.Contains(msg, "Ann") || !strings.Contains(msg, "abc123") {
		t.Fatalf("unexpected share message: %q", msg)
	}

	anon := CalendarShare(Russian, "", "my_bot", "abc123")
	if !strings.Contains(anon, "поделились") {
		t.Fatalf("unexpected anonymous ru message: %q", anon)
	}
}
