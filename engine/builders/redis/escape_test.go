package redis

import "testing"

func TestEscapeTag(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain word stays unquoted", "REGISTRATION", "REGISTRATION"},
		{"lowercase word", "shoes", "shoes"},
		{"digits", "12345", "12345"},
		{"whitespace is quoted", "IN PROGRESS", `"IN PROGRESS"`},
		{"uuid is quoted", "123e4567-e89b-12d3-a456-426614174000", `"123e4567-e89b-12d3-a456-426614174000"`},
		{"single hyphen is quoted", "IN-PROGRESS", `"IN-PROGRESS"`},
		{"quote inside quoted value", `say "hi" now`, `"say \"hi\" now"`},
		{"punctuation escaped", "john@redis.com", `john\@redis\.com`},
		{"braces escaped", "a{b}", `a\{b\}`},
		{"pipe escaped", "a|b", `a\|b`},
		{"quoted value keeps punctuation raw", "a.b c", `"a.b c"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeTag(tt.value); got != tt.want {
				t.Errorf("EscapeTag(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestEscapeTagNeverMixesStrategies(t *testing.T) {
	values := []string{"a-b.c", "x y@z", "2024-01-01", "tag with - dash"}
	for _, v := range values {
		got := EscapeTag(v)
		if got[0] != '"' || got[len(got)-1] != '"' {
			t.Fatalf("EscapeTag(%q) = %q, want quoted", v, got)
		}
		for i := 1; i < len(got)-1; i++ {
			if got[i] == '\\' && got[i+1] != '"' {
				t.Errorf("EscapeTag(%q) = %q mixes backslash escaping into a quoted value", v, got)
			}
		}
	}
}

func TestEscapePhraseAndToken(t *testing.T) {
	if got := EscapePhrase("Noise-cancelling headphones"); got != `"Noise-cancelling headphones"` {
		t.Errorf("EscapePhrase phrase = %q", got)
	}
	if got := EscapePhrase("wi-fi"); got != `wi\-fi` {
		t.Errorf("EscapePhrase term = %q", got)
	}
	if got := EscapeToken("new york"); got != `new\ york` {
		t.Errorf("EscapeToken = %q", got)
	}
}
