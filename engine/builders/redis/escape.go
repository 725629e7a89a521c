package redis

import (
	"strings"
	"unicode"
)

// specialChars are reserved by the query language and must be
// backslash-escaped inside unquoted values.
const specialChars = ",.<>{}[]\"':;!@#$%^&*()-+=~|/\\"

// needsQuotes reports whether a TAG value must be wrapped in double quotes:
// any whitespace or a hyphen (UUIDs, "IN-PROGRESS").
func needsQuotes(v string) bool {
	return strings.IndexFunc(v, unicode.IsSpace) >= 0 || strings.Contains(v, "-")
}

// quote wraps v in double quotes. Inside quotes only the quote character
// itself is escaped.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// escapePunct backslash-escapes reserved punctuation. When withSpace is set
// whitespace is escaped as well.
func escapePunct(v string, withSpace bool) string {
	var b strings.Builder
	b.Grow(len(v) + 4)
	for _, r := range v {
		if strings.ContainsRune(specialChars, r) || (withSpace && unicode.IsSpace(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeTag renders a TAG value. Values with whitespace or hyphens are
// quoted; everything else has reserved punctuation backslash-escaped. The two
// strategies are never mixed for one value.
func EscapeTag(v string) string {
	if needsQuotes(v) {
		return quote(v)
	}
	return escapePunct(v, false)
}

// EscapePhrase renders a TEXT value: a quoted exact phrase when it contains
// whitespace, an escaped single term otherwise.
func EscapePhrase(v string) string {
	if strings.IndexFunc(v, unicode.IsSpace) >= 0 {
		return quote(v)
	}
	return escapePunct(v, false)
}

// EscapeToken escapes a value used inside prefix, suffix or fuzzy syntax,
// where quoting is not allowed.
func EscapeToken(v string) string {
	return escapePunct(v, true)
}
