package validator

import (
	"fmt"
)

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// ValidateQueryString checks that brackets, braces and parentheses balance
// outside quoted phrases and escapes.
func ValidateQueryString(query string) *ValidationResult {
	var stack []int
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(' && len(stack) > 0 && query[stack[len(stack)-1]] == '[':
			// exclusive range bound: [(10 inf]
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, i)
		case closers[c] != 0:
			if len(stack) == 0 || query[stack[len(stack)-1]] != closers[c] {
				return &ValidationResult{
					Error:    fmt.Sprintf("unbalanced '%c'", c),
					Position: i,
					NearText: near(query, i),
				}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inQuote {
		return &ValidationResult{Error: "unterminated quoted phrase", Position: len(query), NearText: near(query, len(query)-1)}
	}
	if len(stack) > 0 {
		pos := stack[len(stack)-1]
		return &ValidationResult{
			Error:    fmt.Sprintf("unclosed '%c'", query[pos]),
			Position: pos,
			NearText: near(query, pos),
		}
	}
	return &ValidationResult{Valid: true}
}

// paramRefs lists the $name parameters a query string references.
func paramRefs(query string) []string {
	var refs []string
	for i := 0; i < len(query); i++ {
		if query[i] == '\\' {
			i++
			continue
		}
		if query[i] != '$' {
			continue
		}
		j := i + 1
		for j < len(query) && isParamChar(query[j]) {
			j++
		}
		if j > i+1 {
			refs = append(refs, query[i+1:j])
		}
		i = j - 1
	}
	return refs
}

func isParamChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func near(query string, pos int) string {
	start, end := max(pos-10, 0), min(pos+10, len(query))
	return query[start:end]
}
