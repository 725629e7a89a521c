package lexer

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/redisom/mapping"
)

// ParseError represents an error with position info
type ParseError struct {
	Message  string
	Position int
	Column   int
	Token    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at column %d: %s", e.Column, e.Message)
}

// NewParseError creates a new parse error
func NewParseError(token Token, message string) *ParseError {
	return &ParseError{
		Message:  message,
		Position: token.Position,
		Column:   token.Column,
		Token:    token.Value,
	}
}

// NewUnknownVerbError creates error with suggestion
func NewUnknownVerbError(token Token) *ParseError {
	msg := fmt.Sprintf("unknown method prefix '%s'", token.Value)
	if suggestion := SuggestSimilar(token.Value, mapping.MethodVerbList()); suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}
	return NewParseError(token, msg)
}

// SuggestSimilar finds the closest candidate within a small edit distance.
// Comparison ignores case; the candidate is returned as given.
func SuggestSimilar(unknown string, candidates []string) string {
	unknown = strings.ToLower(unknown)

	var bestMatch string
	bestDistance := 999
	maxDistance := 2
	if len(unknown) > 8 {
		maxDistance = 3
	}

	for _, c := range candidates {
		dist := levenshtein(unknown, strings.ToLower(c))
		if dist <= maxDistance && dist < bestDistance {
			bestDistance = dist
			bestMatch = c
		}
	}
	return bestMatch
}

// levenshtein calculates edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
