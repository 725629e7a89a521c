package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the category of a token
type TokenType int

const (
	TOKEN_UNKNOWN    TokenType = iota
	TOKEN_VERB                 // leading lower-case run: find, exists, count...
	TOKEN_WORD                 // camel-case word: By, Building, ContainingAll parts
	TOKEN_NUMBER               // digit run: Top10 -> Top, 10
	TOKEN_UNDERSCORE           // explicit nested-path separator
	TOKEN_EOF
)

// String returns human-readable token type name
func (t TokenType) String() string {
	names := []string{"UNKNOWN", "VERB", "WORD", "NUMBER", "UNDERSCORE", "EOF"}
	if int(t) < len(names) {
		return names[t]
	}
	return "UNKNOWN"
}

// Token represents a single token with position info
type Token struct {
	Type     TokenType
	Value    string
	Position int // byte offset in the method name
	Column   int // 1-indexed
}

// Tokenizer splits a derived method name into camel-case words
type Tokenizer struct {
	input  []rune
	pos    int
	tokens []Token
}

// Tokenize converts a method name such as "findTop10ByAddress_CityOrderByNameDesc"
// into tokens: find Top 10 By Address _ City Order By Name Desc.
func Tokenize(input string) ([]Token, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Message: "empty method name", Column: 1}
	}
	t := &Tokenizer{input: []rune(input)}
	return t.tokenize()
}

func (t *Tokenizer) tokenize() ([]Token, error) {
	// Leading verb.
	start := t.pos
	for t.pos < len(t.input) && unicode.IsLower(t.input[t.pos]) {
		t.pos++
	}
	if t.pos > start {
		t.addToken(TOKEN_VERB, start)
	}

	for t.pos < len(t.input) {
		ch := t.input[t.pos]
		switch {
		case ch == '_':
			start := t.pos
			t.pos++
			t.addToken(TOKEN_UNDERSCORE, start)
		case unicode.IsDigit(ch):
			t.scanNumber()
		case unicode.IsUpper(ch):
			t.scanWord()
		case unicode.IsLower(ch):
			// lower-case run after '_' or a digit continues as its own word
			t.scanWord()
		default:
			tok := Token{Type: TOKEN_UNKNOWN, Value: string(ch), Position: t.pos, Column: t.pos + 1}
			return nil, NewParseError(tok, fmt.Sprintf("unexpected character '%c' in method name", ch))
		}
	}
	t.tokens = append(t.tokens, Token{Type: TOKEN_EOF, Position: t.pos, Column: t.pos + 1})
	return t.tokens, nil
}

func (t *Tokenizer) scanNumber() {
	start := t.pos
	for t.pos < len(t.input) && unicode.IsDigit(t.input[t.pos]) {
		t.pos++
	}
	t.addToken(TOKEN_NUMBER, start)
}

// scanWord reads one camel-case word. An upper-case run followed by a
// lower-case letter ends before its last capital: "URLPath" -> URL, Path.
func (t *Tokenizer) scanWord() {
	start := t.pos
	if unicode.IsUpper(t.input[t.pos]) {
		t.pos++
		upperRun := t.pos
		for upperRun < len(t.input) && unicode.IsUpper(t.input[upperRun]) {
			upperRun++
		}
		if upperRun > t.pos {
			if upperRun < len(t.input) && unicode.IsLower(t.input[upperRun]) {
				upperRun--
			}
			t.pos = upperRun
			if t.pos > start+1 || (t.pos < len(t.input) && !unicode.IsLower(t.input[t.pos])) {
				t.addToken(TOKEN_WORD, start)
				return
			}
		}
	}
	for t.pos < len(t.input) && unicode.IsLower(t.input[t.pos]) {
		t.pos++
	}
	t.addToken(TOKEN_WORD, start)
}

func (t *Tokenizer) addToken(tokenType TokenType, start int) {
	t.tokens = append(t.tokens, Token{
		Type:     tokenType,
		Value:    string(t.input[start:t.pos]),
		Position: start,
		Column:   start + 1,
	})
}

// Join concatenates token values: [Building Type] -> "BuildingType".
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}
