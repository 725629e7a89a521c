package parser

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/omniql-engine/redisom/engine/lexer"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

// Resolve maps the words of a criteria segment to a field.
//
// An underscore splits an explicit nested path (Address_City). Without one
// the joined words are tried as a top-level property first, then split
// right-to-left wherever a nested struct prefix exists (AddressCity ->
// Address.City).
func Resolve(s *models.EntitySchema, words []lexer.Token) (*models.FieldDescriptor, bool) {
	if len(words) == 0 {
		return nil, false
	}
	if hasUnderscore(words) {
		var parts []string
		var cur []lexer.Token
		for _, w := range words {
			if w.Type == lexer.TOKEN_UNDERSCORE {
				if len(cur) == 0 {
					return nil, false
				}
				parts = append(parts, lexer.Join(cur))
				cur = nil
				continue
			}
			cur = append(cur, w)
		}
		if len(cur) == 0 {
			return nil, false
		}
		parts = append(parts, lexer.Join(cur))
		return lookup(s, strings.Join(parts, "."))
	}
	return resolveFrom(s, "", values(words))
}

func resolveFrom(s *models.EntitySchema, prefix string, words []string) (*models.FieldDescriptor, bool) {
	if fd, ok := lookup(s, prefix+strings.Join(words, "")); ok {
		return fd, true
	}
	for i := len(words) - 1; i > 0; i-- {
		parent := prefix + strings.Join(words[:i], "")
		if !s.HasNested(parent) {
			continue
		}
		if fd, ok := resolveFrom(s, parent+".", words[i:]); ok {
			return fd, true
		}
	}
	return nil, false
}

// lookup tries the Go path, then the storage path, then singular and plural
// forms of the last segment (findBySkill on a Skills collection).
func lookup(s *models.EntitySchema, goPath string) (*models.FieldDescriptor, bool) {
	if fd, ok := s.FieldByGoPath(goPath); ok {
		return fd, true
	}
	if fd, ok := s.Field(storagePath(goPath)); ok {
		return fd, true
	}

	head, last := "", goPath
	if i := strings.LastIndex(goPath, "."); i >= 0 {
		head, last = goPath[:i+1], goPath[i+1:]
	}
	for _, alt := range []string{inflection.Plural(last), inflection.Singular(last)} {
		if alt == last {
			continue
		}
		if fd, ok := s.FieldByGoPath(head + alt); ok {
			return fd, true
		}
	}

	for _, fd := range s.Fields {
		if strings.EqualFold(fd.GoPath, goPath) {
			return fd, true
		}
	}
	return nil, false
}

func storagePath(goPath string) string {
	parts := strings.Split(goPath, ".")
	for i, p := range parts {
		parts[i] = schema.LowerFirst(p)
	}
	return strings.Join(parts, ".")
}

// suggestProperty proposes the closest method-name spelling of a field,
// ignoring any operator suffix the segment ends with.
func suggestProperty(s *models.EntitySchema, segment []lexer.Token) string {
	head := segment
	for _, kw := range mapping.KeywordWords {
		if len(kw) < len(segment) && hasSuffix(segment, kw) {
			head = segment[:len(segment)-len(kw)]
			break
		}
	}
	name := strings.ReplaceAll(lexer.Join(head), "_", "")

	candidates := make([]string, 0, len(s.Fields))
	for _, fd := range s.Fields {
		candidates = append(candidates, strings.ReplaceAll(fd.GoPath, ".", ""))
	}
	return lexer.SuggestSimilar(name, candidates)
}

func hasUnderscore(words []lexer.Token) bool {
	for _, w := range words {
		if w.Type == lexer.TOKEN_UNDERSCORE {
			return true
		}
	}
	return false
}

func values(tokens []lexer.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value
	}
	return out
}
