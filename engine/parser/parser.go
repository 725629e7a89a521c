package parser

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/omniql-engine/redisom/engine/lexer"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

// Parser decomposes one derived method name against an entity schema
type Parser struct {
	method string
	schema *models.EntitySchema
	tokens []lexer.Token
	pos    int
}

// Parse is the package-level entry point for parsing a method name such as
// findByCityAndDescriptionContainingAll into a MethodIntent.
func Parse(method string, s *models.EntitySchema) (*models.MethodIntent, error) {
	p, err := New(method, s)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// New creates a new parser for a method name
func New(method string, s *models.EntitySchema) (*Parser, error) {
	tokens, err := lexer.Tokenize(method)
	if err != nil {
		return nil, err
	}
	// drop EOF
	return &Parser{method: method, schema: s, tokens: tokens[:len(tokens)-1]}, nil
}

// Parse runs the state machine: verb, subject, criteria, order clause.
func (p *Parser) Parse() (*models.MethodIntent, error) {
	verb := p.current()
	if verb.Type != lexer.TOKEN_VERB {
		return nil, lexer.NewParseError(verb, "method name must start with a lower-case verb")
	}
	category, ok := mapping.GetCategory(verb.Value)
	if !ok {
		return nil, lexer.NewUnknownVerbError(verb)
	}
	p.pos++

	intent := &models.MethodIntent{
		Method:   p.method,
		Entity:   p.schema.Name,
		Category: category,
	}

	if err := p.parseSubject(intent); err != nil {
		return nil, err
	}

	criteria, order := p.splitOrderBy()
	if err := p.parseCriteria(intent, criteria); err != nil {
		return nil, err
	}
	if err := p.parseOrder(intent, order); err != nil {
		return nil, err
	}
	return intent, nil
}

// parseSubject consumes everything up to and including "By". Words other
// than First/Top/Distinct/All are descriptive ("findUsersBy") and ignored.
func (p *Parser) parseSubject(intent *models.MethodIntent) error {
	for p.pos < len(p.tokens) {
		tok := p.current()
		if tok.Value == mapping.WordBy {
			p.pos++
			return nil
		}
		if p.atOrderBy(p.pos) {
			return nil
		}
		if limits, ok := mapping.SubjectWords[tok.Value]; ok {
			if tok.Value == "Distinct" {
				intent.Distinct = true
			}
			if limits {
				intent.Limit = 1
				if next, ok := p.peek(1); ok && next.Type == lexer.TOKEN_NUMBER {
					n, err := strconv.Atoi(next.Value)
					if err != nil || n <= 0 {
						return lexer.NewParseError(next, fmt.Sprintf("invalid result limit '%s'", next.Value))
					}
					intent.Limit = n
					p.pos++
				}
			}
		}
		p.pos++
	}
	return nil
}

// splitOrderBy separates criteria tokens from the OrderBy tail.
func (p *Parser) splitOrderBy() (criteria, order []lexer.Token) {
	rest := p.tokens[p.pos:]
	for i := range rest {
		if p.atOrderBy(p.pos + i) {
			return rest[:i], rest[i+2:]
		}
	}
	return rest, nil
}

func (p *Parser) atOrderBy(i int) bool {
	return i+1 < len(p.tokens) &&
		p.tokens[i].Value == mapping.WordOrd &&
		p.tokens[i+1].Value == mapping.WordBy
}

// parseCriteria splits on Or (new group) and And (same group) and parses
// each segment into a part.
func (p *Parser) parseCriteria(intent *models.MethodIntent, tokens []lexer.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	group := 0
	combinator := models.CombinatorAnd
	var segment []lexer.Token

	flush := func(at lexer.Token) error {
		if len(segment) == 0 {
			return lexer.NewParseError(at, "missing property before '"+at.Value+"'")
		}
		part, err := p.parsePart(segment)
		if err != nil {
			return err
		}
		part.Group = group
		part.Combinator = combinator
		intent.Parts = append(intent.Parts, part)
		segment = nil
		return nil
	}

	for _, tok := range tokens {
		switch {
		case tok.Type == lexer.TOKEN_WORD && tok.Value == mapping.WordOr:
			if err := flush(tok); err != nil {
				return err
			}
			group++
			combinator = models.CombinatorOr
		case tok.Type == lexer.TOKEN_WORD && tok.Value == mapping.WordAnd:
			if err := flush(tok); err != nil {
				return err
			}
			combinator = models.CombinatorAnd
		default:
			segment = append(segment, tok)
		}
	}
	end := lexer.Token{Value: "end of method name", Column: len([]rune(p.method)) + 1}
	return flush(end)
}

// parsePart matches operator suffixes longest-first. A suffix only counts
// when the words before it resolve to a property; otherwise the whole
// segment is tried as a plain property.
func (p *Parser) parsePart(segment []lexer.Token) (models.Part, error) {
	for _, kw := range mapping.KeywordWords {
		if len(kw) >= len(segment) || !hasSuffix(segment, kw) {
			continue
		}
		head := segment[:len(segment)-len(kw)]
		if head[len(head)-1].Type == lexer.TOKEN_UNDERSCORE {
			continue
		}
		fd, ok := Resolve(p.schema, head)
		if !ok {
			continue
		}
		pt, _ := mapping.GetPartType(joinWords(kw))
		return p.buildPart(fd, pt)
	}

	if fd, ok := Resolve(p.schema, segment); ok {
		return p.buildPart(fd, mapping.PartSimpleProperty)
	}
	return models.Part{}, &models.PropertyNotFoundError{
		Method:     p.method,
		Entity:     p.schema.Name,
		Segment:    lexer.Join(segment),
		Suggestion: suggestProperty(p.schema, segment),
	}
}

// buildPart applies index inference and checks the clause table so that
// unsupported shapes fail when the method is registered.
func (p *Parser) buildPart(fd *models.FieldDescriptor, pt mapping.PartType) (models.Part, error) {
	if !fd.Indexed() {
		inferred, err := inferIndexType(p.schema, fd, p.method)
		if err != nil {
			return models.Part{}, err
		}
		fd = inferred
	}
	if fd.IndexType == mapping.IndexVector && pt == mapping.PartNear {
		pt = mapping.PartKNN
	}
	if _, ok := mapping.GetClause(fd.IndexType, pt); !ok {
		return models.Part{}, &models.UnsupportedQueryShapeError{
			Field:     fd.Path,
			IndexType: fd.IndexType,
			Part:      pt,
			Reason:    "in method " + p.method,
			Supported: mapping.GetPartsForIndex(fd.IndexType),
		}
	}
	if mapping.NeedsIndexMissing(pt) && !fd.IndexMissing {
		return models.Part{}, &models.UnsupportedQueryShapeError{
			Field:     fd.Path,
			IndexType: fd.IndexType,
			Part:      pt,
			Reason:    "field is not declared indexmissing, in method " + p.method,
		}
	}
	return models.Part{PropertyPath: fd.Path, Field: fd, Type: pt}, nil
}

// inferIndexType treats an unindexed string as TEXT and an unindexed number
// as NUMERIC. Anything else cannot be queried.
func inferIndexType(s *models.EntitySchema, fd *models.FieldDescriptor, method string) (*models.FieldDescriptor, error) {
	switch {
	case fd.Kind == reflect.String:
		return fd.WithIndexType(mapping.IndexText), nil
	case schema.IsNumericKind(fd.Kind):
		return fd.WithIndexType(mapping.IndexNumeric), nil
	}
	return nil, &models.SchemaError{
		Entity: s.Name,
		Field:  fd.Path,
		Reason: fmt.Sprintf("unindexed %s property referenced by %s cannot be queried", fd.Kind, method),
	}
}

// parseOrder reads <Property>[Asc|Desc] pairs after OrderBy.
func (p *Parser) parseOrder(intent *models.MethodIntent, tokens []lexer.Token) error {
	var prop []lexer.Token
	add := func(desc bool, at lexer.Token) error {
		if len(prop) == 0 {
			return lexer.NewParseError(at, "OrderBy without a property")
		}
		fd, ok := Resolve(p.schema, prop)
		if !ok {
			return &models.PropertyNotFoundError{
				Method:     p.method,
				Entity:     p.schema.Name,
				Segment:    lexer.Join(prop),
				Suggestion: suggestProperty(p.schema, prop),
			}
		}
		intent.Sort = append(intent.Sort, models.SortSpec{Field: fd.Alias, Descending: desc})
		prop = nil
		return nil
	}
	for _, tok := range tokens {
		switch tok.Value {
		case mapping.SortAsc:
			if err := add(false, tok); err != nil {
				return err
			}
		case mapping.SortDesc:
			if err := add(true, tok); err != nil {
				return err
			}
		default:
			prop = append(prop, tok)
		}
	}
	if len(prop) > 0 {
		return add(false, prop[len(prop)-1])
	}
	if tokens != nil && len(intent.Sort) == 0 {
		return lexer.NewParseError(lexer.Token{Value: "OrderBy", Column: len([]rune(p.method))}, "OrderBy without a property")
	}
	return nil
}

func (p *Parser) current() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.TOKEN_EOF}
}

func (p *Parser) peek(n int) (lexer.Token, bool) {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n], true
	}
	return lexer.Token{}, false
}

func hasSuffix(segment []lexer.Token, words []string) bool {
	offset := len(segment) - len(words)
	for i, w := range words {
		if segment[offset+i].Value != w {
			return false
		}
	}
	return true
}

func joinWords(words []string) string {
	out := ""
	for _, w := range words {
		out += w
	}
	return out
}
