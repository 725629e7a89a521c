package redis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// CLAUSE RENDERING
// ============================================================================

// Render turns one field + operator + operands into a query fragment using
// the closed clause table. Pairs missing from the table fail with
// UnsupportedQueryShapeError.
func Render(fd *models.FieldDescriptor, part mapping.PartType, operands []interface{}) (string, error) {
	tmpl, ok := mapping.GetClause(fd.IndexType, part)
	if !ok {
		return "", Unsupported(fd, part, "")
	}
	if mapping.NeedsIndexMissing(part) && !fd.IndexMissing {
		return "", Unsupported(fd, part, "field is not declared indexmissing")
	}
	if tmpl.Operand == mapping.OperandVector {
		return "", Unsupported(fd, part, "vector clauses wrap the whole filter and are composed by the compiler")
	}
	if len(operands) < tmpl.Arity {
		return "", fmt.Errorf("%s on field '%s' expects %d operand(s), got %d", part, fd.Path, tmpl.Arity, len(operands))
	}

	switch tmpl.Expand {
	case mapping.ExpandValues:
		values := Flatten(operands[0])
		if len(values) == 0 {
			return "", fmt.Errorf("%s on field '%s' needs at least one value", part, fd.Path)
		}
		formatted := make([]string, len(values))
		for i, v := range values {
			s, err := formatOperand(tmpl.Operand, v)
			if err != nil {
				return "", fieldErr(fd, err)
			}
			formatted[i] = s
		}
		return substitute(tmpl.Template, fd.Alias, strings.Join(formatted, tmpl.Join)), nil

	case mapping.ExpandClauses:
		values := Flatten(operands[0])
		if len(values) == 0 {
			return "", fmt.Errorf("%s on field '%s' needs at least one value", part, fd.Path)
		}
		fragments := make([]string, len(values))
		for i, v := range values {
			s, err := formatOperand(tmpl.Operand, v)
			if err != nil {
				return "", fieldErr(fd, err)
			}
			fragments[i] = substitute(tmpl.Template, fd.Alias, s)
		}
		out := strings.Join(fragments, tmpl.Join)
		if tmpl.Group && len(fragments) > 1 {
			out = "(" + out + ")"
		}
		return out, nil
	}

	var params []string
	switch tmpl.Operand {
	case mapping.OperandNone:
	case mapping.OperandGeo:
		center, radius, err := FormatGeo(operands[0], operands[1])
		if err != nil {
			return "", fieldErr(fd, err)
		}
		params = []string{center, radius}
	default:
		params = make([]string, tmpl.Arity)
		for i := 0; i < tmpl.Arity; i++ {
			s, err := formatOperand(tmpl.Operand, operands[i])
			if err != nil {
				return "", fieldErr(fd, err)
			}
			params[i] = s
		}
	}
	return substitute(tmpl.Template, fd.Alias, params...), nil
}

// RenderKNN wraps a pre-filter in the hybrid KNN clause for a vector field.
// An empty filter becomes the wildcard.
func RenderKNN(fd *models.FieldDescriptor, filter string) (string, error) {
	tmpl, ok := mapping.GetClause(fd.IndexType, mapping.PartKNN)
	if !ok {
		return "", Unsupported(fd, mapping.PartKNN, "")
	}
	if strings.TrimSpace(filter) == "" {
		filter = "*"
	}
	r := strings.NewReplacer("$filter", filter, "$field", fd.Alias, "$blob", BlobParam(fd))
	return r.Replace(tmpl.Template), nil
}

// RenderExpr renders an aggregation expression template for a field.
func RenderExpr(expr string, fd *models.FieldDescriptor) string {
	return strings.ReplaceAll(expr, "$field", fd.Alias)
}

// BlobParam names the PARAMS entry holding a field's query vector.
func BlobParam(fd *models.FieldDescriptor) string {
	return fd.Alias + "_blob"
}

// ScoreField names the attribute KNN writes the distance to.
func ScoreField(fd *models.FieldDescriptor) string {
	return "__" + fd.Alias + "_score"
}

// Unsupported builds the error for a missing clause-table entry.
func Unsupported(fd *models.FieldDescriptor, part mapping.PartType, reason string) error {
	return &models.UnsupportedQueryShapeError{
		Field:     fd.Path,
		IndexType: fd.IndexType,
		Part:      part,
		Reason:    reason,
		Supported: mapping.GetPartsForIndex(fd.IndexType),
	}
}

// ErrEmptyOperand is returned for an empty tag or text value, which the
// query syntax cannot express.
var ErrEmptyOperand = errors.New("empty value")

func formatOperand(kind mapping.OperandKind, v interface{}) (string, error) {
	switch kind {
	case mapping.OperandTag, mapping.OperandPhrase, mapping.OperandToken:
		s := FormatScalar(v)
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w for %s clause", ErrEmptyOperand, strings.ToLower(string(kind)))
		}
		switch kind {
		case mapping.OperandTag:
			return EscapeTag(s), nil
		case mapping.OperandPhrase:
			return EscapePhrase(s), nil
		}
		return EscapeToken(s), nil
	case mapping.OperandNumeric:
		return FormatNumeric(v)
	}
	return "", fmt.Errorf("operand kind %s cannot be formatted inline", kind)
}

func substitute(template, alias string, params ...string) string {
	pairs := []string{"$field", alias}
	for i := len(params) - 1; i >= 0; i-- {
		pairs = append(pairs, "$param_"+strconv.Itoa(i), params[i])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func fieldErr(fd *models.FieldDescriptor, err error) error {
	return fmt.Errorf("field '%s': %w", fd.Path, err)
}
