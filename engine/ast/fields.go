package ast

import (
	"fmt"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// FIELD HANDLES
// ============================================================================

// lookup finds a field by storage path, query alias or Go path and checks
// its index type.
func lookup(s *models.EntitySchema, path string, want mapping.IndexType) (*models.FieldDescriptor, error) {
	fd, ok := s.Field(path)
	if !ok {
		fd, ok = s.FieldByAlias(path)
	}
	if !ok {
		fd, ok = s.FieldByGoPath(path)
	}
	if !ok {
		return nil, &models.PropertyNotFoundError{Entity: s.Name, Segment: path}
	}
	if fd.IndexType != want {
		return nil, &models.SchemaError{
			Entity: s.Name,
			Field:  fd.Path,
			Reason: fmt.Sprintf("field is indexed as %q, not %s", fd.IndexType, want),
		}
	}
	return fd, nil
}

func values[T any](vs []T) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// TagField builds predicates for a TAG field.
type TagField struct{ fd *models.FieldDescriptor }

// Tag returns the handle for a TAG field of s.
func Tag(s *models.EntitySchema, path string) (TagField, error) {
	fd, err := lookup(s, path, mapping.IndexTag)
	return TagField{fd}, err
}

func (f TagField) Field() *models.FieldDescriptor { return f.fd }
func (f TagField) Alias() string                  { return f.fd.Alias }

func (f TagField) Eq(v string) Node    { return &Equal{Field: f.fd, Value: v} }
func (f TagField) NotEq(v string) Node { return &NotEqual{Field: f.fd, Value: v} }
func (f TagField) In(vs ...string) Node {
	return &In{Field: f.fd, Values: values(vs)}
}
func (f TagField) NotIn(vs ...string) Node {
	return &In{Field: f.fd, Values: values(vs), Negate: true}
}
func (f TagField) Contains(v string) Node { return &Containing{Field: f.fd, Value: v} }
func (f TagField) ContainsAll(vs ...string) Node {
	return &ContainingAll{Field: f.fd, Values: values(vs)}
}
func (f TagField) StartsWith(prefix string) Node { return &StartingWith{Field: f.fd, Prefix: prefix} }
func (f TagField) EndsWith(suffix string) Node   { return &EndingWith{Field: f.fd, Suffix: suffix} }
func (f TagField) IsTrue() Node                  { return &Clause{Field: f.fd, Part: mapping.PartTrue} }
func (f TagField) IsFalse() Node                 { return &Clause{Field: f.fd, Part: mapping.PartFalse} }
func (f TagField) IsMissing() Node               { return &Missing{Field: f.fd} }
func (f TagField) IsPresent() Node               { return &Present{Field: f.fd} }

// TextField builds predicates for a full-text field.
type TextField struct{ fd *models.FieldDescriptor }

// Text returns the handle for a TEXT field of s.
func Text(s *models.EntitySchema, path string) (TextField, error) {
	fd, err := lookup(s, path, mapping.IndexText)
	return TextField{fd}, err
}

func (f TextField) Field() *models.FieldDescriptor { return f.fd }
func (f TextField) Alias() string                  { return f.fd.Alias }

func (f TextField) Eq(v string) Node              { return &Equal{Field: f.fd, Value: v} }
func (f TextField) NotEq(v string) Node           { return &NotEqual{Field: f.fd, Value: v} }
func (f TextField) StartsWith(prefix string) Node { return &StartingWith{Field: f.fd, Prefix: prefix} }
func (f TextField) EndsWith(suffix string) Node   { return &EndingWith{Field: f.fd, Suffix: suffix} }
func (f TextField) Like(pattern string) Node      { return &Like{Field: f.fd, Pattern: pattern} }
func (f TextField) NotLike(pattern string) Node {
	return &Like{Field: f.fd, Pattern: pattern, Negate: true}
}
func (f TextField) In(vs ...string) Node    { return &In{Field: f.fd, Values: values(vs)} }
func (f TextField) NotIn(vs ...string) Node { return &In{Field: f.fd, Values: values(vs), Negate: true} }
func (f TextField) IsMissing() Node         { return &Missing{Field: f.fd} }
func (f TextField) IsPresent() Node         { return &Present{Field: f.fd} }

// NumericField builds range predicates. Values may be any Go number,
// time.Time or numeric string.
type NumericField struct{ fd *models.FieldDescriptor }

// Numeric returns the handle for a NUMERIC field of s.
func Numeric(s *models.EntitySchema, path string) (NumericField, error) {
	fd, err := lookup(s, path, mapping.IndexNumeric)
	return NumericField{fd}, err
}

func (f NumericField) Field() *models.FieldDescriptor { return f.fd }
func (f NumericField) Alias() string                  { return f.fd.Alias }

func (f NumericField) Eq(v interface{}) Node    { return &Equal{Field: f.fd, Value: v} }
func (f NumericField) NotEq(v interface{}) Node { return &NotEqual{Field: f.fd, Value: v} }
func (f NumericField) Between(low, high interface{}) Node {
	return &Between{Field: f.fd, Low: low, High: high}
}
func (f NumericField) Gt(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartGreaterThan, Value: v}
}
func (f NumericField) Ge(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartGreaterThanEqual, Value: v}
}
func (f NumericField) Lt(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartLessThan, Value: v}
}
func (f NumericField) Le(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartLessThanEqual, Value: v}
}
func (f NumericField) Before(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartBefore, Value: v}
}
func (f NumericField) After(v interface{}) Node {
	return &Compare{Field: f.fd, Op: mapping.PartAfter, Value: v}
}
func (f NumericField) In(vs ...interface{}) Node { return &In{Field: f.fd, Values: vs} }
func (f NumericField) IsMissing() Node           { return &Missing{Field: f.fd} }
func (f NumericField) IsPresent() Node           { return &Present{Field: f.fd} }

// GeoField builds radius predicates.
type GeoField struct{ fd *models.FieldDescriptor }

// Geo returns the handle for a GEO field of s.
func Geo(s *models.EntitySchema, path string) (GeoField, error) {
	fd, err := lookup(s, path, mapping.IndexGeo)
	return GeoField{fd}, err
}

func (f GeoField) Field() *models.FieldDescriptor { return f.fd }
func (f GeoField) Alias() string                  { return f.fd.Alias }

func (f GeoField) Near(center models.Point, radius models.Distance) Node {
	return &Near{Field: f.fd, Center: center, Radius: radius}
}
func (f GeoField) IsMissing() Node { return &Missing{Field: f.fd} }

// VectorField builds nearest-neighbour queries.
type VectorField struct{ fd *models.FieldDescriptor }

// Vector returns the handle for a VECTOR field of s.
func Vector(s *models.EntitySchema, path string) (VectorField, error) {
	fd, err := lookup(s, path, mapping.IndexVector)
	return VectorField{fd}, err
}

func (f VectorField) Field() *models.FieldDescriptor { return f.fd }
func (f VectorField) Alias() string                  { return f.fd.Alias }

// KNN asks for the k nearest neighbours of vector ([]float32, []float64 or
// pre-encoded bytes).
func (f VectorField) KNN(k int, vector interface{}) *KNN {
	return &KNN{Field: f.fd, K: k, Vector: vector}
}
