package schema

import (
	"errors"
	"reflect"
	"strings"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// Builder declares an entity schema without a Go type. Field options are
// validated when Build is called.
//
//	s, err := schema.NewBuilder("Product").
//		Prefix("product:").
//		Tag("category").
//		Numeric("price", schema.Sortable()).
//		Vector("embedding", models.VectorSpec{Algorithm: "HNSW", Dim: 384}).
//		Build()
type Builder struct {
	opts   models.EntityOptions
	fields []*models.FieldDescriptor
}

// FieldOption customises one declared field.
type FieldOption func(*models.FieldDescriptor)

// NewBuilder starts a schema for the named entity.
func NewBuilder(name string) *Builder {
	return &Builder{opts: models.EntityOptions{Name: name}}
}

func (b *Builder) Index(name string) *Builder              { b.opts.Index = name; return b }
func (b *Builder) Prefix(prefix string) *Builder           { b.opts.Prefix = prefix; return b }
func (b *Builder) Storage(st mapping.StorageType) *Builder { b.opts.Storage = st; return b }

func (b *Builder) Text(path string, opts ...FieldOption) *Builder {
	return b.field(path, mapping.IndexText, reflect.String, opts)
}

func (b *Builder) Tag(path string, opts ...FieldOption) *Builder {
	return b.field(path, mapping.IndexTag, reflect.String, opts)
}

func (b *Builder) Numeric(path string, opts ...FieldOption) *Builder {
	return b.field(path, mapping.IndexNumeric, reflect.Float64, opts)
}

func (b *Builder) Geo(path string, opts ...FieldOption) *Builder {
	return b.field(path, mapping.IndexGeo, reflect.String, opts)
}

// Vector declares a VECTOR field with the given settings.
func (b *Builder) Vector(path string, spec models.VectorSpec, opts ...FieldOption) *Builder {
	v := spec
	opts = append([]FieldOption{func(fd *models.FieldDescriptor) {
		fd.Vector = &v
		fd.ElemKind = reflect.Float32
	}}, opts...)
	return b.field(path, mapping.IndexVector, reflect.Slice, opts)
}

// Unindexed declares a stored but unindexed property of the given kind.
func (b *Builder) Unindexed(path string, kind reflect.Kind, opts ...FieldOption) *Builder {
	return b.field(path, mapping.IndexNone, kind, opts)
}

func (b *Builder) field(path string, t mapping.IndexType, kind reflect.Kind, opts []FieldOption) *Builder {
	fd := &models.FieldDescriptor{
		Name:      UpperFirst(path[strings.LastIndex(path, ".")+1:]),
		GoPath:    goPath(path),
		Path:      path,
		IndexType: t,
		Kind:      kind,
	}
	for _, opt := range opts {
		opt(fd)
	}
	b.fields = append(b.fields, fd)
	return b
}

// Build validates the declared fields and returns the schema.
func (b *Builder) Build() (*models.EntitySchema, error) {
	opts := withDefaults(b.opts)
	if opts.Name == "" {
		return nil, &models.SchemaError{Reason: "entity name is required"}
	}
	seen := make(map[string]bool, len(b.fields))
	var errs []error
	for _, fd := range b.fields {
		if seen[fd.Path] {
			errs = append(errs, &models.SchemaError{Entity: opts.Name, Field: fd.Path, Reason: "declared twice"})
			continue
		}
		seen[fd.Path] = true
		finishPaths(fd)
		if err := validateDescriptor(fd); err != nil {
			errs = append(errs, &models.SchemaError{Entity: opts.Name, Field: fd.Path, Reason: err.Error()})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return models.NewEntitySchema(opts.Name, opts.Index, opts.Prefix, opts.Storage, nil, b.fields), nil
}

func goPath(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		parts[i] = UpperFirst(p)
	}
	return strings.Join(parts, ".")
}

// ============================================================================
// FIELD OPTIONS
// ============================================================================

func Sortable() FieldOption     { return func(fd *models.FieldDescriptor) { fd.Sortable = true } }
func NoStem() FieldOption       { return func(fd *models.FieldDescriptor) { fd.NoStem = true } }
func IndexMissing() FieldOption { return func(fd *models.FieldDescriptor) { fd.IndexMissing = true } }
func ID() FieldOption           { return func(fd *models.FieldDescriptor) { fd.IsID = true } }

func Weight(w float64) FieldOption {
	return func(fd *models.FieldDescriptor) { fd.Weight = w }
}

func Separator(sep string) FieldOption {
	return func(fd *models.FieldDescriptor) { fd.Separator = sep }
}

func As(alias string) FieldOption {
	return func(fd *models.FieldDescriptor) { fd.Alias = alias }
}

// Collection marks a multi-valued field (TAG sets, numeric lists).
func Collection() FieldOption {
	return func(fd *models.FieldDescriptor) {
		fd.ElemKind = fd.Kind
		fd.Kind = reflect.Slice
	}
}

// VectorSettings attaches vector settings to a field; legal only on VECTOR.
func VectorSettings(spec models.VectorSpec) FieldOption {
	return func(fd *models.FieldDescriptor) { v := spec; fd.Vector = &v }
}

// Bloom keeps a Bloom filter of the field's values. Zero settings take the
// package defaults.
func Bloom(name string, capacity int64, errorRate float64) FieldOption {
	if capacity <= 0 {
		capacity = DefaultFilterCapacity
	}
	if errorRate <= 0 {
		errorRate = DefaultFilterErrorRate
	}
	return func(fd *models.FieldDescriptor) {
		fd.Filter = &models.FilterSpec{Kind: models.FilterBloom, Name: name, Capacity: capacity, ErrorRate: errorRate}
	}
}

// Cuckoo keeps a Cuckoo filter of the field's values.
func Cuckoo(name string, capacity int64) FieldOption {
	if capacity <= 0 {
		capacity = DefaultFilterCapacity
	}
	return func(fd *models.FieldDescriptor) {
		fd.Filter = &models.FilterSpec{Kind: models.FilterCuckoo, Name: name, Capacity: capacity}
	}
}

// CountMin keeps a Count-Min sketch initialised by error rate and probability.
func CountMin(name string, errorRate, probability float64) FieldOption {
	if errorRate <= 0 {
		errorRate = DefaultSketchErrorRate
	}
	if probability <= 0 {
		probability = DefaultSketchProbability
	}
	return func(fd *models.FieldDescriptor) {
		fd.Sketch = &models.SketchSpec{Name: name, Init: models.SketchByProbability, ErrorRate: errorRate, Probability: probability}
	}
}

// CountMinDims keeps a Count-Min sketch initialised by width and depth.
func CountMinDims(name string, width, depth int64) FieldOption {
	return func(fd *models.FieldDescriptor) {
		fd.Sketch = &models.SketchSpec{Name: name, Init: models.SketchByDimensions, Width: width, Depth: depth}
	}
}
