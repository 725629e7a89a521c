package models

import (
	"reflect"
	"strings"

	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// SCHEMA - field descriptors owned by the schema registry
// ============================================================================

// FieldDescriptor describes one field of an entity type. Descriptors are
// created at registration time and never mutated afterwards.
type FieldDescriptor struct {
	// ========== IDENTITY ==========
	Name     string // Go field name (e.g. "City")
	GoPath   string // Go field path (e.g. "Address.City")
	Path     string // storage path (e.g. "address.city")
	JSONPath string // JSON path (e.g. "$.address.city", "$.tags[*]")
	Alias    string // query attribute name (e.g. "address_city")

	// ========== INDEX ==========
	IndexType     mapping.IndexType // empty when the field is declared but not indexed
	Kind          reflect.Kind      // Go kind of the field value
	ElemKind      reflect.Kind      // element kind for slices
	IsID          bool
	Sortable      bool
	IndexMissing  bool
	CaseSensitive bool
	Weight        float64
	Separator     string
	NoStem        bool
	Vector        *VectorSpec

	// ========== PROBABILISTIC ==========
	Filter *FilterSpec // Bloom or Cuckoo filter kept alongside the field
	Sketch *SketchSpec // Count-Min sketch kept alongside the field

	// FieldIndex is the reflect index path into the entity struct (nil for
	// schemas built without a Go type).
	FieldIndex []int
}

// VectorSpec holds the settings of a VECTOR field.
type VectorSpec struct {
	Algorithm   string // FLAT or HNSW
	Dim         int
	Metric      string // L2, IP, COSINE
	ElementType string // FLOAT32 or FLOAT64
}

// FilterKind names a probabilistic membership structure.
type FilterKind string

const (
	FilterBloom  FilterKind = "BLOOM"
	FilterCuckoo FilterKind = "CUCKOO"
)

// FilterSpec configures a Bloom or Cuckoo filter for a field.
type FilterSpec struct {
	Kind      FilterKind
	Name      string // explicit key; empty means <prefix>:<Entity>:<field>
	Capacity  int64
	ErrorRate float64
}

// SketchInit selects how a Count-Min sketch is initialised.
type SketchInit string

const (
	SketchByProbability SketchInit = "PROBABILITY"
	SketchByDimensions  SketchInit = "DIMENSIONS"
)

// SketchSpec configures a Count-Min sketch for a field.
type SketchSpec struct {
	Name        string
	Init        SketchInit
	Width       int64
	Depth       int64
	ErrorRate   float64
	Probability float64
}

// Indexed reports whether the field is part of the search index.
func (f *FieldDescriptor) Indexed() bool {
	return f.IndexType != mapping.IndexNone
}

// IsCollection reports whether the field holds a slice or array of values.
func (f *FieldDescriptor) IsCollection() bool {
	return (f.Kind == reflect.Slice || f.Kind == reflect.Array) && f.IndexType != mapping.IndexVector
}

// WithIndexType returns a copy of the descriptor carrying a different index type.
func (f *FieldDescriptor) WithIndexType(t mapping.IndexType) *FieldDescriptor {
	c := *f
	c.IndexType = t
	return &c
}

// ============================================================================
// ENTITY SCHEMA
// ============================================================================

// EntitySchema is the registered description of one entity type.
type EntitySchema struct {
	Name    string
	Index   string
	Prefix  string
	Storage mapping.StorageType
	Type    reflect.Type // nil for declarative schemas
	Fields  []*FieldDescriptor

	byPath   map[string]*FieldDescriptor
	byGoPath map[string]*FieldDescriptor
}

// EntityOptions overrides the defaults derived from a Go type name.
type EntityOptions struct {
	Name    string
	Index   string
	Prefix  string
	Storage mapping.StorageType
}

// Entity is implemented by types that customise their schema identity.
type Entity interface {
	RedisEntity() EntityOptions
}

// NewEntitySchema builds lookup tables for the given fields.
func NewEntitySchema(name, index, prefix string, storage mapping.StorageType, t reflect.Type, fields []*FieldDescriptor) *EntitySchema {
	s := &EntitySchema{
		Name:     name,
		Index:    index,
		Prefix:   prefix,
		Storage:  storage,
		Type:     t,
		Fields:   fields,
		byPath:   make(map[string]*FieldDescriptor, len(fields)),
		byGoPath: make(map[string]*FieldDescriptor, len(fields)),
	}
	for _, f := range fields {
		s.byPath[f.Path] = f
		if f.GoPath != "" {
			s.byGoPath[f.GoPath] = f
		}
	}
	return s
}

// Field returns the field stored at path ("address.city").
func (s *EntitySchema) Field(path string) (*FieldDescriptor, bool) {
	f, ok := s.byPath[path]
	return f, ok
}

// FieldByGoPath returns the field for a Go path ("Address.City").
func (s *EntitySchema) FieldByGoPath(goPath string) (*FieldDescriptor, bool) {
	f, ok := s.byGoPath[goPath]
	return f, ok
}

// FieldByAlias returns the field whose query alias matches.
func (s *EntitySchema) FieldByAlias(alias string) (*FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.Alias == alias {
			return f, true
		}
	}
	return nil, false
}

// HasNested reports whether any field lives below the given Go path prefix.
func (s *EntitySchema) HasNested(goPrefix string) bool {
	prefix := goPrefix + "."
	for _, f := range s.Fields {
		if strings.HasPrefix(f.GoPath, prefix) {
			return true
		}
	}
	return false
}

// IndexedFields returns only the fields that take part in the search index.
func (s *EntitySchema) IndexedFields() []*FieldDescriptor {
	out := make([]*FieldDescriptor, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Indexed() {
			out = append(out, f)
		}
	}
	return out
}

// IDField returns the identifier field, if one is declared.
func (s *EntitySchema) IDField() (*FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.IsID {
			return f, true
		}
	}
	return nil, false
}
