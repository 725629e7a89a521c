package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/internal/logger"
)

// Registry holds one EntitySchema per entity type for the life of the
// process. Describe is safe for concurrent first access; a schema is derived
// at most once.
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*models.EntitySchema
	byName  map[string]*models.EntitySchema
	derived atomic.Int64
	log     *logger.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		byType: make(map[reflect.Type]*models.EntitySchema),
		byName: make(map[string]*models.EntitySchema),
		log:    log,
	}
}

// Describe returns the schema of an entity type, deriving it from struct
// tags on first use.
func (r *Registry) Describe(t reflect.Type) (*models.EntitySchema, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, &models.SchemaError{Entity: "<nil>", Reason: "nil entity type"}
	}

	r.mu.RLock()
	s, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byType[t]; ok {
		return s, nil
	}
	s, err := derive(t)
	r.derived.Add(1)
	if err != nil {
		r.log.SchemaLogger(t.Name()).Error("schema derivation failed").Err(err).Send()
		return nil, err
	}
	r.byType[t] = s
	r.byName[s.Name] = s
	r.log.SchemaLogger(s.Name).Debug("schema registered").
		Str("index", s.Index).
		Int("fields", len(s.Fields)).
		Send()
	return s, nil
}

// Register adds a declaratively built schema. Registering a name twice
// returns the schema registered first.
func (r *Registry) Register(s *models.EntitySchema) (*models.EntitySchema, error) {
	if s == nil || s.Name == "" {
		return nil, fmt.Errorf("%w: schema without a name", models.ErrSchema)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[s.Name]; ok {
		return existing, nil
	}
	r.byName[s.Name] = s
	if s.Type != nil {
		r.byType[s.Type] = s
	}
	return s, nil
}

// Lookup finds a registered schema by entity name.
func (r *Registry) Lookup(name string) (*models.EntitySchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Schemas returns all registered schemas ordered by name.
func (r *Registry) Schemas() []*models.EntitySchema {
	r.mu.RLock()
	out := make([]*models.EntitySchema, 0, len(r.byName))
	for _, s := range r.byName {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Derivations counts how many times a schema was derived from a Go type.
func (r *Registry) Derivations() int64 {
	return r.derived.Load()
}

// For describes the entity type T.
func For[T any](r *Registry) (*models.EntitySchema, error) {
	return r.Describe(reflect.TypeOf((*T)(nil)).Elem())
}
