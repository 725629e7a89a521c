package redisom

import (
	"context"
	"fmt"

	"github.com/omniql-engine/redisom/engine/ast"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/probabilistic"
	"github.com/omniql-engine/redisom/engine/reverse"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/engine/translator"
	"github.com/omniql-engine/redisom/mapping"
)

// Repository runs derived methods, streams and aggregations for one entity
// type.
type Repository[T any] struct {
	client   *Client
	schema   *models.EntitySchema
	dispatch map[string]*probabilistic.Call
}

// Result is the outcome of a derived method. Which members are set depends
// on the method's verb.
type Result[T any] struct {
	Category mapping.IntentCategory
	Entities []T
	Keys     []string
	Total    int64

	Exists bool    // existsBy: every looked-up value is present
	Found  []bool  // existsBy on a filter, one answer per value
	Count  int64   // countBy: sum of the estimates, or the search total
	Counts []int64 // countBy on a sketch, one estimate per value

	Deleted int64 // deleteBy
}

// NewRepository describes T and validates the given method names. A method
// naming an unknown property fails here rather than when it is called.
func NewRepository[T any](c *Client, methods ...string) (*Repository[T], error) {
	s, err := schema.For[T](c.registry)
	if err != nil {
		return nil, err
	}
	return newRepository[T](c, s, methods)
}

// NewRepositoryWithSchema uses an explicitly built schema. T is usually
// map[string]interface{} for schemas without a Go type.
func NewRepositoryWithSchema[T any](c *Client, s *models.EntitySchema, methods ...string) (*Repository[T], error) {
	s, err := c.registry.Register(s)
	if err != nil {
		return nil, err
	}
	return newRepository[T](c, s, methods)
}

func newRepository[T any](c *Client, s *models.EntitySchema, methods []string) (*Repository[T], error) {
	r := &Repository[T]{client: c, schema: s, dispatch: make(map[string]*probabilistic.Call)}
	for _, m := range methods {
		if call, ok := probabilistic.TryDispatch(m, s); ok {
			r.dispatch[m] = call
			continue
		}
		if _, err := c.intents.Get(m, s); err != nil {
			return nil, fmt.Errorf("repository %s: %w", s.Name, err)
		}
	}
	return r, nil
}

// Schema returns the entity schema.
func (r *Repository[T]) Schema() *models.EntitySchema { return r.schema }

// ResolveQuery runs a derived method with its call arguments. Trailing
// models.Page and models.Sort arguments may follow the criteria operands.
func (r *Repository[T]) ResolveQuery(ctx context.Context, method string, args ...interface{}) (*Result[T], error) {
	call, ok := r.dispatch[method]
	if !ok {
		call, ok = probabilistic.TryDispatch(method, r.schema)
	}
	if ok {
		return r.resolveProbabilistic(ctx, call, args)
	}

	intent, err := r.client.intents.Get(method, r.schema)
	if err != nil {
		r.client.metrics.RecordCompile("method", err)
		return nil, err
	}
	q, err := translator.CompileIntent(r.schema, intent, args, r.client.cc)
	r.client.metrics.RecordCompile("method", err)
	if err != nil {
		return nil, err
	}
	rs, err := r.client.Execute(ctx, q)
	if err != nil {
		return nil, err
	}
	if intent.Distinct {
		rs = rs.Distinct()
	}

	res := &Result[T]{Category: intent.Category, Total: rs.Total, Keys: rs.Keys()}
	switch intent.Category {
	case mapping.CategoryProbabilisticExist:
		res.Exists = rs.Total > 0
		res.Count = rs.Total
	case mapping.CategoryProbabilisticCount:
		res.Count = rs.Total
	case mapping.CategoryDeleteByQuery:
		if res.Deleted, err = r.client.Delete(ctx, res.Keys...); err != nil {
			return nil, err
		}
	default:
		if res.Entities, err = r.decode(rs); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *Repository[T]) resolveProbabilistic(ctx context.Context, call *probabilistic.Call, args []interface{}) (*Result[T], error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s takes exactly one argument, got %d", translator.ErrArguments, call.Method, len(args))
	}
	r.client.metrics.RecordDispatch(string(call.Kind))
	r.client.log.QueryLogger(string(call.Kind)).Debug("probabilistic dispatch").
		Str("method", call.Method).
		Str("key", call.Key).
		Send()

	if call.Kind == probabilistic.KindCountMin {
		counts, err := call.Count(ctx, r.client, args[0])
		if err != nil {
			return nil, err
		}
		res := &Result[T]{Category: mapping.CategoryProbabilisticCount, Counts: counts}
		for _, n := range counts {
			res.Count += n
		}
		return res, nil
	}

	found, err := call.Exists(ctx, r.client, args[0])
	if err != nil {
		return nil, err
	}
	res := &Result[T]{Category: mapping.CategoryProbabilisticExist, Found: found, Exists: len(found) > 0}
	for _, f := range found {
		res.Exists = res.Exists && f
	}
	return res, nil
}

// Find runs a search method and returns the matching entities.
func (r *Repository[T]) Find(ctx context.Context, method string, args ...interface{}) ([]T, error) {
	res, err := r.ResolveQuery(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return res.Entities, nil
}

// Exists runs an existsBy method.
func (r *Repository[T]) Exists(ctx context.Context, method string, args ...interface{}) (bool, error) {
	res, err := r.ResolveQuery(ctx, method, args...)
	if err != nil {
		return false, err
	}
	return res.Exists, nil
}

// Count runs a countBy method.
func (r *Repository[T]) Count(ctx context.Context, method string, args ...interface{}) (int64, error) {
	res, err := r.ResolveQuery(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Delete runs a deleteBy method and returns the number of removed documents.
func (r *Repository[T]) Delete(ctx context.Context, method string, args ...interface{}) (int64, error) {
	res, err := r.ResolveQuery(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	return res.Deleted, nil
}

// Stream starts a fluent query over all documents of the entity.
func (r *Repository[T]) Stream() *Stream[T] {
	return &Stream[T]{repo: r}
}

// Aggregate starts an aggregation pipeline over the documents matching
// filter (all documents when filter is nil).
func (r *Repository[T]) Aggregate(filter ast.Node) *AggregationStream {
	return &AggregationStream{client: r.client, schema: r.schema, filter: filter}
}

// Saved updates the entity's probabilistic structures after it was stored.
func (r *Repository[T]) Saved(ctx context.Context, entities ...T) error {
	for _, e := range entities {
		if err := r.client.updater.Update(ctx, r.schema, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository[T]) decode(rs *models.ResultSet) ([]T, error) {
	out := make([]T, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row.Fields) == 0 {
			continue
		}
		var v T
		if err := reverse.DecodeRow(r.schema, row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
