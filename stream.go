package redisom

import (
	"context"

	"github.com/omniql-engine/redisom/engine/ast"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/reverse"
	"github.com/omniql-engine/redisom/engine/translator"
)

// Order is a sort direction.
type Order bool

const (
	Asc  Order = false
	Desc Order = true
)

// defaultPageSize is RediSearch's own default LIMIT.
const defaultPageSize = 10

// Stream is an immutable fluent query. Every builder method returns a new
// stream; only the terminal methods talk to the backend, once each.
type Stream[T any] struct {
	repo     *Repository[T]
	filters  []ast.Node
	sort     *models.SortSpec
	offset   int
	limit    int
	hasLimit bool
	fields   []string
}

func (s *Stream[T]) clone() *Stream[T] {
	c := *s
	c.filters = append([]ast.Node(nil), s.filters...)
	c.fields = append([]string(nil), s.fields...)
	return &c
}

// Filter ANDs a predicate onto the stream.
func (s *Stream[T]) Filter(n ast.Node) *Stream[T] {
	c := s.clone()
	c.filters = append(c.filters, n)
	return c
}

// Sorted orders results by an indexed field.
func (s *Stream[T]) Sorted(field string, order Order) *Stream[T] {
	c := s.clone()
	c.sort = &models.SortSpec{Field: field, Descending: bool(order)}
	return c
}

// Skip drops the first n results.
func (s *Stream[T]) Skip(n int) *Stream[T] {
	c := s.clone()
	c.offset = n
	return c
}

// Limit caps the number of results.
func (s *Stream[T]) Limit(n int) *Stream[T] {
	c := s.clone()
	c.limit, c.hasLimit = n, true
	return c
}

// Map restricts the returned attributes; use with Project.
func (s *Stream[T]) Map(fields ...string) *Stream[T] {
	c := s.clone()
	c.fields = append(c.fields, fields...)
	return c
}

// Query compiles the stream without executing it.
func (s *Stream[T]) Query() (*models.CompiledQuery, error) {
	return s.compile(s.options())
}

func (s *Stream[T]) options() translator.SearchOptions {
	opts := translator.SearchOptions{Sort: s.sort}
	switch {
	case s.hasLimit:
		opts.Page = &models.Page{Offset: s.offset, Limit: s.limit}
	case s.offset > 0:
		size := s.repo.client.cc.MaxLimit
		if size <= 0 {
			size = defaultPageSize
		}
		opts.Page = &models.Page{Offset: s.offset, Limit: size}
	}
	for _, f := range s.fields {
		opts.Return = append(opts.Return, models.ReturnField{Identifier: f})
	}
	return opts
}

func (s *Stream[T]) compile(opts translator.SearchOptions) (*models.CompiledQuery, error) {
	q, err := translator.CompilePredicate(s.repo.schema, ast.AllOf(s.filters...), opts, s.repo.client.cc)
	s.repo.client.metrics.RecordCompile("stream", err)
	return q, err
}

func (s *Stream[T]) run(ctx context.Context, opts translator.SearchOptions) (*models.CompiledQuery, *models.ResultSet, error) {
	q, err := s.compile(opts)
	if err != nil {
		return nil, nil, err
	}
	rs, err := s.repo.client.Execute(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return q, rs, nil
}

// Collect runs the query and decodes every returned document.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	_, rs, err := s.run(ctx, s.options())
	if err != nil {
		return nil, err
	}
	return s.repo.decode(rs)
}

// ToList is Collect.
func (s *Stream[T]) ToList(ctx context.Context) ([]T, error) { return s.Collect(ctx) }

// Count returns the number of matching documents without fetching them.
func (s *Stream[T]) Count(ctx context.Context) (int64, error) {
	opts := s.options()
	opts.Sort, opts.Return = nil, nil
	opts.Page = &models.Page{}
	opts.NoContent = true
	_, rs, err := s.run(ctx, opts)
	if err != nil {
		return 0, err
	}
	return rs.Total, nil
}

// Exists reports whether any document matches.
func (s *Stream[T]) Exists(ctx context.Context) (bool, error) {
	n, err := s.Count(ctx)
	return n > 0, err
}

// First returns the first matching document, if any.
func (s *Stream[T]) First(ctx context.Context) (T, bool, error) {
	var zero T
	opts := s.options()
	opts.Page = &models.Page{Offset: s.offset, Limit: 1}
	_, rs, err := s.run(ctx, opts)
	if err != nil {
		return zero, false, err
	}
	items, err := s.repo.decode(rs)
	if err != nil || len(items) == 0 {
		return zero, false, err
	}
	return items[0], true, nil
}

// Project runs the query with the fields chosen by Map and returns their
// values in that order.
func (s *Stream[T]) Project(ctx context.Context) ([]models.Tuple, error) {
	q, rs, err := s.run(ctx, s.options())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(q.Return))
	for i, rf := range q.Return {
		names[i] = rf.Alias
	}
	return reverse.Project(rs, names), nil
}
