package redisom

import (
	"github.com/omniql-engine/redisom/engine/ast"
	"github.com/omniql-engine/redisom/engine/models"
)

// Predicate building blocks, re-exported so callers need only this package.
type (
	Node         = ast.Node
	TagField     = ast.TagField
	TextField    = ast.TextField
	NumericField = ast.NumericField
	GeoField     = ast.GeoField
	VectorField  = ast.VectorField

	Point    = models.Point
	Distance = models.Distance
	SortSpec = models.SortSpec
	Page     = models.Page
	Sort     = models.Sort
)

// And matches documents matching every node. Nil nodes are skipped.
func And(nodes ...Node) Node { return ast.AllOf(nodes...) }

// Or matches documents matching any node.
func Or(nodes ...Node) Node { return ast.AnyOf(nodes...) }

// Not negates a node.
func Not(n Node) Node { return ast.Negate(n) }

// Tag returns the typed handle of a TAG field.
func (r *Repository[T]) Tag(path string) (TagField, error) { return ast.Tag(r.schema, path) }

// Text returns the typed handle of a TEXT field.
func (r *Repository[T]) Text(path string) (TextField, error) { return ast.Text(r.schema, path) }

// Numeric returns the typed handle of a NUMERIC field.
func (r *Repository[T]) Numeric(path string) (NumericField, error) {
	return ast.Numeric(r.schema, path)
}

// Geo returns the typed handle of a GEO field.
func (r *Repository[T]) Geo(path string) (GeoField, error) { return ast.Geo(r.schema, path) }

// Vector returns the typed handle of a VECTOR field.
func (r *Repository[T]) Vector(path string) (VectorField, error) {
	return ast.Vector(r.schema, path)
}
