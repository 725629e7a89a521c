package ast

import (
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// Node is the interface all predicate nodes implement
type Node interface {
	node()
}

// Leaf is a node that renders through exactly one clause-table entry.
type Leaf interface {
	Node
	Predicate() Clause
}

// Clause is the generic leaf: a field, a part type and its operands. Derived
// method intents compile to Clause leaves; typed nodes reduce to one.
type Clause struct {
	Field    *models.FieldDescriptor
	Part     mapping.PartType
	Operands []interface{}
}

func (n *Clause) node()             {}
func (n *Clause) Predicate() Clause { return *n }

// ============================================================================
// COMPARISONS
// ============================================================================

// Equal matches a field equal to Value
type Equal struct {
	Field *models.FieldDescriptor
	Value interface{}
}

func (n *Equal) node() {}
func (n *Equal) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartSimpleProperty, Operands: []interface{}{n.Value}}
}

// NotEqual matches a field not equal to Value
type NotEqual struct {
	Field *models.FieldDescriptor
	Value interface{}
}

func (n *NotEqual) node() {}
func (n *NotEqual) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartNegatingSimpleProperty, Operands: []interface{}{n.Value}}
}

// Between matches a closed numeric range
type Between struct {
	Field     *models.FieldDescriptor
	Low, High interface{}
}

func (n *Between) node() {}
func (n *Between) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartBetween, Operands: []interface{}{n.Low, n.High}}
}

// Compare is an open or half-open bound. Op is one of LESS_THAN,
// LESS_THAN_EQUAL, GREATER_THAN, GREATER_THAN_EQUAL, BEFORE or AFTER.
type Compare struct {
	Field *models.FieldDescriptor
	Op    mapping.PartType
	Value interface{}
}

func (n *Compare) node() {}
func (n *Compare) Predicate() Clause {
	return Clause{Field: n.Field, Part: n.Op, Operands: []interface{}{n.Value}}
}

// ============================================================================
// TEXT AND TAG PATTERNS
// ============================================================================

type StartingWith struct {
	Field  *models.FieldDescriptor
	Prefix string
}

func (n *StartingWith) node() {}
func (n *StartingWith) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartStartingWith, Operands: []interface{}{n.Prefix}}
}

type EndingWith struct {
	Field  *models.FieldDescriptor
	Suffix string
}

func (n *EndingWith) node() {}
func (n *EndingWith) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartEndingWith, Operands: []interface{}{n.Suffix}}
}

// Like is a fuzzy TEXT match
type Like struct {
	Field   *models.FieldDescriptor
	Pattern string
	Negate  bool
}

func (n *Like) node() {}
func (n *Like) Predicate() Clause {
	part := mapping.PartLike
	if n.Negate {
		part = mapping.PartNotLike
	}
	return Clause{Field: n.Field, Part: part, Operands: []interface{}{n.Pattern}}
}

// ============================================================================
// SET MEMBERSHIP
// ============================================================================

// In matches any of Values
type In struct {
	Field  *models.FieldDescriptor
	Values []interface{}
	Negate bool
}

func (n *In) node() {}
func (n *In) Predicate() Clause {
	part := mapping.PartIn
	if n.Negate {
		part = mapping.PartNotIn
	}
	return Clause{Field: n.Field, Part: part, Operands: []interface{}{n.Values}}
}

// Containing matches a collection holding Value
type Containing struct {
	Field  *models.FieldDescriptor
	Value  interface{}
	Negate bool
}

func (n *Containing) node() {}
func (n *Containing) Predicate() Clause {
	part := mapping.PartContaining
	if n.Negate {
		part = mapping.PartNotContaining
	}
	return Clause{Field: n.Field, Part: part, Operands: []interface{}{n.Value}}
}

// ContainingAll matches a collection holding every one of Values
type ContainingAll struct {
	Field  *models.FieldDescriptor
	Values []interface{}
}

func (n *ContainingAll) node() {}
func (n *ContainingAll) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartContainingAll, Operands: []interface{}{n.Values}}
}

// ============================================================================
// GEO, PRESENCE, VECTOR
// ============================================================================

// Near matches points within Radius of Center
type Near struct {
	Field  *models.FieldDescriptor
	Center models.Point
	Radius models.Distance
}

func (n *Near) node() {}
func (n *Near) Predicate() Clause {
	return Clause{Field: n.Field, Part: mapping.PartNear, Operands: []interface{}{n.Center, n.Radius}}
}

type Missing struct {
	Field *models.FieldDescriptor
}

func (n *Missing) node()             {}
func (n *Missing) Predicate() Clause { return Clause{Field: n.Field, Part: mapping.PartIsNull} }

type Present struct {
	Field *models.FieldDescriptor
}

func (n *Present) node()             {}
func (n *Present) Predicate() Clause { return Clause{Field: n.Field, Part: mapping.PartIsNotNull} }

// KNN asks for the K nearest neighbours of Vector. It is not a Leaf: the
// compiler wraps the rest of the filter with it.
type KNN struct {
	Field  *models.FieldDescriptor
	K      int
	Vector interface{}
}

func (n *KNN) node() {}

// ============================================================================
// COMBINATORS
// ============================================================================

type And struct {
	Children []Node
}

type Or struct {
	Children []Node
}

type Not struct {
	Child Node
}

func (n *And) node() {}
func (n *Or) node()  {}
func (n *Not) node() {}

// AllOf joins nodes with AND, flattening nested conjunctions and skipping nils.
func AllOf(nodes ...Node) Node {
	return combine(nodes, func(n Node) ([]Node, bool) {
		and, ok := n.(*And)
		if !ok {
			return nil, false
		}
		return and.Children, true
	}, func(children []Node) Node { return &And{Children: children} })
}

// AnyOf joins nodes with OR, flattening nested disjunctions and skipping nils.
func AnyOf(nodes ...Node) Node {
	return combine(nodes, func(n Node) ([]Node, bool) {
		or, ok := n.(*Or)
		if !ok {
			return nil, false
		}
		return or.Children, true
	}, func(children []Node) Node { return &Or{Children: children} })
}

// Negate wraps a node in NOT; negating a NOT unwraps it.
func Negate(n Node) Node {
	if not, ok := n.(*Not); ok {
		return not.Child
	}
	return &Not{Child: n}
}

func combine(nodes []Node, flatten func(Node) ([]Node, bool), build func([]Node) Node) Node {
	var children []Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if inner, ok := flatten(n); ok {
			children = append(children, inner...)
			continue
		}
		children = append(children, n)
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return build(children)
}

// Walk visits n and its descendants depth-first. Returning false from fn
// stops descent into that node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *And:
		for _, c := range x.Children {
			Walk(c, fn)
		}
	case *Or:
		for _, c := range x.Children {
			Walk(c, fn)
		}
	case *Not:
		Walk(x.Child, fn)
	}
}

// Fields returns every field a tree references, in visit order.
func Fields(n Node) []*models.FieldDescriptor {
	var out []*models.FieldDescriptor
	Walk(n, func(n Node) bool {
		switch x := n.(type) {
		case Leaf:
			out = append(out, x.Predicate().Field)
		case *KNN:
			out = append(out, x.Field)
		}
		return true
	})
	return out
}
