package ast

import (
	"errors"
	"testing"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

func testSchema(t *testing.T) *models.EntitySchema {
	t.Helper()
	s, err := schema.NewBuilder("Product").
		Tag("category").
		Text("name").
		Numeric("price").
		Tag("address.city").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHandleLookup(t *testing.T) {
	s := testSchema(t)

	for _, path := range []string{"address.city", "address_city", "Address.City"} {
		h, err := Tag(s, path)
		if err != nil {
			t.Fatalf("Tag(%q) failed: %v", path, err)
		}
		if h.Alias() != "address_city" {
			t.Errorf("Tag(%q).Alias() = %q", path, h.Alias())
		}
	}

	if _, err := Tag(s, "name"); !errors.Is(err, models.ErrSchema) {
		t.Errorf("Tag(name) err = %v, want ErrSchema", err)
	}
	if _, err := Numeric(s, "weight"); !errors.Is(err, models.ErrPropertyNotFound) {
		t.Errorf("Numeric(weight) err = %v, want ErrPropertyNotFound", err)
	}
}

func TestHandlePredicates(t *testing.T) {
	s := testSchema(t)
	cat, _ := Tag(s, "category")
	name, _ := Text(s, "name")
	price, _ := Numeric(s, "price")

	tests := []struct {
		node Node
		part mapping.PartType
		n    int
	}{
		{cat.Eq("a"), mapping.PartSimpleProperty, 1},
		{cat.NotIn("a", "b"), mapping.PartNotIn, 1},
		{cat.ContainsAll("a", "b"), mapping.PartContainingAll, 1},
		{cat.IsTrue(), mapping.PartTrue, 0},
		{name.NotLike("x"), mapping.PartNotLike, 1},
		{name.StartsWith("x"), mapping.PartStartingWith, 1},
		{price.Between(1, 2), mapping.PartBetween, 2},
		{price.Ge(3), mapping.PartGreaterThanEqual, 1},
		{price.After(3), mapping.PartAfter, 1},
		{price.IsPresent(), mapping.PartIsNotNull, 0},
	}
	for _, tt := range tests {
		leaf, ok := tt.node.(Leaf)
		if !ok {
			t.Fatalf("%T is not a leaf", tt.node)
		}
		c := leaf.Predicate()
		if c.Part != tt.part || len(c.Operands) != tt.n {
			t.Errorf("%T predicate = %s with %d operand(s), want %s with %d", tt.node, c.Part, len(c.Operands), tt.part, tt.n)
		}
	}
}

func TestCombinators(t *testing.T) {
	s := testSchema(t)
	cat, _ := Tag(s, "category")
	price, _ := Numeric(s, "price")

	a, b, c := cat.Eq("a"), cat.Eq("b"), price.Lt(3)

	if AllOf() != nil {
		t.Error("AllOf() should be nil")
	}
	if got := AllOf(nil, a); got != a {
		t.Error("AllOf with one node should return it")
	}
	and, ok := AllOf(AllOf(a, b), c).(*And)
	if !ok || len(and.Children) != 3 {
		t.Errorf("AllOf did not flatten: %#v", and)
	}
	or, ok := AnyOf(a, AnyOf(b, c)).(*Or)
	if !ok || len(or.Children) != 3 {
		t.Errorf("AnyOf did not flatten: %#v", or)
	}
	if Negate(Negate(a)) != a {
		t.Error("double negation should unwrap")
	}

	fields := Fields(AllOf(a, Negate(c)))
	if len(fields) != 2 || fields[0].Path != "category" || fields[1].Path != "price" {
		t.Errorf("Fields = %v", fields)
	}
}
