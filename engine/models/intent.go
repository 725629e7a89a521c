package models

import "github.com/omniql-engine/redisom/mapping"

// ============================================================================
// METHOD INTENT - parsed derived-method name
// ============================================================================

// Combinator joins a part to the part before it.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// MethodIntent is the immutable result of parsing a derived method name.
type MethodIntent struct {
	Method   string
	Entity   string
	Category mapping.IntentCategory
	Parts    []Part
	Sort     []SortSpec
	Limit    int // from findFirst/findTopN; 0 means unset
	Distinct bool
}

// Part is one (property, operator) criterion of a method name.
type Part struct {
	PropertyPath string // storage path of the resolved field
	Field        *FieldDescriptor
	Type         mapping.PartType
	Combinator   Combinator // how this part joins the previous one
	Group        int        // index of the OR group this part belongs to
}

// Arity is the number of arguments the part consumes.
func (p Part) Arity() int {
	return mapping.GetPartArity(p.Type)
}

// ParamCount is the total number of criteria arguments the method expects.
func (m *MethodIntent) ParamCount() int {
	n := 0
	for _, p := range m.Parts {
		n += p.Arity()
	}
	return n
}

// Groups returns the parts split into OR groups, each AND-joined.
func (m *MethodIntent) Groups() [][]Part {
	var groups [][]Part
	for _, p := range m.Parts {
		for len(groups) <= p.Group {
			groups = append(groups, nil)
		}
		groups[p.Group] = append(groups[p.Group], p)
	}
	return groups
}

// ============================================================================
// SORTING AND PAGING
// ============================================================================

// SortSpec orders results by one field.
type SortSpec struct {
	Field      string // query alias or attribute name
	Descending bool
}

// Page is an optional trailing method argument selecting a result window.
type Page struct {
	Offset int
	Limit  int
}

// Sort is an optional trailing method argument adding SORTBY.
type Sort struct {
	Property   string
	Descending bool
}
