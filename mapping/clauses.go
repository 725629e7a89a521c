package mapping

import "sort"

// OperandKind selects how operands are formatted before substitution.
type OperandKind string

const (
	OperandNone    OperandKind = "NONE"
	OperandTag     OperandKind = "TAG"     // quote-when-needed tag value
	OperandPhrase  OperandKind = "PHRASE"  // text value, quoted as a phrase when it has whitespace
	OperandToken   OperandKind = "TOKEN"   // text token for prefix/suffix/fuzzy syntax, escaped only
	OperandNumeric OperandKind = "NUMERIC" // number, time, or numeric string
	OperandGeo     OperandKind = "GEO"     // point + distance
	OperandVector  OperandKind = "VECTOR"  // bound out-of-band as a PARAMS blob
)

// Expand tells the renderer what to do with a collection operand.
type Expand string

const (
	ExpandNone    Expand = ""        // operands substituted one per $param_N
	ExpandValues  Expand = "VALUES"  // values joined inside a single fragment: {a|b}
	ExpandClauses Expand = "CLAUSES" // one fragment per value, fragments joined
)

// ClauseKey addresses one entry of the closed clause table.
type ClauseKey struct {
	Index IndexType
	Part  PartType
}

// ClauseTemplate describes how one (index type, part type) pair renders.
//
// Placeholders: $field is the field's query alias, $param_N the N-th formatted
// operand. KNN templates also use $filter and $blob.
type ClauseTemplate struct {
	Template string
	Operand  OperandKind
	Arity    int
	Expand   Expand
	Join     string
	Group    bool // wrap expanded fragments in parentheses when more than one
}

// Clauses is the closed clause table. A pair missing here is unsupported.
var Clauses = map[ClauseKey]ClauseTemplate{
	// TEXT
	{IndexText, PartSimpleProperty}:         {Template: "@$field:$param_0", Operand: OperandPhrase, Arity: 1},
	{IndexText, PartNegatingSimpleProperty}: {Template: "-@$field:$param_0", Operand: OperandPhrase, Arity: 1},
	{IndexText, PartStartingWith}:           {Template: "@$field:$param_0*", Operand: OperandToken, Arity: 1},
	{IndexText, PartEndingWith}:             {Template: "@$field:*$param_0", Operand: OperandToken, Arity: 1},
	{IndexText, PartLike}:                   {Template: "@$field:%%%$param_0%%%", Operand: OperandToken, Arity: 1},
	{IndexText, PartNotLike}:                {Template: "-@$field:%%%$param_0%%%", Operand: OperandToken, Arity: 1},
	{IndexText, PartContaining}:             {Template: "@$field:%%%$param_0%%%", Operand: OperandToken, Arity: 1},
	{IndexText, PartNotContaining}:          {Template: "-@$field:%%%$param_0%%%", Operand: OperandToken, Arity: 1},
	{IndexText, PartIn}:                     {Template: "@$field:($param_0)", Operand: OperandPhrase, Arity: 1, Expand: ExpandValues, Join: "|"},
	{IndexText, PartNotIn}:                  {Template: "-@$field:($param_0)", Operand: OperandPhrase, Arity: 1, Expand: ExpandValues, Join: "|"},

	// TAG
	{IndexTag, PartSimpleProperty}:         {Template: "@$field:{$param_0}", Operand: OperandTag, Arity: 1},
	{IndexTag, PartNegatingSimpleProperty}: {Template: "-@$field:{$param_0}", Operand: OperandTag, Arity: 1},
	{IndexTag, PartIn}:                     {Template: "@$field:{$param_0}", Operand: OperandTag, Arity: 1, Expand: ExpandValues, Join: "|"},
	{IndexTag, PartContaining}:             {Template: "@$field:{$param_0}", Operand: OperandTag, Arity: 1, Expand: ExpandValues, Join: "|"},
	{IndexTag, PartNotIn}:                  {Template: "-@$field:{$param_0}", Operand: OperandTag, Arity: 1, Expand: ExpandValues, Join: "|"},
	{IndexTag, PartNotContaining}:          {Template: "-@$field:{$param_0}", Operand: OperandTag, Arity: 1, Expand: ExpandValues, Join: "|"},
	{IndexTag, PartContainingAll}:          {Template: "@$field:{$param_0}", Operand: OperandTag, Arity: 1, Expand: ExpandClauses, Join: " "},
	{IndexTag, PartStartingWith}:           {Template: "@$field:{$param_0*}", Operand: OperandToken, Arity: 1},
	{IndexTag, PartEndingWith}:             {Template: "@$field:{*$param_0}", Operand: OperandToken, Arity: 1},
	{IndexTag, PartTrue}:                   {Template: "@$field:{true}", Operand: OperandNone},
	{IndexTag, PartFalse}:                  {Template: "@$field:{false}", Operand: OperandNone},

	// NUMERIC
	{IndexNumeric, PartSimpleProperty}:         {Template: "@$field:[$param_0 $param_0]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartNegatingSimpleProperty}: {Template: "-@$field:[$param_0 $param_0]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartBetween}:                {Template: "@$field:[$param_0 $param_1]", Operand: OperandNumeric, Arity: 2},
	{IndexNumeric, PartLessThan}:               {Template: "@$field:[-inf ($param_0]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartLessThanEqual}:          {Template: "@$field:[-inf $param_0]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartGreaterThan}:            {Template: "@$field:[($param_0 inf]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartGreaterThanEqual}:       {Template: "@$field:[$param_0 inf]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartBefore}:                 {Template: "@$field:[-inf ($param_0]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartAfter}:                  {Template: "@$field:[($param_0 inf]", Operand: OperandNumeric, Arity: 1},
	{IndexNumeric, PartIn}:                     {Template: "@$field:[$param_0 $param_0]", Operand: OperandNumeric, Arity: 1, Expand: ExpandClauses, Join: "|", Group: true},
	{IndexNumeric, PartContaining}:             {Template: "@$field:[$param_0 $param_0]", Operand: OperandNumeric, Arity: 1, Expand: ExpandClauses, Join: "|", Group: true},
	{IndexNumeric, PartContainingAll}:          {Template: "@$field:[$param_0 $param_0]", Operand: OperandNumeric, Arity: 1, Expand: ExpandClauses, Join: " "},
	{IndexNumeric, PartTrue}:                   {Template: "@$field:[1 1]", Operand: OperandNone},
	{IndexNumeric, PartFalse}:                  {Template: "@$field:[0 0]", Operand: OperandNone},

	// GEO
	{IndexGeo, PartNear}: {Template: "@$field:[$param_0 $param_1]", Operand: OperandGeo, Arity: 2},

	// VECTOR
	{IndexVector, PartKNN}:  {Template: "($filter)=>[KNN $K @$field $$blob]", Operand: OperandVector, Arity: 2},
	{IndexVector, PartNear}: {Template: "($filter)=>[KNN $K @$field $$blob]", Operand: OperandVector, Arity: 2},

	// ANY INDEXED FIELD
	{IndexText, PartIsNull}:       {Template: "ismissing(@$field)", Operand: OperandNone},
	{IndexText, PartIsNotNull}:    {Template: "-ismissing(@$field)", Operand: OperandNone},
	{IndexTag, PartIsNull}:        {Template: "ismissing(@$field)", Operand: OperandNone},
	{IndexTag, PartIsNotNull}:     {Template: "-ismissing(@$field)", Operand: OperandNone},
	{IndexNumeric, PartIsNull}:    {Template: "ismissing(@$field)", Operand: OperandNone},
	{IndexNumeric, PartIsNotNull}: {Template: "-ismissing(@$field)", Operand: OperandNone},
	{IndexGeo, PartIsNull}:        {Template: "ismissing(@$field)", Operand: OperandNone},
	{IndexGeo, PartIsNotNull}:     {Template: "-ismissing(@$field)", Operand: OperandNone},
}

// Aggregation FILTER expressions for presence checks.
const (
	ExprExists  = "exists(@$field)"
	ExprMissing = "!exists(@$field)"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// PartsByIndex - reverse mapping built from Clauses
var PartsByIndex map[IndexType][]PartType

func init() {
	PartsByIndex = make(map[IndexType][]PartType)
	for key := range Clauses {
		PartsByIndex[key.Index] = append(PartsByIndex[key.Index], key.Part)
	}
	for _, parts := range PartsByIndex {
		sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	}
}

// GetClause returns the clause template for an (index type, part type) pair.
func GetClause(index IndexType, part PartType) (ClauseTemplate, bool) {
	t, ok := Clauses[ClauseKey{Index: index, Part: part}]
	return t, ok
}

// NeedsIndexMissing reports whether a part only works on fields indexed
// with INDEXMISSING.
func NeedsIndexMissing(part PartType) bool {
	return part == PartIsNull || part == PartIsNotNull
}

// GetPartsForIndex returns the part types an index type supports.
func GetPartsForIndex(index IndexType) []PartType {
	return PartsByIndex[index]
}
