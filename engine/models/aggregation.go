package models

// ============================================================================
// AGGREGATION PIPELINE
// ============================================================================

// StageKind names one FT.AGGREGATE stage.
type StageKind string

const (
	StageLoad    StageKind = "LOAD"
	StageGroupBy StageKind = "GROUPBY"
	StageSortBy  StageKind = "SORTBY"
	StageApply   StageKind = "APPLY"
	StageFilter  StageKind = "FILTER"
	StageLimit   StageKind = "LIMIT"
)

// Stage is one step of an aggregation pipeline. Only the members relevant to
// Kind are set.
type Stage struct {
	Kind     StageKind
	Fields   []string   // LOAD, GROUPBY
	LoadAll  bool       // LOAD *
	Reducers []Reducer  // GROUPBY
	Expr     string     // APPLY, FILTER
	Alias    string     // APPLY
	Sorts    []SortSpec // SORTBY
	Max      int        // SORTBY MAX
	Offset   int        // LIMIT
	Num      int        // LIMIT
}

// Reducer is a REDUCE clause attached to a GROUPBY stage.
type Reducer struct {
	Func  string
	Args  []string
	Alias string
}
