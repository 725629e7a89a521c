package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// COMPILED QUERY - wire-ready search or aggregation command
// ============================================================================

const (
	CmdSearch    = "FT.SEARCH"
	CmdAggregate = "FT.AGGREGATE"
)

// CompiledQuery is produced by the compiler and consumed by the executor.
type CompiledQuery struct {
	// ========== TARGET ==========
	Command string // FT.SEARCH or FT.AGGREGATE
	Index   string

	// ========== QUERY ==========
	QueryString string
	Params      map[string]interface{} // []byte vector blobs, K, other bound values

	// ========== SEARCH OPTIONS ==========
	Sort      *SortSpec
	Limit     *Limit
	Return    []ReturnField
	NoContent bool
	ScoreKey  string // name of the KNN score attribute, when the query is hybrid

	// ========== AGGREGATION ==========
	Pipeline []interface{} // stage arguments following the query string

	Dialect int
}

// Limit is an offset/count result window.
type Limit struct {
	Offset int
	Num    int
}

// ReturnField selects one attribute to return, optionally renamed.
type ReturnField struct {
	Identifier string // attribute or JSON path
	Alias      string
}

// Args returns the command as an argument vector for the backend.
func (q *CompiledQuery) Args() []interface{} {
	args := []interface{}{q.Command, q.Index, q.QueryString}

	if q.Command == CmdAggregate {
		args = append(args, q.Pipeline...)
	} else {
		if q.NoContent {
			args = append(args, "NOCONTENT")
		}
		if len(q.Return) > 0 {
			var ret []interface{}
			for _, rf := range q.Return {
				ret = append(ret, rf.Identifier)
				if rf.Alias != "" && rf.Alias != rf.Identifier {
					ret = append(ret, "AS", rf.Alias)
				}
			}
			args = append(args, "RETURN", len(ret))
			args = append(args, ret...)
		}
		if q.Sort != nil {
			dir := "ASC"
			if q.Sort.Descending {
				dir = "DESC"
			}
			args = append(args, "SORTBY", q.Sort.Field, dir)
		}
		if q.Limit != nil {
			args = append(args, "LIMIT", q.Limit.Offset, q.Limit.Num)
		}
	}

	if len(q.Params) > 0 {
		names := make([]string, 0, len(q.Params))
		for name := range q.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		args = append(args, "PARAMS", len(names)*2)
		for _, name := range names {
			args = append(args, name, q.Params[name])
		}
	}
	if q.Dialect > 0 {
		args = append(args, "DIALECT", q.Dialect)
	}
	return args
}

// String renders the command for logs and error messages. Binary params are
// summarised by size.
func (q *CompiledQuery) String() string {
	return CommandString(q.Args())
}

// CommandString joins an argument vector into a readable command line.
func CommandString(args []interface{}) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case []byte:
			parts = append(parts, fmt.Sprintf("<%d bytes>", len(v)))
		case string:
			if v == "" || strings.ContainsAny(v, " \t\n\"") {
				parts = append(parts, strconv.Quote(v))
			} else {
				parts = append(parts, v)
			}
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " ")
}
