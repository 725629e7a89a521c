package translator

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/redisom/engine/ast"
	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// AGGREGATION PIPELINES -> FT.AGGREGATE
// ============================================================================

// CompileAggregation compiles a filter and an ordered stage list into an
// FT.AGGREGATE command. Reducers need a preceding GROUPBY; a GROUPBY stage
// with no fields renders as GROUPBY 0.
func CompileAggregation(s *models.EntitySchema, filter ast.Node, stages []models.Stage, cc models.CompileContext) (*models.CompiledQuery, error) {
	if err := checkOwned(s, ast.Fields(filter)); err != nil {
		return nil, err
	}
	if err := rejectNestedKNN(filter); err != nil {
		return nil, err
	}
	q, err := Render(filter)
	if err != nil {
		return nil, err
	}

	var pipeline []interface{}
	for i, st := range stages {
		args, err := stageArgs(s, st)
		if err != nil {
			return nil, fmt.Errorf("aggregation stage %d (%s): %w", i+1, st.Kind, err)
		}
		pipeline = append(pipeline, args...)
	}

	return &models.CompiledQuery{
		Command:     models.CmdAggregate,
		Index:       cc.IndexFor(s),
		QueryString: wildcard(q),
		Pipeline:    pipeline,
		Dialect:     dialect(cc),
	}, nil
}

func stageArgs(s *models.EntitySchema, st models.Stage) ([]interface{}, error) {
	switch st.Kind {
	case models.StageLoad:
		if st.LoadAll {
			return []interface{}{"LOAD", "*"}, nil
		}
		if len(st.Fields) == 0 {
			return nil, fmt.Errorf("LOAD needs at least one field")
		}
		args := []interface{}{"LOAD", len(st.Fields)}
		for _, f := range st.Fields {
			args = append(args, loadRef(s, f))
		}
		return args, nil

	case models.StageGroupBy:
		args := []interface{}{"GROUPBY", len(st.Fields)}
		for _, f := range st.Fields {
			args = append(args, attrRef(s, f))
		}
		for _, r := range st.Reducers {
			rargs, err := reducerArgs(s, r)
			if err != nil {
				return nil, err
			}
			args = append(args, rargs...)
		}
		return args, nil

	case models.StageSortBy:
		if len(st.Sorts) == 0 {
			return nil, fmt.Errorf("SORTBY needs at least one property")
		}
		args := []interface{}{"SORTBY", len(st.Sorts) * 2}
		for _, so := range st.Sorts {
			dir := "ASC"
			if so.Descending {
				dir = "DESC"
			}
			args = append(args, attrRef(s, so.Field), dir)
		}
		if st.Max > 0 {
			args = append(args, "MAX", st.Max)
		}
		return args, nil

	case models.StageApply:
		if st.Expr == "" || st.Alias == "" {
			return nil, fmt.Errorf("APPLY needs an expression and an alias")
		}
		return []interface{}{"APPLY", st.Expr, "AS", st.Alias}, nil

	case models.StageFilter:
		if st.Expr == "" {
			return nil, fmt.Errorf("FILTER needs an expression")
		}
		return []interface{}{"FILTER", st.Expr}, nil

	case models.StageLimit:
		if st.Offset < 0 || st.Num < 0 {
			return nil, fmt.Errorf("LIMIT %d %d is negative", st.Offset, st.Num)
		}
		return []interface{}{"LIMIT", st.Offset, st.Num}, nil
	}
	return nil, fmt.Errorf("unknown stage kind %q", st.Kind)
}

// reducerArgs renders REDUCE fn nargs args... [AS alias]. The first argument
// of a field reducer is a property reference; the rest pass through.
func reducerArgs(s *models.EntitySchema, r models.Reducer) ([]interface{}, error) {
	fn := strings.ToUpper(r.Func)
	arity, ok := mapping.GetReducerArity(fn)
	if !ok {
		return nil, fmt.Errorf("unknown reducer %q", r.Func)
	}
	if arity >= 0 && len(r.Args) != arity {
		return nil, fmt.Errorf("reducer %s takes %d argument(s), got %d", fn, arity, len(r.Args))
	}

	args := []interface{}{"REDUCE", fn, len(r.Args)}
	for i, a := range r.Args {
		if i == 0 {
			args = append(args, attrRef(s, a))
			continue
		}
		args = append(args, a)
	}
	if r.Alias != "" {
		args = append(args, "AS", r.Alias)
	}
	return args, nil
}

// attrRef renders a property reference. Schema fields use their alias;
// anything else (a reducer or APPLY alias) is referenced by name.
func attrRef(s *models.EntitySchema, name string) string {
	if fd, ok := fieldRef(s, name); ok {
		return "@" + fd.Alias
	}
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}

// loadRef renders a LOAD identifier: JSON documents load by JSON path.
func loadRef(s *models.EntitySchema, name string) string {
	fd, ok := fieldRef(s, name)
	if !ok {
		return attrRef(s, name)
	}
	if s.Storage == mapping.StorageJSON && !fd.Indexed() {
		return fd.JSONPath
	}
	return "@" + fd.Alias
}

// ExistsExpr renders the aggregation FILTER expression testing that a field
// is present (or, with missing set, absent).
func ExistsExpr(fd *models.FieldDescriptor, missing bool) string {
	if missing {
		return search.RenderExpr(mapping.ExprMissing, fd)
	}
	return search.RenderExpr(mapping.ExprExists, fd)
}
