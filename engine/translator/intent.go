package translator

import (
	"strconv"

	"github.com/omniql-engine/redisom/engine/ast"
	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// METHOD INTENTS -> FT.SEARCH
// ============================================================================

// CompileIntent binds call arguments to a parsed method intent and compiles
// it. Arguments are consumed in part order by arity; a trailing models.Page
// and/or models.Sort may follow them.
//
// existsBy/countBy intents that reach here (no probabilistic structure)
// compile to a count-only search with LIMIT 0 0; deleteBy intents compile
// to a NOCONTENT search whose keys the caller deletes.
func CompileIntent(s *models.EntitySchema, intent *models.MethodIntent, args []interface{}, cc models.CompileContext) (*models.CompiledQuery, error) {
	root, rest, err := BindIntent(intent, args)
	if err != nil {
		return nil, err
	}

	var opts SearchOptions
	if len(intent.Sort) > 0 {
		sort := intent.Sort[0]
		opts.Sort = &sort
	}
	if intent.Limit > 0 {
		opts.Page = &models.Page{Offset: 0, Limit: intent.Limit}
	}
	for _, extra := range rest {
		switch x := extra.(type) {
		case models.Page:
			page := x
			opts.Page = &page
		case *models.Page:
			opts.Page = x
		case models.Sort:
			opts.Sort = &models.SortSpec{Field: x.Property, Descending: x.Descending}
		case *models.Sort:
			opts.Sort = &models.SortSpec{Field: x.Property, Descending: x.Descending}
		default:
			return nil, argErr("%s takes %d criteria argument(s); unexpected extra %T", intent.Method, intent.ParamCount(), extra)
		}
	}

	switch intent.Category {
	case mapping.CategoryProbabilisticExist, mapping.CategoryProbabilisticCount:
		opts.Page = &models.Page{Offset: 0, Limit: 0}
		opts.Sort = nil
		opts.NoContent = true
	case mapping.CategoryDeleteByQuery:
		opts.NoContent = true
		opts.Sort = nil
	}

	return CompilePredicate(s, root, opts, cc)
}

// BindIntent turns an intent plus its criteria arguments into a predicate
// tree: parts of one OR group are ANDed, groups are ORed. Arguments left over
// after the criteria are returned untouched.
func BindIntent(intent *models.MethodIntent, args []interface{}) (ast.Node, []interface{}, error) {
	if need := intent.ParamCount(); len(args) < need {
		return nil, nil, argErr("%s expects %d criteria argument(s), got %d", intent.Method, need, len(args))
	}

	var groups []ast.Node
	pos := 0
	for _, group := range intent.Groups() {
		var nodes []ast.Node
		for _, part := range group {
			n := part.Arity()
			operands := args[pos : pos+n]
			pos += n

			if part.Type == mapping.PartKNN {
				knn, err := bindKNN(part, operands)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, knn)
				continue
			}
			nodes = append(nodes, &ast.Clause{Field: part.Field, Part: part.Type, Operands: operands})
		}
		groups = append(groups, ast.AllOf(nodes...))
	}
	return ast.AnyOf(groups...), args[pos:], nil
}

// bindKNN reads (vector, k) for a vector NEAR part.
func bindKNN(part models.Part, operands []interface{}) (*ast.KNN, error) {
	ks, err := search.FormatNumeric(operands[1])
	if err != nil {
		return nil, argErr("K for '%s': %v", part.PropertyPath, err)
	}
	k, err := strconv.Atoi(ks)
	if err != nil || k <= 0 {
		return nil, argErr("K for '%s' must be a positive integer, got %s", part.PropertyPath, ks)
	}
	return &ast.KNN{Field: part.Field, K: k, Vector: operands[0]}, nil
}
