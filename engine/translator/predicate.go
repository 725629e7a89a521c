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
// PREDICATE TREES -> FT.SEARCH
// ============================================================================

// CompilePredicate compiles a predicate tree into an FT.SEARCH command on
// the schema's index. A nil tree matches every document.
func CompilePredicate(s *models.EntitySchema, root ast.Node, opts SearchOptions, cc models.CompileContext) (*models.CompiledQuery, error) {
	if err := checkOwned(s, ast.Fields(root)); err != nil {
		return nil, err
	}

	knn, rest, err := splitKNN(root)
	if err != nil {
		return nil, err
	}
	filter, err := Render(rest)
	if err != nil {
		return nil, err
	}

	q := &models.CompiledQuery{
		Command:   models.CmdSearch,
		Index:     cc.IndexFor(s),
		NoContent: opts.NoContent,
		Dialect:   dialect(cc),
	}

	if knn == nil {
		q.QueryString = wildcard(filter)
	} else {
		if knn.K <= 0 {
			return nil, argErr("KNN on '%s' needs a positive K, got %d", knn.Field.Path, knn.K)
		}
		q.QueryString, err = search.RenderKNN(knn.Field, filter)
		if err != nil {
			return nil, err
		}
		blob, err := vectorParam(knn.Field, knn.Vector)
		if err != nil {
			return nil, err
		}
		q.Params = map[string]interface{}{"K": knn.K}
		q.Params[search.BlobParam(knn.Field)] = blob
		q.ScoreKey = search.ScoreField(knn.Field)
	}

	if q.Sort, err = resolveSort(s, opts.Sort, q.ScoreKey); err != nil {
		return nil, err
	}
	if q.Return, err = resolveReturn(s, opts.Return); err != nil {
		return nil, err
	}

	switch {
	case opts.Page != nil:
		q.Limit = &models.Limit{Offset: opts.Page.Offset, Num: opts.Page.Limit}
	case knn != nil:
		q.Limit = &models.Limit{Offset: 0, Num: knn.K}
	case cc.MaxLimit > 0:
		q.Limit = &models.Limit{Offset: 0, Num: cc.MaxLimit}
	}
	if knn != nil && q.Sort == nil {
		q.Sort = &models.SortSpec{Field: q.ScoreKey}
	}
	return q, nil
}

// splitKNN pulls a single KNN node off the top level of the tree (or off
// a top-level AND). KNN anywhere else cannot be expressed.
func splitKNN(root ast.Node) (*ast.KNN, ast.Node, error) {
	switch n := root.(type) {
	case *ast.KNN:
		return n, nil, nil
	case *ast.And:
		var knn *ast.KNN
		var rest []ast.Node
		for _, c := range n.Children {
			if k, ok := c.(*ast.KNN); ok {
				if knn != nil {
					return nil, nil, search.Unsupported(k.Field, mapping.PartKNN, "only one KNN clause is allowed per query")
				}
				knn = k
				continue
			}
			rest = append(rest, c)
		}
		if err := rejectNestedKNN(ast.AllOf(rest...)); err != nil {
			return nil, nil, err
		}
		return knn, ast.AllOf(rest...), nil
	}
	if err := rejectNestedKNN(root); err != nil {
		return nil, nil, err
	}
	return nil, root, nil
}

func rejectNestedKNN(n ast.Node) error {
	var err error
	ast.Walk(n, func(n ast.Node) bool {
		if k, ok := n.(*ast.KNN); ok && err == nil {
			err = search.Unsupported(k.Field, mapping.PartKNN, "KNN cannot be nested inside OR or NOT")
		}
		return err == nil
	})
	return err
}

// Render turns a predicate tree without KNN into query syntax. AND children
// are space-joined; OR children are parenthesised and joined with " | ".
func Render(n ast.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	switch x := n.(type) {
	case ast.Leaf:
		c := x.Predicate()
		if c.Field == nil {
			return "", fmt.Errorf("%s predicate without a field", c.Part)
		}
		return search.Render(c.Field, c.Part, c.Operands)

	case *ast.And:
		parts := make([]string, 0, len(x.Children))
		for _, c := range x.Children {
			s, err := Render(c)
			if err != nil {
				return "", err
			}
			if s == "" {
				continue
			}
			if _, isOr := c.(*ast.Or); isOr {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil

	case *ast.Or:
		parts := make([]string, 0, len(x.Children))
		for _, c := range x.Children {
			s, err := Render(c)
			if err != nil {
				return "", err
			}
			if s == "" {
				// an empty branch matches everything
				return "", nil
			}
			parts = append(parts, "("+s+")")
		}
		if len(parts) == 1 {
			return strings.TrimSuffix(strings.TrimPrefix(parts[0], "("), ")"), nil
		}
		return strings.Join(parts, " | "), nil

	case *ast.Not:
		s, err := Render(x.Child)
		if err != nil {
			return "", err
		}
		if s == "" {
			return "", fmt.Errorf("NOT of an empty predicate matches nothing")
		}
		return "-(" + s + ")", nil

	case *ast.KNN:
		return "", search.Unsupported(x.Field, mapping.PartKNN, "KNN must be at the top level of the query")
	}
	return "", fmt.Errorf("unknown predicate node %T", n)
}

func wildcard(q string) string {
	if strings.TrimSpace(q) == "" {
		return "*"
	}
	return q
}
