package redisom

import (
	"context"

	"github.com/omniql-engine/redisom/engine/ast"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/reverse"
	"github.com/omniql-engine/redisom/engine/translator"
)

// AggregationStream builds an FT.AGGREGATE pipeline. Stages run in the order
// they are added. Like Stream, every method returns a new value.
type AggregationStream struct {
	client *Client
	schema *models.EntitySchema
	filter ast.Node
	stages []models.Stage
	err    error
}

func (a *AggregationStream) with(st models.Stage) *AggregationStream {
	c := *a
	c.stages = append(append([]models.Stage(nil), a.stages...), st)
	return &c
}

// Load adds LOAD for the given properties.
func (a *AggregationStream) Load(fields ...string) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageLoad, Fields: fields})
}

// LoadAll adds LOAD *.
func (a *AggregationStream) LoadAll() *AggregationStream {
	return a.with(models.Stage{Kind: models.StageLoad, LoadAll: true})
}

// GroupBy starts a group; follow it with Reduce calls.
func (a *AggregationStream) GroupBy(fields ...string) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageGroupBy, Fields: fields})
}

// Reduce attaches a reducer to the current group. Without a preceding
// GroupBy the reducer runs over all rows (GROUPBY 0). field is empty for
// COUNT; params follow it, as in QUANTILE's quantile or RANDOM_SAMPLE's size.
func (a *AggregationStream) Reduce(fn, field, alias string, params ...string) *AggregationStream {
	r := models.Reducer{Func: fn, Alias: alias}
	if field != "" {
		r.Args = append(r.Args, field)
	}
	r.Args = append(r.Args, params...)

	n := len(a.stages)
	if n == 0 || a.stages[n-1].Kind != models.StageGroupBy {
		return a.with(models.Stage{Kind: models.StageGroupBy, Reducers: []models.Reducer{r}})
	}
	c := *a
	c.stages = append([]models.Stage(nil), a.stages...)
	last := c.stages[n-1]
	last.Reducers = append(append([]models.Reducer(nil), last.Reducers...), r)
	c.stages[n-1] = last
	return &c
}

// Apply adds APPLY expr AS alias.
func (a *AggregationStream) Apply(expr, alias string) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageApply, Expr: expr, Alias: alias})
}

// Filter adds a FILTER expression over the rows produced so far.
func (a *AggregationStream) Filter(expr string) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageFilter, Expr: expr})
}

// FilterPresent keeps rows where the field has a value.
func (a *AggregationStream) FilterPresent(field string) *AggregationStream {
	return a.filterExists(field, false)
}

// FilterMissing keeps rows where the field has no value.
func (a *AggregationStream) FilterMissing(field string) *AggregationStream {
	return a.filterExists(field, true)
}

func (a *AggregationStream) filterExists(field string, missing bool) *AggregationStream {
	fd, ok := a.schema.Field(field)
	if !ok {
		fd, ok = a.schema.FieldByGoPath(field)
	}
	if !ok {
		c := *a
		if c.err == nil {
			c.err = &models.PropertyNotFoundError{Entity: a.schema.Name, Segment: field}
		}
		return &c
	}
	return a.Filter(translator.ExistsExpr(fd, missing))
}

// Sorted adds SORTBY. max > 0 adds MAX max.
func (a *AggregationStream) Sorted(max int, sorts ...models.SortSpec) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageSortBy, Sorts: sorts, Max: max})
}

// Limit adds LIMIT offset num.
func (a *AggregationStream) Limit(offset, num int) *AggregationStream {
	return a.with(models.Stage{Kind: models.StageLimit, Offset: offset, Num: num})
}

// Query compiles the pipeline without running it.
func (a *AggregationStream) Query() (*models.CompiledQuery, error) {
	if a.err != nil {
		return nil, a.err
	}
	q, err := translator.CompileAggregation(a.schema, a.filter, a.stages, a.client.cc)
	a.client.metrics.RecordCompile("aggregation", err)
	return q, err
}

// Run executes the pipeline. Each row carries the loaded and computed
// properties in Fields.
func (a *AggregationStream) Run(ctx context.Context) (*models.ResultSet, error) {
	q, err := a.Query()
	if err != nil {
		return nil, err
	}
	return a.client.Execute(ctx, q)
}

// Tuples runs the pipeline and returns the named properties of every row.
func (a *AggregationStream) Tuples(ctx context.Context, names ...string) ([]models.Tuple, error) {
	rs, err := a.Run(ctx)
	if err != nil {
		return nil, err
	}
	return reverse.Project(rs, names), nil
}
