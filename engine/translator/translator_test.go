package translator

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/omniql-engine/redisom/engine/ast"
	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/parser"
	"github.com/omniql-engine/redisom/engine/schema"
)

type fixture struct {
	s        *models.EntitySchema
	category ast.TagField
	tags     ast.TagField
	name     ast.TextField
	price    ast.NumericField
	location ast.GeoField
	vec      ast.VectorField
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, err := schema.NewBuilder("Product").
		Tag("category").
		Tag("tags", schema.Collection()).
		Text("name").
		Numeric("price", schema.Sortable(), schema.IndexMissing()).
		Geo("location").
		Vector("embedding", models.VectorSpec{Algorithm: "HNSW", Dim: 3}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	f := fixture{s: s}
	var e error
	f.category, e = ast.Tag(s, "category")
	must(e)
	f.tags, e = ast.Tag(s, "tags")
	must(e)
	f.name, e = ast.Text(s, "name")
	must(e)
	f.price, e = ast.Numeric(s, "price")
	must(e)
	f.location, e = ast.Geo(s, "location")
	must(e)
	f.vec, e = ast.Vector(s, "embedding")
	must(e)
	return f
}

var cc = models.CompileContext{Dialect: 2, MaxLimit: 100}

func TestCompilePredicateQueryString(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"match all", nil, "*"},
		{"single tag", f.category.Eq("shoes"), "@category:{shoes}"},
		{"and", ast.AllOf(f.category.Eq("shoes"), f.price.Between(10, 20)), "@category:{shoes} @price:[10 20]"},
		{"or", ast.AnyOf(f.category.Eq("a"), f.category.Eq("b")), "(@category:{a}) | (@category:{b})"},
		{"or inside and", ast.AllOf(f.name.Eq("boot"), ast.AnyOf(f.category.Eq("a"), f.price.Lt(5))),
			"@name:boot ((@category:{a}) | (@price:[-inf (5]))"},
		{"not", ast.Negate(f.category.Eq("a")), "-(@category:{a})"},
		{"double negation", ast.Negate(ast.Negate(f.category.Eq("a"))), "@category:{a}"},
		{"contains all", f.tags.ContainsAll("go", "redis"), "@tags:{go} @tags:{redis}"},
		{"tag in", f.category.In("a", "b c"), `@category:{a|"b c"}`},
		{"numeric in", f.price.In(1, 2), "(@price:[1 1]|@price:[2 2])"},
		{"geo", f.location.Near(models.Point{Lon: -122.0665, Lat: 37.3777}, models.NewDistance(45, models.Miles)),
			"@location:[-122.0665 37.3777 45.0 mi]"},
		{"missing", f.price.IsMissing(), "ismissing(@price)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := CompilePredicate(f.s, tt.node, SearchOptions{}, cc)
			if err != nil {
				t.Fatalf("CompilePredicate failed: %v", err)
			}
			if q.QueryString != tt.want {
				t.Errorf("QueryString = %q, want %q", q.QueryString, tt.want)
			}
		})
	}
}

func TestCompilePredicateArgs(t *testing.T) {
	f := newFixture(t)
	q, err := CompilePredicate(f.s, f.category.Eq("shoes"), SearchOptions{
		Sort:   &models.SortSpec{Field: "price", Descending: true},
		Return: []models.ReturnField{{Identifier: "name"}},
	}, cc)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{
		"FT.SEARCH", "ProductIdx", "@category:{shoes}",
		"RETURN", 3, "$.name", "AS", "name",
		"SORTBY", "price", "DESC",
		"LIMIT", 0, 100,
		"DIALECT", 2,
	}
	if diff := cmp.Diff(want, q.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileKNN(t *testing.T) {
	f := newFixture(t)

	q, err := CompilePredicate(f.s, f.vec.KNN(3, []float32{1, 2, 3}), SearchOptions{}, cc)
	if err != nil {
		t.Fatal(err)
	}
	if want := "(*)=>[KNN $K @embedding $embedding_blob]"; q.QueryString != want {
		t.Errorf("QueryString = %q, want %q", q.QueryString, want)
	}
	if q.Params["K"] != 3 {
		t.Errorf("K = %v, want 3", q.Params["K"])
	}
	if blob, _ := q.Params["embedding_blob"].([]byte); len(blob) != 12 {
		t.Errorf("blob length = %d, want 12", len(blob))
	}
	if diff := cmp.Diff(&models.SortSpec{Field: "__embedding_score"}, q.Sort); diff != "" {
		t.Errorf("default sort mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&models.Limit{Offset: 0, Num: 3}, q.Limit); diff != "" {
		t.Errorf("default limit mismatch (-want +got):\n%s", diff)
	}

	q, err = CompilePredicate(f.s, ast.AllOf(f.category.Eq("shoes"), f.vec.KNN(2, []float32{1, 2, 3})), SearchOptions{}, cc)
	if err != nil {
		t.Fatal(err)
	}
	if want := "(@category:{shoes})=>[KNN $K @embedding $embedding_blob]"; q.QueryString != want {
		t.Errorf("hybrid QueryString = %q, want %q", q.QueryString, want)
	}
}

func TestCompileKNNErrors(t *testing.T) {
	f := newFixture(t)
	knn := f.vec.KNN(2, []float32{1, 2, 3})

	tests := []struct {
		name string
		node ast.Node
		want error
	}{
		{"inside or", ast.AnyOf(f.category.Eq("a"), knn), models.ErrUnsupportedQueryShape},
		{"inside not", ast.AllOf(f.category.Eq("a"), ast.Negate(knn)), models.ErrUnsupportedQueryShape},
		{"two knn", ast.AllOf(knn, f.vec.KNN(5, []float32{3, 2, 1})), models.ErrUnsupportedQueryShape},
		{"wrong dimension", f.vec.KNN(2, []float32{1, 2}), ErrArguments},
		{"zero k", f.vec.KNN(0, []float32{1, 2, 3}), ErrArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompilePredicate(f.s, tt.node, SearchOptions{}, cc)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompileRejectsForeignField(t *testing.T) {
	f := newFixture(t)
	other, err := schema.NewBuilder("Order").Tag("status").Build()
	if err != nil {
		t.Fatal(err)
	}
	status, _ := ast.Tag(other, "status")

	_, err = CompilePredicate(f.s, ast.AllOf(f.category.Eq("a"), status.Eq("open")), SearchOptions{}, cc)
	if !errors.Is(err, models.ErrPropertyNotFound) {
		t.Errorf("err = %v, want ErrPropertyNotFound", err)
	}
	_, err = CompilePredicate(f.s, nil, SearchOptions{Sort: &models.SortSpec{Field: "nope"}}, cc)
	if !errors.Is(err, models.ErrPropertyNotFound) {
		t.Errorf("sort err = %v, want ErrPropertyNotFound", err)
	}
}

func compileMethod(t *testing.T, s *models.EntitySchema, method string, args ...interface{}) (*models.CompiledQuery, error) {
	t.Helper()
	intent, err := parser.Parse(method, s)
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", method, err)
	}
	return CompileIntent(s, intent, args, cc)
}

func TestCompileIntent(t *testing.T) {
	f := newFixture(t)

	q, err := compileMethod(t, f.s, "findByCategoryAndPriceBetween", "shoes", 10, 20,
		models.Page{Offset: 5, Limit: 10}, models.Sort{Property: "price", Descending: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := "@category:{shoes} @price:[10 20]"; q.QueryString != want {
		t.Errorf("QueryString = %q, want %q", q.QueryString, want)
	}
	if diff := cmp.Diff(&models.Limit{Offset: 5, Num: 10}, q.Limit); diff != "" {
		t.Errorf("limit mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&models.SortSpec{Field: "price", Descending: true}, q.Sort); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}

	q, err = compileMethod(t, f.s, "findByCategoryOrName", "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if want := "(@category:{a}) | (@name:b)"; q.QueryString != want {
		t.Errorf("OR QueryString = %q, want %q", q.QueryString, want)
	}

	q, err = compileMethod(t, f.s, "findTop5ByCategoryOrderByPriceDesc", "a")
	if err != nil {
		t.Fatal(err)
	}
	if q.Limit.Num != 5 || q.Sort == nil || !q.Sort.Descending {
		t.Errorf("top/order compiled to limit %+v sort %+v", q.Limit, q.Sort)
	}

	q, err = compileMethod(t, f.s, "findByEmbeddingNearAndCategory", []float32{1, 2, 3}, 4, "shoes")
	if err != nil {
		t.Fatal(err)
	}
	if want := "(@category:{shoes})=>[KNN $K @embedding $embedding_blob]"; q.QueryString != want {
		t.Errorf("KNN intent QueryString = %q, want %q", q.QueryString, want)
	}
	if q.Params["K"] != 4 {
		t.Errorf("K = %v, want 4", q.Params["K"])
	}
}

func TestCompileIntentCategories(t *testing.T) {
	f := newFixture(t)

	q, err := compileMethod(t, f.s, "existsByCategory", "shoes")
	if err != nil {
		t.Fatal(err)
	}
	if !q.NoContent || q.Limit == nil || q.Limit.Num != 0 {
		t.Errorf("exists fall-through = %s, want NOCONTENT LIMIT 0 0", q)
	}

	q, err = compileMethod(t, f.s, "deleteByPriceLessThan", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !q.NoContent || q.Limit.Num != 100 {
		t.Errorf("delete = %s, want NOCONTENT LIMIT 0 100", q)
	}
}

func TestCompileIntentArguments(t *testing.T) {
	f := newFixture(t)
	if _, err := compileMethod(t, f.s, "findByPriceBetween", 1); !errors.Is(err, ErrArguments) {
		t.Errorf("too few err = %v, want ErrArguments", err)
	}
	if _, err := compileMethod(t, f.s, "findByCategory", "a", "b"); !errors.Is(err, ErrArguments) {
		t.Errorf("extra err = %v, want ErrArguments", err)
	}
	if _, err := compileMethod(t, f.s, "findByEmbeddingNear", []float32{1, 2, 3}, "many"); !errors.Is(err, ErrArguments) {
		t.Errorf("bad K err = %v, want ErrArguments", err)
	}
	if _, err := compileMethod(t, f.s, "findByCategory", ""); !errors.Is(err, search.ErrEmptyOperand) {
		t.Errorf("empty tag err = %v, want ErrEmptyOperand", err)
	}
}

func TestCompileAggregation(t *testing.T) {
	f := newFixture(t)

	q, err := CompileAggregation(f.s, f.category.Eq("shoes"), []models.Stage{
		{Kind: models.StageGroupBy, Reducers: []models.Reducer{{Func: "count", Alias: "n"}}},
	}, cc)
	if err != nil {
		t.Fatal(err)
	}
	want := []interface{}{
		"FT.AGGREGATE", "ProductIdx", "@category:{shoes}",
		"GROUPBY", 0, "REDUCE", "COUNT", 0, "AS", "n",
		"DIALECT", 2,
	}
	if diff := cmp.Diff(want, q.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	q, err = CompileAggregation(f.s, nil, []models.Stage{
		{Kind: models.StageLoad, Fields: []string{"name"}},
		{Kind: models.StageGroupBy, Fields: []string{"category"}, Reducers: []models.Reducer{
			{Func: "AVG", Args: []string{"price"}, Alias: "avg"},
			{Func: "QUANTILE", Args: []string{"price", "0.5"}, Alias: "median"},
		}},
		{Kind: models.StageApply, Expr: "@avg * 2", Alias: "double"},
		{Kind: models.StageFilter, Expr: ExistsExpr(f.price.Field(), false)},
		{Kind: models.StageSortBy, Sorts: []models.SortSpec{{Field: "avg", Descending: true}}, Max: 10},
		{Kind: models.StageLimit, Offset: 0, Num: 5},
	}, cc)
	if err != nil {
		t.Fatal(err)
	}
	want = []interface{}{
		"FT.AGGREGATE", "ProductIdx", "*",
		"LOAD", 1, "@name",
		"GROUPBY", 1, "@category",
		"REDUCE", "AVG", 1, "@price", "AS", "avg",
		"REDUCE", "QUANTILE", 2, "@price", "0.5", "AS", "median",
		"APPLY", "@avg * 2", "AS", "double",
		"FILTER", "exists(@price)",
		"SORTBY", 2, "@avg", "DESC", "MAX", 10,
		"LIMIT", 0, 5,
		"DIALECT", 2,
	}
	if diff := cmp.Diff(want, q.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileAggregationErrors(t *testing.T) {
	f := newFixture(t)
	bad := [][]models.Stage{
		{{Kind: models.StageGroupBy, Reducers: []models.Reducer{{Func: "MEDIAN", Args: []string{"price"}}}}},
		{{Kind: models.StageGroupBy, Reducers: []models.Reducer{{Func: "SUM"}}}},
		{{Kind: models.StageApply, Expr: "@price"}},
		{{Kind: models.StageSortBy}},
	}
	for i, stages := range bad {
		if _, err := CompileAggregation(f.s, nil, stages, cc); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
	if _, err := CompileAggregation(f.s, f.vec.KNN(1, []float32{1, 2, 3}), nil, cc); !errors.Is(err, models.ErrUnsupportedQueryShape) {
		t.Errorf("KNN filter err = %v", err)
	}
	if got := ExistsExpr(f.price.Field(), true); got != "!exists(@price)" {
		t.Errorf("ExistsExpr(missing) = %q", got)
	}
}
