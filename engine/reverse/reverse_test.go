package reverse

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

func TestDecodeSearchRESP2(t *testing.T) {
	reply := []interface{}{
		int64(2),
		"Product:1", []interface{}{"name", "lamp", "price", "10"},
		"Product:2", []interface{}{"name", "desk", "price", "250"},
	}
	rs, err := DecodeSearch(reply, SearchLayout{})
	if err != nil {
		t.Fatal(err)
	}
	want := &models.ResultSet{Total: 2, Rows: []models.Row{
		{Key: "Product:1", Fields: map[string]string{"name": "lamp", "price": "10"}},
		{Key: "Product:2", Fields: map[string]string{"name": "desk", "price": "250"}},
	}}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Errorf("DecodeSearch mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSearchNoContent(t *testing.T) {
	rs, err := DecodeSearch([]interface{}{int64(3), "Product:1", "Product:7"}, SearchLayout{NoContent: true})
	if err != nil {
		t.Fatal(err)
	}
	if rs.Total != 3 {
		t.Errorf("Total = %d, want 3", rs.Total)
	}
	if diff := cmp.Diff([]string{"Product:1", "Product:7"}, rs.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSearchRESP3(t *testing.T) {
	reply := map[interface{}]interface{}{
		"total_results": int64(1),
		"results": []interface{}{
			map[interface{}]interface{}{
				"id": "Product:9",
				"extra_attributes": map[interface{}]interface{}{
					"name":              "lamp",
					"__embedding_score": "0.25",
				},
			},
		},
	}
	rs, err := DecodeSearch(reply, SearchLayout{ScoreKey: "__embedding_score"})
	if err != nil {
		t.Fatal(err)
	}
	if rs.Total != 1 || len(rs.Rows) != 1 {
		t.Fatalf("got %+v", rs)
	}
	row := rs.Rows[0]
	if row.Key != "Product:9" || row.Fields["name"] != "lamp" || row.Score != 0.25 {
		t.Errorf("row = %+v", row)
	}
}

func TestDecodeAggregate(t *testing.T) {
	reply := []interface{}{
		int64(2),
		[]interface{}{"category", "lamps", "count", "4"},
		[]interface{}{"category", "desks", "count", "1"},
	}
	q := &models.CompiledQuery{Command: models.CmdAggregate}
	rs, err := Decode(q, reply)
	if err != nil {
		t.Fatal(err)
	}
	want := &models.ResultSet{Total: 2, Rows: []models.Row{
		{Fields: map[string]string{"category": "lamps", "count": "4"}},
		{Fields: map[string]string{"category": "desks", "count": "1"}},
	}}
	if diff := cmp.Diff(want, rs); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}

	tuples := Project(rs, []string{"count", "category"})
	if diff := cmp.Diff([]models.Tuple{{"4", "lamps"}, {"1", "desks"}}, tuples); diff != "" {
		t.Errorf("Project mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMalformed(t *testing.T) {
	sq := &models.CompiledQuery{Command: models.CmdSearch}
	tests := []struct {
		name  string
		q     *models.CompiledQuery
		reply interface{}
	}{
		{"nil", sq, nil},
		{"empty", sq, []interface{}{}},
		{"bad total", sq, []interface{}{"x"}},
		{"missing fields", sq, []interface{}{int64(1), "Product:1"}},
		{"odd fields", sq, []interface{}{int64(1), "Product:1", []interface{}{"name"}}},
		{"scalar", sq, "OK"},
		{"aggregate scalar", &models.CompiledQuery{Command: models.CmdAggregate}, int64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.q, tt.reply); !errors.Is(err, ErrMalformedReply) {
				t.Errorf("err = %v, want ErrMalformedReply", err)
			}
		})
	}

	if _, err := Decode(&models.CompiledQuery{Command: "FT.INFO"}, []interface{}{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("FT.INFO err = %v, want ErrUnsupported", err)
	}
}

type address struct {
	City string `json:"city" redisom:"tag"`
}

type member struct {
	ID        string       `json:"id" redisom:"id"`
	Name      string       `json:"name" redisom:"text"`
	Skills    []string     `json:"skills" redisom:"tag,separator=|"`
	Age       int          `json:"age" redisom:"numeric"`
	Home      models.Point `json:"home" redisom:"geo"`
	Joined    time.Time    `json:"joined" redisom:"numeric"`
	Address   address      `json:"address"`
	Embedding []float32    `json:"embedding" redisom:"vector,algorithm=flat,dim=2"`
}

func (member) RedisEntity() models.EntityOptions {
	return models.EntityOptions{Name: "Member", Storage: mapping.StorageHash}
}

func describe(t *testing.T, v interface{}) *models.EntitySchema {
	t.Helper()
	s, err := schema.NewRegistry(nil).Describe(reflect.TypeOf(v))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDecodeRowHash(t *testing.T) {
	s := describe(t, member{})
	blob, err := search.EncodeVector([]float32{0.5, -1}, "FLOAT32")
	if err != nil {
		t.Fatal(err)
	}
	row := models.Row{Key: "Member:42", Fields: map[string]string{
		"name":         "Ada",
		"skills":       "go|redis",
		"age":          "36",
		"home":         "-0.1278,51.5074",
		"joined":       "1700000000000",
		"address.city": "London",
		"embedding":    string(blob),
	}}

	var got member
	if err := DecodeRow(s, row, &got); err != nil {
		t.Fatal(err)
	}
	want := member{
		ID:        "42",
		Name:      "Ada",
		Skills:    []string{"go", "redis"},
		Age:       36,
		Home:      models.Point{Lon: -0.1278, Lat: 51.5074},
		Joined:    time.UnixMilli(1700000000000),
		Address:   address{City: "London"},
		Embedding: []float32{0.5, -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRow mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRowJSON(t *testing.T) {
	s, err := schema.NewBuilder("Member").Text("name").Build()
	if err != nil {
		t.Fatal(err)
	}
	row := models.Row{Key: "Member:7", Fields: map[string]string{
		"$": `{"id":"7","name":"Grace","home":"2.35,48.85","address":{"city":"Paris"}}`,
	}}
	var got member
	if err := DecodeRow(s, row, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "7" || got.Name != "Grace" || got.Address.City != "Paris" || got.Home != (models.Point{Lon: 2.35, Lat: 48.85}) {
		t.Errorf("DecodeRow = %+v", got)
	}

	row.Fields["$"] = `{"name":`
	if err := DecodeRow(s, row, &got); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("truncated document err = %v, want ErrMalformedReply", err)
	}
}

func TestDecodeRowBadVector(t *testing.T) {
	s := describe(t, member{})
	row := models.Row{Key: "Member:1", Fields: map[string]string{"embedding": "abc"}}
	var got member
	if err := DecodeRow(s, row, &got); err == nil {
		t.Error("expected an error for a truncated vector blob")
	}
}
