package redis

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

func field(alias string, t mapping.IndexType) *models.FieldDescriptor {
	return &models.FieldDescriptor{Name: alias, Path: alias, Alias: alias, IndexType: t, Kind: reflect.String}
}

func TestRenderClauses(t *testing.T) {
	tag := field("status", mapping.IndexTag)
	text := field("description", mapping.IndexText)
	num := field("age", mapping.IndexNumeric)
	geo := field("location", mapping.IndexGeo)
	withMissing := func(fd *models.FieldDescriptor) *models.FieldDescriptor {
		c := *fd
		c.IndexMissing = true
		return &c
	}

	tests := []struct {
		name     string
		fd       *models.FieldDescriptor
		part     mapping.PartType
		operands []interface{}
		want     string
	}{
		{"tag equal", tag, mapping.PartSimpleProperty, []interface{}{"REGISTRATION"}, "@status:{REGISTRATION}"},
		{"tag equal with space", tag, mapping.PartSimpleProperty, []interface{}{"IN PROGRESS"}, `@status:{"IN PROGRESS"}`},
		{"tag not equal", tag, mapping.PartNegatingSimpleProperty, []interface{}{"closed"}, "-@status:{closed}"},
		{"tag in", tag, mapping.PartIn, []interface{}{[]string{"a", "b c", "d"}}, `@status:{a|"b c"|d}`},
		{"tag containing single", tag, mapping.PartContaining, []interface{}{"x"}, "@status:{x}"},
		{"tag containing all", tag, mapping.PartContainingAll, []interface{}{[]string{"go", "redis"}}, "@status:{go} @status:{redis}"},
		{"tag not in", tag, mapping.PartNotIn, []interface{}{[]string{"a", "b"}}, "-@status:{a|b}"},
		{"tag starting with", tag, mapping.PartStartingWith, []interface{}{"pre"}, "@status:{pre*}"},
		{"tag ending with", tag, mapping.PartEndingWith, []interface{}{"fix"}, "@status:{*fix}"},
		{"tag true", tag, mapping.PartTrue, nil, "@status:{true}"},

		{"text equal", text, mapping.PartSimpleProperty, []interface{}{"elegant"}, "@description:elegant"},
		{"text phrase", text, mapping.PartSimpleProperty, []interface{}{"very elegant"}, `@description:"very elegant"`},
		{"text starting with", text, mapping.PartStartingWith, []interface{}{"ele"}, "@description:ele*"},
		{"text ending with", text, mapping.PartEndingWith, []interface{}{"ant"}, "@description:*ant"},
		{"text like", text, mapping.PartLike, []interface{}{"elegnt"}, "@description:%%%elegnt%%%"},
		{"text not like", text, mapping.PartNotLike, []interface{}{"x"}, "-@description:%%%x%%%"},
		{"text in", text, mapping.PartIn, []interface{}{[]string{"red", "blue"}}, "@description:(red|blue)"},

		{"numeric equal", num, mapping.PartSimpleProperty, []interface{}{42}, "@age:[42 42]"},
		{"numeric equal float", num, mapping.PartSimpleProperty, []interface{}{1.5}, "@age:[1.5 1.5]"},
		{"numeric not equal", num, mapping.PartNegatingSimpleProperty, []interface{}{7}, "-@age:[7 7]"},
		{"numeric between", num, mapping.PartBetween, []interface{}{18, 65}, "@age:[18 65]"},
		{"numeric less than", num, mapping.PartLessThan, []interface{}{10}, "@age:[-inf (10]"},
		{"numeric less than equal", num, mapping.PartLessThanEqual, []interface{}{10}, "@age:[-inf 10]"},
		{"numeric greater than", num, mapping.PartGreaterThan, []interface{}{10}, "@age:[(10 inf]"},
		{"numeric greater than equal", num, mapping.PartGreaterThanEqual, []interface{}{int64(10)}, "@age:[10 inf]"},
		{"numeric in", num, mapping.PartIn, []interface{}{[]int{1, 2}}, "(@age:[1 1]|@age:[2 2])"},
		{"numeric in single", num, mapping.PartIn, []interface{}{[]int{3}}, "@age:[3 3]"},
		{"numeric containing all", num, mapping.PartContainingAll, []interface{}{[]int{1, 2}}, "@age:[1 1] @age:[2 2]"},
		{"numeric after time", num, mapping.PartAfter, []interface{}{time.UnixMilli(1700000000000)}, "@age:[(1700000000000 inf]"},

		{"geo near", geo, mapping.PartNear, []interface{}{models.Point{Lon: -122.0665, Lat: 37.3777}, models.NewDistance(45, models.Miles)}, "@location:[-122.0665 37.3777 45.0 mi]"},
		{"geo near strings", geo, mapping.PartNear, []interface{}{"-122.0665,37.3777", "2.5km"}, "@location:[-122.0665 37.3777 2.5 km]"},

		{"is null", withMissing(tag), mapping.PartIsNull, nil, "ismissing(@status)"},
		{"is not null", withMissing(num), mapping.PartIsNotNull, nil, "-ismissing(@age)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.fd, tt.part, tt.operands)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNumericEqualityIsClosedRange(t *testing.T) {
	num := field("price", mapping.IndexNumeric)
	for _, n := range []interface{}{0, -3, 99, int64(1 << 40), uint8(7), 2.25} {
		s, _ := FormatNumeric(n)
		got, err := Render(num, mapping.PartSimpleProperty, []interface{}{n})
		if err != nil {
			t.Fatalf("Render(%v) failed: %v", n, err)
		}
		if want := "@price:[" + s + " " + s + "]"; got != want {
			t.Errorf("Render(%v) = %q, want %q", n, got, want)
		}
	}
}

func TestRenderUnsupported(t *testing.T) {
	tests := []struct {
		fd   *models.FieldDescriptor
		part mapping.PartType
	}{
		{field("age", mapping.IndexNumeric), mapping.PartStartingWith},
		{field("location", mapping.IndexGeo), mapping.PartSimpleProperty},
		{field("status", mapping.IndexTag), mapping.PartBetween},
		{field("embedding", mapping.IndexVector), mapping.PartKNN},
	}
	for _, tt := range tests {
		_, err := Render(tt.fd, tt.part, []interface{}{"x", "y"})
		var shape *models.UnsupportedQueryShapeError
		if !errors.As(err, &shape) {
			t.Fatalf("Render(%s, %s) err = %v, want UnsupportedQueryShapeError", tt.fd.IndexType, tt.part, err)
		}
		if shape.IndexType != tt.fd.IndexType || shape.Part != tt.part {
			t.Errorf("error names %s/%s, want %s/%s", shape.IndexType, shape.Part, tt.fd.IndexType, tt.part)
		}
		if !errors.Is(err, models.ErrUnsupportedQueryShape) {
			t.Errorf("error does not match sentinel")
		}
		if !reflect.DeepEqual(shape.Supported, mapping.GetPartsForIndex(tt.fd.IndexType)) {
			t.Errorf("supported parts = %v", shape.Supported)
		}
	}

	_, err := Render(field("location", mapping.IndexGeo), mapping.PartLike, []interface{}{"x"})
	if err == nil || !strings.Contains(err.Error(), "(supported: IS_NOT_NULL, IS_NULL, NEAR)") {
		t.Errorf("error message = %v", err)
	}
}

func TestRenderRejectsBadOperands(t *testing.T) {
	if _, err := Render(field("age", mapping.IndexNumeric), mapping.PartSimpleProperty, []interface{}{"abc"}); err == nil {
		t.Error("expected error for non-numeric operand")
	}
	if _, err := Render(field("age", mapping.IndexNumeric), mapping.PartBetween, []interface{}{1}); err == nil {
		t.Error("expected arity error")
	}
	if _, err := Render(field("tags", mapping.IndexTag), mapping.PartIn, []interface{}{[]string{}}); err == nil {
		t.Error("expected error for empty IN")
	}
	if _, err := Render(field("location", mapping.IndexGeo), mapping.PartNear, []interface{}{"1,2", "5 parsecs"}); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestRenderNullChecksNeedIndexMissing(t *testing.T) {
	for _, part := range []mapping.PartType{mapping.PartIsNull, mapping.PartIsNotNull} {
		_, err := Render(field("status", mapping.IndexTag), part, nil)
		var shape *models.UnsupportedQueryShapeError
		if !errors.As(err, &shape) || shape.Part != part {
			t.Errorf("Render(%s) err = %v, want UnsupportedQueryShapeError", part, err)
		}
	}
}

func TestRenderRejectsEmptyValues(t *testing.T) {
	tests := []struct {
		name     string
		fd       *models.FieldDescriptor
		part     mapping.PartType
		operands []interface{}
	}{
		{"empty tag", field("category", mapping.IndexTag), mapping.PartSimpleProperty, []interface{}{""}},
		{"blank tag", field("category", mapping.IndexTag), mapping.PartNegatingSimpleProperty, []interface{}{"  "}},
		{"empty tag in list", field("category", mapping.IndexTag), mapping.PartIn, []interface{}{[]string{"a", ""}}},
		{"empty tag prefix", field("category", mapping.IndexTag), mapping.PartStartingWith, []interface{}{""}},
		{"empty text", field("name", mapping.IndexText), mapping.PartSimpleProperty, []interface{}{""}},
		{"empty text token", field("name", mapping.IndexText), mapping.PartLike, []interface{}{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.fd, tt.part, tt.operands)
			if !errors.Is(err, ErrEmptyOperand) {
				t.Errorf("Render = %q, %v; want ErrEmptyOperand", got, err)
			}
		})
	}
}

func TestRenderKNN(t *testing.T) {
	vec := field("embedding", mapping.IndexVector)

	got, err := RenderKNN(vec, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := "(*)=>[KNN $K @embedding $embedding_blob]"; got != want {
		t.Errorf("RenderKNN(empty) = %q, want %q", got, want)
	}

	got, _ = RenderKNN(vec, "@category:{shoes}")
	if want := "(@category:{shoes})=>[KNN $K @embedding $embedding_blob]"; got != want {
		t.Errorf("RenderKNN(filter) = %q, want %q", got, want)
	}

	if _, err := RenderKNN(field("name", mapping.IndexText), ""); !errors.Is(err, models.ErrUnsupportedQueryShape) {
		t.Errorf("KNN on TEXT err = %v", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1, 3.5}
	b, err := EncodeVector(in, "FLOAT32")
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 12 {
		t.Fatalf("len = %d, want 12", len(b))
	}
	// 0.25 = 0x3E800000, little-endian
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x80 || b[3] != 0x3E {
		t.Errorf("first element bytes = % x", b[:4])
	}
	out, err := DecodeVector(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("DecodeVector = %v, want %v", out, in)
	}

	b64, _ := EncodeVector([]float64{1, 2}, "FLOAT64")
	if len(b64) != 16 {
		t.Errorf("FLOAT64 len = %d, want 16", len(b64))
	}
}
