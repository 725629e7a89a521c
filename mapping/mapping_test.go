package mapping

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetIndexType(t *testing.T) {
	tests := []struct {
		token  string
		want   IndexType
		wantOK bool
	}{
		{"tag", IndexTag, true},
		{"TEXT", IndexText, true},
		{"Numeric", IndexNumeric, true},
		{"int", IndexNumeric, true},
		{"timestamp", IndexNumeric, true},
		{"keyword", IndexTag, true},
		{"bool", IndexTag, true},
		{"string", IndexText, true},
		{"point", IndexGeo, true},
		{"embedding", IndexVector, true},
		{"blob", IndexNone, false},
		{"", IndexNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := GetIndexType(tt.token)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("GetIndexType(%q) = %q, %v; want %q, %v", tt.token, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestModifierAllowed(t *testing.T) {
	tests := []struct {
		modifier    string
		index       IndexType
		wantKnown   bool
		wantAllowed bool
	}{
		{"sortable", IndexNumeric, true, true},
		{"sortable", IndexVector, true, false},
		{"weight", IndexText, true, true},
		{"weight", IndexTag, true, false},
		{"separator", IndexTag, true, true},
		{"dim", IndexVector, true, true},
		{"dim", IndexGeo, true, false},
		{"stored", IndexTag, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.modifier+"/"+string(tt.index), func(t *testing.T) {
			known, allowed := ModifierAllowed(tt.modifier, tt.index)
			if known != tt.wantKnown || allowed != tt.wantAllowed {
				t.Errorf("ModifierAllowed = %v, %v; want %v, %v", known, allowed, tt.wantKnown, tt.wantAllowed)
			}
		})
	}
}

func TestPartsForIndex(t *testing.T) {
	for _, it := range []IndexType{IndexText, IndexTag, IndexNumeric, IndexGeo, IndexVector} {
		parts := GetPartsForIndex(it)
		if len(parts) == 0 {
			t.Errorf("%s has no supported parts", it)
		}
		if !sort.SliceIsSorted(parts, func(i, j int) bool { return parts[i] < parts[j] }) {
			t.Errorf("%s parts are not sorted: %v", it, parts)
		}
		for _, p := range parts {
			if _, ok := GetClause(it, p); !ok {
				t.Errorf("GetClause(%s, %s) missing", it, p)
			}
		}
	}
	if diff := cmp.Diff([]PartType{PartKNN, PartNear}, GetPartsForIndex(IndexVector)); diff != "" {
		t.Errorf("vector parts mismatch (-want +got):\n%s", diff)
	}
	if _, ok := GetClause(IndexGeo, PartLike); ok {
		t.Error("GEO fields should not support LIKE")
	}
}

func TestSplitCamel(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"IsContainingAll", []string{"Is", "Containing", "All"}},
		{"Between", []string{"Between"}},
		{"KNN", []string{"KNN"}},
		{"", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SplitCamel(tt.in)); diff != "" {
			t.Errorf("SplitCamel(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestKeywordWordsLongestFirst(t *testing.T) {
	for i := 1; i < len(KeywordWords); i++ {
		if len(KeywordWords[i]) > len(KeywordWords[i-1]) {
			t.Fatalf("KeywordWords[%d] %v is longer than its predecessor %v", i, KeywordWords[i], KeywordWords[i-1])
		}
	}
}

func TestLookups(t *testing.T) {
	if !IsKnownCommand("ft.search") || IsKnownCommand("FLUSHALL") {
		t.Error("IsKnownCommand misclassifies commands")
	}
	if n, ok := GetReducerArity("quantile"); !ok || n != 2 {
		t.Errorf("GetReducerArity(quantile) = %d, %v", n, ok)
	}
	if p, ok := GetPartType("Between"); !ok || p != PartBetween {
		t.Errorf("GetPartType(Between) = %s, %v", p, ok)
	}
	if GetPartArity(PartBetween) != 2 || GetPartArity(PartIsNull) != 0 {
		t.Error("GetPartArity mismatch")
	}
	verbs := MethodVerbList()
	if !sort.StringsAreSorted(verbs) || len(verbs) != len(MethodVerbs) {
		t.Errorf("MethodVerbList = %v", verbs)
	}
}
