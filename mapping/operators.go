package mapping

import (
	"sort"
	"strings"
	"unicode"
)

// PartType identifies the operator a single criteria part applies to a field.
type PartType string

const (
	PartSimpleProperty         PartType = "SIMPLE_PROPERTY"
	PartNegatingSimpleProperty PartType = "NEGATING_SIMPLE_PROPERTY"
	PartBetween                PartType = "BETWEEN"
	PartLessThan               PartType = "LESS_THAN"
	PartLessThanEqual          PartType = "LESS_THAN_EQUAL"
	PartGreaterThan            PartType = "GREATER_THAN"
	PartGreaterThanEqual       PartType = "GREATER_THAN_EQUAL"
	PartBefore                 PartType = "BEFORE"
	PartAfter                  PartType = "AFTER"
	PartStartingWith           PartType = "STARTING_WITH"
	PartEndingWith             PartType = "ENDING_WITH"
	PartLike                   PartType = "LIKE"
	PartNotLike                PartType = "NOT_LIKE"
	PartContaining             PartType = "CONTAINING"
	PartNotContaining          PartType = "NOT_CONTAINING"
	PartContainingAll          PartType = "CONTAINING_ALL"
	PartIn                     PartType = "IN"
	PartNotIn                  PartType = "NOT_IN"
	PartNear                   PartType = "NEAR"
	PartIsNull                 PartType = "IS_NULL"
	PartIsNotNull              PartType = "IS_NOT_NULL"
	PartTrue                   PartType = "TRUE"
	PartFalse                  PartType = "FALSE"
	PartKNN                    PartType = "KNN"
)

// ============================================================================
// METHOD-NAME KEYWORDS (SSOT)
// ============================================================================

// PartKeywords maps every recognised method-name operator suffix to its part type.
// "Is" aliases are listed explicitly so the longest-first scan sees them.
var PartKeywords = map[string]PartType{
	"Is":     PartSimpleProperty,
	"Equals": PartSimpleProperty,

	"Not":   PartNegatingSimpleProperty,
	"IsNot": PartNegatingSimpleProperty,

	"Between":   PartBetween,
	"IsBetween": PartBetween,

	"LessThan":           PartLessThan,
	"IsLessThan":         PartLessThan,
	"LessThanEqual":      PartLessThanEqual,
	"IsLessThanEqual":    PartLessThanEqual,
	"GreaterThan":        PartGreaterThan,
	"IsGreaterThan":      PartGreaterThan,
	"GreaterThanEqual":   PartGreaterThanEqual,
	"IsGreaterThanEqual": PartGreaterThanEqual,
	"Before":             PartBefore,
	"IsBefore":           PartBefore,
	"After":              PartAfter,
	"IsAfter":            PartAfter,

	"StartingWith":   PartStartingWith,
	"IsStartingWith": PartStartingWith,
	"StartsWith":     PartStartingWith,
	"EndingWith":     PartEndingWith,
	"IsEndingWith":   PartEndingWith,
	"EndsWith":       PartEndingWith,

	"Like":      PartLike,
	"IsLike":    PartLike,
	"NotLike":   PartNotLike,
	"IsNotLike": PartNotLike,

	"Containing":      PartContaining,
	"IsContaining":    PartContaining,
	"Contains":        PartContaining,
	"NotContaining":   PartNotContaining,
	"IsNotContaining": PartNotContaining,
	"NotContains":     PartNotContaining,
	"ContainingAll":   PartContainingAll,
	"IsContainingAll": PartContainingAll,
	"ContainsAll":     PartContainingAll,

	"In":      PartIn,
	"IsIn":    PartIn,
	"NotIn":   PartNotIn,
	"IsNotIn": PartNotIn,

	"Near":   PartNear,
	"IsNear": PartNear,

	"IsNull":    PartIsNull,
	"Null":      PartIsNull,
	"IsNotNull": PartIsNotNull,
	"NotNull":   PartIsNotNull,

	"True":    PartTrue,
	"IsTrue":  PartTrue,
	"False":   PartFalse,
	"IsFalse": PartFalse,
}

// PartArity is the number of method arguments each part type consumes.
var PartArity = map[PartType]int{
	PartSimpleProperty:         1,
	PartNegatingSimpleProperty: 1,
	PartBetween:                2,
	PartLessThan:               1,
	PartLessThanEqual:          1,
	PartGreaterThan:            1,
	PartGreaterThanEqual:       1,
	PartBefore:                 1,
	PartAfter:                  1,
	PartStartingWith:           1,
	PartEndingWith:             1,
	PartLike:                   1,
	PartNotLike:                1,
	PartContaining:             1,
	PartNotContaining:          1,
	PartContainingAll:          1,
	PartIn:                     1,
	PartNotIn:                  1,
	PartNear:                   2,
	PartIsNull:                 0,
	PartIsNotNull:              0,
	PartTrue:                   0,
	PartFalse:                  0,
	PartKNN:                    2,
}

// KeywordWords holds each keyword split into camel-case words, ordered
// longest-first (by word count, then by length, then alphabetically).
var KeywordWords [][]string

func init() {
	keywords := make([]string, 0, len(PartKeywords))
	for k := range PartKeywords {
		keywords = append(keywords, k)
	}
	KeywordWords = make([][]string, 0, len(keywords))
	for _, k := range keywords {
		KeywordWords = append(KeywordWords, SplitCamel(k))
	}
	sort.Slice(KeywordWords, func(i, j int) bool {
		a, b := KeywordWords[i], KeywordWords[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		la, lb := len(strings.Join(a, "")), len(strings.Join(b, ""))
		if la != lb {
			return la > lb
		}
		return strings.Join(a, "") < strings.Join(b, "")
	})
}

// GetPartType returns the part type for a keyword ("ContainingAll", ...).
func GetPartType(keyword string) (PartType, bool) {
	p, ok := PartKeywords[keyword]
	return p, ok
}

// GetPartArity returns how many arguments a part type consumes.
func GetPartArity(p PartType) int {
	if n, ok := PartArity[p]; ok {
		return n
	}
	return 1
}

// SplitCamel splits "IsContainingAll" into ["Is", "Containing", "All"].
func SplitCamel(s string) []string {
	var words []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
