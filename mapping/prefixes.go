package mapping

import "sort"

// IntentCategory is decided by the verb a derived method starts with.
type IntentCategory string

const (
	CategorySearch             IntentCategory = "SEARCH"
	CategoryProbabilisticExist IntentCategory = "PROBABILISTIC_EXISTS"
	CategoryProbabilisticCount IntentCategory = "PROBABILISTIC_COUNT"
	CategoryDeleteByQuery      IntentCategory = "DELETE_BY_QUERY"
)

// MethodVerbs maps the leading verb of a derived method to its category.
var MethodVerbs = map[string]IntentCategory{
	"find":   CategorySearch,
	"read":   CategorySearch,
	"get":    CategorySearch,
	"query":  CategorySearch,
	"search": CategorySearch,
	"stream": CategorySearch,
	"exists": CategoryProbabilisticExist,
	"count":  CategoryProbabilisticCount,
	"delete": CategoryDeleteByQuery,
	"remove": CategoryDeleteByQuery,
}

// SubjectWords may sit between the verb and "By" (findFirstBy, findTop10By,
// findDistinctBy, findAllBy). First and Top set a result limit.
var SubjectWords = map[string]bool{
	"All":      false,
	"Distinct": false,
	"First":    true,
	"Top":      true,
}

// Sort direction words recognised after OrderBy<Property>.
const (
	SortAsc  = "Asc"
	SortDesc = "Desc"
)

// Combinator words splitting criteria into parts.
const (
	WordAnd = "And"
	WordOr  = "Or"
	WordBy  = "By"
	WordOrd = "Order"
)

// MethodVerbList returns the verbs sorted for stable suggestions.
func MethodVerbList() []string {
	verbs := make([]string, 0, len(MethodVerbs))
	for v := range MethodVerbs {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return verbs
}

// GetCategory returns the category a verb maps to.
func GetCategory(verb string) (IntentCategory, bool) {
	c, ok := MethodVerbs[verb]
	return c, ok
}
