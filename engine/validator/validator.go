package validator

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ValidationResult contains detailed validation info
type ValidationResult struct {
	Valid      bool
	Error      string
	Suggestion string
	Position   int    // byte offset of the error in the query string
	NearText   string // text near the error
}

// Validate checks a compiled command before it is sent to the backend.
func Validate(q *models.CompiledQuery) error {
	res := ValidateWithDetails(q)
	if res.Valid {
		return nil
	}
	if res.NearText != "" {
		return fmt.Errorf("invalid %s: %s near %q", q.Command, res.Error, res.NearText)
	}
	return fmt.Errorf("invalid %s: %s", q.Command, res.Error)
}

// ValidateWithDetails returns detailed validation result
func ValidateWithDetails(q *models.CompiledQuery) *ValidationResult {
	if q == nil {
		return &ValidationResult{Error: "nil query"}
	}
	if !mapping.IsKnownCommand(q.Command) {
		return &ValidationResult{Error: "unknown command " + q.Command}
	}
	if strings.TrimSpace(q.Index) == "" {
		return &ValidationResult{Error: "missing index name", Suggestion: "register the entity schema or set an index override"}
	}
	if strings.TrimSpace(q.QueryString) == "" {
		return &ValidationResult{Error: "empty query string", Suggestion: "use * to match every document"}
	}
	if res := ValidateQueryString(q.QueryString); !res.Valid {
		return res
	}
	for _, name := range paramRefs(q.QueryString) {
		if _, ok := q.Params[name]; !ok {
			return &ValidationResult{
				Error:    fmt.Sprintf("query references $%s but no such parameter is bound", name),
				NearText: "$" + name,
			}
		}
	}
	if q.Limit != nil && (q.Limit.Offset < 0 || q.Limit.Num < 0) {
		return &ValidationResult{Error: fmt.Sprintf("negative LIMIT %d %d", q.Limit.Offset, q.Limit.Num)}
	}
	return &ValidationResult{Valid: true}
}
