package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omniql-engine/redisom/mapping"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrSchema                = errors.New("schema error")
	ErrPropertyNotFound      = errors.New("property not found")
	ErrUnsupportedQueryShape = errors.New("unsupported query shape")
	ErrQueryExecution        = errors.New("query execution failed")
)

// SchemaError reports an invalid or contradictory field declaration.
type SchemaError struct {
	Entity string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error in %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("schema error in %s.%s: %s", e.Entity, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// PropertyNotFoundError reports a derived method naming an unknown property.
type PropertyNotFoundError struct {
	Method     string
	Entity     string
	Segment    string
	Suggestion string
}

func (e *PropertyNotFoundError) Error() string {
	msg := fmt.Sprintf("no property '%s' found on %s", e.Segment, e.Entity)
	if e.Method != "" {
		msg += " for method " + e.Method
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", e.Suggestion)
	}
	return msg
}

func (e *PropertyNotFoundError) Unwrap() error { return ErrPropertyNotFound }

// UnsupportedQueryShapeError reports a missing clause-table entry.
type UnsupportedQueryShapeError struct {
	Field     string
	IndexType mapping.IndexType
	Part      mapping.PartType
	Reason    string
	Supported []mapping.PartType // parts the index type does support
}

func (e *UnsupportedQueryShapeError) Error() string {
	index := string(e.IndexType)
	if index == "" {
		index = "UNINDEXED"
	}
	msg := fmt.Sprintf("unsupported query shape: %s on %s field '%s'", e.Part, index, e.Field)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Supported) > 0 {
		names := make([]string, len(e.Supported))
		for i, p := range e.Supported {
			names[i] = string(p)
		}
		msg += " (supported: " + strings.Join(names, ", ") + ")"
	}
	return msg
}

func (e *UnsupportedQueryShapeError) Unwrap() error { return ErrUnsupportedQueryShape }

// QueryExecutionError wraps a backend failure with the rendered command.
type QueryExecutionError struct {
	Query   string
	Message string
	Err     error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %s (query: %s)", e.Message, e.Query)
}

// Unwrap exposes both the sentinel and the backend error.
func (e *QueryExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrQueryExecution}
	}
	return []error{ErrQueryExecution, e.Err}
}

// NewQueryExecutionError wraps err for the given command line.
func NewQueryExecutionError(query string, err error) *QueryExecutionError {
	return &QueryExecutionError{Query: query, Message: err.Error(), Err: err}
}
