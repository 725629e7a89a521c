package reverse

import (
	"errors"
	"fmt"

	"github.com/omniql-engine/redisom/engine/models"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	ErrMalformedReply = errors.New("malformed reply")
	ErrUnsupported    = errors.New("reply decoding not supported")
)

// ============================================================================
// MAIN INTERFACE - reply of a compiled command -> ResultSet
// ============================================================================

// Decode converts the raw backend reply of q into a ResultSet. Both RESP2
// arrays and RESP3 maps are accepted.
func Decode(q *models.CompiledQuery, reply interface{}) (*models.ResultSet, error) {
	if reply == nil {
		return nil, fmt.Errorf("%w: nil reply", ErrMalformedReply)
	}

	switch q.Command {
	case models.CmdSearch:
		return DecodeSearch(reply, SearchLayout{NoContent: q.NoContent, ScoreKey: q.ScoreKey})
	case models.CmdAggregate:
		return DecodeAggregate(reply)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, q.Command)
	}
}
