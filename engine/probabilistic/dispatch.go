// Package probabilistic routes existsBy/countBy methods to Bloom, Cuckoo and
// Count-Min structures and keeps those structures up to date after saves.
package probabilistic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

// Doer issues a single backend command. *redis.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
}

// Kind names the structure a dispatched call targets.
type Kind string

const (
	KindBloom    Kind = "bloom"
	KindCuckoo   Kind = "cuckoo"
	KindCountMin Kind = "countmin"
)

const (
	existsPrefix = "existsBy"
	countPrefix  = "countBy"
)

// ErrNoValues is returned when a call has nothing to look up.
var ErrNoValues = errors.New("probabilistic call without values")

// Call is a method routed to a probabilistic structure instead of search.
type Call struct {
	Method string
	Kind   Kind
	Key    string
	Field  *models.FieldDescriptor
}

// TryDispatch recognises existsBy<Property> on a field carrying a Bloom or
// Cuckoo filter and countBy<Property> on a field carrying a Count-Min
// sketch. Any other shape returns false so the caller compiles a search.
func TryDispatch(method string, s *models.EntitySchema) (*Call, bool) {
	var prop string
	var counting bool
	switch {
	case strings.HasPrefix(method, existsPrefix):
		prop = method[len(existsPrefix):]
	case strings.HasPrefix(method, countPrefix):
		prop = method[len(countPrefix):]
		counting = true
	default:
		return nil, false
	}
	if prop == "" {
		return nil, false
	}

	fd, ok := s.FieldByGoPath(prop)
	if !ok {
		if fd, ok = s.Field(schema.LowerFirst(prop)); !ok {
			return nil, false
		}
	}

	call := &Call{Method: method, Field: fd}
	switch {
	case counting && fd.Sketch != nil:
		call.Kind = KindCountMin
	case !counting && fd.Filter != nil && fd.Filter.Kind == models.FilterBloom:
		call.Kind = KindBloom
	case !counting && fd.Filter != nil && fd.Filter.Kind == models.FilterCuckoo:
		call.Kind = KindCuckoo
	default:
		return nil, false
	}
	call.Key = KeyFor(s, fd, call.Kind)
	return call, true
}

// KeyFor returns the structure key of a field: the explicit name when one is
// declared, otherwise <prefix>:<Entity>:<field>.
func KeyFor(s *models.EntitySchema, fd *models.FieldDescriptor, kind Kind) string {
	var name, prefix string
	switch kind {
	case KindBloom:
		prefix = mapping.BloomPrefix
	case KindCuckoo:
		prefix = mapping.CuckooPrefix
	case KindCountMin:
		prefix = mapping.CountMinPrefix
	}
	if kind == KindCountMin && fd.Sketch != nil {
		name = fd.Sketch.Name
	} else if fd.Filter != nil {
		name = fd.Filter.Name
	}
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s:%s:%s", prefix, s.Name, fd.Path)
}

// Args renders the command for the given operand. A slice operand becomes a
// multi-item lookup (BF.MEXISTS, CF.MEXISTS, CMS.QUERY with several items).
func (c *Call) Args(operand interface{}) ([]interface{}, error) {
	items := search.Flatten(operand)
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", c.Method, ErrNoValues)
	}

	var cmd string
	switch c.Kind {
	case KindBloom:
		cmd = "BF.EXISTS"
		if len(items) > 1 {
			cmd = "BF.MEXISTS"
		}
	case KindCuckoo:
		cmd = "CF.EXISTS"
		if len(items) > 1 {
			cmd = "CF.MEXISTS"
		}
	case KindCountMin:
		cmd = "CMS.QUERY"
	default:
		return nil, fmt.Errorf("unknown structure kind %q", c.Kind)
	}

	args := []interface{}{cmd, c.Key}
	for _, it := range items {
		args = append(args, search.FormatScalar(it))
	}
	return args, nil
}

// Exists runs a Bloom or Cuckoo lookup, one answer per item.
func (c *Call) Exists(ctx context.Context, d Doer, operand interface{}) ([]bool, error) {
	if c.Kind == KindCountMin {
		return nil, fmt.Errorf("%s: a count-min sketch answers counts, not membership", c.Method)
	}
	vals, err := c.do(ctx, d, operand)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(vals))
	for i, v := range vals {
		out[i] = v != 0
	}
	return out, nil
}

// Count runs a Count-Min lookup, one estimate per item.
func (c *Call) Count(ctx context.Context, d Doer, operand interface{}) ([]int64, error) {
	if c.Kind != KindCountMin {
		return nil, fmt.Errorf("%s: a %s filter answers membership, not counts", c.Method, c.Kind)
	}
	return c.do(ctx, d, operand)
}

func (c *Call) do(ctx context.Context, d Doer, operand interface{}) ([]int64, error) {
	args, err := c.Args(operand)
	if err != nil {
		return nil, err
	}
	reply, err := d.Do(ctx, args...).Result()
	if err != nil {
		return nil, models.NewQueryExecutionError(models.CommandString(args), err)
	}
	vals, err := integers(reply)
	if err != nil {
		return nil, models.NewQueryExecutionError(models.CommandString(args), err)
	}
	return vals, nil
}

// integers normalises RESP2 integers and RESP3 booleans into int64s.
func integers(reply interface{}) ([]int64, error) {
	switch r := reply.(type) {
	case []interface{}:
		out := make([]int64, 0, len(r))
		for _, v := range r {
			n, err := integer(v)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	n, err := integer(reply)
	if err != nil {
		return nil, err
	}
	return []int64{n}, nil
}

func integer(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected reply element of type %T", v)
}
