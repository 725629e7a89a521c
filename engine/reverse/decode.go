package reverse

import (
	"fmt"
	"strconv"

	"github.com/omniql-engine/redisom/engine/models"
)

// SearchLayout describes the shape of an FT.SEARCH reply.
type SearchLayout struct {
	NoContent bool   // rows carry keys only
	ScoreKey  string // attribute copied into Row.Score when present
}

// DecodeSearch parses an FT.SEARCH reply.
//
// RESP2: [total, key, [field, value, ...], key, [...], ...]
// RESP3: {total_results: n, results: [{id, extra_attributes: {...}}, ...]}
func DecodeSearch(reply interface{}, layout SearchLayout) (*models.ResultSet, error) {
	switch r := reply.(type) {
	case []interface{}:
		return decodeSearchArray(r, layout)
	case map[interface{}]interface{}:
		return decodeMap(r, layout.ScoreKey, true)
	case map[string]interface{}:
		return decodeMap(toAnyMap(r), layout.ScoreKey, true)
	}
	return nil, fmt.Errorf("%w: FT.SEARCH reply of type %T", ErrMalformedReply, reply)
}

// DecodeAggregate parses an FT.AGGREGATE reply.
//
// RESP2: [total, [field, value, ...], ...]
// RESP3: {total_results: n, results: [{extra_attributes: {...}}, ...]}
func DecodeAggregate(reply interface{}) (*models.ResultSet, error) {
	switch r := reply.(type) {
	case []interface{}:
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: empty FT.AGGREGATE reply", ErrMalformedReply)
		}
		total, err := toInt64(r[0])
		if err != nil {
			return nil, err
		}
		rs := &models.ResultSet{Total: total, Rows: make([]models.Row, 0, len(r)-1)}
		for _, item := range r[1:] {
			fields, err := pairs(item)
			if err != nil {
				return nil, err
			}
			rs.Rows = append(rs.Rows, models.Row{Fields: fields})
		}
		return rs, nil
	case map[interface{}]interface{}:
		return decodeMap(r, "", false)
	case map[string]interface{}:
		return decodeMap(toAnyMap(r), "", false)
	}
	return nil, fmt.Errorf("%w: FT.AGGREGATE reply of type %T", ErrMalformedReply, reply)
}

func decodeSearchArray(r []interface{}, layout SearchLayout) (*models.ResultSet, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("%w: empty FT.SEARCH reply", ErrMalformedReply)
	}
	total, err := toInt64(r[0])
	if err != nil {
		return nil, err
	}
	rs := &models.ResultSet{Total: total}

	step := 2
	if layout.NoContent {
		step = 1
	}
	for i := 1; i < len(r); i += step {
		key, ok := toString(r[i])
		if !ok {
			return nil, fmt.Errorf("%w: document key of type %T", ErrMalformedReply, r[i])
		}
		row := models.Row{Key: key}
		if !layout.NoContent {
			if i+1 >= len(r) {
				return nil, fmt.Errorf("%w: document %s has no field list", ErrMalformedReply, key)
			}
			if row.Fields, err = pairs(r[i+1]); err != nil {
				return nil, err
			}
			row.Score = score(row.Fields, layout.ScoreKey)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func decodeMap(m map[interface{}]interface{}, scoreKey string, withKeys bool) (*models.ResultSet, error) {
	total, err := toInt64(m["total_results"])
	if err != nil {
		return nil, err
	}
	results, _ := m["results"].([]interface{})
	rs := &models.ResultSet{Total: total, Rows: make([]models.Row, 0, len(results))}
	for _, item := range results {
		doc, ok := item.(map[interface{}]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: result entry of type %T", ErrMalformedReply, item)
		}
		row := models.Row{Fields: map[string]string{}}
		if withKeys {
			row.Key, _ = toString(doc["id"])
		}
		if attrs, ok := doc["extra_attributes"].(map[interface{}]interface{}); ok {
			for k, v := range attrs {
				ks, _ := toString(k)
				vs, _ := toString(v)
				row.Fields[ks] = vs
			}
		}
		row.Score = score(row.Fields, scoreKey)
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

// pairs turns a flat [field, value, ...] list into a map.
func pairs(v interface{}) (map[string]string, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: field list of type %T", ErrMalformedReply, v)
	}
	if len(list)%2 != 0 {
		return nil, fmt.Errorf("%w: odd field list length %d", ErrMalformedReply, len(list))
	}
	out := make(map[string]string, len(list)/2)
	for i := 0; i < len(list); i += 2 {
		k, _ := toString(list[i])
		val, _ := toString(list[i+1])
		out[k] = val
	}
	return out, nil
}

func score(fields map[string]string, key string) float64 {
	if key == "" {
		return 0
	}
	f, err := strconv.ParseFloat(fields[key], 64)
	if err != nil {
		return 0
	}
	return f
}

func toString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), true
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: total %q", ErrMalformedReply, x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: total of type %T", ErrMalformedReply, v)
}

func toAnyMap(m map[string]interface{}) map[interface{}]interface{} {
	out := make(map[interface{}]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
