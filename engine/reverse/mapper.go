package reverse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// JSONDocumentField is the attribute a JSON document is returned under.
const JSONDocumentField = "$"

var (
	timeType  = reflect.TypeOf(time.Time{})
	pointType = reflect.TypeOf(models.Point{})
)

// DecodeRow fills dst (a pointer to the entity type) from a search row.
// JSON documents are unmarshalled from the "$" attribute; HASH rows are
// rebuilt into a nested map and decoded field by field. The identifier
// field is filled from the key when the document does not carry it.
func DecodeRow(s *models.EntitySchema, row models.Row, dst interface{}) error {
	if doc, ok := row.Fields[JSONDocumentField]; ok {
		if err := json.Unmarshal([]byte(doc), dst); err != nil {
			return fmt.Errorf("%w: document %s: %v", ErrMalformedReply, row.Key, err)
		}
	} else if err := decodeHash(s, row.Fields, dst); err != nil {
		return fmt.Errorf("document %s: %w", row.Key, err)
	}
	fillID(s, row.Key, dst)
	return nil
}

func decodeHash(s *models.EntitySchema, fields map[string]string, dst interface{}) error {
	doc := make(map[string]interface{})
	for _, fd := range s.Fields {
		raw, ok := fields[fd.Path]
		if !ok {
			raw, ok = fields[fd.Alias]
		}
		if !ok {
			continue
		}
		v, err := hashValue(fd, raw)
		if err != nil {
			return fmt.Errorf("field '%s': %w", fd.Path, err)
		}
		setPath(doc, strings.Split(fd.Path, "."), v)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(pointHook, timeHook),
		WeaklyTypedInput: true,
		Squash:           true,
		TagName:          "json",
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc)
}

// hashValue converts one stored HASH value to a decodable form.
func hashValue(fd *models.FieldDescriptor, raw string) (interface{}, error) {
	switch {
	case fd.IndexType == mapping.IndexVector:
		return search.DecodeVector([]byte(raw))
	case fd.IsCollection():
		sep := fd.Separator
		if sep == "" {
			sep = ","
		}
		if raw == "" {
			return []string{}, nil
		}
		return strings.Split(raw, sep), nil
	}
	return raw, nil
}

func setPath(doc map[string]interface{}, path []string, v interface{}) {
	for _, p := range path[:len(path)-1] {
		next, ok := doc[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			doc[p] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = v
}

// pointHook decodes "lon,lat" strings into models.Point.
func pointHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != pointType {
		return data, nil
	}
	return search.ParsePoint(data.(string))
}

// timeHook decodes Unix milliseconds or RFC 3339 strings into time.Time.
func timeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != timeType {
		return data, nil
	}
	raw := data.(string)
	if raw == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// fillID sets an empty string identifier from the key suffix after the
// schema prefix.
func fillID(s *models.EntitySchema, key string, dst interface{}) {
	id, ok := s.IDField()
	if !ok || key == "" || len(id.FieldIndex) == 0 {
		return
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}
	f, err := rv.Elem().FieldByIndexErr(id.FieldIndex)
	if err != nil || f.Kind() != reflect.String || !f.CanSet() || f.String() != "" {
		return
	}
	f.SetString(strings.TrimPrefix(key, s.Prefix))
}

// Project returns the requested attributes of each row in order.
func Project(rs *models.ResultSet, fields []string) []models.Tuple {
	out := make([]models.Tuple, len(rs.Rows))
	for i, row := range rs.Rows {
		t := make(models.Tuple, len(fields))
		for j, f := range fields {
			t[j] = row.Fields[f]
		}
		out[i] = t
	}
	return out
}
