package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// CreateIndexArgs builds the FT.CREATE command for a schema.
func CreateIndexArgs(s *models.EntitySchema) []interface{} {
	args := []interface{}{"FT.CREATE", s.Index, "ON", string(s.Storage), "PREFIX", 1, s.Prefix, "SCHEMA"}
	for _, fd := range s.IndexedFields() {
		args = append(args, fieldArgs(s.Storage, fd)...)
	}
	return args
}

// DropIndexArgs builds FT.DROPINDEX, optionally deleting documents.
func DropIndexArgs(s *models.EntitySchema, deleteDocs bool) []interface{} {
	args := []interface{}{"FT.DROPINDEX", s.Index}
	if deleteDocs {
		args = append(args, "DD")
	}
	return args
}

func fieldArgs(storage mapping.StorageType, fd *models.FieldDescriptor) []interface{} {
	var args []interface{}
	identifier := fd.Path
	if storage == mapping.StorageJSON {
		identifier = fd.JSONPath
	}
	args = append(args, identifier)
	if identifier != fd.Alias {
		args = append(args, "AS", fd.Alias)
	}
	args = append(args, string(fd.IndexType))

	switch fd.IndexType {
	case mapping.IndexText:
		if fd.Weight != 0 && fd.Weight != 1 {
			args = append(args, "WEIGHT", strconv.FormatFloat(fd.Weight, 'f', -1, 64))
		}
		if fd.NoStem {
			args = append(args, "NOSTEM")
		}
	case mapping.IndexTag:
		if fd.Separator != "" {
			args = append(args, "SEPARATOR", fd.Separator)
		} else if storage == mapping.StorageHash && fd.IsCollection() {
			args = append(args, "SEPARATOR", "|")
		}
		if fd.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	case mapping.IndexVector:
		v := fd.Vector
		args = append(args, v.Algorithm, 6,
			"TYPE", v.ElementType,
			"DIM", v.Dim,
			"DISTANCE_METRIC", v.Metric)
	}
	if fd.Sortable {
		args = append(args, "SORTABLE")
	}
	if fd.IndexMissing {
		args = append(args, "INDEXMISSING")
	}
	return args
}

// ValueAt reads the value of a described field from an entity. It returns
// false when the path crosses a nil pointer or the schema has no Go type.
func ValueAt(entity interface{}, fd *models.FieldDescriptor) (interface{}, bool) {
	if m, ok := entity.(map[string]interface{}); ok {
		return valueInMap(m, strings.Split(fd.Path, "."))
	}
	if len(fd.FieldIndex) == 0 {
		return nil, false
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	f, err := v.FieldByIndexErr(fd.FieldIndex)
	if err != nil {
		return nil, false
	}
	for f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return nil, false
		}
		f = f.Elem()
	}
	return f.Interface(), true
}

func valueInMap(m map[string]interface{}, path []string) (interface{}, bool) {
	v, ok := m[path[0]]
	if !ok || v == nil {
		return nil, false
	}
	if len(path) == 1 {
		return v, true
	}
	next, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return valueInMap(next, path[1:])
}

// KeyFor returns the document key for an id value.
func KeyFor(s *models.EntitySchema, id interface{}) string {
	return fmt.Sprintf("%s%v", s.Prefix, id)
}
