package translator

import (
	"errors"
	"fmt"
	"strings"

	search "github.com/omniql-engine/redisom/engine/builders/redis"
	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// ErrArguments reports call arguments that do not match a method intent.
var ErrArguments = errors.New("argument mismatch")

// SearchOptions are the FT.SEARCH options that sit outside the query string.
type SearchOptions struct {
	Sort      *models.SortSpec
	Page      *models.Page
	Return    []models.ReturnField
	NoContent bool
}

// dialect picks the configured dialect, falling back to the default.
func dialect(cc models.CompileContext) int {
	if cc.Dialect > 0 {
		return cc.Dialect
	}
	return mapping.DefaultDialect
}

// fieldRef resolves a storage path, alias or Go path to a field of s.
func fieldRef(s *models.EntitySchema, name string) (*models.FieldDescriptor, bool) {
	name = strings.TrimPrefix(name, "@")
	if fd, ok := s.Field(name); ok {
		return fd, true
	}
	if fd, ok := s.FieldByAlias(name); ok {
		return fd, true
	}
	return s.FieldByGoPath(name)
}

// checkOwned fails when a predicate references a field the schema lacks.
func checkOwned(s *models.EntitySchema, fields []*models.FieldDescriptor) error {
	for _, fd := range fields {
		if fd == nil {
			return &models.PropertyNotFoundError{Entity: s.Name, Segment: "<nil>"}
		}
		if own, ok := s.Field(fd.Path); !ok || own.Alias != fd.Alias {
			return &models.PropertyNotFoundError{Entity: s.Name, Segment: fd.Path}
		}
	}
	return nil
}

// resolveSort maps a sort spec onto the field's query alias. The KNN score
// attribute is accepted as is.
func resolveSort(s *models.EntitySchema, spec *models.SortSpec, scoreKey string) (*models.SortSpec, error) {
	if spec == nil {
		return nil, nil
	}
	if scoreKey != "" && spec.Field == scoreKey {
		return spec, nil
	}
	fd, ok := fieldRef(s, spec.Field)
	if !ok {
		return nil, &models.PropertyNotFoundError{Entity: s.Name, Segment: spec.Field}
	}
	if !fd.Indexed() {
		return nil, &models.SchemaError{Entity: s.Name, Field: fd.Path, Reason: "cannot sort by an unindexed field"}
	}
	return &models.SortSpec{Field: fd.Alias, Descending: spec.Descending}, nil
}

// resolveReturn maps projected fields to RETURN identifiers. JSON documents
// return by JSON path renamed to the alias.
func resolveReturn(s *models.EntitySchema, fields []models.ReturnField) ([]models.ReturnField, error) {
	out := make([]models.ReturnField, 0, len(fields))
	for _, rf := range fields {
		fd, ok := fieldRef(s, rf.Identifier)
		if !ok {
			return nil, &models.PropertyNotFoundError{Entity: s.Name, Segment: rf.Identifier}
		}
		alias := rf.Alias
		if alias == "" {
			alias = fd.Alias
		}
		id := fd.Path
		if s.Storage == mapping.StorageJSON {
			id = fd.JSONPath
			if fd.IsCollection() && strings.HasSuffix(id, "[*]") {
				id = strings.TrimSuffix(id, "[*]")
			}
		}
		out = append(out, models.ReturnField{Identifier: id, Alias: alias})
	}
	return out, nil
}

func argErr(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrArguments, fmt.Sprintf(format, a...))
}

// vectorParam encodes a query vector for a field, checking its dimension.
func vectorParam(fd *models.FieldDescriptor, v interface{}) ([]byte, error) {
	elem := ""
	if fd.Vector != nil {
		elem = fd.Vector.ElementType
		if _, raw := v.([]byte); !raw {
			if dim := search.VectorDim(v); dim >= 0 && fd.Vector.Dim > 0 && dim != fd.Vector.Dim {
				return nil, argErr("vector for '%s' has %d elements, field dimension is %d", fd.Path, dim, fd.Vector.Dim)
			}
		}
	}
	b, err := search.EncodeVector(v, elem)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", fd.Path, err)
	}
	return b, nil
}
