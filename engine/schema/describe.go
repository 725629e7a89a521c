package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	pointType = reflect.TypeOf(models.Point{})
	entityIf  = reflect.TypeOf((*models.Entity)(nil)).Elem()
)

// derive builds an EntitySchema from struct tags.
func derive(t reflect.Type) (*models.EntitySchema, error) {
	if t.Kind() != reflect.Struct {
		return nil, &models.SchemaError{Entity: t.String(), Reason: "entity must be a struct"}
	}

	opts := models.EntityOptions{}
	if reflect.PointerTo(t).Implements(entityIf) {
		opts = reflect.New(t).Interface().(models.Entity).RedisEntity()
	}
	name := opts.Name
	if name == "" {
		name = t.Name()
	}
	opts.Name = name
	opts = withDefaults(opts)

	var fields []*models.FieldDescriptor
	if err := walk(name, t, "", "", nil, &fields); err != nil {
		return nil, err
	}
	return models.NewEntitySchema(opts.Name, opts.Index, opts.Prefix, opts.Storage, t, fields), nil
}

func withDefaults(opts models.EntityOptions) models.EntityOptions {
	if opts.Index == "" {
		opts.Index = opts.Name + "Idx"
	}
	if opts.Prefix == "" {
		opts.Prefix = opts.Name + ":"
	}
	if opts.Storage == "" {
		opts.Storage = mapping.StorageJSON
	}
	return opts
}

// walk appends descriptors for every exported field of t, recursing into
// nested structs with dotted paths.
func walk(entity string, t reflect.Type, goPrefix, pathPrefix string, index []int, out *[]*models.FieldDescriptor) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		idx := append(append([]int{}, index...), i)

		jsonName, jsonSkip := jsonFieldName(sf)
		if jsonSkip {
			continue
		}
		tagValue, hasTag := sf.Tag.Lookup(TagIndex)
		ft, err := parseIndexTag(tagValue)
		if err != nil {
			return &models.SchemaError{Entity: entity, Field: goPrefix + sf.Name, Reason: err.Error()}
		}
		if ft.Skip {
			continue
		}

		ftype := sf.Type
		for ftype.Kind() == reflect.Pointer {
			ftype = ftype.Elem()
		}

		// Embedded structs are flattened; named nested structs get a path prefix.
		if isNestedStruct(ftype) && ft.Index == mapping.IndexNone {
			if sf.Anonymous && !hasTag && jsonName == "" {
				if err := walk(entity, ftype, goPrefix, pathPrefix, idx, out); err != nil {
					return err
				}
				continue
			}
			name := jsonName
			if name == "" {
				name = LowerFirst(sf.Name)
			}
			if err := walk(entity, ftype, goPrefix+sf.Name+".", pathPrefix+name+".", idx, out); err != nil {
				return err
			}
			continue
		}

		name := jsonName
		if name == "" {
			name = LowerFirst(sf.Name)
		}
		fd := &models.FieldDescriptor{
			Name:       sf.Name,
			GoPath:     goPrefix + sf.Name,
			Path:       pathPrefix + name,
			IndexType:  ft.Index,
			IsID:       ft.ID,
			Kind:       ftype.Kind(),
			FieldIndex: idx,
		}
		if ftype.Kind() == reflect.Slice || ftype.Kind() == reflect.Array {
			fd.ElemKind = ftype.Elem().Kind()
		}
		if ftype == timeType {
			fd.Kind = reflect.Int64
		}
		if goPrefix == "" && !hasTag && (sf.Name == "ID" || sf.Name == "Id") {
			fd.IsID = true
			fd.IndexType = mapping.IndexTag
		}

		if err := applyModifiers(fd, ft.Modifiers); err != nil {
			return &models.SchemaError{Entity: entity, Field: fd.GoPath, Reason: err.Error()}
		}
		if err := checkKind(fd, ftype); err != nil {
			return &models.SchemaError{Entity: entity, Field: fd.GoPath, Reason: err.Error()}
		}
		if err := attachProbabilistic(fd, sf.Tag); err != nil {
			return &models.SchemaError{Entity: entity, Field: fd.GoPath, Reason: err.Error()}
		}
		finishPaths(fd)
		if err := validateDescriptor(fd); err != nil {
			return &models.SchemaError{Entity: entity, Field: fd.GoPath, Reason: err.Error()}
		}
		*out = append(*out, fd)
	}
	return nil
}

func isNestedStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && t != pointType
}

// checkKind rejects index types that cannot hold the Go value.
func checkKind(fd *models.FieldDescriptor, t reflect.Type) error {
	switch fd.IndexType {
	case mapping.IndexVector:
		if (t.Kind() != reflect.Slice && t.Kind() != reflect.Array) ||
			(t.Elem().Kind() != reflect.Float32 && t.Elem().Kind() != reflect.Float64) {
			return fmt.Errorf("VECTOR field must be a float slice, got %s", t)
		}
	case mapping.IndexGeo:
		if t != pointType && t.Kind() != reflect.String {
			return fmt.Errorf("GEO field must be models.Point or a \"lon,lat\" string, got %s", t)
		}
	case mapping.IndexNumeric:
		if !isNumericKind(t.Kind()) && t != timeType {
			return fmt.Errorf("NUMERIC field must be a number or time.Time, got %s", t)
		}
	}
	return nil
}

func attachProbabilistic(fd *models.FieldDescriptor, tag reflect.StructTag) error {
	if v, ok := tag.Lookup(TagBloom); ok {
		spec, err := parseFilterTag(models.FilterBloom, v)
		if err != nil {
			return err
		}
		fd.Filter = spec
	}
	if v, ok := tag.Lookup(TagCuckoo); ok {
		if fd.Filter != nil {
			return fmt.Errorf("field cannot carry both bloom and cuckoo filters")
		}
		spec, err := parseFilterTag(models.FilterCuckoo, v)
		if err != nil {
			return err
		}
		fd.Filter = spec
	}
	if v, ok := tag.Lookup(TagCountMin); ok {
		spec, err := parseSketchTag(v)
		if err != nil {
			return err
		}
		fd.Sketch = spec
	}
	return nil
}

// finishPaths fills alias and JSON path from the storage path.
func finishPaths(fd *models.FieldDescriptor) {
	if fd.Alias == "" {
		fd.Alias = ToAlias(fd.Path)
	}
	fd.JSONPath = "$." + fd.Path
	if fd.IsCollection() && fd.IndexType == mapping.IndexTag {
		fd.JSONPath += "[*]"
	}
}

func jsonFieldName(sf reflect.StructField) (name string, skip bool) {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	return name, false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// IsNumericKind reports whether values of kind k index as NUMERIC.
func IsNumericKind(k reflect.Kind) bool { return isNumericKind(k) }

// LowerFirst lower-cases the first rune: "BuildingType" -> "buildingType".
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// UpperFirst upper-cases the first rune.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ToAlias turns a storage path into a query attribute name.
func ToAlias(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}
