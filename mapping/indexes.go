package mapping

import "strings"

// IndexType is the search-index type of an entity field.
// An empty IndexType marks a declared but unindexed property.
type IndexType string

const (
	IndexNone    IndexType = ""
	IndexText    IndexType = "TEXT"
	IndexTag     IndexType = "TAG"
	IndexNumeric IndexType = "NUMERIC"
	IndexGeo     IndexType = "GEO"
	IndexVector  IndexType = "VECTOR"
)

// IndexTypes lists the index types accepted in field declarations.
var IndexTypes = map[string]IndexType{
	"text":    IndexText,
	"tag":     IndexTag,
	"numeric": IndexNumeric,
	"geo":     IndexGeo,
	"vector":  IndexVector,
}

// StorageType is how documents of an entity are kept in Redis.
type StorageType string

const (
	StorageHash StorageType = "HASH"
	StorageJSON StorageType = "JSON"
)

// Field modifiers and the index types they are legal on.
var FieldModifiers = map[string][]IndexType{
	"sortable":      {IndexText, IndexTag, IndexNumeric, IndexGeo},
	"indexmissing":  {IndexText, IndexTag, IndexNumeric, IndexGeo, IndexVector},
	"alias":         {IndexText, IndexTag, IndexNumeric, IndexGeo, IndexVector},
	"separator":     {IndexTag},
	"casesensitive": {IndexTag},
	"weight":        {IndexText},
	"nostem":        {IndexText},
	"algorithm":     {IndexVector},
	"dim":           {IndexVector},
	"metric":        {IndexVector},
	"type":          {IndexVector},
}

// Vector settings accepted by the search module.
var (
	VectorAlgorithms = map[string]bool{"FLAT": true, "HNSW": true}
	VectorMetrics    = map[string]bool{"L2": true, "IP": true, "COSINE": true}
	VectorTypes      = map[string]bool{"FLOAT32": true, "FLOAT64": true}
)

// GeoUnits are the radius units GEO queries accept.
var GeoUnits = map[string]bool{"m": true, "km": true, "mi": true, "ft": true}

// GetIndexType resolves a declaration token ("tag", "TEXT") or a universal
// type name ("int", "keyword") to an IndexType.
func GetIndexType(token string) (IndexType, bool) {
	if t, ok := IndexTypes[strings.ToLower(token)]; ok {
		return t, true
	}
	t, ok := TypeMap[strings.ToUpper(token)]
	return t, ok
}

// ModifierAllowed reports whether a modifier may be used on an index type.
func ModifierAllowed(modifier string, t IndexType) (known bool, allowed bool) {
	types, ok := FieldModifiers[modifier]
	if !ok {
		return false, false
	}
	for _, it := range types {
		if it == t {
			return true, true
		}
	}
	return true, false
}
