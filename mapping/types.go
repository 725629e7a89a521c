package mapping

// TypeMap - universal type names accepted in schema files and struct tags
// Usage: TypeMap["INT"] returns NUMERIC
// Keys are upper case; GetIndexType normalises the lookup.
var TypeMap = map[string]IndexType{
	// Numeric Types
	"INT":       IndexNumeric,
	"INTEGER":   IndexNumeric,
	"BIGINT":    IndexNumeric,
	"SMALLINT":  IndexNumeric,
	"DECIMAL":   IndexNumeric,
	"FLOAT":     IndexNumeric,
	"DOUBLE":    IndexNumeric,
	"NUMBER":    IndexNumeric,
	"TIMESTAMP": IndexNumeric, // stored as Unix milliseconds
	"DATETIME":  IndexNumeric,
	"DATE":      IndexNumeric,

	// Exact-match Types
	"KEYWORD": IndexTag,
	"ENUM":    IndexTag,
	"BOOLEAN": IndexTag, // "true"/"false"
	"BOOL":    IndexTag,
	"UUID":    IndexTag,

	// Full-text Types
	"STRING":   IndexText,
	"FULLTEXT": IndexText,

	// Spatial Types
	"POINT":    IndexGeo,
	"LOCATION": IndexGeo,

	// Embeddings
	"EMBEDDING": IndexVector,
}
