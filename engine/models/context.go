package models

// CompileContext carries per-call compilation settings explicitly through
// the compiler instead of ambient state.
type CompileContext struct {
	Index       string // overrides the schema's index name when set
	IndexPrefix string // prepended to schema index names
	Dialect     int
	MaxLimit    int // LIMIT applied to searches that set none; 0 leaves it to the server
}

// IndexFor returns the index to query for a schema.
func (c CompileContext) IndexFor(s *EntitySchema) string {
	if c.Index != "" {
		return c.Index
	}
	return c.IndexPrefix + s.Index
}
