package models

import (
	"sort"
	"strconv"
	"strings"
)

// ResultSet is a decoded FT.SEARCH or FT.AGGREGATE reply.
type ResultSet struct {
	Total int64
	Rows  []Row
}

// Row is one document or aggregation row.
type Row struct {
	Key    string // document key; empty for aggregation rows
	Score  float64
	Fields map[string]string
}

// Keys returns the document keys of all rows.
func (r *ResultSet) Keys() []string {
	keys := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Key != "" {
			keys = append(keys, row.Key)
		}
	}
	return keys
}

// Tuple is a projected row: values in the order fields were requested.
type Tuple []string

// Distinct returns the result set without repeated rows. Documents repeat
// when they share a key; keyless rows when all their fields match.
func (r *ResultSet) Distinct() *ResultSet {
	seen := make(map[string]bool, len(r.Rows))
	out := &ResultSet{Total: r.Total, Rows: make([]Row, 0, len(r.Rows))}
	for _, row := range r.Rows {
		id := row.Key
		if id == "" {
			id = row.fingerprint()
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (r Row) fingerprint() string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, k := range names {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(r.Fields[k]))
		b.WriteByte(';')
	}
	return b.String()
}
