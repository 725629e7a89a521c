package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/engine/schema"
	"github.com/omniql-engine/redisom/mapping"
)

// schemaFile is the YAML form of an entity schema:
//
//	name: Product
//	storage: HASH
//	fields:
//	  - path: category
//	    type: tag
//	    bloom: {capacity: 10000}
//	  - path: price
//	    type: numeric
//	    sortable: true
type schemaFile struct {
	Name    string      `yaml:"name"`
	Index   string      `yaml:"index"`
	Prefix  string      `yaml:"prefix"`
	Storage string      `yaml:"storage"`
	Fields  []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Path         string        `yaml:"path"`
	Type         string        `yaml:"type"`
	As           string        `yaml:"as"`
	ID           bool          `yaml:"id"`
	Sortable     bool          `yaml:"sortable"`
	IndexMissing bool          `yaml:"index_missing"`
	NoStem       bool          `yaml:"nostem"`
	Collection   bool          `yaml:"collection"`
	Weight       float64       `yaml:"weight"`
	Separator    string        `yaml:"separator"`
	Vector       *vectorFile   `yaml:"vector"`
	Bloom        *filterFile   `yaml:"bloom"`
	Cuckoo       *filterFile   `yaml:"cuckoo"`
	CountMin     *countMinFile `yaml:"countmin"`
}

type vectorFile struct {
	Algorithm string `yaml:"algorithm"`
	Dim       int    `yaml:"dim"`
	Metric    string `yaml:"metric"`
	Type      string `yaml:"type"`
}

type filterFile struct {
	Name      string  `yaml:"name"`
	Capacity  int64   `yaml:"capacity"`
	ErrorRate float64 `yaml:"error"`
}

type countMinFile struct {
	Name        string  `yaml:"name"`
	ErrorRate   float64 `yaml:"error"`
	Probability float64 `yaml:"probability"`
	Width       int64   `yaml:"width"`
	Depth       int64   `yaml:"depth"`
}

func loadSchema(path string) (*models.EntitySchema, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSchema(data)
}

func parseSchema(data []byte) (*models.EntitySchema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}

	b := schema.NewBuilder(sf.Name).Index(sf.Index).Prefix(sf.Prefix)
	if sf.Storage != "" {
		b.Storage(mapping.StorageType(strings.ToUpper(sf.Storage)))
	}
	for _, f := range sf.Fields {
		if f.Path == "" {
			return nil, fmt.Errorf("schema %s: field without a path", sf.Name)
		}
		t, ok := mapping.GetIndexType(f.Type)
		if !ok {
			return nil, fmt.Errorf("schema %s: field %s has unknown type %q", sf.Name, f.Path, f.Type)
		}
		opts := f.options()
		switch t {
		case mapping.IndexTag:
			b.Tag(f.Path, opts...)
		case mapping.IndexText:
			b.Text(f.Path, opts...)
		case mapping.IndexNumeric:
			b.Numeric(f.Path, opts...)
		case mapping.IndexGeo:
			b.Geo(f.Path, opts...)
		case mapping.IndexVector:
			if f.Vector == nil {
				return nil, fmt.Errorf("schema %s: vector field %s needs vector settings", sf.Name, f.Path)
			}
			b.Vector(f.Path, models.VectorSpec{
				Algorithm:   strings.ToUpper(f.Vector.Algorithm),
				Dim:         f.Vector.Dim,
				Metric:      strings.ToUpper(f.Vector.Metric),
				ElementType: strings.ToUpper(f.Vector.Type),
			}, opts...)
		}
	}
	return b.Build()
}

func (f fieldFile) options() []schema.FieldOption {
	var opts []schema.FieldOption
	if f.Collection {
		opts = append(opts, schema.Collection())
	}
	if f.ID {
		opts = append(opts, schema.ID())
	}
	if f.As != "" {
		opts = append(opts, schema.As(f.As))
	}
	if f.Sortable {
		opts = append(opts, schema.Sortable())
	}
	if f.IndexMissing {
		opts = append(opts, schema.IndexMissing())
	}
	if f.NoStem {
		opts = append(opts, schema.NoStem())
	}
	if f.Weight != 0 {
		opts = append(opts, schema.Weight(f.Weight))
	}
	if f.Separator != "" {
		opts = append(opts, schema.Separator(f.Separator))
	}
	switch {
	case f.Bloom != nil:
		opts = append(opts, schema.Bloom(f.Bloom.Name, f.Bloom.Capacity, f.Bloom.ErrorRate))
	case f.Cuckoo != nil:
		opts = append(opts, schema.Cuckoo(f.Cuckoo.Name, f.Cuckoo.Capacity))
	}
	if cm := f.CountMin; cm != nil {
		if cm.Width > 0 && cm.Depth > 0 {
			opts = append(opts, schema.CountMinDims(cm.Name, cm.Width, cm.Depth))
		} else {
			opts = append(opts, schema.CountMin(cm.Name, cm.ErrorRate, cm.Probability))
		}
	}
	return opts
}
