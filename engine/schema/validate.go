package schema

import (
	"fmt"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// Defaults for probabilistic structures declared without explicit settings.
const (
	DefaultFilterCapacity    = 100000
	DefaultFilterErrorRate   = 0.001
	DefaultSketchErrorRate   = 0.001
	DefaultSketchProbability = 0.99
	DefaultVectorType        = "FLOAT32"
	DefaultVectorMetric      = "COSINE"
)

// validateDescriptor checks that a descriptor's modifiers agree with its
// index type. Both struct tags and the builder end up here.
func validateDescriptor(fd *models.FieldDescriptor) error {
	t := fd.IndexType
	if fd.Vector != nil && t != mapping.IndexVector {
		return fmt.Errorf("vector modifiers on %s field", t)
	}
	if fd.Weight != 0 && t != mapping.IndexText {
		return fmt.Errorf("weight is only valid on TEXT fields, not %s", t)
	}
	if fd.NoStem && t != mapping.IndexText {
		return fmt.Errorf("nostem is only valid on TEXT fields, not %s", t)
	}
	if fd.Separator != "" && t != mapping.IndexTag {
		return fmt.Errorf("separator is only valid on TAG fields, not %s", t)
	}
	if fd.Sortable && (t == mapping.IndexVector || t == mapping.IndexNone) {
		return fmt.Errorf("sortable is not valid on %s field", indexName(t))
	}

	if t == mapping.IndexVector {
		v := fd.Vector
		if v == nil || v.Dim <= 0 || v.Algorithm == "" {
			return fmt.Errorf("vector field requires dim and algorithm")
		}
		if !mapping.VectorAlgorithms[v.Algorithm] {
			return fmt.Errorf("unknown vector algorithm %q", v.Algorithm)
		}
		if v.Metric == "" {
			v.Metric = DefaultVectorMetric
		}
		if !mapping.VectorMetrics[v.Metric] {
			return fmt.Errorf("unknown distance metric %q", v.Metric)
		}
		if v.ElementType == "" {
			v.ElementType = DefaultVectorType
		}
		if !mapping.VectorTypes[v.ElementType] {
			return fmt.Errorf("unknown vector type %q", v.ElementType)
		}
	}
	return nil
}

func indexName(t mapping.IndexType) string {
	if t == mapping.IndexNone {
		return "unindexed"
	}
	return string(t)
}
