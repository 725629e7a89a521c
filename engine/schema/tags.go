package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// Struct tag keys read from entity fields.
const (
	TagIndex    = "redisom"
	TagBloom    = "bloom"
	TagCuckoo   = "cuckoo"
	TagCountMin = "countmin"
)

// modifier is one "key" or "key=value" element of a tag.
type modifier struct {
	Key   string
	Value string
	Set   bool
}

// fieldTag is a parsed `redisom:"..."` tag.
type fieldTag struct {
	Skip      bool
	ID        bool
	Index     mapping.IndexType
	Modifiers []modifier
}

func splitTag(tag string) []modifier {
	var mods []modifier
	for _, raw := range strings.Split(tag, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, value, set := strings.Cut(raw, "=")
		mods = append(mods, modifier{Key: strings.ToLower(strings.TrimSpace(key)), Value: strings.TrimSpace(value), Set: set})
	}
	return mods
}

// parseIndexTag parses the `redisom` tag. The first element is the index
// type ("tag", "text", ...), "id" or "-".
func parseIndexTag(tag string) (fieldTag, error) {
	var ft fieldTag
	if tag == "-" {
		ft.Skip = true
		return ft, nil
	}
	mods := splitTag(tag)
	if len(mods) == 0 {
		return ft, nil
	}
	head := mods[0]
	switch {
	case head.Key == "id" && !head.Set:
		ft.ID = true
		ft.Index = mapping.IndexTag
	default:
		t, ok := mapping.GetIndexType(head.Key)
		if !ok || head.Set {
			return ft, fmt.Errorf("unknown index type %q", head.Key)
		}
		ft.Index = t
	}
	ft.Modifiers = mods[1:]
	return ft, nil
}

// applyModifiers sets descriptor options from tag modifiers, rejecting
// modifiers that do not belong to the field's index type.
func applyModifiers(fd *models.FieldDescriptor, mods []modifier) error {
	for _, m := range mods {
		known, allowed := mapping.ModifierAllowed(m.Key, fd.IndexType)
		if !known {
			return fmt.Errorf("unknown modifier %q", m.Key)
		}
		if !allowed {
			if isVectorModifier(m.Key) {
				return fmt.Errorf("vector modifier %q on %s field", m.Key, fd.IndexType)
			}
			return fmt.Errorf("modifier %q is not valid on %s field", m.Key, fd.IndexType)
		}
		switch m.Key {
		case "sortable":
			fd.Sortable = true
		case "indexmissing":
			fd.IndexMissing = true
		case "casesensitive":
			fd.CaseSensitive = true
		case "nostem":
			fd.NoStem = true
		case "alias":
			if m.Value == "" {
				return fmt.Errorf("alias requires a value")
			}
			fd.Alias = m.Value
		case "separator":
			if len(m.Value) != 1 {
				return fmt.Errorf("separator must be a single character, got %q", m.Value)
			}
			fd.Separator = m.Value
		case "weight":
			w, err := strconv.ParseFloat(m.Value, 64)
			if err != nil || w <= 0 {
				return fmt.Errorf("invalid weight %q", m.Value)
			}
			fd.Weight = w
		case "algorithm":
			vectorSpec(fd).Algorithm = strings.ToUpper(m.Value)
		case "dim":
			d, err := strconv.Atoi(m.Value)
			if err != nil {
				return fmt.Errorf("invalid dim %q", m.Value)
			}
			vectorSpec(fd).Dim = d
		case "metric":
			vectorSpec(fd).Metric = strings.ToUpper(m.Value)
		case "type":
			vectorSpec(fd).ElementType = strings.ToUpper(m.Value)
		}
	}
	return nil
}

func isVectorModifier(key string) bool {
	switch key {
	case "algorithm", "dim", "metric", "type":
		return true
	}
	return false
}

func vectorSpec(fd *models.FieldDescriptor) *models.VectorSpec {
	if fd.Vector == nil {
		fd.Vector = &models.VectorSpec{}
	}
	return fd.Vector
}

// parseFilterTag parses a `bloom` or `cuckoo` tag.
func parseFilterTag(kind models.FilterKind, tag string) (*models.FilterSpec, error) {
	spec := &models.FilterSpec{Kind: kind, Capacity: DefaultFilterCapacity, ErrorRate: DefaultFilterErrorRate}
	for _, m := range splitTag(tag) {
		switch m.Key {
		case "name":
			spec.Name = m.Value
		case "capacity":
			n, err := strconv.ParseInt(m.Value, 10, 64)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid %s capacity %q", strings.ToLower(string(kind)), m.Value)
			}
			spec.Capacity = n
		case "error", "errorrate":
			if kind == models.FilterCuckoo {
				return nil, fmt.Errorf("cuckoo filters take no error rate")
			}
			f, err := strconv.ParseFloat(m.Value, 64)
			if err != nil || f <= 0 || f >= 1 {
				return nil, fmt.Errorf("invalid bloom error rate %q", m.Value)
			}
			spec.ErrorRate = f
		default:
			return nil, fmt.Errorf("unknown %s option %q", strings.ToLower(string(kind)), m.Key)
		}
	}
	return spec, nil
}

// parseSketchTag parses a `countmin` tag. Width/depth select dimension
// initialisation; otherwise error/probability are used.
func parseSketchTag(tag string) (*models.SketchSpec, error) {
	spec := &models.SketchSpec{
		Init:        models.SketchByProbability,
		ErrorRate:   DefaultSketchErrorRate,
		Probability: DefaultSketchProbability,
	}
	for _, m := range splitTag(tag) {
		switch m.Key {
		case "name":
			spec.Name = m.Value
		case "width", "depth":
			n, err := strconv.ParseInt(m.Value, 10, 64)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid countmin %s %q", m.Key, m.Value)
			}
			if m.Key == "width" {
				spec.Width = n
			} else {
				spec.Depth = n
			}
			spec.Init = models.SketchByDimensions
		case "error", "errorrate":
			f, err := strconv.ParseFloat(m.Value, 64)
			if err != nil || f <= 0 || f >= 1 {
				return nil, fmt.Errorf("invalid countmin error rate %q", m.Value)
			}
			spec.ErrorRate = f
		case "probability":
			f, err := strconv.ParseFloat(m.Value, 64)
			if err != nil || f <= 0 || f >= 1 {
				return nil, fmt.Errorf("invalid countmin probability %q", m.Value)
			}
			spec.Probability = f
		default:
			return nil, fmt.Errorf("unknown countmin option %q", m.Key)
		}
	}
	if spec.Init == models.SketchByDimensions && (spec.Width == 0 || spec.Depth == 0) {
		return nil, fmt.Errorf("countmin dimensions need both width and depth")
	}
	return spec, nil
}
