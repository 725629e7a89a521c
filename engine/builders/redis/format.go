package redis

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/omniql-engine/redisom/engine/models"
	"github.com/omniql-engine/redisom/mapping"
)

// FormatNumeric renders a numeric operand for range syntax. Times are
// rendered as Unix milliseconds, booleans as 1/0.
func FormatNumeric(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("numeric operand is nil")
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case float64:
		return formatFloat(x, 64), nil
	case float32:
		return formatFloat(float64(x), 32), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10), nil
	case *time.Time:
		if x == nil {
			return "", fmt.Errorf("numeric operand is nil")
		}
		return strconv.FormatInt(x.UnixMilli(), 10), nil
	case json.Number:
		if _, err := x.Float64(); err != nil {
			return "", fmt.Errorf("invalid numeric operand %q", string(x))
		}
		return string(x), nil
	case string:
		s := strings.TrimSpace(x)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return "", fmt.Errorf("invalid numeric operand %q", x)
		}
		return s, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32), nil
	case reflect.Float64:
		return formatFloat(rv.Float(), 64), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "", fmt.Errorf("numeric operand is nil")
		}
		return FormatNumeric(rv.Elem().Interface())
	}
	return "", fmt.Errorf("cannot use %T as a numeric operand", v)
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// FormatScalar renders a TAG or TEXT operand as plain text before escaping.
func FormatScalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10)
	case fmt.Stringer:
		return x.String()
	}
	if s, err := FormatNumeric(v); err == nil {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprint(v)
}

// Flatten expands slices and arrays into their elements. Strings and byte
// slices are scalars.
func Flatten(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return []interface{}{v}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{v}
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ============================================================================
// GEO
// ============================================================================

// FormatGeo renders a point and radius as "lon lat" and "radius unit".
func FormatGeo(point, distance interface{}) (string, string, error) {
	p, err := ToPoint(point)
	if err != nil {
		return "", "", err
	}
	d, err := ToDistance(distance)
	if err != nil {
		return "", "", err
	}
	return decimal(p.Lon) + " " + decimal(p.Lat), decimal(d.Value) + " " + string(d.Unit), nil
}

// decimal renders a float always carrying a fractional part: 45 -> "45.0".
func decimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ToPoint accepts models.Point, *models.Point or a "lon,lat" string.
func ToPoint(v interface{}) (models.Point, error) {
	switch x := v.(type) {
	case models.Point:
		return x, nil
	case *models.Point:
		if x != nil {
			return *x, nil
		}
	case string:
		return ParsePoint(x)
	}
	return models.Point{}, fmt.Errorf("cannot use %T as a geo point", v)
}

// ParsePoint parses "lon,lat".
func ParsePoint(s string) (models.Point, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return models.Point{}, fmt.Errorf("invalid geo point %q: want lon,lat", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid longitude in %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid latitude in %q", s)
	}
	if lon < -180 || lon > 180 || lat < -85.05112878 || lat > 85.05112878 {
		return models.Point{}, fmt.Errorf("geo point %q out of range", s)
	}
	return models.Point{Lon: lon, Lat: lat}, nil
}

// ToDistance accepts models.Distance, *models.Distance or a "45mi" string.
func ToDistance(v interface{}) (models.Distance, error) {
	switch x := v.(type) {
	case models.Distance:
		if !validUnit(x.Unit) {
			return models.Distance{}, fmt.Errorf("invalid distance unit %q", x.Unit)
		}
		return x, nil
	case *models.Distance:
		if x != nil {
			return ToDistance(*x)
		}
	case string:
		return ParseDistance(x)
	}
	return models.Distance{}, fmt.Errorf("cannot use %T as a distance", v)
}

// ParseDistance parses "45mi", "45 mi" or "2.5km".
func ParseDistance(s string) (models.Distance, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' && r != '-' })
	if i <= 0 {
		return models.Distance{}, fmt.Errorf("invalid distance %q: want <value><unit>", s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return models.Distance{}, fmt.Errorf("invalid distance %q", s)
	}
	unit := models.Metric(strings.ToLower(strings.TrimSpace(s[i:])))
	if !validUnit(unit) {
		return models.Distance{}, fmt.Errorf("invalid distance unit %q", unit)
	}
	return models.Distance{Value: value, Unit: unit}, nil
}

func validUnit(u models.Metric) bool {
	return mapping.GeoUnits[string(u)]
}
