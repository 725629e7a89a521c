package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Point is a longitude/latitude pair. It maps to a GEO field and is stored
// as "lon,lat".
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func (p Point) String() string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// MarshalJSON writes the point as "lon,lat" so JSON documents index as GEO.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts "lon,lat" or {"lon": .., "lat": ..}.
func (p *Point) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		type plain Point
		return json.Unmarshal(b, (*plain)(p))
	}
	lon, lat, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("invalid geo point %q", s)
	}
	var err error
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return fmt.Errorf("invalid longitude in %q", s)
	}
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return fmt.Errorf("invalid latitude in %q", s)
	}
	return nil
}

// Metric is a geo radius unit.
type Metric string

const (
	Meters     Metric = "m"
	Kilometers Metric = "km"
	Miles      Metric = "mi"
	Feet       Metric = "ft"
)

// Distance is a radius with its unit.
type Distance struct {
	Value float64
	Unit  Metric
}

// NewDistance creates a Distance.
func NewDistance(value float64, unit Metric) Distance {
	return Distance{Value: value, Unit: unit}
}
