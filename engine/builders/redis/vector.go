package redis

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeVector converts a vector operand to the little-endian byte buffer
// bound as a query parameter.
func EncodeVector(v interface{}, elementType string) ([]byte, error) {
	var f64 []float64
	switch x := v.(type) {
	case []byte:
		return x, nil
	case []float32:
		if elementType != "FLOAT64" {
			buf := make([]byte, 4*len(x))
			for i, f := range x {
				binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
			}
			return buf, nil
		}
		f64 = make([]float64, len(x))
		for i, f := range x {
			f64[i] = float64(f)
		}
	case []float64:
		f64 = x
	default:
		return nil, fmt.Errorf("cannot use %T as a vector", v)
	}

	if elementType == "FLOAT64" {
		buf := make([]byte, 8*len(f64))
		for i, f := range f64 {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
		}
		return buf, nil
	}
	buf := make([]byte, 4*len(f64))
	for i, f := range f64 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
	}
	return buf, nil
}

// DecodeVector converts a stored little-endian float32 buffer back to floats.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// VectorDim returns the number of elements of a vector operand.
func VectorDim(v interface{}) int {
	switch x := v.(type) {
	case []float32:
		return len(x)
	case []float64:
		return len(x)
	case []byte:
		return len(x) / 4
	}
	return -1
}
