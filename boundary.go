package genpress

import (
	"fmt"
	"unicode/utf8"
)

// Origin tags stored next to a descriptor so callers can convert the
// regenerated sequence back into their native value.
const (
	OriginBytes = "bytes"
	OriginText  = "text"
	OriginInts  = "ints"
)

// FromBytes maps each byte to one value.
func FromBytes(b []byte) []int64 {
	out := make([]int64, len(b))
	for i, c := range b {
		out[i] = int64(c)
	}
	return out
}

// FromString maps each byte of s to one value.
func FromString(s string) []int64 {
	return FromBytes([]byte(s))
}

// FromInts widens a slice of ints.
func FromInts(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

// ToBytes narrows values back to bytes. Values outside 0..255 are an error.
func ToBytes(vals []int64) ([]byte, error) {
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("value %d at position %d is not a byte", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// ToString narrows values back to a UTF-8 string.
func ToString(vals []int64) (string, error) {
	b, err := ToBytes(vals)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("sequence is not valid UTF-8")
	}
	return string(b), nil
}
