// Package textseq converts between integer sequences and text for the
// text-aware compressors.
package textseq

import "unicode/utf8"

// Bytes returns data as bytes when every value fits in 0..255.
func Bytes(data []int64) ([]byte, bool) {
	out := make([]byte, len(data))
	for i, v := range data {
		if v < 0 || v > 255 {
			return nil, false
		}
		out[i] = byte(v)
	}
	return out, true
}

// Text returns data as a string when it is a byte sequence holding valid UTF-8.
func Text(data []int64) (string, bool) {
	b, ok := Bytes(data)
	if !ok || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// FromString returns the bytes of s as integers.
func FromString(s string) []int64 {
	out := make([]int64, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int64(s[i])
	}
	return out
}
