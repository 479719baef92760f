// Package cost holds the information-theoretic and fidelity helpers shared by
// every compressor: empirical entropy, absolute error and round-trip checks.
package cost

import "math"

// Entropy returns the empirical Shannon entropy of symbols in bits per symbol.
func Entropy(symbols []int64) float64 {
	if len(symbols) == 0 {
		return 0
	}
	freq := make(map[int64]int, 64)
	for _, s := range symbols {
		freq[s]++
	}
	total := float64(len(symbols))
	var h float64
	for _, c := range freq {
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// EntropyBits returns the total bits needed to code symbols with their own
// empirical frequencies.
func EntropyBits(symbols []int64) float64 {
	return Entropy(symbols) * float64(len(symbols))
}

// Bytes converts a bit count into whole bytes.
func Bytes(bits float64) int {
	if bits <= 0 || math.IsNaN(bits) {
		return 0
	}
	return int(math.Ceil(bits / 8))
}

// IndexBits returns log2(n), the fractional bits needed to index n items. It
// is 0 for n <= 1.
func IndexBits(n int) float64 {
	if n <= 1 {
		return 0
	}
	return math.Log2(float64(n))
}

// TotalError is the summed absolute deviation between original and
// reconstructed. Sequences of different length yield +Inf. Each deviation is
// taken in integer arithmetic, so any mismatch contributes at least 1.
func TotalError(original, reconstructed []int64) float64 {
	if len(original) != len(reconstructed) {
		return math.Inf(1)
	}
	var sum float64
	for i := range original {
		sum += float64(absDiff(original[i], reconstructed[i]))
	}
	return sum
}

// absDiff returns |a-b| without overflow.
func absDiff(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// Verify reports whether reconstructed equals original element by element.
func Verify(original, reconstructed []int64) bool {
	if len(original) != len(reconstructed) {
		return false
	}
	for i := range original {
		if original[i] != reconstructed[i] {
			return false
		}
	}
	return true
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
