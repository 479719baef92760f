// Package numeric implements the numeric generator catalog: constant,
// arithmetic, geometric, periodic, polynomial, recursive and raw descriptors,
// each paired with a deterministic generator.
package numeric

import (
	"errors"
	"fmt"
	"math"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
)

const (
	// DefaultMaxPeriod caps the periodic search.
	DefaultMaxPeriod = 50
	// DefaultMaxDegree caps the polynomial degree.
	DefaultMaxDegree = 4

	// coefficientSnap is the distance within which a fitted coefficient is
	// tried as the nearest integer.
	coefficientSnap = 1e-6
)

// ErrOverflow indicates a generated value that does not fit in an int64.
var ErrOverflow = errors.New("generated value overflows int64")

// FitConstant proposes a constant descriptor when every element equals the
// first.
func FitConstant(data []int64) (descriptor.Descriptor, bool) {
	if len(data) == 0 {
		return descriptor.Descriptor{}, false
	}
	for _, v := range data[1:] {
		if v != data[0] {
			return descriptor.Descriptor{}, false
		}
	}
	return descriptor.New(descriptor.Constant{Value: data[0]}, 2), true
}

// FitArithmetic proposes start/step from the first difference. The result is
// a candidate and is not necessarily exact.
func FitArithmetic(data []int64) (descriptor.Descriptor, bool) {
	if len(data) < 2 {
		return descriptor.Descriptor{}, false
	}
	return descriptor.New(descriptor.Arithmetic{Start: data[0], Step: data[1] - data[0]}, 3), true
}

// FitGeometric proposes start/ratio from the first two elements.
func FitGeometric(data []int64) (descriptor.Descriptor, bool) {
	if len(data) < 2 || data[0] == 0 {
		return descriptor.Descriptor{}, false
	}
	r := float64(data[1]) / float64(data[0])
	if !cost.Finite(r) || r == 0 {
		return descriptor.Descriptor{}, false
	}
	return descriptor.New(descriptor.Geometric{Start: data[0], Ratio: r}, 3), true
}

// FitPeriodic returns the smallest exact period p <= min(maxPeriod, len-1).
func FitPeriodic(data []int64, maxPeriod int) (descriptor.Descriptor, bool) {
	n := len(data)
	limit := min(maxPeriod, n-1)
	for p := 1; p <= limit; p++ {
		if hasPeriod(data, p) {
			pattern := append([]int64(nil), data[:p]...)
			return descriptor.New(descriptor.Periodic{Pattern: pattern}, p+1), true
		}
	}
	return descriptor.Descriptor{}, false
}

func hasPeriod(data []int64, p int) bool {
	for i := p; i < len(data); i++ {
		if data[i] != data[i%p] {
			return false
		}
	}
	return true
}

// FitPolynomial returns one least-squares candidate per degree in
// [1, maxDegree] with degree < len(data).
func FitPolynomial(data []int64, maxDegree int) []descriptor.Descriptor {
	n := len(data)
	if n < 2 {
		return nil
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, v := range data {
		xs[i] = float64(i)
		ys[i] = float64(v)
	}

	var out []descriptor.Descriptor
	for degree := 1; degree <= maxDegree && degree < n; degree++ {
		coeffs, ok := LeastSquares(xs, ys, degree)
		if !ok {
			continue
		}
		if snapped, ok := snapCoefficients(coeffs); ok && reproduces(data, snapped) {
			coeffs = snapped
		}
		out = append(out, descriptor.New(descriptor.Polynomial{Coefficients: coeffs}, degree+2))
	}
	return out
}

func snapCoefficients(coeffs []float64) ([]float64, bool) {
	snapped := make([]float64, len(coeffs))
	changed := false
	for i, c := range coeffs {
		r := math.Round(c)
		if math.Abs(c-r) < coefficientSnap {
			snapped[i] = r
			changed = changed || r != c
		} else {
			snapped[i] = c
		}
	}
	return snapped, changed
}

func reproduces(data []int64, coeffs []float64) bool {
	for i, v := range data {
		got, err := toInt(evalPolynomial(coeffs, float64(i)))
		if err != nil || got != v {
			return false
		}
	}
	return true
}

// FitRecursive returns every recurrence rule that reproduces data exactly
// from its two-element seed.
func FitRecursive(data []int64) []descriptor.Descriptor {
	if len(data) < 3 {
		return nil
	}
	var out []descriptor.Descriptor
	for _, rule := range []descriptor.RecurrenceRule{
		descriptor.RuleFibonacci,
		descriptor.RuleSumAll,
		descriptor.RuleDoublePrev,
	} {
		p := descriptor.Recursive{Seed: []int64{data[0], data[1]}, Rule: rule}
		got, err := generateRecursive(p, len(data))
		if err != nil || !cost.Verify(data, got) {
			continue
		}
		out = append(out, descriptor.New(p, len(p.Seed)+2))
	}
	return out
}

// Raw is the verbatim fallback; it always succeeds.
func Raw(data []int64) descriptor.Descriptor {
	return descriptor.New(descriptor.Raw{Values: append([]int64(nil), data...)}, len(data))
}

// Generate regenerates n values from a numeric payload.
func Generate(p descriptor.Payload, n int) ([]int64, error) {
	if n < 0 {
		return nil, descriptor.Malformedf("negative length %d", n)
	}
	out := make([]int64, n)
	switch v := p.(type) {
	case descriptor.Constant:
		for i := range out {
			out[i] = v.Value
		}
	case descriptor.Arithmetic:
		for i := range out {
			out[i] = v.Start + int64(i)*v.Step
		}
	case descriptor.Geometric:
		if !cost.Finite(v.Ratio) {
			return nil, descriptor.Malformedf("geometric ratio %v", v.Ratio)
		}
		for i := range out {
			x, err := toInt(float64(v.Start) * math.Pow(v.Ratio, float64(i)))
			if err != nil {
				return nil, fmt.Errorf("geometric term %d: %w", i, err)
			}
			out[i] = x
		}
	case descriptor.Periodic:
		if len(v.Pattern) == 0 && n > 0 {
			return nil, descriptor.Malformedf("empty periodic pattern")
		}
		for i := range out {
			out[i] = v.Pattern[i%len(v.Pattern)]
		}
	case descriptor.Polynomial:
		for _, c := range v.Coefficients {
			if !cost.Finite(c) {
				return nil, descriptor.Malformedf("polynomial coefficient %v", c)
			}
		}
		for i := range out {
			x, err := toInt(evalPolynomial(v.Coefficients, float64(i)))
			if err != nil {
				return nil, fmt.Errorf("polynomial term %d: %w", i, err)
			}
			out[i] = x
		}
	case descriptor.Recursive:
		return generateRecursive(v, n)
	case descriptor.Raw:
		if len(v.Values) != n {
			return nil, descriptor.Malformedf("raw descriptor holds %d values, %d requested", len(v.Values), n)
		}
		copy(out, v.Values)
	default:
		return nil, descriptor.Malformedf("%s is not a numeric generator", descriptor.KindOf(p))
	}
	return out, nil
}

func generateRecursive(p descriptor.Recursive, n int) ([]int64, error) {
	if len(p.Seed) != 2 {
		return nil, descriptor.Malformedf("recursive seed of length %d", len(p.Seed))
	}
	switch p.Rule {
	case descriptor.RuleFibonacci, descriptor.RuleSumAll, descriptor.RuleDoublePrev:
	default:
		return nil, descriptor.Malformedf("unknown recurrence rule %q", p.Rule)
	}
	out := make([]int64, n)
	copy(out, p.Seed)
	var sum int64
	for i := 0; i < min(n, len(p.Seed)); i++ {
		sum += out[i]
	}
	for i := len(p.Seed); i < n; i++ {
		switch p.Rule {
		case descriptor.RuleFibonacci:
			out[i] = out[i-1] + out[i-2]
		case descriptor.RuleSumAll:
			out[i] = sum
		case descriptor.RuleDoublePrev:
			out[i] = 2 * out[i-1]
		}
		sum += out[i]
	}
	return out, nil
}

func toInt(f float64) (int64, error) {
	r := math.Round(f)
	if !cost.Finite(r) || r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, ErrOverflow
	}
	return int64(r), nil
}
