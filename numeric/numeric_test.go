package numeric

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiflotfy/genpress/descriptor"
)

func mustGenerate(t *testing.T, d descriptor.Descriptor, n int) []int64 {
	t.Helper()
	got, err := Generate(d.Payload, n)
	require.NoError(t, err)
	return got
}

func TestFitConstant(t *testing.T) {
	d, ok := FitConstant([]int64{5, 5, 5, 5, 5})
	require.True(t, ok)
	assert.Equal(t, descriptor.Constant{Value: 5}, d.Payload)
	assert.Equal(t, 2, d.Size)

	_, ok = FitConstant([]int64{5, 5, 6})
	assert.False(t, ok)
	_, ok = FitConstant(nil)
	assert.False(t, ok)
}

func TestFitArithmetic(t *testing.T) {
	data := []int64{2, 4, 6, 8, 10}
	d, ok := FitArithmetic(data)
	require.True(t, ok)
	assert.Equal(t, descriptor.Arithmetic{Start: 2, Step: 2}, d.Payload)
	assert.Equal(t, 3, d.Size)
	assert.Equal(t, data, mustGenerate(t, d, len(data)))

	// Proposed from the first difference even when inexact.
	d, ok = FitArithmetic([]int64{1, 2, 4})
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, mustGenerate(t, d, 3))

	_, ok = FitArithmetic([]int64{1})
	assert.False(t, ok)
}

func TestFitGeometric(t *testing.T) {
	d, ok := FitGeometric([]int64{3, 6, 12, 24})
	require.True(t, ok)
	assert.Equal(t, []int64{3, 6, 12, 24}, mustGenerate(t, d, 4))

	tests := []struct {
		name string
		data []int64
	}{
		{"zero start", []int64{0, 1, 2}},
		{"zero ratio", []int64{4, 0, 0}},
		{"too short", []int64{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FitGeometric(tt.data)
			assert.False(t, ok)
		})
	}
}

func TestFitPeriodicMinimal(t *testing.T) {
	tests := []struct {
		data    []int64
		pattern []int64
	}{
		{[]int64{1, 2, 1, 2, 1, 2}, []int64{1, 2}},
		{[]int64{3, 3, 3}, []int64{3}},
		{[]int64{1, 2, 3, 1, 2, 3, 1, 2, 3, 1}, []int64{1, 2, 3}},
		{[]int64{1, 2, 1, 2, 1, 2, 1, 2}, []int64{1, 2}},
	}
	for _, tt := range tests {
		d, ok := FitPeriodic(tt.data, DefaultMaxPeriod)
		require.True(t, ok, "%v", tt.data)
		assert.Equal(t, descriptor.Periodic{Pattern: tt.pattern}, d.Payload)
		assert.Equal(t, len(tt.pattern)+1, d.Size)
		assert.Equal(t, tt.data, mustGenerate(t, d, len(tt.data)))
	}

	_, ok := FitPeriodic([]int64{1, 2, 3}, DefaultMaxPeriod)
	assert.False(t, ok)

	// The cap bounds the search.
	_, ok = FitPeriodic([]int64{1, 2, 3, 1, 2, 3}, 2)
	assert.False(t, ok)
}

func TestFitPolynomial(t *testing.T) {
	data := []int64{0, 1, 4, 9, 16, 25}
	cands := FitPolynomial(data, DefaultMaxDegree)
	require.Len(t, cands, 4)

	quadratic := cands[1]
	assert.Equal(t, 4, quadratic.Size)
	coeffs := quadratic.Payload.(descriptor.Polynomial).Coefficients
	assert.InDeltaSlice(t, []float64{0, 0, 1}, coeffs, 1e-9)
	assert.Equal(t, data, mustGenerate(t, quadratic, len(data)))

	// Degrees never reach the number of points.
	assert.Len(t, FitPolynomial([]int64{1, 5, 2}, DefaultMaxDegree), 2)
	assert.Empty(t, FitPolynomial([]int64{1}, DefaultMaxDegree))
}

func TestLeastSquaresDegenerate(t *testing.T) {
	coeffs, ok := LeastSquares([]float64{1, 1, 1}, []float64{2, 2, 2}, 2)
	require.True(t, ok)
	for _, c := range coeffs {
		assert.False(t, math.IsNaN(c), "NaN coefficient")
	}
	assert.InDelta(t, 2, evalPolynomial(coeffs, 1), 1e-9)

	_, ok = LeastSquares(nil, nil, 1)
	assert.False(t, ok)
}

func TestFitRecursive(t *testing.T) {
	tests := []struct {
		data []int64
		rule descriptor.RecurrenceRule
	}{
		{[]int64{1, 1, 2, 3, 5, 8, 13}, descriptor.RuleFibonacci},
		{[]int64{1, 2, 3, 6, 12, 24}, descriptor.RuleSumAll},
		{[]int64{3, 6, 12, 24, 48}, descriptor.RuleDoublePrev},
	}
	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			cands := FitRecursive(tt.data)
			require.NotEmpty(t, cands)
			var found bool
			for _, c := range cands {
				p := c.Payload.(descriptor.Recursive)
				if p.Rule == tt.rule {
					found = true
					assert.Equal(t, 4, c.Size)
					assert.Equal(t, tt.data, mustGenerate(t, c, len(tt.data)))
				}
			}
			assert.True(t, found)
		})
	}

	assert.Empty(t, FitRecursive([]int64{1, 2, 9}))
}

func TestGenerateMalformed(t *testing.T) {
	tests := []struct {
		name string
		p    descriptor.Payload
		n    int
	}{
		{"empty pattern", descriptor.Periodic{}, 3},
		{"raw length", descriptor.Raw{Values: []int64{1, 2}}, 3},
		{"bad rule", descriptor.Recursive{Seed: []int64{1, 1}, Rule: "tribonacci"}, 4},
		{"short seed", descriptor.Recursive{Seed: []int64{1}, Rule: descriptor.RuleFibonacci}, 4},
		{"negative length", descriptor.Constant{Value: 1}, -1},
		{"text kind", descriptor.TokenDict{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.p, tt.n)
			assert.ErrorIs(t, err, descriptor.ErrMalformed)
		})
	}
}

func TestGenerateOverflow(t *testing.T) {
	_, err := Generate(descriptor.Geometric{Start: 1, Ratio: 10}, 30)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestRaw(t *testing.T) {
	data := []int64{9, -3, 7}
	d := Raw(data)
	assert.Equal(t, 3, d.Size)
	data[0] = 0
	if diff := cmp.Diff([]int64{9, -3, 7}, mustGenerate(t, d, 3)); diff != "" {
		t.Fatalf("raw must copy its input (-want +got):\n%s", diff)
	}
}

func FuzzExactFits(f *testing.F) {
	f.Add([]byte{1, 2, 1, 2, 1, 2})
	f.Add([]byte{5, 5, 5, 5})
	f.Add([]byte{1, 1, 2, 3, 5, 8})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, raw []byte) {
		data := make([]int64, len(raw))
		for i, b := range raw {
			data[i] = int64(b)
		}
		var exact []descriptor.Descriptor
		if d, ok := FitConstant(data); ok {
			exact = append(exact, d)
		}
		if d, ok := FitPeriodic(data, DefaultMaxPeriod); ok {
			exact = append(exact, d)
		}
		exact = append(exact, FitRecursive(data)...)
		exact = append(exact, Raw(data))

		for _, d := range exact {
			got, err := Generate(d.Payload, len(data))
			if err != nil {
				t.Fatalf("%s: %v", d.Kind, err)
			}
			if !cmp.Equal(data, got, cmpopts.EquateEmpty()) {
				t.Fatalf("%s does not reproduce %v: %v", d.Kind, data, got)
			}
		}
	})
}
