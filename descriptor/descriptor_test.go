package descriptor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	for k := KindConstant; k <= KindRaw; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	assert.Equal(t, "ast_template", KindTemplate.String())
	assert.Equal(t, "hierarchical_chain", KindChain.String())

	_, err := ParseKind("fractal")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, Kind(200).Valid())
}

func TestValidate(t *testing.T) {
	segments := New(SegmentIndex{Total: 4, Segments: []Segment{
		{Key: "a", Offset: 0, Length: 2},
		{Key: "b", Offset: 2, Length: 2},
	}}, 6)
	segments.Sub = []Descriptor{New(Constant{Value: 1}, 2), New(Constant{Value: 2}, 2)}

	gap := segments
	gap.Payload = SegmentIndex{Total: 4, Segments: []Segment{
		{Key: "a", Offset: 0, Length: 2},
		{Key: "b", Offset: 3, Length: 1},
	}}

	shortChain := New(Chain{ParamCounts: nil}, 1)
	shortChain.Sub = []Descriptor{New(Constant{Value: 1}, 2)}

	withSub := New(Constant{Value: 1}, 2)
	withSub.Sub = []Descriptor{New(Constant{Value: 1}, 2)}

	tests := []struct {
		name string
		d    Descriptor
		ok   bool
	}{
		{"constant", New(Constant{Value: 3}, 2), true},
		{"segments", segments, true},
		{"chain", sampleChain(), true},
		{"zero value", Descriptor{}, false},
		{"nil payload", Descriptor{Kind: KindRaw}, false},
		{"kind mismatch", Descriptor{Kind: KindArithmetic, Payload: Constant{}}, false},
		{"negative size", Descriptor{Kind: KindConstant, Payload: Constant{}, Size: -1}, false},
		{"segment gap", gap, false},
		{"chain with one layer", shortChain, false},
		{"leaf with sub", withSub, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.d)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestParamsRoundTrip(t *testing.T) {
	payloads := []Payload{
		Constant{Value: 7},
		Arithmetic{Start: 1, Step: -2},
		Geometric{Start: 3, Ratio: 2},
		Periodic{Pattern: []int64{1, 2, 3}},
		Polynomial{Coefficients: []float64{1, 0, 2}},
		Recursive{Seed: []int64{1, 1}, Rule: RuleFibonacci},
		TokenDict{Dictionary: []string{"a", "b"}, Indices: []int{0, 1, 0}},
		Predictive{Order: 2, Seed: []int64{1, 2}, Rest: []int64{3, 4}},
		Raw{Values: []int64{4, 5}},
	}
	for _, p := range payloads {
		t.Run(KindOf(p).String(), func(t *testing.T) {
			params, ok := Params(p)
			require.True(t, ok)

			shell := Shell(New(p, 10))
			got, err := WithParams(shell.Payload, params)
			require.NoError(t, err)
			if diff := cmp.Diff(p, got); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParamsRejectsNonIntegral(t *testing.T) {
	_, ok := Params(Geometric{Start: 1, Ratio: 1.5})
	assert.False(t, ok)
	_, ok = Params(Polynomial{Coefficients: []float64{0.25}})
	assert.False(t, ok)
	_, ok = Params(Chain{})
	assert.False(t, ok)
}

func TestWithParamsArity(t *testing.T) {
	_, err := WithParams(Arithmetic{}, []int64{1})
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = WithParams(Match{}, []int64{1})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestShellKeepsStructure(t *testing.T) {
	s := Shell(New(TokenDict{Dictionary: []string{"x"}, Indices: []int{0, 0}}, 4))
	assert.Equal(t, TokenDict{Dictionary: []string{"x"}}, s.Payload)

	s = Shell(New(Recursive{Seed: []int64{1, 2}, Rule: RuleSumAll}, 4))
	assert.Equal(t, Recursive{Rule: RuleSumAll}, s.Payload)
}
