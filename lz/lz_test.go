package lz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/textseq"
)

func roundTrip(t *testing.T, data []int64, opts Options) []descriptor.MatchToken {
	t.Helper()
	tokens := Parse(data, opts)
	got, err := Decode(descriptor.Match{Tokens: tokens}, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	return tokens
}

func TestParseRepetition(t *testing.T) {
	data := textseq.FromString("abcabcabcabcabcabc")
	tokens := roundTrip(t, data, Options{})
	require.Len(t, tokens, 4)
	assert.True(t, tokens[0].IsLiteral())
	assert.Equal(t, descriptor.MatchToken{Distance: 3, Length: 15}, tokens[3])
}

func TestLazyMatching(t *testing.T) {
	// At the second "abc" the best match is 3 long, but one position later
	// "bcdefgh" matches 7 values, so "a" is emitted as a literal.
	data := textseq.FromString("abcXbcdefghY" + "abcdefgh")
	tokens := roundTrip(t, data, Options{})

	last := tokens[len(tokens)-1]
	assert.Equal(t, descriptor.MatchToken{Distance: 9, Length: 7}, last)
	assert.Equal(t, descriptor.MatchToken{Value: 'a'}, tokens[len(tokens)-2])
}

func TestWindowBoundsDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := make([]int64, 3000)
	for i := range data {
		data[i] = int64(rng.Intn(256))
	}
	copy(data[2000:2100], data[0:100])

	for _, tok := range roundTrip(t, data, Options{Window: 512}) {
		assert.LessOrEqual(t, tok.Distance, 512)
	}
	tokens := roundTrip(t, data, Options{Window: 4096})
	var long bool
	for _, tok := range tokens {
		if tok.Distance == 2000 && tok.Length >= 100 {
			long = true
		}
	}
	assert.True(t, long, "expected the copied block to be matched")
}

func TestMaxMatchCaps(t *testing.T) {
	data := make([]int64, 1000)
	for _, tok := range roundTrip(t, data, Options{MaxMatch: 16}) {
		assert.LessOrEqual(t, tok.Length, 16)
	}
}

func TestRoundTripLargeValues(t *testing.T) {
	data := []int64{1 << 40, -5, 1 << 40, -5, 1 << 40, -5, 1 << 40, -5, 7}
	roundTrip(t, data, Options{})
}

func TestCost(t *testing.T) {
	tokens := []descriptor.MatchToken{
		{Value: 'a'},
		{Value: 'b'},
		{Distance: 2, Length: 10},
		{Distance: 3000, Length: 200},
	}
	// 4 flag bits, literal entropy 2*1, match 7+5 and 13+8.
	assert.InDelta(t, 4+2+12+21, Cost(tokens), 1e-9)
}

func TestCompress(t *testing.T) {
	data := textseq.FromString("abababababababababababababababab")
	d, ok := Compress(data, Options{}, DefaultMinInput)
	require.True(t, ok)
	assert.Equal(t, descriptor.KindMatch, d.Kind)
	assert.Less(t, d.Size, len(data))

	_, ok = Compress(data[:8], Options{}, DefaultMinInput)
	assert.False(t, ok)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		tokens []descriptor.MatchToken
	}{
		{"distance before start", []descriptor.MatchToken{{Value: 1}, {Distance: 2, Length: 3}}},
		{"negative length", []descriptor.MatchToken{{Value: 1}, {Distance: 1, Length: -1}}},
		{"literal with distance", []descriptor.MatchToken{{Value: 1, Distance: 1}}},
		{"zero distance", []descriptor.MatchToken{{Value: 1}, {Length: 2}}},
		{"zero length", []descriptor.MatchToken{{Value: 1}, {Distance: 1, Length: 0}}},
		{"match past limit", []descriptor.MatchToken{{Value: 1}, {Distance: 1, Length: 16}}},
		{"literal past limit", make([]descriptor.MatchToken, 17)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(descriptor.Match{Tokens: tt.tokens}, 16)
			assert.ErrorIs(t, err, descriptor.ErrMalformed)
		})
	}
}

func TestDecodeBoundsExpansion(t *testing.T) {
	huge := descriptor.Match{Tokens: []descriptor.MatchToken{{Value: 1}, {Distance: 1, Length: 200_000_000}}}
	_, err := Decode(huge, 3)
	require.ErrorIs(t, err, descriptor.ErrMalformed)

	_, err = Decode(huge, -1)
	require.ErrorIs(t, err, descriptor.ErrMalformed)

	fits := descriptor.Match{Tokens: []descriptor.MatchToken{{Value: 1}, {Distance: 1, Length: 2}}}
	got, err := Decode(fits, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1}, got)
}

func FuzzParseRoundTrip(f *testing.F) {
	f.Add([]byte("abcabcabcabc"), 64)
	f.Add([]byte{0, 0, 0, 0, 0, 0, 0, 0}, 4)
	f.Add([]byte{}, 0)
	f.Fuzz(func(t *testing.T, raw []byte, window int) {
		data := make([]int64, len(raw))
		for i, b := range raw {
			data[i] = int64(b)
		}
		tokens := Parse(data, Options{Window: window})
		got, err := Decode(descriptor.Match{Tokens: tokens}, len(data))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(data) {
			t.Fatalf("decoded %d values, want %d", len(got), len(data))
		}
		for i := range data {
			if got[i] != data[i] {
				t.Fatalf("mismatch at %d", i)
			}
		}
	})
}
