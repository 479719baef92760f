package tokendict

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/textseq"
)

var goSource = "package main\n\nimport \"fmt\"\n\nfunc main() {\n" +
	strings.Repeat("\tfor i := 0; i < 10; i++ {\n\t\tfmt.Println(\"hello\", i)\n\t}\n", 12) +
	"}\n"

func TestTokenize(t *testing.T) {
	got := Tokenize("x := a >>= 2 // hi\n\tfoo(\"s\\\"q\")")
	want := []string{
		"x", " ", ":=", " ", "a", " ", ">>=", " ", "2", " ", "// hi", "\n\t",
		"foo", "(", `"s\"q"`, ")",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeBlockCommentAndNumbers(t *testing.T) {
	got := Tokenize("/* a\nb */ 3.14e2+x1")
	want := []string{"/* a\nb */", " ", "3.14e2", "+", "x1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeConcatenation(t *testing.T) {
	for _, s := range []string{goSource, "", "'unterminated\nnext", "`raw\nstring`", "héllo wörld", "a\r\n  b"} {
		assert.Equal(t, s, strings.Join(Tokenize(s), ""))
	}
}

func TestBuildFrequencyOrder(t *testing.T) {
	p := Build("b a b c b a")
	require.NotEmpty(t, p.Dictionary)
	// " " occurs five times, then b three times, then a twice.
	assert.Equal(t, []string{" ", "b", "a", "c"}, p.Dictionary)
	assert.Equal(t, []int{1, 0, 2, 0, 1, 0, 3, 0, 1, 0, 2}, p.Indices)
}

func TestCompressRoundTrip(t *testing.T) {
	data := textseq.FromString(goSource)
	d, ok := Compress(data, DefaultMinLength)
	require.True(t, ok)
	assert.Equal(t, descriptor.KindTokenDict, d.Kind)
	assert.Less(t, d.Size, len(data))

	got, err := Decode(d.Payload.(descriptor.TokenDict), len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCompressDeclines(t *testing.T) {
	tests := []struct {
		name string
		data []int64
	}{
		{"short", textseq.FromString("x := 1")},
		{"not bytes", append(textseq.FromString(goSource), 1000)},
		{"invalid utf8", append(textseq.FromString(goSource), 0xff, 0xfe)},
		{"no repetition", textseq.FromString("abcdefghijklmnopqrstuvwxyz0123456789")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Compress(tt.data, DefaultMinLength)
			assert.False(t, ok)
		})
	}
}

func TestCost(t *testing.T) {
	p := descriptor.TokenDict{Dictionary: []string{"ab", "c"}, Indices: []int{0, 1, 200, 20000}}
	// (1+2) + (1+1) + 1 + 1 + 2 + 3
	assert.Equal(t, 12, Cost(p))
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode(descriptor.TokenDict{Dictionary: []string{"a"}, Indices: []int{0, 1}}, 8)
	assert.ErrorIs(t, err, descriptor.ErrMalformed)
	_, err = Decode(descriptor.TokenDict{Dictionary: []string{"a"}, Indices: []int{-1}}, 8)
	assert.ErrorIs(t, err, descriptor.ErrMalformed)

	long := descriptor.TokenDict{Dictionary: []string{strings.Repeat("x", 64)}, Indices: make([]int, 1<<20)}
	_, err = Decode(long, 100)
	assert.ErrorIs(t, err, descriptor.ErrMalformed)

	got, err := Decode(descriptor.TokenDict{Dictionary: []string{"ab"}, Indices: []int{0, 0}}, 4)
	require.NoError(t, err)
	assert.Equal(t, textseq.FromString("abab"), got)
}

func FuzzTokenize(f *testing.F) {
	f.Add(goSource)
	f.Add("/* open")
	f.Add("\"\\")
	f.Fuzz(func(t *testing.T, s string) {
		if got := strings.Join(Tokenize(s), ""); got != s {
			t.Fatalf("tokens do not concatenate back: %q != %q", got, s)
		}
	})
}
