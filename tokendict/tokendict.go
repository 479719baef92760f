// Package tokendict implements the token-dictionary compressor: text is split
// into structure-aware tokens, the unique tokens form a frequency-ordered
// dictionary and the text becomes a stream of dictionary indices.
package tokendict

import (
	"sort"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/textseq"
)

// DefaultMinLength is the shortest input worth a dictionary.
const DefaultMinLength = 32

// Build tokenizes text and returns the frequency-ordered dictionary and the
// index stream. Equal frequencies keep first-occurrence order.
func Build(text string) descriptor.TokenDict {
	tokens := Tokenize(text)

	counts := make(map[string]int, len(tokens)/2+1)
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	index := make(map[string]int, len(order))
	for i, tok := range order {
		index[tok] = i
	}
	indices := make([]int, len(tokens))
	for i, tok := range tokens {
		indices[i] = index[tok]
	}
	return descriptor.TokenDict{Dictionary: order, Indices: indices}
}

// Cost estimates the serialized size of p in bytes: one length byte plus the
// token bytes per dictionary entry, and 1, 2 or 3 bytes per index depending
// on its magnitude.
func Cost(p descriptor.TokenDict) int {
	total := 0
	for _, tok := range p.Dictionary {
		total += 1 + len(tok)
	}
	for _, idx := range p.Indices {
		total += indexCost(idx)
	}
	return total
}

func indexCost(idx int) int {
	switch {
	case idx < 128:
		return 1
	case idx < 16384:
		return 2
	default:
		return 3
	}
}

// Compress proposes a token-dictionary descriptor for data. It declines
// input that is not text, shorter than minLength, or not smaller than raw.
func Compress(data []int64, minLength int) (descriptor.Descriptor, bool) {
	if len(data) < minLength {
		return descriptor.Descriptor{}, false
	}
	text, ok := textseq.Text(data)
	if !ok {
		return descriptor.Descriptor{}, false
	}
	p := Build(text)
	size := Cost(p)
	if size >= len(data) {
		return descriptor.Descriptor{}, false
	}
	return descriptor.New(p, size), true
}

// Decode regenerates the byte sequence described by p, rejecting output
// longer than limit.
func Decode(p descriptor.TokenDict, limit int) ([]int64, error) {
	var out []int64
	for i, idx := range p.Indices {
		if idx < 0 || idx >= len(p.Dictionary) {
			return nil, descriptor.Malformedf("token index %d at position %d out of range for %d entries", idx, i, len(p.Dictionary))
		}
		tok := p.Dictionary[idx]
		if len(tok) > limit-len(out) {
			return nil, descriptor.Malformedf("token at position %d exceeds length %d", i, limit)
		}
		for j := 0; j < len(tok); j++ {
			out = append(out, int64(tok[j]))
		}
	}
	return out, nil
}
