// Package lz implements the hash-chain match compressor: a windowed
// longest-match search over integer symbols with one-step lazy evaluation.
package lz

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
)

const (
	// DefaultWindow bounds how far back a match may reach.
	DefaultWindow = 4096
	// DefaultMaxMatch caps a single match length.
	DefaultMaxMatch = 258
	// DefaultMinInput is the shortest input worth parsing.
	DefaultMinInput = 16

	// MinMatch is the shortest back-reference emitted.
	MinMatch = 3

	hashBits     = 15
	hashMask     = 1<<hashBits - 1
	maxChainWalk = 256
)

// Options tunes the parser.
type Options struct {
	Window   int
	MaxMatch int
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MaxMatch < MinMatch {
		o.MaxMatch = DefaultMaxMatch
	}
	return o
}

// chains is the hash-chain index. head maps a bucket to its most recent
// position; prev links each position to the previous one in its bucket.
// Both are flat arenas indexed by bucket and position.
type chains struct {
	data   []int64
	window int
	head   []int32
	prev   []int32
}

func newChains(data []int64, window int) *chains {
	c := &chains{
		data:   data,
		window: window,
		head:   make([]int32, 1<<hashBits),
		prev:   make([]int32, len(data)),
	}
	for i := range c.head {
		c.head[i] = -1
	}
	return c
}

func (c *chains) hash(i int) uint32 {
	var buf [3 * 8]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(c.data[i]))
	binary.LittleEndian.PutUint64(buf[8:], uint64(c.data[i+1]))
	binary.LittleEndian.PutUint64(buf[16:], uint64(c.data[i+2]))
	return uint32(xxhash.Sum64(buf[:]) & hashMask)
}

func (c *chains) insert(i int) {
	if i+MinMatch > len(c.data) {
		return
	}
	h := c.hash(i)
	c.prev[i] = c.head[h]
	c.head[h] = int32(i)
}

// longest returns the longest match for position i among earlier positions
// within the window. Chains run from newest to oldest, so the walk stops at
// the first candidate outside the window.
func (c *chains) longest(i, maxMatch int) (length, distance int) {
	n := len(c.data)
	if i+MinMatch > n {
		return 0, 0
	}
	limit := min(maxMatch, n-i)
	cand := c.head[c.hash(i)]
	for steps := 0; cand >= 0 && steps < maxChainWalk; steps++ {
		d := i - int(cand)
		if d > c.window {
			break
		}
		if d > 0 {
			l := 0
			for l < limit && c.data[int(cand)+l] == c.data[i+l] {
				l++
			}
			if l > length {
				length, distance = l, d
				if l == limit {
					break
				}
			}
		}
		cand = c.prev[cand]
	}
	if length < MinMatch {
		return 0, 0
	}
	return length, distance
}

// Parse converts data into literal and match tokens.
func Parse(data []int64, opts Options) []descriptor.MatchToken {
	opts = opts.withDefaults()
	c := newChains(data, opts.Window)
	tokens := make([]descriptor.MatchToken, 0, len(data)/2+1)

	for i := 0; i < len(data); {
		length, distance := c.longest(i, opts.MaxMatch)
		c.insert(i)
		if length >= MinMatch {
			// Lazy evaluation: defer to i+1 when it yields a strictly longer match.
			if next, _ := c.longest(i+1, opts.MaxMatch); next > length+1 {
				tokens = append(tokens, descriptor.MatchToken{Value: data[i]})
				i++
				continue
			}
			tokens = append(tokens, descriptor.MatchToken{Distance: distance, Length: length})
			for k := i + 1; k < i+length; k++ {
				c.insert(k)
			}
			i += length
			continue
		}
		tokens = append(tokens, descriptor.MatchToken{Value: data[i]})
		i++
	}
	return tokens
}

// Cost estimates the coded size of tokens in bits: empirical entropy of the
// literals, tiered distance and length codes for matches, and one flag bit
// per token.
func Cost(tokens []descriptor.MatchToken) float64 {
	var literals []int64
	bits := float64(len(tokens))
	for _, t := range tokens {
		if t.IsLiteral() {
			literals = append(literals, t.Value)
			continue
		}
		bits += float64(distanceBits(t.Distance) + lengthBits(t.Length))
	}
	return bits + cost.EntropyBits(literals)
}

func distanceBits(d int) int {
	switch {
	case d < 128:
		return 7
	case d < 512:
		return 9
	case d < 2048:
		return 11
	default:
		return 13
	}
}

func lengthBits(l int) int {
	switch {
	case l < 8:
		return 3
	case l < 32:
		return 5
	case l < 128:
		return 7
	default:
		return 8
	}
}

// Compress proposes a match descriptor for data. Inputs shorter than
// minInput are declined.
func Compress(data []int64, opts Options, minInput int) (descriptor.Descriptor, bool) {
	if len(data) < minInput || len(data) == 0 {
		return descriptor.Descriptor{}, false
	}
	tokens := Parse(data, opts)
	return descriptor.New(descriptor.Match{Tokens: tokens}, cost.Bytes(Cost(tokens))), true
}

// Decode replays the token stream of p. Streams that would expand past
// limit values are rejected before anything beyond limit is allocated.
func Decode(p descriptor.Match, limit int) ([]int64, error) {
	out := make([]int64, 0, min(len(p.Tokens), max(limit, 0)))
	for i, t := range p.Tokens {
		if t.IsLiteral() {
			if t.Distance != 0 {
				return nil, descriptor.Malformedf("literal token %d carries distance %d", i, t.Distance)
			}
			if len(out) >= limit {
				return nil, descriptor.Malformedf("literal token %d exceeds length %d", i, limit)
			}
			out = append(out, t.Value)
			continue
		}
		if t.Length <= 0 {
			return nil, descriptor.Malformedf("match token %d has length %d", i, t.Length)
		}
		if t.Length > limit-len(out) {
			return nil, descriptor.Malformedf("match token %d of length %d exceeds length %d", i, t.Length, limit)
		}
		if t.Distance <= 0 || t.Distance > len(out) {
			return nil, descriptor.Malformedf("match token %d has distance %d with %d values decoded", i, t.Distance, len(out))
		}
		start := len(out) - t.Distance
		for k := 0; k < t.Length; k++ {
			out = append(out, out[start+k])
		}
	}
	return out, nil
}
