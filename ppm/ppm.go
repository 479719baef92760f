// Package ppm implements the adaptive predictive compressor: a
// prediction-by-partial-matching model with one context table per order and
// escape to lower orders. It estimates the coded size; the descriptor stores
// the symbols the model regenerates.
package ppm

import (
	"math"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
	"github.com/seiflotfy/genpress/internal/textseq"
)

const (
	// DefaultOrder is the highest context order.
	DefaultOrder = 5
	// DefaultMinLength is the shortest input worth modelling.
	DefaultMinLength = 32

	alphabetSize = 256
)

type counts struct {
	freq  map[byte]uint32
	total uint32
}

func (c *counts) add(s byte) {
	c.freq[s]++
	c.total++
}

// Model holds the per-order context tables of one compression pass.
type Model struct {
	order  int
	tables []map[string]*counts
}

// NewModel returns a fresh model. Order 0 starts with one count per symbol
// of the 256-symbol alphabet so every symbol is codable from the start.
func NewModel(order int) *Model {
	if order < 0 {
		order = 0
	}
	m := &Model{order: order, tables: make([]map[string]*counts, order+1)}
	for o := range m.tables {
		m.tables[o] = make(map[string]*counts)
	}
	uniform := &counts{freq: make(map[byte]uint32, alphabetSize)}
	for s := 0; s < alphabetSize; s++ {
		uniform.add(byte(s))
	}
	m.tables[0][""] = uniform
	return m
}

// Encode charges the cost of symbol s at position i of history and then
// updates every order. It returns the bits charged and the order that coded
// the symbol.
func (m *Model) Encode(history []byte, i int) (float64, int) {
	s := history[i]
	top := min(m.order, i)
	var bits float64
	coded := -1
	for o := top; o >= 0; o-- {
		c := m.tables[o][string(history[i-o:i])]
		var total uint32
		if c != nil {
			total = c.total
			if f := c.freq[s]; f > 0 {
				bits += -math.Log2(float64(f) / float64(total+1))
				coded = o
				break
			}
		}
		bits += -math.Log2(1 / float64(total+1))
	}
	m.update(history, i, top)
	return bits, coded
}

func (m *Model) update(history []byte, i, top int) {
	s := history[i]
	for o := 0; o <= top; o++ {
		ctx := string(history[i-o : i])
		c := m.tables[o][ctx]
		if c == nil {
			c = &counts{freq: make(map[byte]uint32, 4)}
			m.tables[o][ctx] = c
		}
		c.add(s)
	}
}

// Trace runs a full pass over data and returns the total bits and, per
// position, the order that coded the symbol.
func Trace(data []byte, order int) (float64, []int) {
	m := NewModel(order)
	coded := make([]int, len(data))
	var bits float64
	for i := range data {
		b, o := m.Encode(data, i)
		bits += b
		coded[i] = o
	}
	return bits, coded
}

// Compress proposes a predictive descriptor for data. It declines values
// outside the byte alphabet and inputs shorter than minLength.
func Compress(data []int64, order, minLength int) (descriptor.Descriptor, bool) {
	if len(data) < minLength || order < 0 {
		return descriptor.Descriptor{}, false
	}
	b, ok := textseq.Bytes(data)
	if !ok {
		return descriptor.Descriptor{}, false
	}
	bits, _ := Trace(b, order)
	seedLen := min(order, len(data))
	p := descriptor.Predictive{
		Order: order,
		Seed:  append([]int64(nil), data[:seedLen]...),
		Rest:  append([]int64(nil), data[seedLen:]...),
	}
	return descriptor.New(p, cost.Bytes(bits)), true
}

// Decode regenerates the symbols of p.
func Decode(p descriptor.Predictive) ([]int64, error) {
	if p.Order < 0 {
		return nil, descriptor.Malformedf("predictive order %d", p.Order)
	}
	if len(p.Seed) > p.Order {
		return nil, descriptor.Malformedf("predictive seed of %d symbols exceeds order %d", len(p.Seed), p.Order)
	}
	if len(p.Rest) > 0 && len(p.Seed) != p.Order {
		return nil, descriptor.Malformedf("predictive seed of %d symbols for order %d", len(p.Seed), p.Order)
	}
	out := make([]int64, 0, len(p.Seed)+len(p.Rest))
	out = append(out, p.Seed...)
	out = append(out, p.Rest...)
	for i, s := range out {
		if s < 0 || s >= alphabetSize {
			return nil, descriptor.Malformedf("predictive symbol %d at position %d outside the byte alphabet", s, i)
		}
	}
	return out, nil
}
