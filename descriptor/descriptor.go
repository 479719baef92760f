// Package descriptor defines the generative descriptor data model: a kind tag,
// a kind-specific payload, an estimated size and optional sub-descriptors.
// It also implements the self-describing envelope used to persist descriptors.
package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates a descriptor that cannot be regenerated: an
	// out-of-range index, a negative length, a kind/payload mismatch or a
	// length that disagrees with stored data.
	ErrMalformed = errors.New("malformed descriptor")
	// ErrUnknownKind indicates a kind tag outside the known set.
	ErrUnknownKind = errors.New("unknown descriptor kind")
)

// Descriptor is a generative description θ of an integer sequence.
type Descriptor struct {
	Kind    Kind
	Payload Payload
	// Size is the estimated serialized cost in units of the input.
	Size int
	// Sub holds chain layers (outermost first) or per-segment descriptors.
	Sub []Descriptor
}

// New wraps a payload into a descriptor with the given size estimate.
func New(p Payload, size int) Descriptor {
	return Descriptor{Kind: p.kind(), Payload: p, Size: size}
}

// Payload is the closed union of kind-specific parameters.
type Payload interface {
	kind() Kind
}

// Constant repeats Value.
type Constant struct {
	Value int64 `json:"value"`
}

// Arithmetic yields Start + i*Step.
type Arithmetic struct {
	Start int64 `json:"start"`
	Step  int64 `json:"step"`
}

// Geometric yields round(Start * Ratio^i).
type Geometric struct {
	Start int64   `json:"start"`
	Ratio float64 `json:"ratio"`
}

// Periodic repeats Pattern.
type Periodic struct {
	Pattern []int64 `json:"pattern"`
}

// Polynomial yields round(sum Coefficients[k] * i^k).
type Polynomial struct {
	Coefficients []float64 `json:"coefficients"`
}

// RecurrenceRule names the recurrence used by Recursive.
type RecurrenceRule string

const (
	RuleFibonacci  RecurrenceRule = "fibonacci"
	RuleSumAll     RecurrenceRule = "sum_all"
	RuleDoublePrev RecurrenceRule = "double_prev"
)

// Recursive expands Seed with Rule.
type Recursive struct {
	Seed []int64        `json:"seed"`
	Rule RecurrenceRule `json:"rule"`
}

// TokenDict is a token dictionary plus index stream.
type TokenDict struct {
	Dictionary []string `json:"dictionary"`
	Indices    []int    `json:"indices"`
}

// TemplateLine references one template and the fillers for its placeholders.
type TemplateLine struct {
	Template int   `json:"t"`
	Fillers  []int `json:"f,omitempty"`
}

// Template holds per-line structural templates and their filler dictionary.
type Template struct {
	Templates []string       `json:"templates"`
	Fillers   []string       `json:"fillers"`
	Lines     []TemplateLine `json:"lines"`
}

// Predictive stores the symbols regenerated by the adaptive context model.
type Predictive struct {
	Order int     `json:"order"`
	Seed  []int64 `json:"seed"`
	Rest  []int64 `json:"rest"`
}

// MatchToken is either a literal (Length == 0) or a back-reference.
type MatchToken struct {
	Value    int64 `json:"v,omitempty"`
	Distance int   `json:"d,omitempty"`
	Length   int   `json:"l,omitempty"`
}

// IsLiteral reports whether the token carries a literal value.
func (t MatchToken) IsLiteral() bool { return t.Length == 0 }

// Match is a literal/back-reference token stream.
type Match struct {
	Tokens []MatchToken `json:"tokens"`
}

// Chain describes hierarchical layers. Sub holds the layers outermost first;
// ParamCounts[i] is the number of parameters layer i+1 must generate for
// layer i.
type Chain struct {
	ParamCounts []int `json:"param_counts"`
}

// Segment is the serialized metadata of one index entry.
type Segment struct {
	Key          string `json:"key"`
	Offset       int    `json:"offset"`
	Length       int    `json:"length"`
	Dependencies []int  `json:"deps,omitempty"`
}

// SegmentIndex describes independently regenerable ranges. Sub holds one
// descriptor per segment in the same order.
type SegmentIndex struct {
	Total    int       `json:"total"`
	Segments []Segment `json:"segments"`
}

// Raw stores values verbatim.
type Raw struct {
	Values []int64 `json:"values"`
}

func (Constant) kind() Kind     { return KindConstant }
func (Arithmetic) kind() Kind   { return KindArithmetic }
func (Geometric) kind() Kind    { return KindGeometric }
func (Periodic) kind() Kind     { return KindPeriodic }
func (Polynomial) kind() Kind   { return KindPolynomial }
func (Recursive) kind() Kind    { return KindRecursive }
func (TokenDict) kind() Kind    { return KindTokenDict }
func (Template) kind() Kind     { return KindTemplate }
func (Predictive) kind() Kind   { return KindPredictive }
func (Match) kind() Kind        { return KindMatch }
func (Chain) kind() Kind        { return KindChain }
func (SegmentIndex) kind() Kind { return KindSegmentIndex }
func (Raw) kind() Kind          { return KindRaw }

// KindOf returns the kind tag a payload belongs to.
func KindOf(p Payload) Kind {
	if p == nil {
		return KindInvalid
	}
	return p.kind()
}

// Malformedf returns an error wrapping ErrMalformed.
func Malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

const maxDepth = 16

// Validate checks the structural invariants of d and its sub-descriptors.
func Validate(d Descriptor) error {
	return validate(d, 0)
}

func validate(d Descriptor, depth int) error {
	if depth > maxDepth {
		return Malformedf("nesting deeper than %d", maxDepth)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrMalformed, ErrUnknownKind, uint8(d.Kind))
	}
	if d.Payload == nil {
		return Malformedf("%s descriptor without payload", d.Kind)
	}
	if got := d.Payload.kind(); got != d.Kind {
		return Malformedf("kind %s carries %s payload", d.Kind, got)
	}
	if d.Size < 0 {
		return Malformedf("negative size %d", d.Size)
	}

	switch p := d.Payload.(type) {
	case Chain:
		if len(d.Sub) < 2 || len(p.ParamCounts) != len(d.Sub)-1 {
			return Malformedf("chain with %d layers and %d parameter counts", len(d.Sub), len(p.ParamCounts))
		}
		for i, c := range p.ParamCounts {
			if c < 0 {
				return Malformedf("chain layer %d has negative parameter count", i)
			}
		}
	case SegmentIndex:
		if len(p.Segments) != len(d.Sub) {
			return Malformedf("segment index with %d entries and %d descriptors", len(p.Segments), len(d.Sub))
		}
		next := 0
		for i, s := range p.Segments {
			if s.Offset != next || s.Length < 0 {
				return Malformedf("segment %d at offset %d length %d breaks contiguity", i, s.Offset, s.Length)
			}
			next += s.Length
		}
		if next != p.Total {
			return Malformedf("segments cover %d of %d values", next, p.Total)
		}
	default:
		if len(d.Sub) != 0 {
			return Malformedf("%s descriptor with sub-descriptors", d.Kind)
		}
	}

	for i := range d.Sub {
		if err := validate(d.Sub[i], depth+1); err != nil {
			return fmt.Errorf("sub-descriptor %d: %w", i, err)
		}
	}
	return nil
}
