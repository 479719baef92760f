package descriptor

import "fmt"

// Kind tags the variant of a Descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindConstant
	KindArithmetic
	KindGeometric
	KindPeriodic
	KindPolynomial
	KindRecursive
	KindTokenDict
	KindTemplate
	KindPredictive
	KindMatch
	KindChain
	KindSegmentIndex
	KindRaw
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindConstant:     "constant",
	KindArithmetic:   "arithmetic",
	KindGeometric:    "geometric",
	KindPeriodic:     "periodic",
	KindPolynomial:   "polynomial",
	KindRecursive:    "recursive",
	KindTokenDict:    "token_dict",
	KindTemplate:     "ast_template",
	KindPredictive:   "predictive",
	KindMatch:        "match",
	KindChain:        "hierarchical_chain",
	KindSegmentIndex: "segment_index",
	KindRaw:          "raw",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Valid reports whether k names a known descriptor variant.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindRaw
}

// ParseKind parses the string form of a kind tag.
func ParseKind(name string) (Kind, error) {
	for k := KindConstant; k <= KindRaw; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
