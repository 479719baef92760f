package genpress

import (
	"fmt"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/lz"
	"github.com/seiflotfy/genpress/numeric"
	"github.com/seiflotfy/genpress/ppm"
	"github.com/seiflotfy/genpress/template"
	"github.com/seiflotfy/genpress/tokendict"
)

// ErrMalformedDescriptor wraps every failure to regenerate a descriptor.
var ErrMalformedDescriptor = descriptor.ErrMalformed

// Decompress regenerates n values from d. It is an alias for Generate.
func Decompress(d descriptor.Descriptor, n int) ([]int64, error) {
	return Generate(d, n)
}

// Generate deterministically regenerates n values from d. Kinds that store
// their data (raw, text compressors, segment index) fail when n disagrees
// with the stored length.
func Generate(d descriptor.Descriptor, n int) ([]int64, error) {
	if err := descriptor.Validate(d); err != nil {
		return nil, err
	}
	return generate(d, n)
}

func generate(d descriptor.Descriptor, n int) ([]int64, error) {
	if n < 0 {
		return nil, descriptor.Malformedf("negative length %d", n)
	}

	switch p := d.Payload.(type) {
	case descriptor.Constant, descriptor.Arithmetic, descriptor.Geometric,
		descriptor.Periodic, descriptor.Polynomial, descriptor.Recursive, descriptor.Raw:
		return numeric.Generate(p, n)
	case descriptor.TokenDict:
		return exactLength(d.Kind, n)(tokendict.Decode(p, n))
	case descriptor.Template:
		return exactLength(d.Kind, n)(template.Decode(p, n))
	case descriptor.Predictive:
		return exactLength(d.Kind, n)(ppm.Decode(p))
	case descriptor.Match:
		return exactLength(d.Kind, n)(lz.Decode(p, n))
	case descriptor.Chain:
		return generateChain(d, p, n)
	case descriptor.SegmentIndex:
		if p.Total != n {
			return nil, descriptor.Malformedf("segment index covers %d values, %d requested", p.Total, n)
		}
		out := make([]int64, 0, n)
		for i, s := range p.Segments {
			vals, err := generate(d.Sub[i], s.Length)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			out = append(out, vals...)
		}
		return out, nil
	default:
		return nil, descriptor.Malformedf("cannot generate %s", d.Kind)
	}
}

func exactLength(k descriptor.Kind, n int) func([]int64, error) ([]int64, error) {
	return func(vals []int64, err error) ([]int64, error) {
		if err != nil {
			return nil, err
		}
		if len(vals) != n {
			return nil, descriptor.Malformedf("%s descriptor regenerates %d values, %d requested", k, len(vals), n)
		}
		if vals == nil {
			vals = []int64{}
		}
		return vals, nil
	}
}

// generateChain replays the layers from the innermost outwards: each layer's
// output becomes the parameter vector of the next outer shell.
func generateChain(d descriptor.Descriptor, p descriptor.Chain, n int) ([]int64, error) {
	last := len(d.Sub) - 1
	params, err := generate(d.Sub[last], p.ParamCounts[last-1])
	if err != nil {
		return nil, fmt.Errorf("chain layer %d: %w", last, err)
	}
	for i := last - 1; i >= 0; i-- {
		payload, err := descriptor.WithParams(d.Sub[i].Payload, params)
		if err != nil {
			return nil, fmt.Errorf("chain layer %d: %w", i, err)
		}
		want := n
		if i > 0 {
			want = p.ParamCounts[i-1]
		}
		params, err = generate(descriptor.New(payload, d.Sub[i].Size), want)
		if err != nil {
			return nil, fmt.Errorf("chain layer %d: %w", i, err)
		}
	}
	return params, nil
}
