package descriptor

import "math"

const integralEpsilon = 1e-9

// Params extracts the numeric parameters of p as a flat integer sequence.
// It reports false for payloads without an integral parameter vector.
func Params(p Payload) ([]int64, bool) {
	switch v := p.(type) {
	case Constant:
		return []int64{v.Value}, true
	case Arithmetic:
		return []int64{v.Start, v.Step}, true
	case Geometric:
		r, ok := integral(v.Ratio)
		if !ok {
			return nil, false
		}
		return []int64{v.Start, r}, true
	case Periodic:
		return append([]int64(nil), v.Pattern...), true
	case Polynomial:
		out := make([]int64, len(v.Coefficients))
		for i, c := range v.Coefficients {
			ic, ok := integral(c)
			if !ok {
				return nil, false
			}
			out[i] = ic
		}
		return out, true
	case Recursive:
		return append([]int64(nil), v.Seed...), true
	case TokenDict:
		out := make([]int64, len(v.Indices))
		for i, idx := range v.Indices {
			out[i] = int64(idx)
		}
		return out, true
	case Predictive:
		out := make([]int64, 0, len(v.Seed)+len(v.Rest))
		out = append(out, v.Seed...)
		return append(out, v.Rest...), true
	case Raw:
		return append([]int64(nil), v.Values...), true
	default:
		return nil, false
	}
}

// WithParams returns a copy of p whose numeric parameters are replaced by
// params. It is the inverse of Params.
func WithParams(p Payload, params []int64) (Payload, error) {
	need := func(n int) error {
		if len(params) != n {
			return Malformedf("%s expects %d parameters, got %d", KindOf(p), n, len(params))
		}
		return nil
	}

	switch v := p.(type) {
	case Constant:
		if err := need(1); err != nil {
			return nil, err
		}
		return Constant{Value: params[0]}, nil
	case Arithmetic:
		if err := need(2); err != nil {
			return nil, err
		}
		return Arithmetic{Start: params[0], Step: params[1]}, nil
	case Geometric:
		if err := need(2); err != nil {
			return nil, err
		}
		return Geometric{Start: params[0], Ratio: float64(params[1])}, nil
	case Periodic:
		return Periodic{Pattern: append([]int64(nil), params...)}, nil
	case Polynomial:
		coeffs := make([]float64, len(params))
		for i, c := range params {
			coeffs[i] = float64(c)
		}
		return Polynomial{Coefficients: coeffs}, nil
	case Recursive:
		return Recursive{Seed: append([]int64(nil), params...), Rule: v.Rule}, nil
	case TokenDict:
		indices := make([]int, len(params))
		for i, idx := range params {
			indices[i] = int(idx)
		}
		return TokenDict{Dictionary: v.Dictionary, Indices: indices}, nil
	case Predictive:
		seedLen := v.Order
		if seedLen > len(params) {
			seedLen = len(params)
		}
		if seedLen < 0 {
			return nil, Malformedf("predictive order %d", v.Order)
		}
		return Predictive{
			Order: v.Order,
			Seed:  append([]int64(nil), params[:seedLen]...),
			Rest:  append([]int64(nil), params[seedLen:]...),
		}, nil
	case Raw:
		return Raw{Values: append([]int64(nil), params...)}, nil
	default:
		return nil, Malformedf("%s has no parameter vector", KindOf(p))
	}
}

// Shell returns d with its parameter vector removed; the remaining fields are
// what a hierarchical layer must keep to re-inject generated parameters.
func Shell(d Descriptor) Descriptor {
	var p Payload
	switch v := d.Payload.(type) {
	case Constant:
		p = Constant{}
	case Arithmetic:
		p = Arithmetic{}
	case Geometric:
		p = Geometric{}
	case Periodic:
		p = Periodic{}
	case Polynomial:
		p = Polynomial{}
	case Recursive:
		p = Recursive{Rule: v.Rule}
	case TokenDict:
		p = TokenDict{Dictionary: v.Dictionary}
	case Predictive:
		p = Predictive{Order: v.Order}
	case Raw:
		p = Raw{}
	default:
		p = d.Payload
	}
	return Descriptor{Kind: d.Kind, Payload: p, Size: d.Size}
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	r := math.Round(f)
	if math.Abs(f-r) > integralEpsilon || math.Abs(r) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(r), true
}
