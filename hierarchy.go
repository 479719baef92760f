package genpress

import (
	"go.uber.org/zap"

	"github.com/seiflotfy/genpress/descriptor"
)

const (
	// minLayerParams is the parameter count at or below which a layer is not
	// compressed further.
	minLayerParams = 3
	// maxLayerRatio is the size ratio at or above which a new layer is
	// considered no improvement.
	maxLayerRatio = 0.9
)

// Hierarchize recompresses the parameter vector of d with the selector,
// layer after layer, and returns the resulting chain together with its layer
// count. When no layer is accepted it returns d and 1.
//
// Layering stops when the parameters are not integral, when they number
// minLayerParams or fewer, when the selector yields raw or an inexact
// layer, when a layer is not clearly smaller than the one it replaces, or
// at MaxLayers.
func (e *Engine) Hierarchize(d descriptor.Descriptor) (descriptor.Descriptor, int) {
	var (
		shells []descriptor.Descriptor
		counts []int
	)
	cur := d
	for len(shells)+1 < e.cfg.MaxLayers {
		params, ok := descriptor.Params(cur.Payload)
		if !ok || len(params) <= minLayerParams || cur.Size <= 0 {
			break
		}
		next, _ := e.choose(params)
		if !next.exact() || next.desc.Kind == descriptor.KindRaw {
			break
		}
		ratio := float64(next.desc.Size) / float64(cur.Size)
		if ratio >= maxLayerRatio {
			break
		}

		shell := descriptor.Shell(cur)
		shell.Size = max(cur.Size-len(params), 1)
		shells = append(shells, shell)
		counts = append(counts, len(params))

		e.logger.Debug("hierarchy layer",
			zap.Int("layer", len(shells)),
			zap.Stringer("kind", next.desc.Kind),
			zap.Int("params", len(params)),
			zap.Int("size", next.desc.Size),
			zap.Float64("ratio", ratio))
		cur = next.desc
	}
	if len(shells) == 0 {
		return d, 1
	}

	size := cur.Size
	for _, s := range shells {
		size += s.Size
	}
	chain := descriptor.New(descriptor.Chain{ParamCounts: counts}, size)
	chain.Sub = append(shells, cur)
	return chain, len(chain.Sub)
}
