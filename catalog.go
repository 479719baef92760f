package genpress

import (
	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/lz"
	"github.com/seiflotfy/genpress/numeric"
	"github.com/seiflotfy/genpress/ppm"
	"github.com/seiflotfy/genpress/template"
	"github.com/seiflotfy/genpress/tokendict"
)

// generator is one catalog entry. fit returns zero or more proposals; the
// selector verifies each by regeneration.
type generator struct {
	kind descriptor.Kind
	fit  func(cfg *Config, data []int64) []descriptor.Descriptor
}

// catalog lists the generators in declaration order, which is also the
// tie-break order of the selector. raw is last and always proposes.
var catalog = []generator{
	{descriptor.KindConstant, func(_ *Config, data []int64) []descriptor.Descriptor {
		return single(numeric.FitConstant(data))
	}},
	{descriptor.KindArithmetic, func(_ *Config, data []int64) []descriptor.Descriptor {
		return single(numeric.FitArithmetic(data))
	}},
	{descriptor.KindGeometric, func(_ *Config, data []int64) []descriptor.Descriptor {
		return single(numeric.FitGeometric(data))
	}},
	{descriptor.KindPeriodic, func(cfg *Config, data []int64) []descriptor.Descriptor {
		return single(numeric.FitPeriodic(data, cfg.MaxPeriod))
	}},
	{descriptor.KindPolynomial, func(cfg *Config, data []int64) []descriptor.Descriptor {
		return numeric.FitPolynomial(data, cfg.MaxPolyDegree)
	}},
	{descriptor.KindRecursive, func(_ *Config, data []int64) []descriptor.Descriptor {
		return numeric.FitRecursive(data)
	}},
	{descriptor.KindTokenDict, func(cfg *Config, data []int64) []descriptor.Descriptor {
		return single(tokendict.Compress(data, cfg.MinTextLength))
	}},
	{descriptor.KindTemplate, func(cfg *Config, data []int64) []descriptor.Descriptor {
		return single(template.Compress(data, cfg.MinTextLength))
	}},
	{descriptor.KindPredictive, func(cfg *Config, data []int64) []descriptor.Descriptor {
		return single(ppm.Compress(data, cfg.PPMOrder, cfg.MinTextLength))
	}},
	{descriptor.KindMatch, func(cfg *Config, data []int64) []descriptor.Descriptor {
		opts := lz.Options{Window: cfg.LZWindow, MaxMatch: cfg.LZMaxMatch}
		return single(lz.Compress(data, opts, cfg.MinMatchInput))
	}},
	{descriptor.KindRaw, func(_ *Config, data []int64) []descriptor.Descriptor {
		return []descriptor.Descriptor{numeric.Raw(data)}
	}},
}

func single(d descriptor.Descriptor, ok bool) []descriptor.Descriptor {
	if !ok {
		return nil
	}
	return []descriptor.Descriptor{d}
}
