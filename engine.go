// Package genpress is a generative lossless compression engine. Instead of
// encoding data it searches a catalog of generators for a small descriptor
// that regenerates the input exactly, and specializes that search for
// source-code-like text.
//
// Compress returns the winning descriptor; Generate reproduces the sequence
// from it. Descriptors can be layered hierarchically, split into segments
// that regenerate independently, and persisted in a self-describing
// envelope.
package genpress

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
)

// Result is the outcome of a compression.
type Result struct {
	Descriptor descriptor.Descriptor
	Exact      bool
	// Error is the total absolute deviation of the regenerated sequence.
	Error float64
	// Ratio is descriptor size over input length; 0 for empty input.
	Ratio float64
}

// CandidateInfo summarizes one verified proposal.
type CandidateInfo struct {
	Kind  descriptor.Kind
	Size  int
	Error float64
	Exact bool
}

// Info is diagnostic metadata about a compression.
type Info struct {
	Kind           descriptor.Kind
	Length         int
	DescriptorSize int
	Ratio          float64
	Exact          bool
	Error          float64
	Layers         int
	Segments       int
	Candidates     []CandidateInfo
}

// Engine compresses integer sequences. An Engine is never modified after
// construction and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// New returns an engine built from the default configuration and opts.
func New(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{cfg: *cfg, logger: zap.NewNop()}
}

// WithLogger returns a copy of e that logs to logger. e is left unchanged.
func (e *Engine) WithLogger(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := *e
	c.logger = logger
	return &c
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compress returns the best descriptor for data. It never fails: raw is
// always an exact fallback and empty input yields a zero-size raw
// descriptor.
func (e *Engine) Compress(data []int64) Result {
	n := len(data)
	if n == 0 {
		return Result{Descriptor: descriptor.New(descriptor.Raw{}, 0), Exact: true}
	}

	var res Result
	if e.cfg.SegmentSize > 0 && n > e.cfg.SegmentSize {
		idx := e.BuildIndex(data, e.cfg.SegmentSize)
		res = Result{Descriptor: idx.Descriptor(), Error: idx.Error, Exact: idx.Exact}
	} else {
		best := e.compressFlat(data)
		res = Result{Descriptor: best.desc, Error: best.err, Exact: best.exact()}
	}
	res.Ratio = float64(res.Descriptor.Size) / float64(n)

	e.logger.Info("compressed",
		zap.Stringer("kind", res.Descriptor.Kind),
		zap.Int("length", n),
		zap.Int("size", res.Descriptor.Size),
		zap.Bool("exact", res.Exact),
		zap.Float64("ratio", res.Ratio))
	return res
}

// compressFlat runs the selector and, for exact winners, tries a
// hierarchical chain. The chain is kept only when strictly smaller and
// verified by regeneration.
func (e *Engine) compressFlat(data []int64) candidate {
	best, _ := e.choose(data)
	if !e.cfg.Hierarchy || !best.exact() {
		return best
	}
	chain, layers := e.Hierarchize(best.desc)
	if layers < 2 || chain.Size >= best.desc.Size {
		return best
	}
	regenerated, err := Generate(chain, len(data))
	if err != nil || !cost.Verify(data, regenerated) {
		e.logger.Warn("hierarchical chain failed verification", zap.Error(err))
		return best
	}
	return candidate{desc: chain, verified: true}
}

// CompressInfo compresses data and reports diagnostics including every
// verified candidate of the top-level selection.
func (e *Engine) CompressInfo(data []int64) Info {
	res := e.Compress(data)
	info := Info{
		Kind:           res.Descriptor.Kind,
		Length:         len(data),
		DescriptorSize: res.Descriptor.Size,
		Ratio:          res.Ratio,
		Exact:          res.Exact,
		Error:          res.Error,
		Layers:         1,
	}
	switch res.Descriptor.Kind {
	case descriptor.KindChain:
		info.Layers = len(res.Descriptor.Sub)
	case descriptor.KindSegmentIndex:
		info.Segments = len(res.Descriptor.Sub)
	}
	if len(data) == 0 {
		return info
	}
	for _, c := range e.candidates(data) {
		info.Candidates = append(info.Candidates, CandidateInfo{
			Kind:  c.desc.Kind,
			Size:  c.desc.Size,
			Error: c.err,
			Exact: c.exact(),
		})
	}
	return info
}

// CompressEnvelope compresses data and wraps the result for persistence.
// origin tags the native representation the caller converts back to.
func (e *Engine) CompressEnvelope(origin string, data []int64) (*descriptor.Envelope, Result, error) {
	codec, err := descriptor.ParseCodec(e.cfg.Codec)
	if err != nil {
		return nil, Result{}, fmt.Errorf("invalid codec: %w", err)
	}
	res := e.Compress(data)
	return &descriptor.Envelope{
		Origin:     origin,
		Length:     len(data),
		Codec:      codec,
		Descriptor: res.Descriptor,
	}, res, nil
}

// Open regenerates the sequence stored in env.
func Open(env *descriptor.Envelope) ([]int64, error) {
	return Generate(env.Descriptor, env.Length)
}

var defaultEngine = New()

// Compress compresses data with the default configuration.
func Compress(data []int64) Result {
	return defaultEngine.Compress(data)
}

// CompressInfo reports diagnostics for data with the default configuration.
func CompressInfo(data []int64) Info {
	return defaultEngine.CompressInfo(data)
}
