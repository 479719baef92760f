package genpress

import (
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/internal/cost"
	"github.com/seiflotfy/genpress/numeric"
)

// candidate is a verified proposal. err is the total absolute deviation of
// the regenerated sequence from the input; verified is set only when the
// regenerated sequence equals the input element by element.
type candidate struct {
	desc     descriptor.Descriptor
	err      float64
	verified bool
}

func (c candidate) exact() bool { return c.verified }

// candidates runs every catalog entry over data and returns the verified
// proposals in catalog order, independent of evaluation order.
func (e *Engine) candidates(data []int64) []candidate {
	slots := make([][]candidate, len(catalog))

	eval := func(i int) {
		gen := catalog[i]
		for _, d := range gen.fit(&e.cfg, data) {
			regenerated, err := generate(d, len(data))
			if err != nil {
				e.logger.Debug("candidate rejected",
					zap.Stringer("kind", d.Kind),
					zap.Error(err))
				continue
			}
			c := candidate{
				desc:     d,
				err:      cost.TotalError(data, regenerated),
				verified: cost.Verify(data, regenerated),
			}
			e.logger.Debug("candidate",
				zap.Stringer("kind", d.Kind),
				zap.Int("size", d.Size),
				zap.Float64("error", c.err),
				zap.Bool("exact", c.verified))
			slots[i] = append(slots[i], c)
		}
	}

	if e.cfg.Parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(e.cfg.Parallelism)
		for i := range catalog {
			i := i
			g.Go(func() error {
				eval(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range catalog {
			eval(i)
		}
	}

	var out []candidate
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}

// selectBest returns the index of the winning candidate: the smallest exact
// one, or else the one minimising size + alpha*error. Earlier candidates win
// ties. Candidates with a non-finite error or score are never chosen. It
// returns -1 only when no candidate is usable.
func selectBest(cands []candidate, alpha float64) int {
	best := -1
	for i, c := range cands {
		if c.exact() && (best < 0 || c.desc.Size < cands[best].desc.Size) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}

	bestScore := math.Inf(1)
	for i, c := range cands {
		if !cost.Finite(c.err) {
			continue
		}
		score := float64(c.desc.Size) + alpha*c.err
		if !cost.Finite(score) {
			continue
		}
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// choose runs the selector over data. The raw entry guarantees a result.
func (e *Engine) choose(data []int64) (candidate, []candidate) {
	cands := e.candidates(data)
	i := selectBest(cands, e.cfg.Alpha)
	if i < 0 {
		// Unreachable while raw is in the catalog.
		return candidate{desc: numeric.Raw(data), verified: true}, cands
	}
	return cands[i], cands
}
