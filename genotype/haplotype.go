// Package genotype implements the repeat haplotype model (C6), the
// genotype likelihood (C7), and candidate search and selection (C8).
package genotype

import (
	"math"

	"github.com/grailbio/base/errors"
)

// deviationDecay is the geometric decay rate applied, per unit of deviation
// from the true count, to the truncated symmetric distribution's tails (C6).
// The spec leaves the exact tail shape as an implementation choice; a
// geometric decay is the simplest distribution that is symmetric, strictly
// decreasing away from the center, and trivial to truncate and renormalize.
const deviationDecay = 0.5

const logFloor = -745.0 // ~math.Log(math.SmallestNonzeroFloat64)

// Haplotype is the truncated symmetric sizing-error distribution of §4.6 for
// one haplotype with true unit count nTrue, read-length unit cap nMax, and
// probability pCorrect that a molecule is sized exactly right.
type Haplotype struct {
	nTrue   int32
	nMax    int32
	probs   []float64 // probs[k] = P(n_obs = k), k in [0, nMax]
	cdfLE   []float64 // cdfLE[k] = P(n_obs <= k)
}

// NewHaplotype builds the distribution. nMax must be >= 0 and pCorrect must
// lie in [0, 1].
func NewHaplotype(nTrue, nMax int32, pCorrect float64) (*Haplotype, error) {
	if nMax < 0 {
		return nil, errors.E(errors.Invalid, "genotype: nMax must be non-negative")
	}
	if pCorrect < 0 || pCorrect > 1 {
		return nil, errors.E(errors.Invalid, "genotype: pCorrect must be in [0, 1]")
	}
	center := nTrue
	if center > nMax {
		center = nMax
	}
	if center < 0 {
		center = 0
	}

	probs := make([]float64, nMax+1)
	probs[center] += pCorrect

	tail := make([]float64, nMax+1)
	var tailSum float64
	for d := int32(1); d <= nMax; d++ {
		w := math.Pow(deviationDecay, float64(d))
		if lo := center - d; lo >= 0 {
			tail[lo] += w
			tailSum += w
		}
		if hi := center + d; hi <= nMax {
			tail[hi] += w
			tailSum += w
		}
	}
	residual := 1 - pCorrect
	if tailSum > 0 {
		scale := residual / tailSum
		for k := range tail {
			probs[k] += tail[k] * scale
		}
	} else {
		// No room to deviate (nMax == 0, or center pinned at both bounds):
		// all mass collapses onto the center.
		probs[center] += residual
	}

	cdfLE := make([]float64, nMax+1)
	var running float64
	for k := int32(0); k <= nMax; k++ {
		running += probs[k]
		cdfLE[k] = running
	}

	return &Haplotype{nTrue: nTrue, nMax: nMax, probs: probs, cdfLE: cdfLE}, nil
}

// NumUnits returns the haplotype's true unit count, unclamped.
func (h *Haplotype) NumUnits() int32 { return h.nTrue }

// PMF returns P(n_obs = n).
func (h *Haplotype) PMF(n int32) float64 {
	if n < 0 || n > h.nMax {
		return 0
	}
	return h.probs[n]
}

// PLE returns P(n_obs <= u).
func (h *Haplotype) PLE(u int32) float64 {
	if u < 0 {
		return 0
	}
	if u >= h.nMax {
		return 1
	}
	return h.cdfLE[u]
}

// PLT returns P(n_obs < u).
func (h *Haplotype) PLT(u int32) float64 { return h.PLE(u - 1) }

// PGE returns P(n_obs >= l).
func (h *Haplotype) PGE(l int32) float64 {
	if l <= 0 {
		return 1
	}
	return 1 - h.PLT(l)
}

// LogPMF and LogPGE are PMF/PGE in log space, floored away from -Inf so
// downstream log-sum-exp mixing never produces NaN.
func (h *Haplotype) LogPMF(n int32) float64 { return logFloored(h.PMF(n)) }
func (h *Haplotype) LogPGE(l int32) float64 { return logFloored(h.PGE(l)) }

func logFloored(p float64) float64 {
	if p <= 0 {
		return logFloor
	}
	return math.Log(p)
}

// logSumExp2 computes log(exp(a) + exp(b)) without overflow.
func logSumExp2(a, b float64) float64 {
	if a == logFloor && b == logFloor {
		return logFloor
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}
