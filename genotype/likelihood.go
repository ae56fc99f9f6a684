package genotype

import (
	"math"

	"github.com/grailbio/base/errors"
)

// GenotypeType selects haploid (one haplotype, e.g. chrX/chrY in males) or
// diploid (two haplotypes) evaluation, mirroring the sex-aware dispatch the
// upstream caller performs when a locus falls on a sex chromosome.
type GenotypeType int8

const (
	Diploid GenotypeType = iota
	Haploid
)

// Params are the coverage and error-model parameters shared by every
// haplotype and read at one locus.
type Params struct {
	NMax       int32   // max repeat units a single read can support (read_len / unit_len)
	PCorrect   float64 // probability a molecule's size is measured exactly right
	HapDepth   float64 // expected per-haplotype sequencing depth
	ReadLen    int32   // read length used by the in-repeat Poisson rate model
}

// Evidence is the per-category observation histogram for one locus.
type Evidence struct {
	Spanning     map[int32]int32 // n_obs -> read count
	Flanking     map[int32]int32 // n_obs -> read count
	InRepeatReads int32
}

// SupportTuple is the (spanning, flanking, in-repeat) read-count credit
// attributed to one haplotype of a candidate genotype (§4.7).
type SupportTuple struct {
	Spanning int32
	Flanking int32
	InRepeat int32
}

// Result is the outcome of evaluating one candidate genotype.
type Result struct {
	Counts     []int32
	LogLik     float64
	Support    []SupportTuple
}

// Evaluate computes the log-likelihood of candidate (one count for haploid,
// two for diploid) given ev and params (C7).
func Evaluate(candidate []int32, gtype GenotypeType, ev Evidence, params Params) (Result, error) {
	if gtype == Haploid && len(candidate) != 1 {
		return Result{}, errors.E(errors.Invalid, "genotype: haploid candidate must have exactly one count")
	}
	if gtype == Diploid && len(candidate) != 2 {
		return Result{}, errors.E(errors.Invalid, "genotype: diploid candidate must have exactly two counts")
	}

	haps := make([]*Haplotype, len(candidate))
	for i, n := range candidate {
		h, err := NewHaplotype(n, params.NMax, params.PCorrect)
		if err != nil {
			return Result{}, err
		}
		haps[i] = h
	}
	support := make([]SupportTuple, len(haps))

	var logLik float64

	for nObs, count := range ev.Spanning {
		logP, _ := mixPMF(haps, nObs)
		logLik += float64(count) * logP
		creditSpanning(support, candidate, nObs, count)
	}

	for nObs, count := range ev.Flanking {
		logP, _ := mixPGE(haps, nObs)
		logLik += float64(count) * logP
		creditFlanking(support, candidate, nObs, count)
	}

	// The Poisson normalization term (-rate) always applies once per
	// genotype, even with zero observed in-repeat reads, so that genotypes
	// implying a larger rate are penalized relative to ones that are not,
	// keeping comparisons consistent across candidates.
	rates := make([]float64, len(haps))
	var totalRate float64
	for i, h := range haps {
		r := params.HapDepth * math.Max(0, float64(h.NumUnits()-params.NMax+1)) / float64(params.ReadLen)
		rates[i] = r
		totalRate += r
	}
	logLik -= totalRate
	if ev.InRepeatReads > 0 {
		k := float64(ev.InRepeatReads)
		logRate := logFloor
		if totalRate > 0 {
			logRate = math.Log(totalRate)
		}
		lgamma, _ := math.Lgamma(k + 1)
		logLik += k*logRate - lgamma
		creditInRepeat(support, rates, ev.InRepeatReads)
	}

	return Result{Counts: candidate, LogLik: logLik, Support: support}, nil
}

// mixPMF returns the diploid 0.5/0.5 (or haploid direct) mixture log-PMF
// for a spanning observation, and which haplotype index it credits (the one
// with higher individual PMF; ties favor the first).
func mixPMF(haps []*Haplotype, nObs int32) (float64, int) {
	if len(haps) == 1 {
		return haps[0].LogPMF(nObs), 0
	}
	l0, l1 := haps[0].LogPMF(nObs), haps[1].LogPMF(nObs)
	mixed := logSumExp2(math.Log(0.5)+l0, math.Log(0.5)+l1)
	if l1 > l0 {
		return mixed, 1
	}
	return mixed, 0
}

func mixPGE(haps []*Haplotype, nObs int32) (float64, int) {
	if len(haps) == 1 {
		return haps[0].LogPGE(nObs), 0
	}
	l0, l1 := haps[0].LogPGE(nObs), haps[1].LogPGE(nObs)
	mixed := logSumExp2(math.Log(0.5)+l0, math.Log(0.5)+l1)
	if l1 > l0 {
		return mixed, 1
	}
	return mixed, 0
}

// creditSpanning attributes "support" (not likelihood) for a spanning
// observation to every haplotype whose candidate count exactly matches
// nObs: a spanning read directly corroborates a call only when it agrees
// with it exactly, not merely when the call is the more probable source of
// a sizing error.
func creditSpanning(support []SupportTuple, candidate []int32, nObs, count int32) {
	for i, n := range candidate {
		if n == nObs {
			support[i].Spanning += count
		}
	}
}

// creditFlanking attributes support for a flanking observation (a lower
// bound on the true count) to the smallest candidate count still
// consistent with it; if no candidate reaches nObs, the largest candidate
// is the closest available match.
func creditFlanking(support []SupportTuple, candidate []int32, nObs, count int32) {
	best := -1
	for i, n := range candidate {
		if n < nObs {
			continue
		}
		if best == -1 || n < candidate[best] {
			best = i
		}
	}
	if best == -1 {
		for i, n := range candidate {
			if best == -1 || n > candidate[best] {
				best = i
			}
		}
	}
	support[best].Flanking += count
}

// creditInRepeat distributes in-repeat read credit across haplotypes in
// proportion to their share of the total Poisson rate; only haplotypes
// whose true count exceeds the read-length threshold contribute at all.
func creditInRepeat(support []SupportTuple, rates []float64, total int32) {
	var sum float64
	for _, r := range rates {
		sum += r
	}
	if sum <= 0 {
		return
	}
	remaining := total
	for i, r := range rates {
		if r <= 0 {
			continue
		}
		share := int32(math.Round(float64(total) * r / sum))
		if share > remaining {
			share = remaining
		}
		support[i].InRepeat += share
		remaining -= share
	}
	if remaining > 0 {
		// Rounding leftover goes to the haplotype with the largest rate.
		best := 0
		for i, r := range rates {
			if r > rates[best] {
				best = i
			}
		}
		support[best].InRepeat += remaining
	}
}
