package genotype

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/minio/highwayhash"
)

// hashKey is a fixed all-zero HighwayHash key. The cache here is a
// correctness-neutral memoization layer scoped to a single search call, not
// a security boundary, so a fixed key is fine; it exists purely to get a
// fast, well-distributed 64-bit key out of a candidate's (counts, params)
// encoding for the per-locus result cache below.
var hashKey = make([]byte, 32)

// Search implements C8: seeds a candidate set of unit counts from the
// observed evidence (every distinct spanning or flanking n_obs, plus a
// small grid above the maximum observation), evaluates every diploid pair
// (or, for haploid loci, every singleton) via Evaluate, and returns the
// argmax. Ties are broken by smaller maximum count, then smaller minimum
// count, matching §4.8.
func Search(gtype GenotypeType, ev Evidence, params Params, gridAbove int32) (Result, error) {
	candidates := seedCandidates(ev, gridAbove)
	if len(candidates) == 0 {
		candidates = []int32{0}
	}

	cache := make(map[uint64]Result)

	var best Result
	haveBest := false

	tryCandidate := func(counts []int32) error {
		key := cacheKey(counts, params)
		if cached, ok := cache[key]; ok {
			if !haveBest || better(cached, best) {
				best, haveBest = cached, true
			}
			return nil
		}
		res, err := Evaluate(counts, gtype, ev, params)
		if err != nil {
			return err
		}
		cache[key] = res
		if !haveBest || better(res, best) {
			best, haveBest = res, true
		}
		return nil
	}

	if gtype == Haploid {
		for _, n := range candidates {
			if err := tryCandidate([]int32{n}); err != nil {
				return Result{}, err
			}
		}
	} else {
		for i := 0; i < len(candidates); i++ {
			for j := i; j < len(candidates); j++ {
				a, b := candidates[i], candidates[j]
				if err := tryCandidate([]int32{a, b}); err != nil {
					return Result{}, err
				}
			}
		}
	}

	return best, nil
}

// better reports whether a should be preferred over b: higher log-likelihood
// wins outright; ties favor the candidate with the smaller maximum count,
// then the smaller minimum count (§4.8).
func better(a, b Result) bool {
	if a.LogLik != b.LogLik {
		return a.LogLik > b.LogLik
	}
	aMax, aMin := minMax(a.Counts)
	bMax, bMin := minMax(b.Counts)
	if aMax != bMax {
		return aMax < bMax
	}
	return aMin < bMin
}

func minMax(counts []int32) (max, min int32) {
	max, min = counts[0], counts[0]
	for _, c := range counts[1:] {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
	}
	return max, min
}

// seedCandidates gathers every distinct spanning/flanking n_obs plus a
// small grid of counts above the maximum observation, so the search also
// considers expansions larger than anything directly observed.
func seedCandidates(ev Evidence, gridAbove int32) []int32 {
	set := make(map[int32]bool)
	var maxObs int32
	for n := range ev.Spanning {
		set[n] = true
		if n > maxObs {
			maxObs = n
		}
	}
	for n := range ev.Flanking {
		set[n] = true
		if n > maxObs {
			maxObs = n
		}
	}
	set[maxObs] = true // covers the empty-evidence case, where maxObs defaults to 0
	for d := int32(1); d <= gridAbove; d++ {
		set[maxObs+d] = true
	}
	out := make([]int32, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// cacheKey hashes a candidate's counts together with the coverage params
// that affect its likelihood, so Search never re-evaluates the same
// haplotype pair twice within one locus.
func cacheKey(counts []int32, params Params) uint64 {
	buf := make([]byte, 0, 4*len(counts)+20)
	for _, c := range counts {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(c))
		buf = append(buf, b[:]...)
	}
	var nmax [4]byte
	binary.LittleEndian.PutUint32(nmax[:], uint32(params.NMax))
	buf = append(buf, nmax[:]...)
	var readLen [4]byte
	binary.LittleEndian.PutUint32(readLen[:], uint32(params.ReadLen))
	buf = append(buf, readLen[:]...)
	buf = append(buf, float64Bytes(params.PCorrect)...)
	buf = append(buf, float64Bytes(params.HapDepth)...)

	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// hashKey is a fixed, correctly-sized 32-byte key; New64 can only
		// fail on key length, so this is unreachable.
		panic(err)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

func float64Bytes(f float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	return b[:]
}
