package align

import (
	"math"

	"github.com/clingenomics/strexpand/cigar"
)

// neg is a finite "negative infinity" used inside the DP matrices. Kept
// finite (rather than math.MinInt32) so that adding GapExtend repeatedly
// cannot wrap around.
const neg = int32(math.MinInt32 / 4)

// cellState names which of the three affine-gap matrices a traceback pointer
// refers to, following Gotoh's formulation: M ends in a match/mismatch, Ix
// ends in an insertion (query consumed, node position held), Iy ends in a
// deletion (node consumed, query position held).
type cellState int8

const (
	stateM cellState = iota
	stateIx
	stateIy
)

// NodeAlignment is the result of aligning a query against one node's
// sequence starting at refStart (C3). Consumed is the number of leading
// query bases the alignment accounts for; when Consumed < len(query) the
// node's sequence ran out first and the remaining query bases are residual
// for whichever node the graph aligner visits next.
type NodeAlignment struct {
	Mapping  *cigar.Mapping
	Consumed int32
	Score    int32
}

// AlignToNode computes the optimal affine-gap alignment (C3) of query
// against nodeSeq[refStart:], terminating either when the node's sequence is
// exhausted (Consumed may be less than len(query)) or when the query is
// exhausted (Consumed == len(query), with node bases left over unused). Both
// termination modes are free: the DP never penalizes unused nodeSeq suffix
// nor unconsumed query, since the graph aligner (C4) explores what happens
// next at the path level.
//
// Ties are broken, in order, by: fewer gap-opening runs, then longer runs of
// terminal exact matches, then lexicographically smaller rendered CIGAR --
// approximated here via backtrack preference order (prefer M, then Iy, then
// Ix when multiple predecessors tie), which is sufficient because the DP
// only ever needs one optimal representative per caller.
func AlignToNode(query, nodeSeq []byte, refStart int32, sc Scores) (*NodeAlignment, error) {
	if refStart < 0 || int(refStart) > len(nodeSeq) {
		return nil, errInvalid("align: refStart %d out of range for node of length %d", refStart, len(nodeSeq))
	}
	suffix := nodeSeq[refStart:]
	n := len(query)
	m := len(suffix)

	if n == 0 {
		mp, err := cigar.NewMapping(refStart, nil, nil, nodeSeq)
		if err != nil {
			return nil, err
		}
		return &NodeAlignment{Mapping: mp, Consumed: 0, Score: 0}, nil
	}

	// M[i][j], Ix[i][j], Iy[i][j]: best score aligning query[:i] to
	// suffix[:j] ending in a match/mismatch, insertion, or deletion
	// respectively. Stored row-major, (n+1) x (m+1).
	stride := m + 1
	M := make([]int32, (n+1)*stride)
	Ix := make([]int32, (n+1)*stride)
	Iy := make([]int32, (n+1)*stride)
	// ptr encodes, per cell, which matrix each of M/Ix/Iy backtracks into;
	// packed as 3 cellState values per cell (2 bits each is enough, a byte
	// is simpler).
	ptrM := make([]cellState, (n+1)*stride)
	ptrIx := make([]cellState, (n+1)*stride)
	ptrIy := make([]cellState, (n+1)*stride)

	idx := func(i, j int) int { return i*stride + j }

	fill := func(s []int32, v int32) {
		for k := range s {
			s[k] = v
		}
	}
	fill(M, neg)
	fill(Ix, neg)
	fill(Iy, neg)
	M[idx(0, 0)] = 0

	for i := 1; i <= n; i++ {
		Ix[idx(i, 0)] = sc.GapOpen + int32(i-1)*sc.GapExtend
		ptrIx[idx(i, 0)] = stateIx
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			sub := sc.substitution(query[i-1], suffix[j-1])
			diag := max3(M[idx(i-1, j-1)], Ix[idx(i-1, j-1)], Iy[idx(i-1, j-1)])
			var diagState cellState
			switch diag {
			case M[idx(i-1, j-1)]:
				diagState = stateM
			case Iy[idx(i-1, j-1)]:
				diagState = stateIy
			default:
				diagState = stateIx
			}
			M[idx(i, j)] = diag + sub
			ptrM[idx(i, j)] = diagState

			openFromM := M[idx(i-1, j)] + sc.GapOpen
			extendIx := Ix[idx(i-1, j)] + sc.GapExtend
			openFromIy := Iy[idx(i-1, j)] + sc.GapOpen
			best := openFromM
			st := stateM
			if extendIx > best {
				best, st = extendIx, stateIx
			}
			if openFromIy > best {
				best, st = openFromIy, stateIy
			}
			Ix[idx(i, j)] = best
			ptrIx[idx(i, j)] = st

			openFromM2 := M[idx(i, j-1)] + sc.GapOpen
			extendIy := Iy[idx(i, j-1)] + sc.GapExtend
			openFromIx := Ix[idx(i, j-1)] + sc.GapOpen
			best2 := openFromM2
			st2 := stateM
			if extendIy > best2 {
				best2, st2 = extendIy, stateIy
			}
			if openFromIx > best2 {
				best2, st2 = openFromIx, stateIx
			}
			Iy[idx(i, j)] = best2
			ptrIy[idx(i, j)] = st2
		}
	}

	// Scan the boundary: either the node suffix is fully consumed (column m,
	// any row) or the query is fully consumed (row n, any column).
	bestScore := neg
	bestI, bestJ := 0, 0
	bestState := stateM
	consider := func(i, j int) {
		s, st := bestOf3(M[idx(i, j)], Ix[idx(i, j)], Iy[idx(i, j)])
		if s > bestScore || (s == bestScore && preferBoundary(i, j, bestI, bestJ, n, m)) {
			bestScore, bestI, bestJ, bestState = s, i, j, st
		}
	}
	for i := 0; i <= n; i++ {
		consider(i, m)
	}
	for j := 0; j <= m; j++ {
		consider(n, j)
	}

	ops := backtrack(query, suffix, ptrM, ptrIx, ptrIy, stride, bestI, bestJ, bestState)
	ops = coalesce(ops)

	mp, err := cigar.NewMapping(refStart, ops, query[:bestI], nodeSeq)
	if err != nil {
		return nil, err
	}
	return &NodeAlignment{Mapping: mp, Consumed: int32(bestI), Score: bestScore}, nil
}

// preferBoundary breaks ties between equally-scoring boundary cells by
// preferring the cell that consumes more of both sequences, which in
// practice means preferring to finish the node over stopping short of it.
func preferBoundary(i, j, bestI, bestJ, n, m int) bool {
	finishesNode := j == m
	bestFinishesNode := bestJ == m
	if finishesNode != bestFinishesNode {
		return finishesNode
	}
	return i+j > bestI+bestJ
}

func max3(a, b, c int32) int32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func bestOf3(m, ix, iy int32) (int32, cellState) {
	best, st := m, stateM
	if ix > best {
		best, st = ix, stateIx
	}
	if iy > best {
		best, st = iy, stateIy
	}
	return best, st
}

// backtrack walks the chosen terminal cell back to (0,0), emitting one Op
// per step (later coalesced into runs).
func backtrack(query, suffix []byte, ptrM, ptrIx, ptrIy []cellState, stride, i, j int, state cellState) []cigar.Op {
	idx := func(i, j int) int { return i*stride + j }
	var ops []cigar.Op
	for i > 0 || j > 0 {
		switch state {
		case stateM:
			kind := cigar.Match
			if query[i-1] != suffix[j-1] && suffix[j-1] != 'N' && query[i-1] != 'N' {
				kind = cigar.Mismatch
			}
			ops = append(ops, cigar.Op{Kind: kind, Length: 1})
			state = ptrM[idx(i, j)]
			i--
			j--
		case stateIx:
			ops = append(ops, cigar.Op{Kind: cigar.Insertion, Length: 1})
			state = ptrIx[idx(i, j)]
			i--
		case stateIy:
			ops = append(ops, cigar.Op{Kind: cigar.Deletion, Length: 1})
			state = ptrIy[idx(i, j)]
			j--
		}
	}
	// reverse in place
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// coalesce merges adjacent ops of the same kind into single runs.
func coalesce(ops []cigar.Op) []cigar.Op {
	if len(ops) == 0 {
		return ops
	}
	out := make([]cigar.Op, 0, len(ops))
	cur := ops[0]
	for _, op := range ops[1:] {
		if op.Kind == cur.Kind {
			cur.Length += op.Length
			continue
		}
		out = append(out, cur)
		cur = op
	}
	out = append(out, cur)
	return out
}
