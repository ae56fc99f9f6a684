package align

import (
	"github.com/dgryski/go-farm"

	"github.com/clingenomics/strexpand/graph"
)

// seedKmerLen is the exact-match length used to anchor a query into the
// source node. Short enough that a real read almost always contains at
// least one error-free copy, long enough that a spurious match against an
// unrelated position in the flank is unlikely.
const seedKmerLen = 13

// seedStart is a candidate (node, offset) entry point for the graph aligner.
type seedStart struct {
	node   graph.NodeID
	offset int32
}

// seedStarts finds candidate entry points for query into g's source node.
// Real reads begin at an essentially arbitrary offset into the source
// node's flank -- entering only at offset 0, as if every read began on the
// flank's literal first base, would reject almost every real read. This
// seeds the search at every offset where a short exact substring of the
// query occurs in the node, using the same farm-hashed lookup idiom
// align/graph.go already uses for its own memoization keys, generalized
// into a plain map since the source node here is a single small flank
// rather than a genome-scale k-mer index. Falls back to offset 0 alone if
// no seed k-mer matches at all, so AlignToGraph stays well-defined for
// graphs shorter than one seed k-mer or queries that share nothing with the
// flank.
func seedStarts(g *graph.Graph, query []byte) []seedStart {
	source := g.Source()
	nodeSeq, err := g.NodeSeq(source)
	if err != nil || len(nodeSeq) < seedKmerLen || len(query) < seedKmerLen {
		return []seedStart{{node: source, offset: 0}}
	}

	index := make(map[uint64][]int32, len(nodeSeq))
	for i := 0; i+seedKmerLen <= len(nodeSeq); i++ {
		h := farm.Hash64(nodeSeq[i : i+seedKmerLen])
		index[h] = append(index[h], int32(i))
	}

	seen := make(map[int32]bool)
	var starts []seedStart
	add := func(offset int32) {
		if offset < 0 || int(offset) > len(nodeSeq) || seen[offset] {
			return
		}
		seen[offset] = true
		starts = append(starts, seedStart{node: source, offset: offset})
	}

	// Seeding from more than just the leading k-mer means one sequencing
	// error near the read's start doesn't blind the whole search.
	for _, qPos := range seedQueryOffsets(len(query)) {
		if qPos+seedKmerLen > len(query) {
			continue
		}
		h := farm.Hash64(query[qPos : qPos+seedKmerLen])
		for _, nodeOffset := range index[h] {
			add(nodeOffset - int32(qPos))
		}
	}

	if len(starts) == 0 {
		add(0)
	}
	return starts
}

// seedQueryOffsets picks a small, fixed set of query positions to seed from:
// the start, the middle, and (for longer reads) a point three-quarters of
// the way through.
func seedQueryOffsets(queryLen int) []int {
	offsets := []int{0}
	if queryLen > seedKmerLen {
		offsets = append(offsets, queryLen/2)
	}
	if queryLen > 2*seedKmerLen {
		offsets = append(offsets, 3*queryLen/4)
	}
	return offsets
}
