// Package align implements the node aligner (C3) and graph aligner (C4):
// affine-gap alignment of a read to one node's sequence, and its extension
// across paths through a sequence graph.
package align

// Scores holds the affine-gap scoring scheme shared by the node and graph
// aligners. Gap cost for a run of length L is GapOpen + (L-1)*GapExtend.
// 'N' matches any base at zero penalty by convention (§3) and is applied as
// Match regardless of which side carries the N.
type Scores struct {
	Match      int32
	Mismatch   int32
	GapOpen    int32
	GapExtend  int32
}

// DefaultScores returns the scoring scheme the strgt driver uses for every
// locus (catalogue records carry no scoring override): a BWA-like affine-gap
// scheme tuned for short, accurate Illumina reads against a hand-built locus
// graph.
func DefaultScores() Scores {
	return Scores{Match: 5, Mismatch: -4, GapOpen: -8, GapExtend: -2}
}

func baseMatches(a, b byte) bool {
	if a == 'N' || b == 'N' {
		return true
	}
	return a == b
}

func (s Scores) substitution(a, b byte) int32 {
	if baseMatches(a, b) {
		return s.Match
	}
	return s.Mismatch
}
