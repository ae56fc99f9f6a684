package reads

import (
	"github.com/clingenomics/strexpand/cigar"
	"github.com/clingenomics/strexpand/graph"
)

// Category is one of the four read categories of §3/§4.5.
type Category int8

const (
	Irrelevant Category = iota
	Spanning
	Flanking
	InRepeat
)

func (c Category) String() string {
	switch c {
	case Spanning:
		return "spanning"
	case Flanking:
		return "flanking"
	case InRepeat:
		return "in-repeat"
	default:
		return "irrelevant"
	}
}

// Classification is the output of the read classifier: a category and the
// integer unit-count observation it contributes to the genotyper.
type Classification struct {
	Category Category
	NObs     int32
}

// MateEvidence carries the pair-level context needed to validate an
// in-repeat classification: whether a mate is known at all, and whether the
// observed insert size is consistent with both mates originating from the
// same repeat locus.
type MateEvidence struct {
	MateAvailable     bool
	InsertConsistent  bool
}

// Classify implements C5: given a read's graph mapping against g (or nil,
// meaning the aligner found no viable path), its raw length, and the
// locus's unit length, returns the read's category and n_obs.
//
// readLen is the full length of the read (including any soft-clipped
// bases), used to saturate the in-repeat observation at floor(readLen /
// unitLen).
func Classify(g *graph.Graph, gm *cigar.GraphMapping, repeatNode graph.NodeID, readLen int32, unitLen int32, mate MateEvidence) Classification {
	if gm == nil || unitLen <= 0 {
		return Classification{Category: Irrelevant}
	}

	touchesRepeat := false
	visits := gm.Path.Visits()
	for _, id := range visits {
		if id == repeatNode {
			touchesRepeat = true
			break
		}
	}
	if !touchesRepeat {
		return Classification{Category: Irrelevant}
	}

	leftFlankBases, repeatBases, rightFlankBases := partitionMatchBases(g, gm, repeatNode)

	entersLeft := leftFlankBases > 0
	entersRight := rightFlankBases > 0
	nTraversals := int32(gm.Path.NumRepeatTraversals(repeatNode))

	switch {
	case entersLeft && entersRight:
		return Classification{Category: Spanning, NObs: nTraversals}
	case (entersLeft || entersRight) && repeatBases > 0:
		return Classification{Category: Flanking, NObs: nTraversals}
	case !entersLeft && !entersRight && repeatBases > 0 && leftFlankBases == 0 && rightFlankBases == 0:
		if mate.MateAvailable && !mate.InsertConsistent {
			return Classification{Category: Irrelevant}
		}
		nObs := readLen / unitLen
		return Classification{Category: InRepeat, NObs: nObs}
	default:
		return Classification{Category: Irrelevant}
	}
}

// partitionMatchBases tallies match/mismatch bases the mapping consumed in
// nodes strictly before the repeat node's first visit (left flank), in the
// repeat node itself, and in nodes strictly after the repeat node's last
// visit (right flank). Per §4.5's edge case, a mapping that only touches the
// boundary base of the repeat node counts toward repeatBases (and so can
// qualify as flanking) only via a match/mismatch op, never an insertion.
func partitionMatchBases(g *graph.Graph, gm *cigar.GraphMapping, repeatNode graph.NodeID) (left, repeat, right int32) {
	firstRepeat, lastRepeat := -1, -1
	for i, id := range gm.Path.NodeIDs {
		if id == repeatNode {
			if firstRepeat == -1 {
				firstRepeat = i
			}
			lastRepeat = i
		}
	}
	for i, m := range gm.Mappings {
		n := m.NumMatchBases()
		switch {
		case i < firstRepeat:
			left += n
		case i > lastRepeat:
			right += n
		default:
			repeat += n
		}
	}
	return left, repeat, right
}
