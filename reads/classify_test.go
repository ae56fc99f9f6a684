package reads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clingenomics/strexpand/cigar"
	"github.com/clingenomics/strexpand/graph"
)

func buildLocusGraph(t *testing.T) (*graph.Graph, graph.NodeID) {
	t.Helper()
	nodes := []graph.Node{
		{ID: 0, Seq: []byte("AAAAAAAAAA"), Role: graph.Linear},
		{ID: 1, Seq: []byte("CAG"), Role: graph.RepeatUnit},
		{ID: 2, Seq: []byte("TTTTTTTTTT"), Role: graph.Linear},
	}
	edges := []graph.Edge{{From: 0, To: 1}, {From: 1, To: 1}, {From: 1, To: 2}}
	g, err := graph.New(nodes, edges)
	require.NoError(t, err)
	return g, 1
}

func gm(t *testing.T, g *graph.Graph, nodeIDs []graph.NodeID, startOffset, endOffset int32, mappings []*cigar.Mapping) *cigar.GraphMapping {
	t.Helper()
	path, err := graph.NewPath(g, nodeIDs, startOffset, endOffset)
	require.NoError(t, err)
	return &cigar.GraphMapping{Path: path, Mappings: mappings}
}

func mustMapping(t *testing.T, refStart int32, ops []cigar.Op, query, nodeSeq []byte) *cigar.Mapping {
	t.Helper()
	m, err := cigar.NewMapping(refStart, ops, query, nodeSeq)
	require.NoError(t, err)
	return m
}

func TestClassify_Spanning(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	left := mustMapping(t, 5, []cigar.Op{{Kind: cigar.Match, Length: 5}}, []byte("AAAAA"), []byte("AAAAAAAAAA"))
	rep := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 3}}, []byte("CAG"), []byte("CAG"))
	right := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 5}}, []byte("TTTTT"), []byte("TTTTTTTTTT"))
	mapping := gm(t, g, []graph.NodeID{0, 1, 2}, 5, 4, []*cigar.Mapping{left, rep, right})

	c := Classify(g, mapping, repeat, 13, 3, MateEvidence{})
	assert.Equal(t, Spanning, c.Category)
	assert.EqualValues(t, 1, c.NObs)
}

func TestClassify_Flanking(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	left := mustMapping(t, 5, []cigar.Op{{Kind: cigar.Match, Length: 5}}, []byte("AAAAA"), []byte("AAAAAAAAAA"))
	rep := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 3}}, []byte("CAG"), []byte("CAG"))
	mapping := gm(t, g, []graph.NodeID{0, 1}, 5, 2, []*cigar.Mapping{left, rep})

	c := Classify(g, mapping, repeat, 8, 3, MateEvidence{})
	assert.Equal(t, Flanking, c.Category)
	assert.EqualValues(t, 1, c.NObs)
}

func TestClassify_InRepeat(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	rep1 := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 3}}, []byte("CAG"), []byte("CAG"))
	rep2 := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 3}}, []byte("CAG"), []byte("CAG"))
	mapping := gm(t, g, []graph.NodeID{1, 1}, 0, 2, []*cigar.Mapping{rep1, rep2})

	c := Classify(g, mapping, repeat, 6, 3, MateEvidence{MateAvailable: true, InsertConsistent: true})
	assert.Equal(t, InRepeat, c.Category)
	assert.EqualValues(t, 2, c.NObs)
}

func TestClassify_InRepeat_InconsistentMate(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	rep1 := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Match, Length: 3}}, []byte("CAG"), []byte("CAG"))
	mapping := gm(t, g, []graph.NodeID{1}, 0, 2, []*cigar.Mapping{rep1})

	c := Classify(g, mapping, repeat, 3, 3, MateEvidence{MateAvailable: true, InsertConsistent: false})
	assert.Equal(t, Irrelevant, c.Category)
}

func TestClassify_NoAlignmentIsIrrelevant(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	c := Classify(g, nil, repeat, 100, 3, MateEvidence{})
	assert.Equal(t, Irrelevant, c.Category)
}

func TestClassify_BoundaryBaseCountsOnlyAsMatch(t *testing.T) {
	g, repeat := buildLocusGraph(t)
	left := mustMapping(t, 9, []cigar.Op{{Kind: cigar.Match, Length: 1}}, []byte("A"), []byte("AAAAAAAAAA"))
	rep := mustMapping(t, 0, []cigar.Op{{Kind: cigar.Insertion, Length: 1}}, []byte("C"), []byte("CAG"))
	mapping := gm(t, g, []graph.NodeID{0, 1}, 9, 0, []*cigar.Mapping{left, rep})

	c := Classify(g, mapping, repeat, 2, 3, MateEvidence{})
	// The left flank base matches but the only repeat-node op is an
	// insertion, which does not qualify as touching R per §4.5.
	assert.Equal(t, Irrelevant, c.Category)
}
