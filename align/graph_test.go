package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clingenomics/strexpand/graph"
)

func buildTestGraph(t *testing.T) (*graph.Graph, graph.NodeID) {
	t.Helper()
	nodes := []graph.Node{
		{ID: 0, Seq: []byte("GATTACAGATTACA"), Role: graph.Linear},
		{ID: 1, Seq: []byte("CAG"), Role: graph.RepeatUnit},
		{ID: 2, Seq: []byte("TTTTGGGGCCCCAAAA"), Role: graph.Linear},
	}
	edges := []graph.Edge{
		{From: 0, To: 1},
		{From: 1, To: 1},
		{From: 1, To: 2},
	}
	g, err := graph.New(nodes, edges)
	require.NoError(t, err)
	return g, 1
}

func TestAlignToGraph_SpansRepeatTwice(t *testing.T) {
	g, repeatNode := buildTestGraph(t)
	query := []byte("GATTACAGATTACA" + "CAGCAG" + "TTTTGGGG")
	ga, err := AlignToGraph(g, query, DefaultScores())
	require.NoError(t, err)
	require.NotNil(t, ga)
	assert.Equal(t, 2, ga.GraphMapping.Path.NumRepeatTraversals(repeatNode))

	reconstructed, err := ga.GraphMapping.PathSequence(g)
	require.NoError(t, err)
	require.NoError(t, ga.GraphMapping.Validate(g, query))
	assert.LessOrEqual(t, len(reconstructed), len("GATTACAGATTACA")+2*3+len("TTTTGGGG"))
}

func TestAlignToGraph_TrailingSoftClipAtSink(t *testing.T) {
	g, _ := buildTestGraph(t)
	query := []byte("GATTACAGATTACA" + "CAG" + "TTTTGGGGCCCCAAAA" + "ZZZZZ")
	ga, err := AlignToGraph(g, query, DefaultScores())
	require.NoError(t, err)
	require.NotNil(t, ga)
	require.NoError(t, ga.GraphMapping.Validate(g, query))
	last := ga.GraphMapping.Mappings[len(ga.GraphMapping.Mappings)-1]
	found := false
	for _, op := range last.Ops {
		if op.Kind.Code() == 'S' {
			found = true
		}
	}
	assert.True(t, found, "trailing unalignable bases should be soft-clipped at the sink")
}

func TestAlignToGraph_SingleMandatoryRepeatCopy(t *testing.T) {
	// The repeat node sits on every source-to-sink path, so even a query
	// with no extra repeat copies still traverses it once.
	g, repeatNode := buildTestGraph(t)
	query := []byte("GATTACAGATTACA" + "CAG" + "TTTTGGGGCCCCAAAA")
	ga, err := AlignToGraph(g, query, DefaultScores())
	require.NoError(t, err)
	require.NotNil(t, ga)
	assert.Equal(t, 1, ga.GraphMapping.Path.NumRepeatTraversals(repeatNode))
}
