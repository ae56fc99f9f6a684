package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clingenomics/strexpand/cigar"
)

func TestAlignToNode_ExactMatch(t *testing.T) {
	node := []byte("ACGTACGTAC")
	na, err := AlignToNode([]byte("ACGTACGTAC"), node, 0, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 10, na.Consumed)
	assert.Equal(t, "10M", cigar.RenderOps(na.Mapping.Ops))
	assert.EqualValues(t, 10*DefaultScores().Match, na.Score)
}

func TestAlignToNode_QueryShorterThanNode(t *testing.T) {
	node := []byte("ACGTACGTACGTACGT")
	na, err := AlignToNode([]byte("ACGT"), node, 0, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 4, na.Consumed)
	assert.Equal(t, "4M", cigar.RenderOps(na.Mapping.Ops))
}

func TestAlignToNode_QueryLongerThanNode(t *testing.T) {
	node := []byte("ACGT")
	na, err := AlignToNode([]byte("ACGTACGT"), node, 0, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 4, na.Consumed, "only the node's own bases can be consumed; the rest is residual for the next node")
}

func TestAlignToNode_MismatchInMiddle(t *testing.T) {
	node := []byte("ACGTACGTAC")
	na, err := AlignToNode([]byte("ACGTTCGTAC"), node, 0, DefaultScores())
	require.NoError(t, err)
	// one mismatch at position 4
	assert.Equal(t, "4M1X5M", cigar.RenderOps(na.Mapping.Ops))
}

func TestAlignToNode_Deletion(t *testing.T) {
	node := []byte("ACGTACGTAC")
	// query is missing the "A" at position 4
	na, err := AlignToNode([]byte("ACGTCGTAC"), node, 0, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 9, na.Consumed)
	assert.EqualValues(t, len(na.Mapping.Query), na.Consumed)
}

func TestAlignToNode_EmptyQuery(t *testing.T) {
	na, err := AlignToNode(nil, []byte("ACGT"), 0, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 0, na.Consumed)
	assert.Empty(t, na.Mapping.Ops)
}

func TestAlignToNode_RefStartOffset(t *testing.T) {
	node := []byte("NNNNACGTAC")
	na, err := AlignToNode([]byte("ACGTAC"), node, 4, DefaultScores())
	require.NoError(t, err)
	assert.EqualValues(t, 4, na.Mapping.RefStart)
	assert.Equal(t, "6M", cigar.RenderOps(na.Mapping.Ops))
}

func TestAlignToNode_StrandsStayEqualLength(t *testing.T) {
	node := []byte("ACGTACGTACGTACGT")
	na, err := AlignToNode([]byte("ACGTACCTACGT"), node, 0, DefaultScores())
	require.NoError(t, err)
	q, p, r := na.Mapping.QuerySequence(), na.Mapping.MatchPattern(), na.Mapping.ReferenceSequence()
	assert.Len(t, p, len(q))
	assert.Len(t, p, len(r))
}
