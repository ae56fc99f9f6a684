package genotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SpanningOnlyHaploid(t *testing.T) {
	ev := Evidence{Spanning: map[int32]int32{10: 20, 11: 1}}
	params := Params{NMax: 30, PCorrect: 0.97, HapDepth: 30, ReadLen: 150}
	res, err := Search(Haploid, ev, params, 2)
	require.NoError(t, err)
	require.Len(t, res.Counts, 1)
	assert.EqualValues(t, 10, res.Counts[0])
	assert.EqualValues(t, 20, res.Support[0].Spanning)
}

func TestSearch_DiploidTwoModes(t *testing.T) {
	ev := Evidence{
		Spanning: map[int32]int32{10: 15, 30: 15},
		Flanking: map[int32]int32{40: 3},
	}
	params := Params{NMax: 30, PCorrect: 0.97, HapDepth: 30, ReadLen: 150}
	res, err := Search(Diploid, ev, params, 20)
	require.NoError(t, err)
	require.Len(t, res.Counts, 2)
	got := map[int32]bool{res.Counts[0]: true, res.Counts[1]: true}
	assert.True(t, got[10] && got[30], "expected (10,30), got %v", res.Counts)
}

func TestSearch_EmptyEvidenceReturnsZero(t *testing.T) {
	params := Params{NMax: 30, PCorrect: 0.97, HapDepth: 30, ReadLen: 150}

	hapRes, err := Search(Haploid, Evidence{}, params, 3)
	require.NoError(t, err)
	require.Len(t, hapRes.Counts, 1)
	assert.EqualValues(t, 0, hapRes.Counts[0])

	dipRes, err := Search(Diploid, Evidence{}, params, 3)
	require.NoError(t, err)
	require.Len(t, dipRes.Counts, 2)
	assert.EqualValues(t, 0, dipRes.Counts[0])
	assert.EqualValues(t, 0, dipRes.Counts[1])
}

func TestSearch_InRepeatDominant(t *testing.T) {
	ev := Evidence{
		Flanking:      map[int32]int32{25: 4},
		InRepeatReads: 12,
	}
	params := Params{NMax: 30, PCorrect: 0.97, HapDepth: 30, ReadLen: 150}
	res, err := Search(Diploid, ev, params, 170)
	require.NoError(t, err)
	require.Len(t, res.Counts, 2)

	max, _ := minMax(res.Counts)
	assert.Greater(t, max, params.NMax, "at least one haplotype should expand past the read-length threshold")
}
