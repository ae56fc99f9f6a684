package locus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, id, contig string, start, end uint64) Record {
	t.Helper()
	return Record{
		ID:         id,
		Region:     Region{Contig: contig, Start: start, End: end},
		RepeatUnit: []byte("CAG"),
	}
}

func TestRegionIndex_Overlapping(t *testing.T) {
	records := []Record{
		mustRecord(t, "locus1", "chr1", 100, 200),
		mustRecord(t, "locus2", "chr1", 500, 600),
		mustRecord(t, "locus3", "chr2", 100, 200),
	}
	idx, err := NewRegionIndex(records)
	require.NoError(t, err)

	got := idx.Overlapping(Region{Contig: "chr1", Start: 150, End: 160})
	require.Len(t, got, 1)
	assert.Equal(t, "locus1", got[0].ID)

	got = idx.Overlapping(Region{Contig: "chr1", Start: 190, End: 510})
	require.Len(t, got, 2)

	got = idx.Overlapping(Region{Contig: "chr1", Start: 300, End: 400})
	assert.Empty(t, got)

	got = idx.Overlapping(Region{Contig: "chr3", Start: 0, End: 10})
	assert.Empty(t, got)
}

func TestRegionIndex_TouchingIntervalsDoNotOverlap(t *testing.T) {
	records := []Record{
		mustRecord(t, "left", "chr1", 0, 100),
		mustRecord(t, "right", "chr1", 100, 200),
	}
	idx, err := NewRegionIndex(records)
	require.NoError(t, err)

	got := idx.Overlapping(Region{Contig: "chr1", Start: 100, End: 150})
	require.Len(t, got, 1)
	assert.Equal(t, "right", got[0].ID)
}

func TestCatalogue_RejectsDuplicateID(t *testing.T) {
	records := []Record{
		mustRecord(t, "dup", "chr1", 0, 10),
		mustRecord(t, "dup", "chr1", 20, 30),
	}
	_, err := NewCatalogue(records)
	assert.Error(t, err)
}

func TestCatalogue_Lookup(t *testing.T) {
	records := []Record{
		mustRecord(t, "locus1", "chr1", 100, 200),
	}
	cat, err := NewCatalogue(records)
	require.NoError(t, err)

	got := cat.Lookup(Region{Contig: "chr1", Start: 150, End: 160})
	require.Len(t, got, 1)
	assert.Equal(t, "locus1", got[0].ID)
}
