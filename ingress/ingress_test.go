package ingress

import (
	"bytes"
	"io"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clingenomics/strexpand/locus"
)

func encodeBAM(t *testing.T, header *sam.Header, records []*sam.Record) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, header, 1)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	return &buf
}

func TestSource_Next_FiltersByRegion(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	require.NoError(t, err)

	inside, err := sam.NewRecord("inside", chr1, nil, 150, -1, 0, 60, nil, []byte("ACGTACGTAC"), []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30}, nil)
	require.NoError(t, err)
	outside, err := sam.NewRecord("outside", chr1, nil, 5000, -1, 0, 60, nil, []byte("TTTTTTTTTT"), []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30}, nil)
	require.NoError(t, err)

	buf := encodeBAM(t, header, []*sam.Record{inside, outside})

	src, err := Open(buf, 1)
	require.NoError(t, err)
	defer src.Close()

	regions := []locus.Region{{Contig: "chr1", Start: 100, End: 200}}
	r, _, err := src.Next(regions, nil)
	require.NoError(t, err)
	assert.Equal(t, "inside", r.FragmentID)
	assert.Equal(t, []byte("ACGTACGTAC"), r.Bases)

	_, _, err = src.Next(regions, nil)
	assert.Equal(t, io.EOF, err)
}

func TestSource_Next_OffTargetPredicate(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	require.NoError(t, err)

	far, err := sam.NewRecord("far", chr1, nil, 9000, -1, 0, 60, nil, []byte("GGGGGGGGGG"), []byte{30, 30, 30, 30, 30, 30, 30, 30, 30, 30}, nil)
	require.NoError(t, err)

	buf := encodeBAM(t, header, []*sam.Record{far})

	src, err := Open(buf, 1)
	require.NoError(t, err)
	defer src.Close()

	flagged := func(rec *sam.Record) bool { return rec.Name == "far" }
	r, _, err := src.Next(nil, flagged)
	require.NoError(t, err)
	assert.Equal(t, "far", r.FragmentID)
}
