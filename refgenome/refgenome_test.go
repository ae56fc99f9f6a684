package refgenome

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFasta = ">chr1 some description\nACGTACGTAC\nGTACGTACGT\n>chr2\nTTTTGGGGCC\n"

func TestNew(t *testing.T) {
	ref, err := New(strings.NewReader(testFasta))
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1", "chr2"}, ref.Contigs())

	l, err := ref.Len("chr1")
	require.NoError(t, err)
	assert.EqualValues(t, 20, l)

	seq, err := ref.Seq(Region{Contig: "chr1", Start: 0, End: 4})
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(seq))

	seq, err = ref.Seq(Region{Contig: "chr1", Start: 8, End: 12})
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(seq))
}

func TestNew_UnknownContig(t *testing.T) {
	ref, err := New(strings.NewReader(testFasta))
	require.NoError(t, err)
	_, err = ref.Seq(Region{Contig: "chr9", Start: 0, End: 4})
	assert.Error(t, err)
}

func TestNewFromPath_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()

	plainPath := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(plainPath, []byte(testFasta), 0644))

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	_, err := gz.Write([]byte(testFasta))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	gzPath := filepath.Join(dir, "ref.fa.gz")
	require.NoError(t, os.WriteFile(gzPath, gzBuf.Bytes(), 0644))

	ctx := context.Background()

	plainRef, err := NewFromPath(ctx, plainPath)
	require.NoError(t, err)
	seq, err := plainRef.Seq(Region{Contig: "chr2", Start: 0, End: 4})
	require.NoError(t, err)
	assert.Equal(t, "TTTT", string(seq))

	gzRef, err := NewFromPath(ctx, gzPath)
	require.NoError(t, err)
	seq, err = gzRef.Seq(Region{Contig: "chr2", Start: 0, End: 4})
	require.NoError(t, err)
	assert.Equal(t, "TTTT", string(seq))
}
