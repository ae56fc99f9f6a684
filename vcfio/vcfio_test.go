package vcfio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clingenomics/strexpand/genotype"
)

func TestWriter_WriteGenotype(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	rec := GenotypeRecord{
		LocusID:    "HTT",
		Contig:     "chr4",
		Pos:        3074876,
		RepeatUnit: "CAG",
		Result: genotype.Result{
			Counts: []int32{17, 42},
			LogLik: -12.5,
			Support: []genotype.SupportTuple{
				{Spanning: 20, Flanking: 1, InRepeat: 0},
				{Spanning: 0, Flanking: 2, InRepeat: 5},
			},
		},
		Margin:     3.2,
		SampleName: "SAMPLE1",
	}
	require.NoError(t, w.WriteGenotype(rec))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "##fileformat=VCFv4.2")
	assert.Contains(t, out, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE1")
	assert.Contains(t, out, "chr4\t3074876\tHTT\tCAG")
	assert.Contains(t, out, "17/42")
	assert.Contains(t, out, "20,0")
	assert.Contains(t, out, "1,2")
	assert.Contains(t, out, "0,5")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "chr4\t3074876\tHTT\tCAG\t<STR>\t.\t.\tRU=CAG;REF=HTT\tGT:SP:FL:IR:LOD\t17/42:20,0:1,2:0,5:3.200", lines[len(lines)-1])
}

func TestWriter_RejectsMixedSampleNames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteGenotype(GenotypeRecord{SampleName: "A", Result: genotype.Result{Counts: []int32{0}}}))
	err := w.WriteGenotype(GenotypeRecord{SampleName: "B", Result: genotype.Result{Counts: []int32{0}}})
	assert.Error(t, err)
}
