package locus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogueTSV = "ID\tCONTIG\tSTART\tEND\tREPEAT_UNIT\tINTERRUPTIONS\tHAPLOID_ON\tGRID_ABOVE_MAX\n" +
	"HTT\tchr4\t3074876\t3074933\tCAG\t\t\t20\n" +
	"locusY\tchrY\t100\t130\tGAA\tGAG,GAC\tmale\t10\n"

func TestParseCatalogue(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader(testCatalogueTSV))
	require.NoError(t, err)
	require.Len(t, cat.Records, 2)

	htt := cat.Records[0]
	assert.Equal(t, "HTT", htt.ID)
	assert.Equal(t, "chr4", htt.Region.Contig)
	assert.EqualValues(t, 3074876, htt.Region.Start)
	assert.EqualValues(t, 3074933, htt.Region.End)
	assert.Equal(t, "CAG", string(htt.RepeatUnit))
	assert.EqualValues(t, 20, htt.MaxUnitsAboveObserved)
	assert.Empty(t, htt.Interruptions)
	assert.False(t, htt.IsHaploid(Male))

	locusY := cat.Records[1]
	require.Len(t, locusY.Interruptions, 2)
	assert.Equal(t, "GAG", string(locusY.Interruptions[0]))
	assert.True(t, locusY.IsHaploid(Male))
	assert.False(t, locusY.IsHaploid(Female))
}

func TestParseCatalogue_RejectsUnrecognizedSex(t *testing.T) {
	const bad = "ID\tCONTIG\tSTART\tEND\tREPEAT_UNIT\tINTERRUPTIONS\tHAPLOID_ON\tGRID_ABOVE_MAX\n" +
		"x\tchr1\t0\t10\tCAG\t\tnonbinary\t0\n"
	_, err := ParseCatalogue(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestMatchesInterruption(t *testing.T) {
	rec := Record{Interruptions: [][]byte{[]byte("GAG")}}
	assert.True(t, rec.MatchesInterruption([]byte("GAG"), 0))
	assert.True(t, rec.MatchesInterruption([]byte("GAA"), 1))
	assert.False(t, rec.MatchesInterruption([]byte("GAA"), 0))
}
