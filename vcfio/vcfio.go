// Package vcfio writes genotype calls as VCF records. It is deliberately
// built on bufio/fmt rather than a third-party VCF library: none appears
// anywhere in the example pack, and the output shape here (one fixed INFO/
// FORMAT schema, no header-driven field discovery) does not need one.
package vcfio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"

	"github.com/clingenomics/strexpand/genotype"
)

// GenotypeRecord is one locus's genotype call, the shape WriteGenotype
// serializes (spec.md §6).
type GenotypeRecord struct {
	LocusID    string
	Contig     string
	Pos        uint64 // 1-based, VCF convention
	RepeatUnit string

	Result genotype.Result
	// Margin is the log-likelihood gap between the chosen genotype and its
	// runner-up, for downstream confidence filtering. Zero if there was only
	// one candidate to evaluate.
	Margin float64

	SampleName string
}

// Writer emits GenotypeRecords as VCF 4.2 to the wrapped stream.
type Writer struct {
	w           *bufio.Writer
	wroteHeader bool
	sampleName  string
}

// NewWriter returns a Writer; the header (including the sample column) is
// written lazily on the first WriteGenotype call, since the sample name
// travels with the first record rather than as a separate constructor arg.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteGenotype appends rec as one VCF data line, writing the header first
// if this is the first call.
func (w *Writer) WriteGenotype(rec GenotypeRecord) error {
	if !w.wroteHeader {
		if err := w.writeHeader(rec.SampleName); err != nil {
			return err
		}
		w.wroteHeader = true
		w.sampleName = rec.SampleName
	} else if rec.SampleName != w.sampleName {
		return errors.E(errors.Invalid, "vcfio: mixed sample names in one VCF stream: "+w.sampleName+" vs "+rec.SampleName)
	}

	counts := make([]string, len(rec.Result.Counts))
	for i, c := range rec.Result.Counts {
		counts[i] = strconv.Itoa(int(c))
	}
	gt := strings.Join(counts, "/")

	var spanning, flanking, inRepeat []string
	for _, s := range rec.Result.Support {
		spanning = append(spanning, strconv.Itoa(int(s.Spanning)))
		flanking = append(flanking, strconv.Itoa(int(s.Flanking)))
		inRepeat = append(inRepeat, strconv.Itoa(int(s.InRepeat)))
	}

	info := fmt.Sprintf("RU=%s;REF=%s", rec.RepeatUnit, rec.LocusID)
	format := "GT:SP:FL:IR:LOD"
	sample := fmt.Sprintf("%s:%s:%s:%s:%.3f", gt, strings.Join(spanning, ","), strings.Join(flanking, ","), strings.Join(inRepeat, ","), rec.Margin)

	_, err := fmt.Fprintf(w.w, "%s\t%d\t%s\t%s\t<STR>\t.\t.\t%s\t%s\t%s\n",
		rec.Contig, rec.Pos, rec.LocusID, rec.RepeatUnit, info, format, sample)
	if err != nil {
		return errors.E(errors.Unavailable, "vcfio: writing record", err)
	}
	return nil
}

func (w *Writer) writeHeader(sampleName string) error {
	lines := []string{
		"##fileformat=VCFv4.2",
		`##INFO=<ID=RU,Number=1,Type=String,Description="Repeat unit sequence">`,
		`##INFO=<ID=REF,Number=1,Type=String,Description="Locus catalogue ID">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Repeat unit counts, one per haplotype">`,
		`##FORMAT=<ID=SP,Number=1,Type=String,Description="Spanning-read support per haplotype">`,
		`##FORMAT=<ID=FL,Number=1,Type=String,Description="Flanking-read support per haplotype">`,
		`##FORMAT=<ID=IR,Number=1,Type=String,Description="In-repeat-read support per haplotype">`,
		`##FORMAT=<ID=LOD,Number=1,Type=Float,Description="Log-likelihood margin over the runner-up genotype">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t" + sampleName,
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w.w, l); err != nil {
			return errors.E(errors.Unavailable, "vcfio: writing header", err)
		}
	}
	return nil
}

// Flush flushes any buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
