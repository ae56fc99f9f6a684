// Package ingress adapts BAM input into the reads package's Read model,
// restricted to records overlapping a locus region or explicitly flagged as
// off-target in-repeat candidates (§6).
package ingress

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"

	"github.com/clingenomics/strexpand/locus"
	"github.com/clingenomics/strexpand/reads"
)

// Source iterates BAM records restricted to the regions of interest for one
// batch of loci. It does not itself parallelize; the strgt driver opens one
// Source per locus worker, each on its own file handle.
type Source struct {
	reader *bam.Reader
	header *sam.Header
}

// Open wraps r as a BAM reader with the given decompression concurrency,
// mirroring the teacher's own bam.NewReader(r, concurrency) convention.
func Open(r io.Reader, concurrency int) (*Source, error) {
	br, err := bam.NewReader(r, concurrency)
	if err != nil {
		return nil, errors.E(errors.Unavailable, "ingress: opening BAM stream", err)
	}
	return &Source{reader: br, header: br.Header()}, nil
}

// Close closes the BAM reader. The io.Reader passed to Open is not closed.
func (s *Source) Close() error {
	return s.reader.Close()
}

// Next returns the next record overlapping any of regions (or an
// off-target in-repeat flagged record, per isOffTargetCandidate), converted
// to a *reads.Read. It returns (nil, MatePointer{}, io.EOF) at end of
// stream.
func (s *Source) Next(regions []locus.Region, isOffTargetCandidate func(*sam.Record) bool) (*reads.Read, MatePointer, error) {
	for {
		rec, err := s.reader.Read()
		if err == io.EOF {
			return nil, MatePointer{}, io.EOF
		}
		if err != nil {
			return nil, MatePointer{}, errors.E(errors.Unavailable, "ingress: reading BAM record", err)
		}
		if !s.overlapsAny(rec, regions) && (isOffTargetCandidate == nil || !isOffTargetCandidate(rec)) {
			continue
		}
		r, err := toRead(rec)
		if err != nil {
			return nil, MatePointer{}, err
		}
		return r, matePointerOf(rec, regions), nil
	}
}

// MatePointer is the mate-linking information a Read's classifier-facing
// consumer needs to decide insert-size consistency, without requiring a
// materialized mate record (§4.5's "mate-pair evidence").
type MatePointer struct {
	HasMate    bool
	MateRefID  int
	MatePos    int
	InsertSize int32
	// MateNearLocus is true when the mate's own position falls inside one of
	// the regions this scan is restricted to: the positive signal behind an
	// off-target in-repeat classification, since an in-repeat read's own
	// mapped position carries no locus information by itself (it may land
	// anywhere the repeat's sequence recurs in the genome).
	MateNearLocus bool
}

func matePointerOf(rec *sam.Record, regions []locus.Region) MatePointer {
	if rec.MateRef == nil {
		return MatePointer{}
	}
	insert := int32(0)
	hasInsert := rec.Ref != nil && rec.MateRef.ID() == rec.Ref.ID()
	if hasInsert {
		insert = int32(rec.MatePos - rec.Pos)
	}
	mp := MatePointer{
		HasMate:    true,
		MateRefID:  rec.MateRef.ID(),
		MatePos:    rec.MatePos,
		InsertSize: insert,
	}
	mateName := rec.MateRef.Name()
	matePos := uint64(rec.MatePos)
	for _, reg := range regions {
		if reg.Contig == mateName && matePos >= reg.Start && matePos < reg.End {
			mp.MateNearLocus = true
			break
		}
	}
	return mp
}

func (s *Source) overlapsAny(rec *sam.Record, regions []locus.Region) bool {
	if rec.Ref == nil {
		return false
	}
	contig := rec.Ref.Name()
	start := uint64(rec.Pos)
	end := start + uint64(rec.Len())
	for _, reg := range regions {
		if reg.Contig == contig && start < reg.End && end > reg.Start {
			return true
		}
	}
	return false
}

func toRead(rec *sam.Record) (*reads.Read, error) {
	bases := rec.Seq.Expand()
	var quals []byte
	if len(rec.Qual) > 0 && rec.Qual[0] != 0xff {
		quals = append([]byte{}, rec.Qual...)
	}
	return reads.New(rec.Name, bases, quals)
}
