// Package refgenome implements the "reference input" external interface of
// §6: a callable seq(region) -> nucleotide sequence over the reference
// genome. It is adapted from the teacher's encoding/fasta package, narrowed
// to the access pattern STR genotyping actually needs: many small, randomly
// ordered windows (flank + repeat-unit length, typically well under 10kb)
// rather than whole-chromosome streaming.
package refgenome

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Region is a 0-based half-open interval [Start, End) on a named contig.
type Region struct {
	Contig string
	Start  uint64
	End    uint64
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start+1, r.End)
}

func (r Region) validate() error {
	if r.End <= r.Start {
		return errors.Errorf("refgenome: empty or inverted region %s", r)
	}
	return nil
}

// Reference serves nucleotide substrings over {A,C,G,T,N}. Implementations
// are read-only and safe for concurrent use by the per-locus worker pool of
// §5.
type Reference interface {
	// Seq returns the upper-cased bases in region. It fails if region is out
	// of bounds for its contig.
	Seq(region Region) ([]byte, error)
	// Len returns the length of a contig.
	Len(contig string) (uint64, error)
	// Contigs returns contig names in file order.
	Contigs() []string
}

// inMemory holds every sequence in the FASTA in memory, one byte slice per
// contig.
// Appropriate for small references (e.g. a single chromosome extracted
// ahead of time), or test fixtures.
type inMemory struct {
	seqs     map[string][]byte
	seqNames []string
}

// New loads every sequence in r into memory. Lines are concatenated per
// record; blank lines are ignored, matching samtools faidx's own handling.
func New(r io.Reader) (Reference, error) {
	f := &inMemory{seqs: make(map[string][]byte)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1<<20)
	var name string
	var seq []byte
	flush := func() error {
		if name == "" {
			return nil
		}
		if len(seq) == 0 {
			return errors.Errorf("refgenome: empty sequence %q", name)
		}
		f.seqs[name] = seq
		f.seqNames = append(f.seqNames, name)
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.Split(line[1:], " ")[0]
			seq = nil
			continue
		}
		if name == "" {
			return nil, errors.Errorf("refgenome: malformed FASTA, sequence data before any header")
		}
		seq = append(seq, []byte(strings.ToUpper(line))...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "refgenome: reading FASTA")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFromPath loads an in-memory Reference from path, transparently
// decompressing it first if its extension indicates gzip. Intended for the
// small, single-chromosome or locus-restricted references STR genotyping
// typically runs against; large whole-genome FASTAs should use
// NewIndexedSeeker instead.
func NewFromPath(ctx context.Context, path string) (Reference, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close(ctx)

	reader := io.Reader(f.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.Wrap(err, "refgenome: decompressing "+path)
		}
		defer gz.Close()
		reader = gz
	}
	return New(reader)
}

func (f *inMemory) Seq(region Region) ([]byte, error) {
	if err := region.validate(); err != nil {
		return nil, err
	}
	s, ok := f.seqs[region.Contig]
	if !ok {
		return nil, errors.Errorf("refgenome: unknown contig %q", region.Contig)
	}
	if region.End > uint64(len(s)) {
		return nil, errors.Errorf("refgenome: region %s exceeds contig length %d", region, len(s))
	}
	out := make([]byte, region.End-region.Start)
	copy(out, s[region.Start:region.End])
	return out, nil
}

func (f *inMemory) Len(contig string) (uint64, error) {
	s, ok := f.seqs[contig]
	if !ok {
		return 0, errors.Errorf("refgenome: unknown contig %q", contig)
	}
	return uint64(len(s)), nil
}

func (f *inMemory) Contigs() []string {
	return append([]string(nil), f.seqNames...)
}

// sortSeqNamesByOffset is used by the indexed reader to report contigs in
// on-disk order even though the index map is unordered.
func sortSeqNamesByOffset(names []string, offset map[string]uint64) {
	sort.SliceStable(names, func(i, j int) bool { return offset[names[i]] < offset[names[j]] })
}
