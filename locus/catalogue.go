package locus

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// catalogueRow is one line of a locus catalogue TSV. Columns not needed by
// the core model (comments, display names) are deliberately absent: the
// core only ever consumes the parsed Record, never this row shape.
type catalogueRow struct {
	ID            string `tsv:"ID"`
	Contig        string `tsv:"CONTIG"`
	Start         int64  `tsv:"START"`
	End           int64  `tsv:"END"`
	RepeatUnit    string `tsv:"REPEAT_UNIT"`
	Interruptions string `tsv:"INTERRUPTIONS"` // comma-separated motifs, "" if none
	HaploidOn     string `tsv:"HAPLOID_ON"`    // comma-separated of "male"/"female", "" if always diploid
	GridAboveMax  int64  `tsv:"GRID_ABOVE_MAX"`
}

// ParseCatalogue reads a tab-separated locus catalogue and validates it into
// a Catalogue. This is one concrete schema for §6's "locus catalogue input";
// callers with their own schema can build []Record directly and call
// NewCatalogue instead.
func ParseCatalogue(r io.Reader) (*Catalogue, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true

	var records []Record
	for {
		var row catalogueRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "locus: parsing catalogue", err)
		}
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return NewCatalogue(records)
}

// ParseCatalogueFile reads a locus catalogue from path, transparently
// decompressing it first if its extension indicates gzip.
func ParseCatalogueFile(ctx context.Context, path string) (*Catalogue, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close(ctx)

	reader := io.Reader(f.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.E(errors.Invalid, "locus: decompressing catalogue "+path, err)
		}
		defer gz.Close()
		reader = gz
	}
	return ParseCatalogue(reader)
}

func recordFromRow(row catalogueRow) (Record, error) {
	rec := Record{
		ID:                    row.ID,
		Region:                Region{Contig: row.Contig, Start: uint64(row.Start), End: uint64(row.End)},
		RepeatUnit:            []byte(row.RepeatUnit),
		MaxUnitsAboveObserved: int32(row.GridAboveMax),
	}
	if row.Interruptions != "" {
		for _, motif := range strings.Split(row.Interruptions, ",") {
			rec.Interruptions = append(rec.Interruptions, []byte(motif))
		}
	}
	if row.HaploidOn != "" {
		for _, tok := range strings.Split(row.HaploidOn, ",") {
			switch strings.ToLower(strings.TrimSpace(tok)) {
			case "male":
				rec.HaploidOn = append(rec.HaploidOn, Male)
			case "female":
				rec.HaploidOn = append(rec.HaploidOn, Female)
			default:
				return Record{}, errors.E(errors.Invalid, "locus: record "+row.ID+" has unrecognized HAPLOID_ON value "+tok)
			}
		}
	}
	return rec, nil
}
