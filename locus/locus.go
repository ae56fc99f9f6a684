// Package locus implements the locus catalogue (§6 "locus catalogue
// input"): the reference region, repeat unit, and candidate-search bounds
// for each STR site, plus a region index for fast overlap lookups during
// read ingress.
package locus

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Region is a 0-based, half-open interval on one contig.
type Region struct {
	Contig     string
	Start, End uint64
}

func (r Region) String() string { return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start, r.End) }

func (r Region) validate() error {
	if r.Contig == "" {
		return errors.E(errors.Invalid, "locus: region has empty contig")
	}
	if r.End <= r.Start {
		return errors.E(errors.Invalid, fmt.Sprintf("locus: region %s has non-positive length", r))
	}
	return nil
}

// Sex constrains which chromosomes a locus can be genotyped as haploid on,
// mirroring the upstream Sex{kMale,kFemale} dispatch.
type Sex int8

const (
	AnySex Sex = iota
	Male
	Female
)

// Record is one locus catalogue entry (§6). The core consumes already
// parsed Records; ParseCatalogue (catalogue.go) is one concrete loader, not
// the only permissible schema.
type Record struct {
	ID         string
	Region     Region
	RepeatUnit []byte
	// Interruptions lists known interruption motifs that may appear within
	// the repeat, used to fuzzy-match imperfect repeats during candidate
	// interpretation.
	Interruptions [][]byte

	// HaploidOn lists the sexes for which this locus is genotyped as
	// haploid (e.g. Male for a chrY locus, or both Male and Female for
	// mitochondrial loci); empty means always diploid.
	HaploidOn []Sex

	// MaxUnitsAboveObserved is the catalogue's per-locus bound on how far
	// above the largest observed count the C8 candidate grid extends. It is
	// parsed and checked to be non-negative; the strgt driver does not read
	// it and takes the grid size from its -grid-above flag for every locus.
	MaxUnitsAboveObserved int32
}

func (rec Record) validate() error {
	if rec.ID == "" {
		return errors.E(errors.Invalid, "locus: record has empty id")
	}
	if err := rec.Region.validate(); err != nil {
		return err
	}
	if len(rec.RepeatUnit) == 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("locus: record %s has empty repeat unit", rec.ID))
	}
	if rec.MaxUnitsAboveObserved < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("locus: record %s has negative candidate grid bound", rec.ID))
	}
	return nil
}

// IsHaploid reports whether sex dictates haploid genotyping for rec.
func (rec Record) IsHaploid(sex Sex) bool {
	for _, s := range rec.HaploidOn {
		if s == sex {
			return true
		}
	}
	return false
}

// Catalogue is a validated, ordered collection of loci plus a region index
// for ingress overlap queries.
type Catalogue struct {
	Records []Record
	index   *RegionIndex
}

// NewCatalogue validates records (rejecting duplicate ids, per the
// configuration-error policy of §7) and builds its region index.
func NewCatalogue(records []Record) (*Catalogue, error) {
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := rec.validate(); err != nil {
			return nil, err
		}
		if seen[rec.ID] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("locus: duplicate locus id %s", rec.ID))
		}
		seen[rec.ID] = true
	}
	idx, err := NewRegionIndex(records)
	if err != nil {
		return nil, err
	}
	return &Catalogue{Records: records, index: idx}, nil
}

// Lookup returns every locus whose region overlaps region.
func (c *Catalogue) Lookup(region Region) []Record { return c.index.Overlapping(region) }
