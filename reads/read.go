// Package reads implements the Read data model and the per-read category
// classifier (C5): spanning / flanking / in-repeat / irrelevant, with the
// integer unit-count observation each category contributes to the
// genotyper.
package reads

import (
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"

	"github.com/clingenomics/strexpand/cigar"
)

// Read is one sequenced fragment considered for one locus. FragmentID ties
// together a read and its mate; MateID and InsertSize are zero-valued when
// the mate was not observed or the pairing is unknown.
//
// A Read's GraphMapping is set at most once (construct-once, per the
// upstream pipeline's AccessToCanonicalMapping convention): callers compute
// it once via the aligner and every subsequent consumer reads the same
// value, so a double re-alignment of the same fragment can never silently
// diverge.
type Read struct {
	FragmentID string
	Bases      []byte
	Quals      []byte

	MateID      string
	InsertSize  int32
	HasInsert   bool

	mu      sync.Mutex
	mapping *cigar.GraphMapping
	mapSet  bool
}

// New validates and constructs a Read. Bases and Quals must be the same
// length; empty Quals (unknown base qualities) are allowed.
func New(fragmentID string, bases, quals []byte) (*Read, error) {
	if len(quals) != 0 && len(quals) != len(bases) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("reads: fragment %s has %d bases but %d quality values", fragmentID, len(bases), len(quals)))
	}
	if len(bases) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("reads: fragment %s has no bases", fragmentID))
	}
	return &Read{FragmentID: fragmentID, Bases: bases, Quals: quals}, nil
}

// SetMapping attaches the read's canonical GraphMapping. It is an internal
// consistency error to call this more than once for the same Read: the
// aligner runs exactly once per fragment per locus, and a second call
// signals a caller bug, not a data problem.
func (r *Read) SetMapping(gm *cigar.GraphMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mapSet {
		return errors.E(errors.Precondition, fmt.Sprintf("reads: fragment %s already has a canonical mapping", r.FragmentID))
	}
	r.mapping = gm
	r.mapSet = true
	return nil
}

// Mapping returns the read's canonical GraphMapping. It is an internal
// consistency error to call this before SetMapping, or after an alignment
// attempt that found no viable path (callers should check HasMapping first
// in that case, since "no mapping" there is a legitimate irrelevant-read
// outcome, not a bug).
func (r *Read) Mapping() (*cigar.GraphMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.mapSet {
		return nil, errors.E(errors.Precondition, fmt.Sprintf("reads: fragment %s has no canonical mapping yet", r.FragmentID))
	}
	return r.mapping, nil
}

// HasMapping reports whether SetMapping has been called, regardless of
// whether the stored mapping is nil (a recorded "no alignment" outcome) or
// non-nil.
func (r *Read) HasMapping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapSet
}
