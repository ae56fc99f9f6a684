package cigar

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mapping aligns a query window to a substring of one node's sequence
// (§3). RefStart is 0-based into nodeSeq; Ops describe the alignment;
// Query is the exact query bases this mapping covers (so downstream code
// never needs to re-slice the original read).
type Mapping struct {
	RefStart int32
	Ops      []Op
	Query    []byte
	nodeSeq  []byte
}

// NewMapping validates and constructs a Mapping. query must be exactly the
// bases the ops consume; nodeSeq is the full sequence of the node being
// aligned to (RefStart + RefSpan(ops) must not exceed its length).
func NewMapping(refStart int32, ops []Op, query, nodeSeq []byte) (*Mapping, error) {
	m := &Mapping{RefStart: refStart, Ops: ops, Query: query, nodeSeq: nodeSeq}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the Mapping invariants from §3 and §8: total query span
// equals len(Query); reference start plus reference span does not exceed
// the node length.
func (m *Mapping) Validate() error {
	if m.RefStart < 0 {
		return errors.Errorf("cigar: mapping has negative reference start %d", m.RefStart)
	}
	if QuerySpan(m.Ops) != int32(len(m.Query)) {
		return errors.Errorf("cigar: mapping query span %d does not match query length %d", QuerySpan(m.Ops), len(m.Query))
	}
	if m.RefStart+RefSpan(m.Ops) > int32(len(m.nodeSeq)) {
		return errors.Errorf("cigar: mapping reference span exceeds node length (%d + %d > %d)", m.RefStart, RefSpan(m.Ops), len(m.nodeSeq))
	}
	return nil
}

// QuerySpan returns the total query bases this mapping consumes (including
// soft-clipped bases).
func (m *Mapping) QuerySpan() int32 { return QuerySpan(m.Ops) }

// RefSpan returns the total node bases this mapping consumes.
func (m *Mapping) RefSpan() int32 { return RefSpan(m.Ops) }

// RefEnd returns the first node position after this mapping's reference
// span.
func (m *Mapping) RefEnd() int32 { return m.RefStart + m.RefSpan() }

// NumMatchBases returns the number of node bases consumed by match or
// mismatch operations -- used by the read classifier (§4.5) to decide
// whether a boundary-only overlap with the repeat node counts as flanking.
func (m *Mapping) NumMatchBases() int32 {
	var n int32
	for _, op := range m.Ops {
		if op.Kind == Match || op.Kind == Mismatch {
			n += op.Length
		}
	}
	return n
}

// QuerySequence, ReferenceSequence, and MatchPattern reproduce the three
// equal-length aligned strands used by the human-readable renderer (§4.2):
// the query bases, the node bases, and a match-pattern string ('|' for
// match, ' ' for mismatch). Insertions and deletions are omitted from the
// match pattern (rendered as blank) and appear as '-' in whichever strand
// they don't consume, so the three strands always stay the same length.
func (m *Mapping) QuerySequence() []byte {
	var out []byte
	qi := 0
	for _, op := range m.Ops {
		n := int(op.Length)
		switch op.Kind {
		case Match, Mismatch, Insertion, SoftClip:
			out = append(out, m.Query[qi:qi+n]...)
			qi += n
		case Deletion, Missing:
			out = append(out, repeatByte('-', n)...)
		}
	}
	return out
}

func (m *Mapping) ReferenceSequence() []byte {
	var out []byte
	ri := m.RefStart
	for _, op := range m.Ops {
		n := int32(op.Length)
		switch op.Kind {
		case Match, Mismatch, Deletion, Missing:
			out = append(out, m.nodeSeq[ri:ri+n]...)
			ri += n
		case Insertion, SoftClip:
			out = append(out, repeatByte('-', int(n))...)
		}
	}
	return out
}

func (m *Mapping) MatchPattern() []byte {
	var out []byte
	for _, op := range m.Ops {
		switch op.Kind {
		case Match:
			out = append(out, repeatByte('|', int(op.Length))...)
		default:
			out = append(out, repeatByte(' ', int(op.Length))...)
		}
	}
	return out
}

// WithTrailingSoftClip returns a copy of m with an extra soft-clip op (and
// the corresponding query bytes) appended, used by the graph aligner when a
// path reaches the graph's sink with unaligned query left over.
func (m *Mapping) WithTrailingSoftClip(tail []byte) (*Mapping, error) {
	if len(tail) == 0 {
		return m, nil
	}
	ops := append(append([]Op{}, m.Ops...), Op{Kind: SoftClip, Length: int32(len(tail))})
	query := append(append([]byte{}, m.Query...), tail...)
	return NewMapping(m.RefStart, ops, query, m.nodeSeq)
}

func repeatByte(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func (m *Mapping) String() string {
	return fmt.Sprintf("%d%s", m.RefStart, RenderOps(m.Ops))
}
