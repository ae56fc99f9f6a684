package cigar

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/clingenomics/strexpand/graph"
)

// GraphMapping pairs a graph.Path with one Mapping per node visit, in visit
// order (§3).
type GraphMapping struct {
	Path     graph.Path
	Mappings []*Mapping
}

// Validate checks the whole-mapping invariants of §3 and the testable
// property of §8: the path is valid, there is one mapping per path node,
// each mapping is valid, starts at the path's start offset (first node) or
// at offset 0 (later nodes) and ends within its node, and concatenating
// per-node query substrings reproduces query exactly. The concatenated
// per-node reference substrings (see PathSequence) are not compared against
// anything.
func (gm *GraphMapping) Validate(g *graph.Graph, query []byte) error {
	if err := gm.Path.Validate(g); err != nil {
		return err
	}
	if len(gm.Mappings) != len(gm.Path.NodeIDs) {
		return errors.Errorf("cigar: graph mapping has %d mappings for %d path nodes", len(gm.Mappings), len(gm.Path.NodeIDs))
	}
	var gotQuery []byte
	var gotRef []byte
	for i, m := range gm.Mappings {
		if err := m.Validate(); err != nil {
			return err
		}
		nodeSeq, err := g.NodeSeq(gm.Path.NodeIDs[i])
		if err != nil {
			return err
		}
		wantStart := int32(0)
		if i == 0 {
			wantStart = gm.Path.StartOffset
		}
		if m.RefStart != wantStart {
			return errors.Errorf("cigar: mapping %d reference start %d, want %d", i, m.RefStart, wantStart)
		}
		if m.RefEnd() > int32(len(nodeSeq)) {
			return errors.Errorf("cigar: mapping %d reference end %d exceeds node length %d", i, m.RefEnd(), len(nodeSeq))
		}
		gotQuery = append(gotQuery, m.Query...)
		gotRef = append(gotRef, nodeSeq[m.RefStart:m.RefEnd()]...)
	}
	if string(gotQuery) != string(query) {
		return errors.Errorf("cigar: graph mapping query substrings do not reconstruct the query")
	}
	_ = gotRef // spelled-out path sequence; exposed via PathSequence for callers that need it.
	return nil
}

// PathSequence spells out the reference bases actually covered by gm (the
// concatenation of each node mapping's reference substring).
func (gm *GraphMapping) PathSequence(g *graph.Graph) ([]byte, error) {
	var out []byte
	for i, m := range gm.Mappings {
		nodeSeq, err := g.NodeSeq(gm.Path.NodeIDs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, nodeSeq[m.RefStart:m.RefEnd()]...)
	}
	return out, nil
}

// Score is a floating-point alignment score. GraphMapping itself carries no
// score; the graph aligner reports its score separately, in
// align.GraphAlignment.
type Score float64

// EncodeWire renders gm in the stable graph-CIGAR wire form of §6:
// "<node_id>[<ops>]" per visited node, concatenated with no separator.
func EncodeWire(gm *GraphMapping) string {
	var b strings.Builder
	for i, m := range gm.Mappings {
		b.WriteString(strconv.Itoa(int(gm.Path.NodeIDs[i])))
		b.WriteByte('[')
		b.WriteString(RenderOps(m.Ops))
		b.WriteByte(']')
	}
	return b.String()
}

// splitGraphCigar breaks a concatenated graph-CIGAR into its per-node
// "<id>[<ops>]" substrings.
func splitGraphCigar(s string) ([]string, error) {
	var out []string
	start := 0
	depthOpen := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			if depthOpen {
				return nil, malformed(s)
			}
			depthOpen = true
		case ']':
			if !depthOpen {
				return nil, malformed(s)
			}
			depthOpen = false
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if depthOpen || start != len(s) {
		return nil, malformed(s)
	}
	return out, nil
}

// ParseNodeCigar splits one "<id>[<ops>]" token into its node id and op run.
func ParseNodeCigar(s string) (nodeID int32, ops []Op, err error) {
	bracket := strings.IndexByte(s, '[')
	if bracket < 0 || s[len(s)-1] != ']' {
		return 0, nil, malformed(s)
	}
	idPart := s[:bracket]
	for i := 0; i < len(idPart); i++ {
		if idPart[i] < '0' || idPart[i] > '9' {
			return 0, nil, malformed(s)
		}
	}
	if idPart == "" {
		return 0, nil, malformed(s)
	}
	id, err := strconv.ParseInt(idPart, 10, 32)
	if err != nil {
		return 0, nil, malformed(s)
	}
	ops, err = ParseOps(s[bracket+1 : len(s)-1])
	if err != nil {
		return 0, nil, err
	}
	return int32(id), ops, nil
}

// DecodeWire parses a graph-CIGAR wire string back into a GraphMapping
// against g, anchoring the first node's reference start at firstNodeStart.
// This is the inverse of EncodeWire (the round-trip property of §8).
func DecodeWire(g *graph.Graph, firstNodeStart int32, graphCigar string, query []byte) (*GraphMapping, error) {
	nodeCigars, err := splitGraphCigar(graphCigar)
	if err != nil {
		return nil, err
	}
	if len(nodeCigars) == 0 {
		return nil, malformed(graphCigar)
	}

	var nodeIDs []graph.NodeID
	var mappings []*Mapping
	queryPos := int32(0)
	for i, nc := range nodeCigars {
		id, ops, err := ParseNodeCigar(nc)
		if err != nil {
			return nil, err
		}
		nodeIDs = append(nodeIDs, graph.NodeID(id))
		nodeSeq, err := g.NodeSeq(graph.NodeID(id))
		if err != nil {
			return nil, err
		}
		refStart := int32(0)
		if i == 0 {
			refStart = firstNodeStart
		}
		qspan := QuerySpan(ops)
		if queryPos+qspan > int32(len(query)) {
			return nil, errors.Errorf("cigar: graph cigar %q consumes more query than provided", graphCigar)
		}
		piece := query[queryPos : queryPos+qspan]
		m, err := NewMapping(refStart, ops, piece, nodeSeq)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
		queryPos += qspan
	}
	if queryPos != int32(len(query)) {
		return nil, errors.Errorf("cigar: graph cigar %q does not consume the entire query", graphCigar)
	}

	lastMapping := mappings[len(mappings)-1]
	endOffset := lastMapping.RefEnd() - 1
	if endOffset < 0 {
		endOffset = 0
	}
	path, err := graph.NewPath(g, nodeIDs, firstNodeStart, endOffset)
	if err != nil {
		return nil, err
	}
	return &GraphMapping{Path: path, Mappings: mappings}, nil
}

// RenderAlignment produces the three-line human-readable rendering of §4.2:
// query, match pattern, and reference lines, each left-padded by padding
// spaces and separated at node boundaries by a single '-' in all three
// lines.
func RenderAlignment(gm *GraphMapping, g *graph.Graph, padding int) (string, error) {
	var query, pattern, ref []byte
	pad := strings.Repeat(" ", padding)
	for i, m := range gm.Mappings {
		if i == 0 {
			query = append(query, pad...)
			pattern = append(pattern, pad...)
			ref = append(ref, pad...)
		} else {
			query = append(query, '-')
			pattern = append(pattern, '-')
			ref = append(ref, '-')
		}
		query = append(query, m.QuerySequence()...)
		pattern = append(pattern, m.MatchPattern()...)
		ref = append(ref, m.ReferenceSequence()...)
	}
	return string(query) + "\n" + string(pattern) + "\n" + string(ref), nil
}
