package graph

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// Path is an ordered list of node ids, a start offset on the first node and
// an end offset on the last node (§3 GraphPath). A node id may repeat
// consecutively when a path traverses a repeat-unit node's self-edge more
// than once; this is represented as repeated entries rather than a back
// reference, so a Path never participates in a cyclic ownership structure
// (§9).
type Path struct {
	NodeIDs     []NodeID
	StartOffset int32
	EndOffset   int32
}

func (p Path) String() string {
	ids := make([]string, len(p.NodeIDs))
	for i, id := range p.NodeIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("[%s]@%d..%d", strings.Join(ids, ","), p.StartOffset, p.EndOffset)
}

// NewPath validates and constructs a Path against g.
func NewPath(g *Graph, nodeIDs []NodeID, startOffset, endOffset int32) (Path, error) {
	p := Path{NodeIDs: nodeIDs, StartOffset: startOffset, EndOffset: endOffset}
	if err := p.Validate(g); err != nil {
		return Path{}, err
	}
	return p, nil
}

// Validate checks every invariant in §3: consecutive nodes are connected by
// an edge (possibly a self-edge), offsets are within node bounds, and for a
// single-node path start <= end.
func (p Path) Validate(g *Graph) error {
	if len(p.NodeIDs) == 0 {
		return errors.E(errors.Invalid, "graph: path has no nodes")
	}
	first, err := g.Node(p.NodeIDs[0])
	if err != nil {
		return err
	}
	if p.StartOffset < 0 || p.StartOffset >= first.Len() {
		return errors.E(errors.Invalid, fmt.Sprintf("graph: path start offset %d out of range for node %d (len %d)", p.StartOffset, first.ID, first.Len()))
	}
	last, err := g.Node(p.NodeIDs[len(p.NodeIDs)-1])
	if err != nil {
		return err
	}
	if p.EndOffset < 0 || p.EndOffset >= last.Len() {
		return errors.E(errors.Invalid, fmt.Sprintf("graph: path end offset %d out of range for node %d (len %d)", p.EndOffset, last.ID, last.Len()))
	}
	if len(p.NodeIDs) == 1 && p.StartOffset > p.EndOffset {
		return errors.E(errors.Invalid, "graph: single-node path has start offset after end offset")
	}
	for i := 1; i < len(p.NodeIDs); i++ {
		a, b := p.NodeIDs[i-1], p.NodeIDs[i]
		if !g.HasEdge(a, b) {
			return errors.E(errors.Invalid, fmt.Sprintf("graph: no edge %d -> %d in path", a, b))
		}
	}
	return nil
}

// NumRepeatTraversals counts how many times repeatNode appears in the path,
// i.e. the number of R-node visits (one more than the number of times the
// self-edge was taken, when R is visited at all). Used by the read
// classifier (C5) to derive n_obs for spanning and flanking reads.
func (p Path) NumRepeatTraversals(repeatNode NodeID) int {
	n := 0
	for _, id := range p.NodeIDs {
		if id == repeatNode {
			n++
		}
	}
	return n
}

// Visits returns the set of distinct node ids the path touches, in first-
// visit order.
func (p Path) Visits() []NodeID {
	seen := make(map[NodeID]bool)
	var out []NodeID
	for _, id := range p.NodeIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
