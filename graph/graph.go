// Package graph implements the sequence graph (C1): a directed multigraph
// whose nodes carry nucleotide sequences, where each locus graph has the
// shape left-flank -> (repeat-unit loop) -> right-flank, optionally
// interrupted by extra linear nodes. Graphs are immutable once built and may
// be shared by reference across every mapping and every worker that aligns
// against them (§5, §9 "shared immutable graph").
package graph

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// NodeID identifies a node within one Graph. IDs are dense, starting at 0,
// in catalogue declaration order.
type NodeID int32

// Role distinguishes flanking/interrupting sequence from the repeat unit
// that a path may traverse zero or more times via its self-edge.
type Role int8

const (
	Linear Role = iota
	RepeatUnit
)

// Node carries one nucleotide sequence over {A,C,G,T,N}.
type Node struct {
	ID   NodeID
	Seq  []byte
	Role Role
}

func (n Node) Len() int32 { return int32(len(n.Seq)) }

// Graph is an immutable directed multigraph with at most one self-edge per
// node. No exported method mutates a Graph after New returns successfully.
type Graph struct {
	nodes  []Node
	out    [][]NodeID // out[i] = successors of node i, excluding the self-edge
	selfOK []bool     // selfOK[i] = true if node i has a self-edge
	source NodeID
	sink   NodeID
}

// Edge is a directed adjacency (From, To); From == To denotes a self-edge.
type Edge struct {
	From, To NodeID
}

// New builds a Graph from nodes (indexed by position, i.e. nodes[i].ID must
// equal i) and edges. It is a configuration error (per spec §4.9) if the
// graph does not have exactly one source (no in-edges) and one sink (no
// out-edges), if any node has more than one self-edge, or if removing
// self-edges leaves a cycle.
func New(nodes []Node, edges []Edge) (*Graph, error) {
	n := len(nodes)
	for i, nd := range nodes {
		if int(nd.ID) != i {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: node at index %d has id %d, want dense ids", i, nd.ID))
		}
		if len(nd.Seq) == 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: node %d has empty sequence", nd.ID))
		}
	}

	g := &Graph{
		nodes:  nodes,
		out:    make([][]NodeID, n),
		selfOK: make([]bool, n),
	}

	inDeg := make([]int, n)
	outDeg := make([]int, n)
	seenEdge := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if int(e.From) < 0 || int(e.From) >= n || int(e.To) < 0 || int(e.To) >= n {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: edge %v references out-of-range node", e))
		}
		if seenEdge[e] && e.From != e.To {
			continue
		}
		seenEdge[e] = true
		if e.From == e.To {
			if g.selfOK[e.From] {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: node %d has more than one self-edge", e.From))
			}
			if nodes[e.From].Role != RepeatUnit {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: node %d has a self-edge but is not a repeat-unit node", e.From))
			}
			g.selfOK[e.From] = true
			continue
		}
		g.out[e.From] = append(g.out[e.From], e.To)
		inDeg[e.To]++
		outDeg[e.From]++
	}

	var sources, sinks []NodeID
	for i := 0; i < n; i++ {
		if inDeg[i] == 0 {
			sources = append(sources, NodeID(i))
		}
		if outDeg[i] == 0 {
			sinks = append(sinks, NodeID(i))
		}
	}
	if len(sources) != 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: expected exactly one source, found %d", len(sources)))
	}
	if len(sinks) != 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("graph: expected exactly one sink, found %d", len(sinks)))
	}
	g.source, g.sink = sources[0], sinks[0]

	if err := g.checkAcyclicWithoutSelfEdges(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkAcyclicWithoutSelfEdges verifies the invariant that every non-repeat
// node is acyclic: the graph with self-edges removed (already true of g.out)
// must be a DAG.
func (g *Graph) checkAcyclicWithoutSelfEdges() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int8, len(g.nodes))
	var visit func(NodeID) error
	visit = func(u NodeID) error {
		color[u] = gray
		for _, v := range g.out[u] {
			switch color[v] {
			case gray:
				return errors.E(errors.Invalid, fmt.Sprintf("graph: cycle detected through node %d (outside a repeat-unit self-edge)", v))
			case white:
				if err := visit(v); err != nil {
					return err
				}
			}
		}
		color[u] = black
		return nil
	}
	for i := range g.nodes {
		if color[i] == white {
			if err := visit(NodeID(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Node returns node metadata by id, or an error if id is out of range.
func (g *Graph) Node(id NodeID) (Node, error) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return Node{}, errors.E(errors.Invalid, fmt.Sprintf("graph: node id %d out of range", id))
	}
	return g.nodes[id], nil
}

// NodeSeq returns the sequence of node id.
func (g *Graph) NodeSeq(id NodeID) ([]byte, error) {
	nd, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	return nd.Seq, nil
}

// HasEdge reports whether there is a directed edge from a to b (a == b asks
// about a's self-edge).
func (g *Graph) HasEdge(a, b NodeID) bool {
	if int(a) < 0 || int(a) >= len(g.nodes) {
		return false
	}
	if a == b {
		return g.selfOK[a]
	}
	for _, v := range g.out[a] {
		if v == b {
			return true
		}
	}
	return false
}

// HasSelfEdge reports whether node id may be traversed as a self-loop.
func (g *Graph) HasSelfEdge(id NodeID) bool {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return false
	}
	return g.selfOK[id]
}

// Successors returns the distinct nodes reachable from id via one edge,
// including id itself first if it has a self-edge (the repeat-unit loop is
// explored before advancing, matching the graph aligner's traversal order).
func (g *Graph) Successors(id NodeID) []NodeID {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	var out []NodeID
	if g.selfOK[id] {
		out = append(out, id)
	}
	out = append(out, g.out[id]...)
	return out
}

// Source returns the graph's unique node with no in-edges (e.g. the left
// flank).
func (g *Graph) Source() NodeID { return g.source }

// Sink returns the graph's unique node with no out-edges (e.g. the right
// flank).
func (g *Graph) Sink() NodeID { return g.sink }

// RepeatNodes returns the ids of every repeat-unit node in declaration
// order.
func (g *Graph) RepeatNodes() []NodeID {
	var out []NodeID
	for i, nd := range g.nodes {
		if nd.Role == RepeatUnit {
			out = append(out, NodeID(i))
		}
	}
	return out
}
