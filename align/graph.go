package align

import (
	"encoding/binary"

	"github.com/dgryski/go-farm"

	"github.com/clingenomics/strexpand/cigar"
	"github.com/clingenomics/strexpand/graph"
)

// GraphAlignment is the result of aligning a whole read against a sequence
// graph (C4).
type GraphAlignment struct {
	GraphMapping *cigar.GraphMapping
	Score        int32
}

// chainResult is the memoized value for one (node, queryPos, selfRun) state:
// the best way to explain query[queryPos:] starting at node, given that the
// current node has already been entered via its self-edge selfRun times.
type chainResult struct {
	score     int32
	nodeIDs   []graph.NodeID
	mappings  []*cigar.Mapping
	numVisits int
}

func betterChain(a, b *chainResult) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.numVisits < b.numVisits
}

// AlignToGraph computes the optimal alignment of query against g (C4). Per
// spec it takes a candidate start node and offset and extends from there;
// since the driver has no independent way to know where in the source
// node's flank a given read actually starts, AlignToGraph itself seeds a
// handful of candidates via seedStarts and keeps whichever extends to the
// highest-scoring full alignment. Traversals of any repeat-unit node's
// self-edge are bounded to ceil(len(query)/unitLen)+1 so the search over the
// otherwise-cyclic repeat terminates. Returns (nil, nil) when no candidate
// start leads to a viable path through the graph -- per spec this is a
// "no-alignment" outcome, not an error.
func AlignToGraph(g *graph.Graph, query []byte, sc Scores) (*GraphAlignment, error) {
	memo := make(map[uint64]*chainResult)
	var best *chainResult
	for _, start := range seedStarts(g, query) {
		res, err := alignFrom(g, query, start.node, 0, 0, start.offset, sc, memo)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		if best == nil || betterChain(res, best) {
			best = res
		}
	}
	if best == nil {
		return nil, nil
	}
	first := best.mappings[0]
	last := best.mappings[len(best.mappings)-1]
	endOffset := last.RefEnd() - 1
	if endOffset < 0 {
		endOffset = 0
	}
	path, err := graph.NewPath(g, best.nodeIDs, first.RefStart, endOffset)
	if err != nil {
		return nil, err
	}
	return &GraphAlignment{
		GraphMapping: &cigar.GraphMapping{Path: path, Mappings: best.mappings},
		Score:        best.score,
	}, nil
}

func memoKey(node graph.NodeID, queryPos, selfRun, refStart int32) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(node))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(queryPos))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(selfRun))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(refStart))
	return farm.Hash64(buf[:])
}

// alignFrom finds the best way to align query[queryPos:] starting at node's
// offset refStart, given the node has already been visited selfRun times in
// a row via its own self-edge. refStart is only ever non-zero for the
// top-level call from AlignToGraph (the candidate entry point into the
// source node); every recursive continuation into a successor node starts
// at that node's own offset 0, since a path only ever enters a later node
// where the previous node's alignment left off. It returns nil (not an
// error) if no continuation from node can consume the rest of the query and
// reach a valid stopping point (the graph's sink, or full query
// consumption).
func alignFrom(g *graph.Graph, query []byte, node graph.NodeID, queryPos, selfRun, refStart int32, sc Scores, memo map[uint64]*chainResult) (*chainResult, error) {
	key := memoKey(node, queryPos, selfRun, refStart)
	if cached, ok := memo[key]; ok {
		return cached, nil
	}

	nodeSeq, err := g.NodeSeq(node)
	if err != nil {
		return nil, err
	}
	residual := query[queryPos:]
	na, err := AlignToNode(residual, nodeSeq, refStart, sc)
	if err != nil {
		return nil, err
	}

	isSink := node == g.Sink()
	fullyConsumed := na.Consumed == int32(len(residual))

	var best *chainResult
	if isSink || fullyConsumed {
		m := na.Mapping
		if isSink && !fullyConsumed {
			clipped, err := m.WithTrailingSoftClip(residual[na.Consumed:])
			if err != nil {
				return nil, err
			}
			m = clipped
		}
		best = &chainResult{
			score:     na.Score,
			nodeIDs:   []graph.NodeID{node},
			mappings:  []*cigar.Mapping{m},
			numVisits: 1,
		}
	}

	if !isSink && na.Consumed < int32(len(residual)) {
		bound := repeatBound(g, node, len(query))
		for _, succ := range g.Successors(node) {
			nextSelfRun := int32(0)
			if succ == node {
				if selfRun+1 > bound {
					continue
				}
				nextSelfRun = selfRun + 1
			}
			child, err := alignFrom(g, query, succ, queryPos+na.Consumed, nextSelfRun, 0, sc, memo)
			if err != nil {
				return nil, err
			}
			if child == nil {
				continue
			}
			cand := &chainResult{
				score:     na.Score + child.score,
				nodeIDs:   append([]graph.NodeID{node}, child.nodeIDs...),
				mappings:  append([]*cigar.Mapping{na.Mapping}, child.mappings...),
				numVisits: 1 + child.numVisits,
			}
			if best == nil || betterChain(cand, best) {
				best = cand
			}
		}
	}

	memo[key] = best
	return best, nil
}

// repeatBound returns the maximum number of consecutive self-edge
// traversals allowed for node: ceil(queryLen/unitLen) + 1, which bounds the
// number of repeat copies any read of this length could plausibly need to
// traverse before further copies can only ever add unused reference.
func repeatBound(g *graph.Graph, node graph.NodeID, queryLen int) int32 {
	nd, err := g.Node(node)
	if err != nil || nd.Len() == 0 {
		return 0
	}
	unitLen := int(nd.Len())
	copies := (queryLen + unitLen - 1) / unitLen
	return int32(copies) + 1
}

