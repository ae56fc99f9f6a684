package locus

import (
	"github.com/grailbio/base/errors"

	"github.com/clingenomics/strexpand/graph"
	"github.com/clingenomics/strexpand/refgenome"
)

// BuildGraph constructs rec's sequence graph (C1): left-flank -> repeat-unit
// (self-edge) -> right-flank, fetching the flanks from ref. flankLen bounds
// how much reference sequence on either side is pulled in; it should be at
// least one read length so every spanning read has somewhere to land.
func (rec Record) BuildGraph(ref refgenome.Reference, flankLen uint64) (*graph.Graph, graph.NodeID, error) {
	if rec.Region.Start < flankLen {
		return nil, 0, errors.E(errors.Invalid, "locus: record "+rec.ID+" is too close to the start of its contig for the requested flank length")
	}
	leftRegion := refgenome.Region{Contig: rec.Region.Contig, Start: rec.Region.Start - flankLen, End: rec.Region.Start}
	rightRegion := refgenome.Region{Contig: rec.Region.Contig, Start: rec.Region.End, End: rec.Region.End + flankLen}

	left, err := ref.Seq(leftRegion)
	if err != nil {
		return nil, 0, errors.E(err, "locus: fetching left flank for "+rec.ID)
	}
	right, err := ref.Seq(rightRegion)
	if err != nil {
		return nil, 0, errors.E(err, "locus: fetching right flank for "+rec.ID)
	}

	nodes := []graph.Node{
		{ID: 0, Seq: left, Role: graph.Linear},
		{ID: 1, Seq: append([]byte{}, rec.RepeatUnit...), Role: graph.RepeatUnit},
		{ID: 2, Seq: right, Role: graph.Linear},
	}
	edges := []graph.Edge{
		{From: 0, To: 1},
		{From: 1, To: 1},
		{From: 1, To: 2},
	}
	g, err := graph.New(nodes, edges)
	if err != nil {
		return nil, 0, err
	}
	return g, graph.NodeID(1), nil
}
