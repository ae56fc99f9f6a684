package locus

import "sort"

// RegionIndex answers overlap queries against a fixed set of locus regions.
// Like the teacher's BEDUnion, it stores one sorted-by-start slice per
// contig and answers queries with binary search rather than a general
// interval tree, since locus catalogues are small (thousands, not millions,
// of entries) and never mutate after the catalogue loads.
type RegionIndex struct {
	byContig map[string][]indexedRegion
}

type indexedRegion struct {
	start, end  uint64
	maxEndSoFar uint64 // max end among all entries at or before this one, for pruning
	record      Record
}

// NewRegionIndex builds an index over records' regions.
func NewRegionIndex(records []Record) (*RegionIndex, error) {
	byContig := make(map[string][]indexedRegion)
	for _, rec := range records {
		reg := rec.Region
		byContig[reg.Contig] = append(byContig[reg.Contig], indexedRegion{start: reg.Start, end: reg.End, record: rec})
	}
	for _, regs := range byContig {
		sort.Slice(regs, func(i, j int) bool { return regs[i].start < regs[j].start })
		var maxEnd uint64
		for i := range regs {
			if regs[i].end > maxEnd {
				maxEnd = regs[i].end
			}
			regs[i].maxEndSoFar = maxEnd
		}
	}
	return &RegionIndex{byContig: byContig}, nil
}

// Overlapping returns every Record whose region overlaps q.
func (idx *RegionIndex) Overlapping(q Region) []Record {
	regs := idx.byContig[q.Contig]
	if len(regs) == 0 {
		return nil
	}
	// Skip every region whose running maximum end is still at or before
	// q.Start: none of them, nor anything before them, can overlap q.
	lo := sort.Search(len(regs), func(i int) bool { return regs[i].maxEndSoFar > q.Start })
	var out []Record
	for i := lo; i < len(regs) && regs[i].start < q.End; i++ {
		if regs[i].end > q.Start {
			out = append(out, regs[i].record)
		}
	}
	return out
}
