// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
strgt genotypes short tandem repeats at a catalogue of loci from a BAM file,
re-aligning reads against a per-locus sequence graph rather than the linear
reference.
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"

	"github.com/clingenomics/strexpand/align"
	"github.com/clingenomics/strexpand/genotype"
	"github.com/clingenomics/strexpand/ingress"
	"github.com/clingenomics/strexpand/locus"
	"github.com/clingenomics/strexpand/reads"
	"github.com/clingenomics/strexpand/refgenome"
	"github.com/clingenomics/strexpand/vcfio"
)

var (
	bamPath       = flag.String("bam", "", "Input BAM path (required)")
	refPath       = flag.String("ref", "", "Reference FASTA path (required)")
	cataloguePath = flag.String("catalogue", "", "Locus catalogue TSV path (required)")
	outPath       = flag.String("out", "strgt.vcf", "Output VCF path")
	sampleName    = flag.String("sample", "SAMPLE", "Sample name for the VCF column header")
	sex           = flag.String("sex", "any", "Sample sex for haploid-locus dispatch: 'male', 'female', or 'any'")
	flankLen      = flag.Uint64("flank-len", 1000, "Reference bases fetched on each side of the repeat unit to build the locus graph")
	gridAbove     = flag.Int("grid-above", 20, "Candidate unit counts evaluated above the largest observation, per locus")
	readLen       = flag.Int("read-len", 150, "Sequencing read length, used by the in-repeat Poisson rate model")
	hapDepth      = flag.Float64("hap-depth", 30, "Expected per-haplotype sequencing depth")
	pCorrect      = flag.Float64("p-correct", 0.97, "Probability a spanning/flanking read's size is measured exactly right")
	parallelism   = flag.Int("parallelism", 0, "Maximum simultaneous locus workers; 0 = runtime.NumCPU()")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -bam path.bam -ref ref.fa -catalogue loci.tsv [OPTIONS]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()
	flag.Parse()

	if *bamPath == "" || *refPath == "" || *cataloguePath == "" {
		usage()
		os.Exit(2)
	}

	sampleSex, err := parseSex(*sex)
	if err != nil {
		log.Panicf("%v", err)
	}

	ctx := vcontext.Background()
	if err := run(ctx, sampleSex); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}

func parseSex(s string) (locus.Sex, error) {
	switch s {
	case "male":
		return locus.Male, nil
	case "female":
		return locus.Female, nil
	case "any":
		return locus.AnySex, nil
	default:
		return locus.AnySex, fmt.Errorf("strgt: unrecognized -sex value %q", s)
	}
}

func run(ctx context.Context, sampleSex locus.Sex) error {
	cat, err := locus.ParseCatalogueFile(ctx, *cataloguePath)
	if err != nil {
		return err
	}

	ref, err := refgenome.NewFromPath(ctx, *refPath)
	if err != nil {
		return err
	}

	records := cat.Records
	results := make([]vcfio.GenotypeRecord, len(records))

	parallel := *parallelism
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	log.Printf("strgt: starting %d-way locus scan over %d loci", parallel, len(records))

	err = traverse.T{Limit: parallel}.Each(len(records), func(i int) error {
		rec := records[i]
		bamFile, err := os.Open(*bamPath)
		if err != nil {
			return err
		}
		defer bamFile.Close()

		result, err := genotypeLocus(rec, ref, bamFile, sampleSex)
		if err != nil {
			return err
		}
		results[i] = result
		return nil
	})
	if err != nil {
		return err
	}

	out, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	w := vcfio.NewWriter(out)
	for _, r := range results {
		if err := w.WriteGenotype(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

// genotypeLocus runs the full per-locus pipeline: build the graph, stream
// overlapping reads, classify and align each one, and search for the
// best-supported genotype.
func genotypeLocus(rec locus.Record, ref refgenome.Reference, bamFile *os.File, sampleSex locus.Sex) (vcfio.GenotypeRecord, error) {
	g, repeatNode, err := rec.BuildGraph(ref, *flankLen)
	if err != nil {
		return vcfio.GenotypeRecord{}, err
	}

	src, err := ingress.Open(bamFile, 1)
	if err != nil {
		return vcfio.GenotypeRecord{}, err
	}
	defer src.Close()

	unitLen := int32(len(rec.RepeatUnit))
	nMax := int32(*readLen) / unitLen
	sc := align.DefaultScores()

	ev := genotype.Evidence{Spanning: map[int32]int32{}, Flanking: map[int32]int32{}}
	regions := []locus.Region{rec.Region}

	// maxPlausibleInsert bounds the read-pair insert distribution check of
	// section 4.5: an in-repeat read whose mate maps far enough away that no
	// normal fragment could span the distance is evidence the read landed
	// here by repeat homology rather than by actually originating at this
	// locus. flankLen is the same order of magnitude as a real fragment
	// insert size for reads anchored against this locus's flanks.
	maxPlausibleInsert := int32(*flankLen)

	offTargetCandidate := func(samRec *sam.Record) bool {
		if samRec.MateRef == nil {
			return false
		}
		matePos := uint64(samRec.MatePos)
		return samRec.MateRef.Name() == rec.Region.Contig && matePos >= rec.Region.Start && matePos < rec.Region.End
	}

	for {
		r, mp, err := src.Next(regions, offTargetCandidate)
		if err != nil {
			break // io.EOF or a recoverable read error both end the scan for this locus
		}
		ga, err := align.AlignToGraph(g, r.Bases, sc)
		if err != nil || ga == nil {
			continue
		}
		if err := r.SetMapping(ga.GraphMapping); err != nil {
			continue
		}
		mateEv := reads.MateEvidence{
			MateAvailable:    mp.HasMate,
			InsertConsistent: mp.MateNearLocus || abs32(mp.InsertSize) <= maxPlausibleInsert,
		}
		cls := reads.Classify(g, ga.GraphMapping, repeatNode, int32(len(r.Bases)), unitLen, mateEv)
		switch cls.Category {
		case reads.Spanning:
			ev.Spanning[cls.NObs]++
		case reads.Flanking:
			ev.Flanking[cls.NObs]++
		case reads.InRepeat:
			ev.InRepeatReads++
		}
	}

	gtype := genotype.Diploid
	if rec.IsHaploid(sampleSex) {
		gtype = genotype.Haploid
	}
	params := genotype.Params{NMax: nMax, PCorrect: *pCorrect, HapDepth: *hapDepth, ReadLen: int32(*readLen)}

	result, err := genotype.Search(gtype, ev, params, int32(*gridAbove))
	if err != nil {
		return vcfio.GenotypeRecord{}, err
	}

	// Margin is left zero: Search returns only the chosen genotype, not the
	// runner-up it was compared against.
	return vcfio.GenotypeRecord{
		LocusID:    rec.ID,
		Contig:     rec.Region.Contig,
		Pos:        rec.Region.Start + 1,
		RepeatUnit: string(rec.RepeatUnit),
		Result:     result,
		SampleName: *sampleName,
	}, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
