// Package analysis wires together components D through I -- seeding, banded
// alignment, mutation reporting, translation, QC, and tree clade assignment
// -- into the single per-sequence operation the pipeline's transform filter
// calls (§4.J stage 2: "parse -> align (D+E) -> analyse (F) -> translate (G)
// -> QC (H) -> tree-assign (I)").
//
// This is the orchestration layer the individual component packages
// deliberately do not provide themselves, mirroring how the teacher keeps
// bio/markduplicates/mark_duplicates.go's generateBAM as a thin driver over
// otherwise independent encoding/bam and encoding/bamprovider packages
// rather than folding the wiring into any one of them.
package analysis

import (
	"blainsmith.com/go/seahash"
	"github.com/pkg/errors"

	"github.com/grailbio/nextclade-go/align"
	"github.com/grailbio/nextclade-go/alphabet"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/mutation"
	"github.com/grailbio/nextclade-go/qc"
	"github.com/grailbio/nextclade-go/translate"
	"github.com/grailbio/nextclade-go/tree"
)

// Options bundles everything shared, read-only, across every query in a run
// (§3 "Ownership": the reference sequence, gene map, QC config and
// preprocessed tree are immutable and shared by all worker threads).
type Options struct {
	Reference   []byte
	GeneMap     *genemap.GeneMap
	SeedParams  align.SeedParams
	ScoreParams align.ScoreParams
	QC          qc.Config
	Tree        *tree.Arena // nil disables clade assignment
}

// GenePeptide pairs a translated peptide with the gene it came from, so
// callers that iterate results don't need a second GeneMap lookup.
type GenePeptide struct {
	Gene    genemap.Gene
	Peptide translate.Peptide
}

// Result is the per-sequence AnalysisResult (§3): alignment, mutations,
// peptides, QC, and (if a tree was supplied) clade assignment.
type Result struct {
	Name          string
	Score         int
	RefAligned    []byte
	QueryAligned  []byte
	Mutation      mutation.Analysis
	Peptides      []GenePeptide
	QC            qc.Result
	Clade         string
	HasAssignment bool
	NodeID        int
	PrivateCount  int
	Checksum      uint64
}

// Checksum returns the seahash of a raw sequence, the same algorithm used
// for Result.Checksum, exported so other packages (the tree-arena cache) can
// pin a derived artifact to the exact reference bytes it was built from.
func Checksum(rawSeq []byte) uint64 {
	h := seahash.New()
	_, _ = h.Write(rawSeq)
	return h.Sum64()
}

func checksum(rawSeq []byte) uint64 {
	return Checksum(rawSeq)
}

func countMixedSites(queryAligned []byte) int {
	n := 0
	for _, b := range queryAligned {
		if b == '-' || b == 'N' {
			continue
		}
		nt, err := alphabet.ParseNucleotide(b)
		if err != nil {
			continue
		}
		if nt.IsAmbiguous() {
			n++
		}
	}
	return n
}

func totalMissing(ranges []mutation.NucleotideRange) int {
	n := 0
	for _, r := range ranges {
		n += r.Length()
	}
	return n
}

func substitutionMap(subs []mutation.NucleotideSubstitution) map[int]byte {
	m := make(map[int]byte, len(subs))
	for _, s := range subs {
		m[s.Pos] = s.Query
	}
	return m
}

// Analyze runs the full per-sequence pipeline over one raw (unaligned,
// unsanitized-beyond-FASTA) nucleotide sequence. It returns accumulated
// non-fatal warnings alongside the result; a non-nil error means the
// sequence could not be analyzed at all (§7's per-sequence non-fatal
// category -- the pipeline driver attaches it to the item's Output.Error
// rather than treating it as fatal).
func Analyze(name string, rawSeq []byte, opts *Options) (Result, []string, error) {
	var warnings []string

	aligned := align.Align(opts.Reference, rawSeq, opts.SeedParams, opts.ScoreParams)
	warnings = append(warnings, aligned.Warnings...)
	if aligned.RefAligned == nil {
		return Result{}, warnings, errors.Errorf("analysis: %s: alignment failed", name)
	}

	mutAnalysis, err := mutation.Analyze(aligned.RefAligned, aligned.QueryAligned)
	if err != nil {
		return Result{}, warnings, errors.Wrapf(err, "analysis: %s: mutation analysis", name)
	}

	refPosIndex := translate.BuildRefPosIndex(aligned.RefAligned)
	var peptides []GenePeptide
	for _, gene := range opts.GeneMap.Genes() {
		refGeneAln, qryGeneAln, err := translate.ExtractGeneAlignment(aligned.RefAligned, aligned.QueryAligned, refPosIndex, gene)
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "gene %q: extraction failed", gene.Name).Error())
			continue
		}
		peptide, err := translate.Translate(gene.Name, refGeneAln, qryGeneAln)
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "gene %q: translation failed", gene.Name).Error())
			continue
		}
		covered := false
		for _, b := range qryGeneAln {
			if b != '-' && b != 'N' {
				covered = true
				break
			}
		}
		if len(peptide.RefAminoacids) == 0 || !covered {
			warnings = append(warnings, errors.Errorf("gene %q: produced no frames (entirely within a missing region)", gene.Name).Error())
			continue
		}
		peptides = append(peptides, GenePeptide{Gene: gene, Peptide: peptide})
	}
	if opts.GeneMap.Len() > 0 && len(peptides) == 0 {
		return Result{}, warnings, errors.Errorf("analysis: %s: translation produced no frames for any gene", name)
	}

	querySubs := substitutionMap(mutAnalysis.Substitutions)

	var clade string
	var hasAssignment bool
	var privateCount int
	nodeID := -1
	if opts.Tree != nil {
		assignment := tree.Assign(opts.Tree, querySubs, mutAnalysis.MissingRanges)
		if assignment.NodeID >= 0 {
			clade = assignment.Clade
			hasAssignment = true
			privateCount = len(assignment.PrivateMutations)
			nodeID = int(assignment.NodeID)
		}
	}

	qcResult := qc.Evaluate(opts.QC, qc.Inputs{
		TotalMissing:         totalMissing(mutAnalysis.MissingRanges),
		TotalMixed:           countMixedSites(aligned.QueryAligned),
		Substitutions:        mutAnalysis.Substitutions,
		PrivateMutationCount: privateCount,
	})

	return Result{
		Name:          name,
		Score:         aligned.Score,
		RefAligned:    aligned.RefAligned,
		QueryAligned:  aligned.QueryAligned,
		Mutation:      mutAnalysis,
		Peptides:      peptides,
		QC:            qcResult,
		Clade:         clade,
		HasAssignment: hasAssignment,
		NodeID:        nodeID,
		PrivateCount:  privateCount,
		Checksum:      checksum(rawSeq),
	}, warnings, nil
}
