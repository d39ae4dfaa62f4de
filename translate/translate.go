// Package translate implements the per-gene translator (component G,
// §4.G): it slices a gene's aligned region out of a full nucleotide
// alignment, strips query insertions into a grouped aminoacid insertion
// list, iterates codons with gap/ambiguity-aware translation, and tracks
// frame-shift ranges caused by indels whose length is not a multiple of
// three.
//
// The gene-local range bookkeeping (open/extend/close a running span)
// follows the same pattern as mutation.Analyze, itself grounded on
// grailbio-bio/fusion/position.go's PosRange accumulation.
package translate

import (
	"github.com/pkg/errors"

	"github.com/grailbio/nextclade-go/alphabet"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/seq"
)

// AminoacidSubstitution mirrors NucleotideSubstitution at the codon level.
type AminoacidSubstitution struct {
	GeneName   string
	CodonIndex int
	Ref        alphabet.Aminoacid
	Query      alphabet.Aminoacid
}

// AminoacidDeletion is a contiguous run of gap codons in the query peptide.
type AminoacidDeletion struct {
	GeneName string
	Start    int
	Length   int
}

// AminoacidInsertion is a run of query nucleotides with no corresponding
// reference codon, translated and grouped at the codon index it falls
// before.
type AminoacidInsertion struct {
	GeneName   string
	CodonIndex int
	Inserted   []alphabet.Aminoacid
}

// FrameShiftRange covers a region where accumulated indel length was not a
// multiple of three, in both gene-local nucleotide and codon coordinates.
type FrameShiftRange struct {
	GeneName   string
	NucRange   seq.Range
	CodonRange seq.Range
}

// Peptide is the full per-gene translation result.
type Peptide struct {
	GeneName         string
	RefAminoacids    []alphabet.Aminoacid
	QueryAminoacids  []alphabet.Aminoacid
	Insertions       []AminoacidInsertion
	Substitutions    []AminoacidSubstitution
	Deletions        []AminoacidDeletion
	FrameShiftRanges []FrameShiftRange
}

// aminoacidsToString renders a residue slice as plain text, e.g. for FASTA
// peptide output.
func aminoacidsToString(aas []alphabet.Aminoacid) string {
	b := make([]byte, len(aas))
	for i, a := range aas {
		b[i] = byte(a)
	}
	return string(b)
}

// QueryString returns the query aminoacid sequence as plain text.
func (p Peptide) QueryString() string { return aminoacidsToString(p.QueryAminoacids) }

// RefString returns the reference aminoacid sequence as plain text.
func (p Peptide) RefString() string { return aminoacidsToString(p.RefAminoacids) }

// BuildRefPosIndex maps each 0-based reference position (0..refLen, where
// refLen is one past the last base) to the alignment column at which that
// position's reference base sits -- or, for refLen itself, one past the
// end of the alignment. Callers use it to slice a gene's region out of a
// full-length alignment by reference coordinates.
func BuildRefPosIndex(refAligned []byte) []int {
	index := make([]int, 0, len(refAligned)+1)
	for i, b := range refAligned {
		if b != '-' {
			index = append(index, i)
		}
	}
	index = append(index, len(refAligned))
	return index
}

// ExtractGeneAlignment slices the gene's reference-coordinate span out of a
// full alignment using a ref-position index built by BuildRefPosIndex.
func ExtractGeneAlignment(refAligned, queryAligned []byte, refPosIndex []int, gene genemap.Gene) (refGeneAln, qryGeneAln []byte, err error) {
	if gene.Start < 0 || gene.End > len(refPosIndex)-1 || gene.Start > gene.End {
		return nil, nil, errors.Errorf("translate: gene %q coordinates [%d,%d) out of range", gene.Name, gene.Start, gene.End)
	}
	colStart := refPosIndex[gene.Start]
	colEnd := refPosIndex[gene.End]
	return refAligned[colStart:colEnd], queryAligned[colStart:colEnd], nil
}

func toNucleotide(b byte) alphabet.Nucleotide {
	n, err := alphabet.ParseNucleotide(b)
	if err != nil {
		return alphabet.N
	}
	return n
}

// translateCodonBytes translates up to three nucleotide bytes (padding a
// short trailing codon with gaps) to a single aminoacid.
func translateCodonBytes(codon []byte) alphabet.Aminoacid {
	var c [3]alphabet.Nucleotide
	for i := 0; i < 3; i++ {
		if i < len(codon) {
			c[i] = toNucleotide(codon[i])
		} else {
			c[i] = alphabet.Gap
		}
	}
	return alphabet.TranslateCodon(c[0], c[1], c[2])
}

func translateTriplets(nts []byte) []alphabet.Aminoacid {
	var out []alphabet.Aminoacid
	for i := 0; i < len(nts); i += 3 {
		end := i + 3
		if end > len(nts) {
			end = len(nts)
		}
		out = append(out, translateCodonBytes(nts[i:end]))
	}
	return out
}

// Translate implements §4.G steps 2-6 over one gene's already-extracted
// aligned region (refGeneAln/qryGeneAln, equal length, as returned by
// ExtractGeneAlignment).
func Translate(geneName string, refGeneAln, qryGeneAln []byte) (Peptide, error) {
	if len(refGeneAln) != len(qryGeneAln) {
		return Peptide{}, errors.Errorf("translate: gene %q aligned region has unequal length (%d vs %d)", geneName, len(refGeneAln), len(qryGeneAln))
	}

	p := Peptide{GeneName: geneName}

	var strippedRef, strippedQry []byte

	var insBuf []byte
	closeInsertion := func() {
		if len(insBuf) == 0 {
			return
		}
		codonIdx := len(strippedRef) / 3
		p.Insertions = append(p.Insertions, AminoacidInsertion{
			GeneName:   geneName,
			CodonIndex: codonIdx,
			Inserted:   translateTriplets(insBuf),
		})
		insBuf = nil
	}

	// Frame-shift bookkeeping: offset is the cumulative non-3-multiple
	// indel length seen so far, mod 3 (§4.G step 5).
	offset := 0
	fsOpen := false
	var fsStartNuc int
	nucPos := 0

	openRunKind := byte(0) // 'i' insertion, 'd' deletion, 0 = none
	runLen := 0
	runStartNuc := 0

	applyIndelRun := func() {
		if runLen == 0 {
			return
		}
		if runLen%3 != 0 {
			newOffset := (offset + runLen) % 3
			if offset == 0 && newOffset != 0 {
				fsOpen = true
				fsStartNuc = runStartNuc
			}
			offset = newOffset
			if offset == 0 && fsOpen {
				fsOpen = false
				p.FrameShiftRanges = append(p.FrameShiftRanges, FrameShiftRange{
					GeneName:   geneName,
					NucRange:   seq.NewRange(fsStartNuc, nucPos),
					CodonRange: seq.NewRange(fsStartNuc/3, (nucPos+2)/3),
				})
			}
		}
		runLen = 0
		openRunKind = 0
	}

	for i := 0; i < len(refGeneAln); i++ {
		r, q := refGeneAln[i], qryGeneAln[i]

		if r == '-' {
			if openRunKind != 'i' {
				applyIndelRun()
				openRunKind = 'i'
				runStartNuc = nucPos
			}
			runLen++
			insBuf = append(insBuf, q)
			continue
		}
		closeInsertion()

		if q == '-' {
			if openRunKind != 'd' {
				applyIndelRun()
				openRunKind = 'd'
				runStartNuc = nucPos
			}
			runLen++
		} else {
			applyIndelRun()
		}

		strippedRef = append(strippedRef, r)
		strippedQry = append(strippedQry, q)
		nucPos++
	}
	closeInsertion()
	applyIndelRun()
	if fsOpen {
		p.FrameShiftRanges = append(p.FrameShiftRanges, FrameShiftRange{
			GeneName:   geneName,
			NucRange:   seq.NewRange(fsStartNuc, nucPos),
			CodonRange: seq.NewRange(fsStartNuc/3, (nucPos+2)/3),
		})
	}

	nCodons := (len(strippedRef) + 2) / 3
	p.RefAminoacids = make([]alphabet.Aminoacid, 0, nCodons)
	p.QueryAminoacids = make([]alphabet.Aminoacid, 0, nCodons)

	var delOpen bool
	var delStart, delLen int
	closeDeletion := func() {
		if delOpen {
			p.Deletions = append(p.Deletions, AminoacidDeletion{GeneName: geneName, Start: delStart, Length: delLen})
			delOpen = false
		}
	}

	for c := 0; c < nCodons; c++ {
		begin := c * 3
		end := begin + 3
		if end > len(strippedRef) {
			end = len(strippedRef)
		}
		refAA := translateCodonBytes(strippedRef[begin:end])
		qryAA := translateCodonBytes(strippedQry[begin:end])
		p.RefAminoacids = append(p.RefAminoacids, refAA)
		p.QueryAminoacids = append(p.QueryAminoacids, qryAA)

		if qryAA.IsGap() {
			if delOpen && delStart+delLen == c {
				delLen++
			} else {
				closeDeletion()
				delOpen, delStart, delLen = true, c, 1
			}
			continue
		}
		closeDeletion()

		if qryAA != alphabet.AX && qryAA != refAA {
			p.Substitutions = append(p.Substitutions, AminoacidSubstitution{
				GeneName: geneName, CodonIndex: c, Ref: refAA, Query: qryAA,
			})
		}
	}
	closeDeletion()

	return p, nil
}
