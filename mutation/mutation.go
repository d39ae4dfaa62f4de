// Package mutation implements the insertion stripper and mutation reporter
// (component F, §4.F): it walks a gapped nucleotide alignment once and
// produces substitutions, deletions, insertions, missing ranges and the
// alignment's effective start/end in reference coordinates.
//
// The left-to-right column walk with an open/extend/close running range is
// grounded on the teacher's grailbio-bio/fusion/position.go span-accumulation
// pattern (open a PosRange, extend while contiguous, close on break), and the
// alignment traversal style mirrors grailbio-bio/util/distance.go's
// column-by-column matrix walk.
package mutation

import "github.com/pkg/errors"

// NucleotideSubstitution is a single-position ref/query mismatch; Query is
// always canonical (A, C, G or T) per §3.
type NucleotideSubstitution struct {
	Pos   int
	Ref   byte
	Query byte
}

// NucleotideDeletion is a run of query gaps against consumed reference
// positions.
type NucleotideDeletion struct {
	Start  int
	Length int
}

// NucleotideInsertion is a run of query letters with no corresponding
// reference position. Pos is the reference coordinate immediately before
// which the insertion lies; an insertion reaching the end of the alignment
// reports Pos = len(reference) (DESIGN.md "Insertion-at-end").
type NucleotideInsertion struct {
	Pos      int
	Inserted []byte
}

// NucleotideRange is a contiguous same-character run (used here for missing
// 'N' regions).
type NucleotideRange struct {
	Begin     int
	End       int
	Character byte
}

// Length returns End - Begin.
func (r NucleotideRange) Length() int { return r.End - r.Begin }

// Analysis is the full mutation report for one aligned pair.
type Analysis struct {
	Substitutions  []NucleotideSubstitution
	Deletions      []NucleotideDeletion
	Insertions     []NucleotideInsertion
	MissingRanges  []NucleotideRange
	AlignmentStart int
	AlignmentEnd   int
}

func isCanonicalByte(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	default:
		return false
	}
}

// Analyze implements §4.F. refAligned and queryAligned must have equal
// length; Analyze returns an error when they do not.
func Analyze(refAligned, queryAligned []byte) (Analysis, error) {
	if len(refAligned) != len(queryAligned) {
		return Analysis{}, errors.Errorf("mutation: aligned sequences have unequal length (%d vs %d)", len(refAligned), len(queryAligned))
	}

	var a Analysis
	refPos := 0
	alignmentStart := -1
	alignmentEnd := -1

	var insStart int
	var insBuf []byte
	closeInsertion := func() {
		if len(insBuf) > 0 {
			a.Insertions = append(a.Insertions, NucleotideInsertion{Pos: insStart, Inserted: insBuf})
			insBuf = nil
		}
	}

	var delOpen bool
	var delStart, delLen int
	closeDeletion := func() {
		if delOpen {
			a.Deletions = append(a.Deletions, NucleotideDeletion{Start: delStart, Length: delLen})
			delOpen = false
			delLen = 0
		}
	}

	var missOpen bool
	var missStart, missEnd int
	closeMissing := func() {
		if missOpen {
			a.MissingRanges = append(a.MissingRanges, NucleotideRange{Begin: missStart, End: missEnd, Character: 'N'})
			missOpen = false
		}
	}

	for i := 0; i < len(refAligned); i++ {
		r, q := refAligned[i], queryAligned[i]

		if r == '-' {
			if len(insBuf) == 0 {
				insStart = refPos
			}
			insBuf = append(insBuf, q)
			continue
		}
		closeInsertion()

		if q == '-' {
			closeMissing()
			if delOpen && delStart+delLen == refPos {
				delLen++
			} else {
				closeDeletion()
				delOpen = true
				delStart = refPos
				delLen = 1
			}
			refPos++
			continue
		}
		closeDeletion()

		if q == 'N' {
			if missOpen && missEnd == refPos {
				missEnd = refPos + 1
			} else {
				closeMissing()
				missOpen = true
				missStart = refPos
				missEnd = refPos + 1
			}
		} else {
			closeMissing()
			if isCanonicalByte(q) && q != r {
				a.Substitutions = append(a.Substitutions, NucleotideSubstitution{Pos: refPos, Ref: r, Query: q})
			}
		}

		if alignmentStart == -1 {
			alignmentStart = refPos
		}
		alignmentEnd = refPos + 1

		refPos++
	}
	closeInsertion()
	closeDeletion()
	closeMissing()

	if alignmentStart == -1 {
		alignmentStart = 0
		alignmentEnd = 0
	}
	// Leading and trailing query gaps mark unsequenced ends, not deletions.
	internal := a.Deletions[:0]
	for _, d := range a.Deletions {
		if d.Start >= alignmentStart && d.Start+d.Length <= alignmentEnd {
			internal = append(internal, d)
		}
	}
	a.Deletions = internal
	a.AlignmentStart = alignmentStart
	a.AlignmentEnd = alignmentEnd
	return a, nil
}
