// Package alphabet defines the closed nucleotide and aminoacid alphabets
// used throughout the pipeline, along with the semantic predicates the rest
// of the packages build on: matches, isGap, isAmbiguous, isCanonical, and
// codon translation.
package alphabet

import "github.com/pkg/errors"

// Nucleotide is a single IUPAC nucleotide code, a gap, or an unknown base.
// The zero value is not a valid Nucleotide; use Gap or construct via
// ParseNucleotide.
type Nucleotide byte

// The fifteen IUPAC nucleotide codes, plus Gap and N (unknown/missing).
const (
	A Nucleotide = 'A'
	C Nucleotide = 'C'
	G Nucleotide = 'G'
	T Nucleotide = 'T'
	U Nucleotide = 'U'
	R Nucleotide = 'R'
	Y Nucleotide = 'Y'
	S Nucleotide = 'S'
	W Nucleotide = 'W'
	K Nucleotide = 'K'
	M Nucleotide = 'M'
	B Nucleotide = 'B'
	D Nucleotide = 'D'
	H Nucleotide = 'H'
	V Nucleotide = 'V'
	N Nucleotide = 'N'

	Gap Nucleotide = '-'
)

// possibilities is a bitset over {A,C,G,T} for each IUPAC code; bit 0 = A,
// bit 1 = C, bit 2 = G, bit 3 = T. Gap has no possibilities.
var possibilities = map[Nucleotide]uint8{
	A: 1 << 0,
	C: 1 << 1,
	G: 1 << 2,
	T: 1 << 3,
	U: 1 << 3,
	R: 1<<0 | 1<<2,
	Y: 1<<1 | 1<<3,
	S: 1<<1 | 1<<2,
	W: 1<<0 | 1<<3,
	K: 1<<2 | 1<<3,
	M: 1<<0 | 1<<1,
	B: 1<<1 | 1<<2 | 1<<3,
	D: 1<<0 | 1<<2 | 1<<3,
	H: 1<<0 | 1<<1 | 1<<3,
	V: 1<<0 | 1<<1 | 1<<2,
	N: 1<<0 | 1<<1 | 1<<2 | 1<<3,
}

// ParseNucleotide validates b as a IUPAC-15 code, Gap, or N.
func ParseNucleotide(b byte) (Nucleotide, error) {
	n := Nucleotide(b)
	if n == Gap {
		return Gap, nil
	}
	if _, ok := possibilities[n]; ok {
		return n, nil
	}
	return 0, errors.Errorf("alphabet: invalid nucleotide byte %q", b)
}

// IsGap reports whether n is the alignment gap character.
func (n Nucleotide) IsGap() bool { return n == Gap }

// IsAmbiguous reports whether n denotes more than one possible base (i.e. it
// is not one of A, C, G, T/U and not a gap).
func (n Nucleotide) IsAmbiguous() bool {
	if n.IsGap() {
		return false
	}
	bits := possibilities[n]
	return bits != 0 && (bits&(bits-1)) != 0
}

// IsCanonical reports whether n is exactly one of A, C, G, T.
func (n Nucleotide) IsCanonical() bool {
	switch n {
	case A, C, G, T:
		return true
	default:
		return false
	}
}

// Matches reports whether a and b share at least one possible base. Two
// gaps never match; a gap never matches a non-gap.
func Matches(a, b Nucleotide) bool {
	if a.IsGap() || b.IsGap() {
		return false
	}
	return possibilities[a]&possibilities[b] != 0
}

// Byte returns the underlying byte value.
func (n Nucleotide) Byte() byte { return byte(n) }

// String implements fmt.Stringer.
func (n Nucleotide) String() string { return string(rune(n)) }
