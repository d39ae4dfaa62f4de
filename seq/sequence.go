package seq

import "strings"

// Nucleotides is an owned, ordered sequence of nucleotide letters (which
// may include the alignment gap character once a sequence has been
// aligned). It is a thin named type over []byte so that conversions to and
// from alphabet.Nucleotide are zero-cost.
type Nucleotides []byte

// String returns the sequence as a string.
func (s Nucleotides) String() string { return string(s) }

// Len returns the number of letters, including any gaps.
func (s Nucleotides) Len() int { return len(s) }

// Ungapped returns a copy of s with every gap character ('-') removed.
func (s Nucleotides) Ungapped() Nucleotides {
	out := make(Nucleotides, 0, len(s))
	for _, b := range s {
		if b != '-' {
			out = append(out, b)
		}
	}
	return out
}

// Aminoacids is an owned, ordered sequence of aminoacid letters.
type Aminoacids []byte

// String returns the sequence as a string.
func (s Aminoacids) String() string { return string(s) }

// Len returns the number of letters, including any gaps.
func (s Aminoacids) Len() int { return len(s) }

// Join concatenates parts with no separator into a single Nucleotides.
func Join(parts ...Nucleotides) Nucleotides {
	var b strings.Builder
	for _, p := range parts {
		b.Write(p)
	}
	return Nucleotides(b.String())
}
