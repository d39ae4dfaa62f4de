package alphabet

// Aminoacid is one of the 20 canonical residues, the stop codon marker, a
// gap, or an unknown-residue marker.
type Aminoacid byte

const (
	AGap  Aminoacid = '-'
	AStop Aminoacid = '*'
	AX    Aminoacid = 'X'
)

// IsGap reports whether a is the alignment gap character.
func (a Aminoacid) IsGap() bool { return a == AGap }

// String implements fmt.Stringer.
func (a Aminoacid) String() string { return string(rune(a)) }

// standardCodonTable maps a canonical (non-ambiguous) RNA-style codon
// (using T in place of U) to its translated residue. Codons are built from
// upper-case A/C/G/T only; ambiguous bases are resolved by TranslateCodon
// before consulting this table.
var standardCodonTable = map[[3]byte]Aminoacid{
	{'T', 'T', 'T'}: 'F', {'T', 'T', 'C'}: 'F', {'T', 'T', 'A'}: 'L', {'T', 'T', 'G'}: 'L',
	{'C', 'T', 'T'}: 'L', {'C', 'T', 'C'}: 'L', {'C', 'T', 'A'}: 'L', {'C', 'T', 'G'}: 'L',
	{'A', 'T', 'T'}: 'I', {'A', 'T', 'C'}: 'I', {'A', 'T', 'A'}: 'I', {'A', 'T', 'G'}: 'M',
	{'G', 'T', 'T'}: 'V', {'G', 'T', 'C'}: 'V', {'G', 'T', 'A'}: 'V', {'G', 'T', 'G'}: 'V',
	{'T', 'C', 'T'}: 'S', {'T', 'C', 'C'}: 'S', {'T', 'C', 'A'}: 'S', {'T', 'C', 'G'}: 'S',
	{'C', 'C', 'T'}: 'P', {'C', 'C', 'C'}: 'P', {'C', 'C', 'A'}: 'P', {'C', 'C', 'G'}: 'P',
	{'A', 'C', 'T'}: 'T', {'A', 'C', 'C'}: 'T', {'A', 'C', 'A'}: 'T', {'A', 'C', 'G'}: 'T',
	{'G', 'C', 'T'}: 'A', {'G', 'C', 'C'}: 'A', {'G', 'C', 'A'}: 'A', {'G', 'C', 'G'}: 'A',
	{'T', 'A', 'T'}: 'Y', {'T', 'A', 'C'}: 'Y', {'T', 'A', 'A'}: '*', {'T', 'A', 'G'}: '*',
	{'C', 'A', 'T'}: 'H', {'C', 'A', 'C'}: 'H', {'C', 'A', 'A'}: 'Q', {'C', 'A', 'G'}: 'Q',
	{'A', 'A', 'T'}: 'N', {'A', 'A', 'C'}: 'N', {'A', 'A', 'A'}: 'K', {'A', 'A', 'G'}: 'K',
	{'G', 'A', 'T'}: 'D', {'G', 'A', 'C'}: 'D', {'G', 'A', 'A'}: 'E', {'G', 'A', 'G'}: 'E',
	{'T', 'G', 'T'}: 'C', {'T', 'G', 'C'}: 'C', {'T', 'G', 'A'}: '*', {'T', 'G', 'G'}: 'W',
	{'C', 'G', 'T'}: 'R', {'C', 'G', 'C'}: 'R', {'C', 'G', 'A'}: 'R', {'C', 'G', 'G'}: 'R',
	{'A', 'G', 'T'}: 'S', {'A', 'G', 'C'}: 'S', {'A', 'G', 'A'}: 'R', {'A', 'G', 'G'}: 'R',
	{'G', 'G', 'T'}: 'G', {'G', 'G', 'C'}: 'G', {'G', 'G', 'A'}: 'G', {'G', 'G', 'G'}: 'G',
}

// canonicalBases enumerates the concrete bases a (possibly ambiguous,
// possibly U-for-T) nucleotide letter can resolve to, as canonical T-form
// bytes.
func canonicalBases(n Nucleotide) []byte {
	if n == U {
		return []byte{'T'}
	}
	bits, ok := possibilities[n]
	if !ok {
		return nil
	}
	var out []byte
	if bits&(1<<0) != 0 {
		out = append(out, 'A')
	}
	if bits&(1<<1) != 0 {
		out = append(out, 'C')
	}
	if bits&(1<<2) != 0 {
		out = append(out, 'G')
	}
	if bits&(1<<3) != 0 {
		out = append(out, 'T')
	}
	return out
}

// TranslateCodon translates a 3-nucleotide codon to a single residue,
// following §4.G's rules:
//
//   - all three gaps              -> AGap
//   - some (not all) gaps         -> AX
//   - canonical/ambiguous triplet -> the standard-table residue if every
//     resolution of the ambiguous bases agrees, else AX
func TranslateCodon(c0, c1, c2 Nucleotide) Aminoacid {
	gaps := 0
	for _, c := range [3]Nucleotide{c0, c1, c2} {
		if c.IsGap() {
			gaps++
		}
	}
	if gaps == 3 {
		return AGap
	}
	if gaps > 0 {
		return AX
	}

	bases0 := canonicalBases(c0)
	bases1 := canonicalBases(c1)
	bases2 := canonicalBases(c2)
	if len(bases0) == 0 || len(bases1) == 0 || len(bases2) == 0 {
		return AX
	}

	var resolved Aminoacid
	first := true
	for _, b0 := range bases0 {
		for _, b1 := range bases1 {
			for _, b2 := range bases2 {
				aa, ok := standardCodonTable[[3]byte{b0, b1, b2}]
				if !ok {
					return AX
				}
				if first {
					resolved = aa
					first = false
				} else if aa != resolved {
					return AX
				}
			}
		}
	}
	return resolved
}
