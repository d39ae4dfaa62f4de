// Package align implements the seed-and-extend nucleotide pairwise aligner
// (components D and E of the specification): an anchor seeder that picks
// evenly spaced k-mers from the reference and locates them in the query,
// followed by a banded Gotoh affine-gap global aligner restricted to the
// stripe the anchors define.
//
// The seeder's k-mer-window matching style is grounded on
// ndaniels-MICA/compress/align.go's alignUngapped (scan for exact k-mer
// matches, track mismatches in a window, accept/reject by a coverage
// threshold); the DP/traceback structure in band.go is grounded on
// ndaniels-MICA/compress/nw.go and the reference Needleman-Wunsch
// implementation in other_examples, generalized to a banded, affine-gap,
// three-matrix Gotoh recurrence per §4.E.
package align

import "github.com/dgryski/go-farm"

// SeedParams controls anchor selection (§4.D). Field names follow the
// defaults named in the spec.
type SeedParams struct {
	SeedLength        int
	MinSeeds          int
	SeedSpacing       int
	MismatchesAllowed int
}

// DefaultSeedParams returns the §4.D default parameters.
func DefaultSeedParams() SeedParams {
	return SeedParams{
		SeedLength:        21,
		MinSeeds:          10,
		SeedSpacing:       100,
		MismatchesAllowed: 3,
	}
}

// Anchor is one accepted (reference, query) seed match.
type Anchor struct {
	RefPos   int
	QueryPos int
}

// SeedResult is the outcome of seeding: the accepted anchors, and whether
// seeding fell back to full-matrix alignment because too few seeds were
// found.
type SeedResult struct {
	Anchors  []Anchor
	Fallback bool
}

// trimmedBounds returns the half-open range of query that excludes leading
// and trailing runs of 'N' (§4.D step 1).
func trimmedBounds(query []byte) (begin, end int) {
	begin = 0
	for begin < len(query) && (query[begin] == 'N' || query[begin] == 'n') {
		begin++
	}
	end = len(query)
	for end > begin && (query[end-1] == 'N' || query[end-1] == 'n') {
		end--
	}
	return begin, end
}

// seedPositions returns n evenly spaced reference start positions such
// that every seed of length seedLength fits within [0, refLen).
func seedPositions(n, refLen, seedLength int) []int {
	maxStart := refLen - seedLength
	if maxStart < 0 {
		maxStart = 0
	}
	positions := make([]int, n)
	if n == 1 {
		positions[0] = maxStart / 2
		return positions
	}
	for i := 0; i < n; i++ {
		positions[i] = i * maxStart / (n - 1)
	}
	return positions
}

// hamming returns the number of mismatching positions between a and b,
// which must have the same length.
func hamming(a, b []byte) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// kmerHash returns a FarmHash64 digest of b, used to cheaply fingerprint
// candidate windows before falling back to a full Hamming comparison; this
// mirrors the teacher's use of farmhash for k-mer fingerprints in
// fusion/kmer_index.go.
func kmerHash(b []byte) uint64 {
	return farm.Hash64(b)
}

// findBestMatch searches query for the window of length seedLength within
// [lo, hi) that has the fewest Hamming mismatches against seed, breaking
// ties by smallest deviation from expected, then by smallest query offset.
func findBestMatch(seed, query []byte, lo, hi, expected, mismatchesAllowed int) (pos, mismatches int, found bool) {
	seedLength := len(seed)
	seedSig := kmerHash(seed)
	bestMismatches := mismatchesAllowed + 1
	bestDeviation := -1
	bestPos := -1
	for j := lo; j+seedLength <= hi; j++ {
		window := query[j : j+seedLength]
		var m int
		if kmerHash(window) == seedSig {
			m = 0
		} else {
			m = hamming(seed, window)
		}
		if m > mismatchesAllowed {
			continue
		}
		deviation := j - expected
		if deviation < 0 {
			deviation = -deviation
		}
		better := bestPos == -1
		if !better {
			if m < bestMismatches {
				better = true
			} else if m == bestMismatches {
				if deviation < bestDeviation {
					better = true
				} else if deviation == bestDeviation && j < bestPos {
					better = true
				}
			}
		}
		if better {
			bestMismatches = m
			bestDeviation = deviation
			bestPos = j
		}
	}
	if bestPos == -1 {
		return 0, 0, false
	}
	return bestPos, bestMismatches, true
}

// FindSeeds implements §4.D: it returns accepted (ref, query) anchor pairs
// sorted by reference position. If fewer than MinSeeds succeed, Fallback is
// set and the caller should align the full matrix instead of trusting the
// (possibly sparse, unreliable) anchor set.
func FindSeeds(ref, query []byte, p SeedParams) SeedResult {
	begin, end := trimmedBounds(query)
	trimmedLen := end - begin
	if trimmedLen <= 0 || len(ref) < p.SeedLength {
		return SeedResult{Fallback: true}
	}

	nSeeds := trimmedLen / p.SeedSpacing
	if nSeeds < p.MinSeeds {
		nSeeds = p.MinSeeds
	}
	if nSeeds < 1 {
		nSeeds = 1
	}

	refPositions := seedPositions(nSeeds, len(ref), p.SeedLength)

	var anchors []Anchor
	for _, i := range refPositions {
		if i+p.SeedLength > len(ref) {
			continue
		}
		seed := ref[i : i+p.SeedLength]

		// Expected query offset under a uniform proportional mapping of
		// the trimmed query onto the reference.
		expected := begin
		if len(ref) > 0 {
			expected = begin + i*trimmedLen/len(ref)
		}
		window := i - expected // window radius proportional to |i - expected offset|
		if window < 0 {
			window = -window
		}
		if window < p.SeedSpacing {
			window = p.SeedSpacing
		}
		lo := expected - window
		if lo < begin {
			lo = begin
		}
		hi := expected + window + p.SeedLength
		if hi > end {
			hi = end
		}

		pos, mismatches, found := findBestMatch(seed, query, lo, hi, expected, p.MismatchesAllowed)
		if !found || mismatches > p.MismatchesAllowed {
			continue
		}
		anchors = append(anchors, Anchor{RefPos: i, QueryPos: pos})
	}

	if len(anchors) < p.MinSeeds {
		return SeedResult{Anchors: anchors, Fallback: true}
	}
	return SeedResult{Anchors: anchors}
}
