package align

import (
	"sort"

	"github.com/grailbio/nextclade-go/alphabet"
)

// ScoreParams controls the Gotoh affine-gap DP scoring (§4.E defaults).
type ScoreParams struct {
	Match          int
	Mismatch       int
	GapOpen        int
	GapExtend      int
	GapOpenInFrame int
	MaxIndel       int
	// BandWidth is the initial half-width of the DP stripe around the
	// seed-derived diagonal. It is doubled once on a failed first attempt
	// (§4.E "Failure").
	BandWidth int
}

// DefaultScoreParams returns the §4.E default scoring scheme.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		Match:          3,
		Mismatch:       -1,
		GapOpen:        -6,
		GapExtend:      0,
		GapOpenInFrame: -5,
		MaxIndel:       400,
		BandWidth:      30,
	}
}

func (sp ScoreParams) gapOpenAt(refPos int) int {
	if refPos%3 == 0 {
		return sp.GapOpenInFrame
	}
	return sp.GapOpen
}

// substitutionScore scores a ref/query base pair per the resolved Open
// Question on ambiguous-nucleotide matching (DESIGN.md): two IUPAC codes
// score a match when their possibility sets intersect, not only on byte
// equality, so e.g. R (A or G) scores as a match against A.
func (sp ScoreParams) substitutionScore(refBase, queryBase byte) int {
	r, rErr := alphabet.ParseNucleotide(refBase)
	q, qErr := alphabet.ParseNucleotide(queryBase)
	if rErr != nil || qErr != nil {
		if refBase == queryBase {
			return sp.Match
		}
		return sp.Mismatch
	}
	if alphabet.Matches(r, q) {
		return sp.Match
	}
	return sp.Mismatch
}

const negInf = -(1 << 30)

type traceState uint8

const (
	fromNone traceState = iota
	fromM
	fromIx
	fromIy
)

// row holds one DP row's three matrices, banded to [lo, hi].
type row struct {
	lo, hi int // inclusive query-column bounds covered by this row
	m      []int
	ix     []int
	iy     []int
	mFrom  []traceState
	ixFrom []traceState
	iyFrom []traceState
}

func newRow(lo, hi int) row {
	n := hi - lo + 1
	r := row{lo: lo, hi: hi, m: make([]int, n), ix: make([]int, n), iy: make([]int, n),
		mFrom: make([]traceState, n), ixFrom: make([]traceState, n), iyFrom: make([]traceState, n)}
	for k := 0; k < n; k++ {
		r.m[k], r.ix[k], r.iy[k] = negInf, negInf, negInf
	}
	return r
}

func (r row) has(j int) bool { return j >= r.lo && j <= r.hi }

func (r row) get(j int) (m, ix, iy int, ok bool) {
	if !r.has(j) {
		return negInf, negInf, negInf, false
	}
	k := j - r.lo
	return r.m[k], r.ix[k], r.iy[k], true
}

// centerFunc returns an expected-query-position-for-reference-position
// mapping derived from the seed anchors (linear interpolation between
// consecutive anchors, extrapolated at the ends), or a uniform proportional
// mapping when there are no anchors (the full-matrix fallback case).
func centerFunc(anchors []Anchor, refLen, queryLen int) func(int) int {
	if len(anchors) == 0 {
		return func(i int) int {
			if refLen == 0 {
				return 0
			}
			return i * queryLen / refLen
		}
	}
	sorted := append([]Anchor(nil), anchors...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].RefPos < sorted[b].RefPos })

	interp := func(a, b Anchor, i int) int {
		if b.RefPos == a.RefPos {
			return a.QueryPos
		}
		slope := float64(b.QueryPos-a.QueryPos) / float64(b.RefPos-a.RefPos)
		return a.QueryPos + int(float64(i-a.RefPos)*slope)
	}

	return func(i int) int {
		if len(sorted) == 1 {
			return sorted[0].QueryPos + (i - sorted[0].RefPos)
		}
		if i <= sorted[0].RefPos {
			return interp(sorted[0], sorted[1], i)
		}
		last := sorted[len(sorted)-1]
		if i >= last.RefPos {
			return interp(sorted[len(sorted)-2], last, i)
		}
		for k := 0; k+1 < len(sorted); k++ {
			a, b := sorted[k], sorted[k+1]
			if i >= a.RefPos && i <= b.RefPos {
				return interp(a, b, i)
			}
		}
		return sorted[0].QueryPos
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bandedAlign runs the banded Gotoh DP and traceback. ok is false when the
// optimal path cannot be recovered within the band (the band excluded
// (0,0), or the traceback implies an indel longer than MaxIndel) -- the
// caller should retry with a wider band.
func bandedAlign(ref, query []byte, center func(int) int, bandWidth int, sp ScoreParams) (refAln, queryAln []byte, score int, ok bool) {
	nRef, nQuery := len(ref), len(query)
	rows := make([]row, nRef+1)

	for i := 0; i <= nRef; i++ {
		c := center(i)
		lo := clamp(c-bandWidth, 0, nQuery)
		hi := clamp(c+bandWidth, 0, nQuery)
		if lo > hi {
			lo, hi = 0, nQuery
		}
		rows[i] = newRow(lo, hi)
	}
	// The global corners must always be reachable.
	if !rows[0].has(0) {
		return nil, nil, 0, false
	}
	rows[0].m[0-rows[0].lo] = 0

	for i := 0; i <= nRef; i++ {
		r := &rows[i]
		for j := r.lo; j <= r.hi; j++ {
			k := j - r.lo
			if i == 0 && j == 0 {
				continue
			}
			// M[i][j]: requires i>=1, j>=1.
			if i >= 1 && j >= 1 {
				pm, pix, piy, okPrev := rows[i-1].get(j - 1)
				if okPrev {
					sub := sp.substitutionScore(ref[i-1], query[j-1])
					best, from := pm, fromM
					if pix > best {
						best, from = pix, fromIx
					}
					if piy > best {
						best, from = piy, fromIy
					}
					if best > negInf {
						r.m[k] = best + sub
						r.mFrom[k] = from
					}
				}
			}
			// Ix[i][j]: gap in query, consumes ref[i-1]; requires i>=1.
			if i >= 1 {
				pm, pix, _, okPrev := rows[i-1].get(j)
				if okPrev {
					openScore := pm + sp.gapOpenAt(i - 1)
					extendScore := pix + sp.GapExtend
					if extendScore >= openScore && pix > negInf {
						r.ix[k] = extendScore
						r.ixFrom[k] = fromIx
					} else if pm > negInf {
						r.ix[k] = openScore
						r.ixFrom[k] = fromM
					}
				}
			}
			// Iy[i][j]: gap in ref, consumes query[j-1]; requires j>=1.
			if j >= 1 {
				pm, _, piy, okPrev := r.get(j - 1)
				if okPrev {
					openScore := pm + sp.gapOpenAt(i)
					extendScore := piy + sp.GapExtend
					if extendScore >= openScore && piy > negInf {
						r.iy[k] = extendScore
						r.iyFrom[k] = fromIy
					} else if pm > negInf {
						r.iy[k] = openScore
						r.iyFrom[k] = fromM
					}
				}
			}
		}
	}

	last := &rows[nRef]
	fm, fix, fiy, okLast := last.get(nQuery)
	if !okLast {
		return nil, nil, 0, false
	}
	score, state := fm, fromM
	if fix > score {
		score, state = fix, fromIx
	}
	if fiy > score {
		score, state = fiy, fromIy
	}
	if score <= negInf {
		return nil, nil, 0, false
	}

	// Traceback.
	i, j := nRef, nQuery
	var refOut, queryOut []byte
	runIndel := 0 // length of the indel run currently being traced
	for i > 0 || j > 0 {
		switch state {
		case fromM:
			refOut = append(refOut, ref[i-1])
			queryOut = append(queryOut, query[j-1])
			k := j - 1 - rows[i-1].lo
			state = rows[i-1].mFrom[k]
			i--
			j--
			runIndel = 0
		case fromIx:
			refOut = append(refOut, ref[i-1])
			queryOut = append(queryOut, '-')
			k := j - rows[i-1].lo
			state = rows[i-1].ixFrom[k]
			i--
			runIndel++
		case fromIy:
			refOut = append(refOut, '-')
			queryOut = append(queryOut, query[j-1])
			k := (j - 1) - rows[i].lo
			state = rows[i].iyFrom[k]
			j--
			runIndel++
		default:
			return nil, nil, 0, false
		}
		if runIndel > sp.MaxIndel {
			return nil, nil, 0, false
		}
	}

	reverse(refOut)
	reverse(queryOut)
	return refOut, queryOut, score, true
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
