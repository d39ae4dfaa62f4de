// Package util collects the small arithmetic helpers shared across the
// pipeline: modular wraparound, safe integer casts, and span views. These
// mirror the role of the teacher's util package (github.com/grailbio/bio/util),
// which held similarly small cross-cutting helpers (there: Levenshtein
// distance over barcodes; here: the coordinate arithmetic the aligner,
// mutation reporter, and translator all need).
package util

import "github.com/pkg/errors"

// Wraparound returns x modulo p, folded into [0, p). p must be positive.
func Wraparound(x, p int) int {
	if p <= 0 {
		panic("util.Wraparound: p must be positive")
	}
	m := x % p
	if m < 0 {
		m += p
	}
	return m
}

// SafeIntFromInt64 checks that v fits in an int without truncation.
func SafeIntFromInt64(v int64) (int, error) {
	r := int(v)
	if int64(r) != v {
		return 0, errors.Errorf("util: %d does not fit in an int", v)
	}
	return r, nil
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns the absolute value of x.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Min returns the smaller of a and b.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Span is a read-only view into a byte slice, used to pass alignment
// sub-sequences around without copying.
type Span struct {
	data  []byte
	Begin int
	End   int
}

// NewSpan returns a Span over data[begin:end].
func NewSpan(data []byte, begin, end int) Span {
	return Span{data: data, Begin: begin, End: end}
}

// Bytes returns the viewed slice.
func (s Span) Bytes() []byte { return s.data[s.Begin:s.End] }

// Len returns the number of bytes in the span.
func (s Span) Len() int { return s.End - s.Begin }
