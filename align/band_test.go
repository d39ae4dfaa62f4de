package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Pins the resolved Open Question: ambiguous IUPAC codes score as a match
// against any base their possibility set contains, not only on byte
// equality (DESIGN.md "Ambiguous-nucleotide match scoring").
func TestSubstitutionScoreAmbiguousMatch(t *testing.T) {
	sp := DefaultScoreParams()
	assert.Equal(t, sp.Match, sp.substitutionScore('A', 'R'))
	assert.Equal(t, sp.Match, sp.substitutionScore('G', 'R'))
	assert.Equal(t, sp.Mismatch, sp.substitutionScore('C', 'R'))
	assert.Equal(t, sp.Mismatch, sp.substitutionScore('T', 'R'))
}

func TestCenterFuncInterpolatesBetweenAnchors(t *testing.T) {
	anchors := []Anchor{{RefPos: 0, QueryPos: 0}, {RefPos: 10, QueryPos: 20}}
	center := centerFunc(anchors, 10, 20)
	assert.Equal(t, 0, center(0))
	assert.Equal(t, 20, center(10))
	assert.Equal(t, 10, center(5))
}

func TestCenterFuncProportionalFallback(t *testing.T) {
	center := centerFunc(nil, 100, 50)
	assert.Equal(t, 0, center(0))
	assert.Equal(t, 25, center(50))
	assert.Equal(t, 50, center(100))
}
