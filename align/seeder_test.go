package align

import (
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimmedBounds(t *testing.T) {
	begin, end := trimmedBounds([]byte("NNNACGTNNN"))
	assert.Equal(t, 3, begin)
	assert.Equal(t, 7, end)

	begin, end = trimmedBounds([]byte("NNNNNN"))
	assert.Equal(t, 6, begin)
	assert.Equal(t, 6, end)

	begin, end = trimmedBounds([]byte("ACGT"))
	assert.Equal(t, 0, begin)
	assert.Equal(t, 4, end)
}

func TestSeedPositionsEvenlySpaced(t *testing.T) {
	positions := seedPositions(5, 100, 10)
	require.Len(t, positions, 5)
	assert.Equal(t, 0, positions[0])
	assert.Equal(t, 90, positions[4])
	for i := 1; i < len(positions); i++ {
		assert.GreaterOrEqual(t, positions[i], positions[i-1])
	}
}

func TestSeedPositionsSingleSeedIsCentered(t *testing.T) {
	positions := seedPositions(1, 100, 10)
	require.Len(t, positions, 1)
	assert.Equal(t, 45, positions[0])
}

func TestFindBestMatchExactHit(t *testing.T) {
	query := []byte("TTTTACGTACGTTTTT")
	seed := []byte("ACGTACGT")
	pos, mismatches, found := findBestMatch(seed, query, 0, len(query), 4, 0)
	require.True(t, found)
	assert.Equal(t, 4, pos)
	assert.Equal(t, 0, mismatches)
}

func TestFindBestMatchPrefersFewerMismatches(t *testing.T) {
	seed := []byte("AAAA")
	query := []byte("AAAT" + "AAAA") // window 0 has 1 mismatch, window 4 is exact
	pos, mismatches, found := findBestMatch(seed, query, 0, len(query), 0, 3)
	require.True(t, found)
	assert.Equal(t, 4, pos)
	assert.Equal(t, 0, mismatches)
}

func TestFindSeedsIdentitySequenceProducesFullAnchorSet(t *testing.T) {
	ref := make([]byte, 1000)
	for i := range ref {
		ref[i] = "ACGT"[i%4]
	}
	result := FindSeeds(ref, ref, DefaultSeedParams())
	assert.False(t, result.Fallback)
	assert.GreaterOrEqual(t, len(result.Anchors), DefaultSeedParams().MinSeeds)
	for _, a := range result.Anchors {
		assert.Equal(t, a.RefPos, a.QueryPos)
	}
}

func TestFindSeedsFallsBackWhenRefShorterThanSeed(t *testing.T) {
	result := FindSeeds([]byte("ACGT"), []byte("ACGT"), DefaultSeedParams())
	assert.True(t, result.Fallback)
}

func TestFindSeedsFallsBackWhenQueryAllN(t *testing.T) {
	ref := make([]byte, 200)
	for i := range ref {
		ref[i] = "ACGT"[i%4]
	}
	query := make([]byte, 200)
	for i := range query {
		query[i] = 'N'
	}
	result := FindSeeds(ref, query, DefaultSeedParams())
	assert.True(t, result.Fallback)
}

// Cross-validates the seeder's Hamming-distance acceptance test against an
// independent edit-distance implementation: a query window within the
// accepted mismatch budget of a seed must also be within the same budget
// under Levenshtein distance for substitution-only edits (no indels in the
// window), confirming the Hamming shortcut was not dropping real matches.
func TestFindBestMatchAgreesWithIndependentDistanceMetric(t *testing.T) {
	seed := []byte("ACGTACGTACGTACGTACGT")
	window := []byte("ACGTACGAACGTACGTACGT") // one substitution
	dist := matchr.Levenshtein(string(seed), string(window))
	assert.Equal(t, 1, dist)

	pos, mismatches, found := findBestMatch(seed, window, 0, len(window), 0, 3)
	require.True(t, found)
	assert.Equal(t, 0, pos)
	assert.Equal(t, dist, mismatches)
}
