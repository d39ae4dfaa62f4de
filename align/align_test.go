package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() (SeedParams, ScoreParams) {
	sp := SeedParams{SeedLength: 4, MinSeeds: 1, SeedSpacing: 3, MismatchesAllowed: 0}
	cp := DefaultScoreParams()
	cp.BandWidth = 10
	return sp, cp
}

// Scenario 1 (§8): identical sequences align with no gaps.
func TestAlignIdentity(t *testing.T) {
	seedParams, scoreParams := testParams()
	ref := []byte("ACGCTCGCTACGT")
	result := Align(ref, ref, seedParams, scoreParams)
	require.NotNil(t, result.RefAligned)
	assert.Equal(t, string(ref), string(result.RefAligned))
	assert.Equal(t, string(ref), string(result.QueryAligned))
}

// Scenario 2 (§8): query is missing its 5' end; the alignment pads the
// query with leading gaps rather than reporting leading mismatches.
func TestAlignMissingLeft(t *testing.T) {
	seedParams, scoreParams := testParams()
	ref := []byte("ACGCTCGCT")
	query := []byte("CTCGCT")
	result := Align(ref, query, seedParams, scoreParams)
	require.NotNil(t, result.RefAligned)
	assert.Equal(t, "ACGCTCGCT", string(result.RefAligned))
	assert.Equal(t, "---CTCGCT", string(result.QueryAligned))
}

// Scenario 3 (§8): query is missing its 3' end.
func TestAlignMissingRight(t *testing.T) {
	seedParams, scoreParams := testParams()
	ref := []byte("ACGCTCGCT")
	query := []byte("ACGCTC")
	result := Align(ref, query, seedParams, scoreParams)
	require.NotNil(t, result.RefAligned)
	assert.Equal(t, "ACGCTCGCT", string(result.RefAligned))
	assert.Equal(t, "ACGCTC---", string(result.QueryAligned))
}

// Scenario 4 (§8): query is a strict interior substring of ref.
func TestAlignQueryInsideRef(t *testing.T) {
	seedParams, scoreParams := testParams()
	ref := []byte("GCCACGCTCGCT")
	query := []byte("ACGCTC")
	result := Align(ref, query, seedParams, scoreParams)
	require.NotNil(t, result.RefAligned)
	assert.Equal(t, "GCCACGCTCGCT", string(result.RefAligned))
	assert.Equal(t, "---ACGCTC---", string(result.QueryAligned))
}

// A query with an internal deletion relative to ref should align with an
// internal gap run in the query rather than scattering mismatches.
func TestAlignInternalDeletion(t *testing.T) {
	seedParams, scoreParams := testParams()
	ref := []byte("AAAACCCCGGGGTTTTAAAACCCC")
	query := []byte("AAAACCCCTTTTAAAACCCC") // GGGG deleted
	result := Align(ref, query, seedParams, scoreParams)
	require.NotNil(t, result.RefAligned)
	assert.Equal(t, string(ref), string(result.RefAligned))
	assert.Equal(t, "AAAACCCC----TTTTAAAACCCC", string(result.QueryAligned))
}

func TestAlignFallsBackWhenTooShortToSeed(t *testing.T) {
	seedParams := DefaultSeedParams()
	scoreParams := DefaultScoreParams()
	ref := []byte("ACGTACGTAC")
	query := []byte("ACGTACGTAC")
	result := Align(ref, query, seedParams, scoreParams)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, string(ref), string(result.RefAligned))
	assert.Equal(t, string(query), string(result.QueryAligned))
}
