package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nextclade-go/align"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/qc"
)

func baseOptions(ref []byte, gm *genemap.GeneMap) *Options {
	return &Options{
		Reference:   ref,
		GeneMap:     gm,
		SeedParams:  align.DefaultSeedParams(),
		ScoreParams: align.DefaultScoreParams(),
	}
}

// ref/gene are §8 scenario 5: "ACGAGGGCGAATTCGCTCGCTACAGAA" translates to
// "TRANSLATE".
func translateRef() []byte { return []byte("ACGAGGGCGAATTCGCTCGCTACAGAA") }

func TestAnalyzeIdentity(t *testing.T) {
	ref := translateRef()
	gm := genemap.New()
	gm.Add(genemap.Gene{Name: "orf", Start: 0, End: 27, Strand: genemap.Forward, Frame: 0})

	opts := baseOptions(ref, gm)
	result, warnings, err := Analyze("query", ref, opts)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, string(ref), string(result.QueryAligned))
	assert.Empty(t, result.Mutation.Substitutions)
	require.Len(t, result.Peptides, 1)
	assert.Equal(t, "TRANSLATE", result.Peptides[0].Peptide.QueryString())
}

func TestAnalyzeMissingLeftProducesMissingRangeAndQCScore(t *testing.T) {
	ref := []byte("ACGCTCGCTACGCTCGCTACGCTCGCT")
	gm := genemap.New()

	query := make([]byte, len(ref))
	copy(query, ref)
	for i := 0; i < 6; i++ {
		query[i] = 'N'
	}

	opts := baseOptions(ref, gm)
	opts.QC.MissingData = &qc.MissingDataConfig{Threshold: 3, ScoreBias: 0}

	result, _, err := Analyze("query", query, opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.Mutation.MissingRanges)
	assert.True(t, result.QC.MissingData.Score > 0)
}

func TestAnalyzeFailsWhenAlignmentFails(t *testing.T) {
	// A 10-base indel can never be represented when MaxIndel is 2, so both
	// the banded attempts and the full-matrix fallback must fail.
	ref := []byte("AAAACCCCGGGGGGGGGGTTTTAAAACCCC")
	query := []byte("AAAACCCCTTTTAAAACCCC")
	gm := genemap.New()
	opts := baseOptions(ref, gm)
	opts.SeedParams = align.SeedParams{SeedLength: 4, MinSeeds: 1, SeedSpacing: 3, MismatchesAllowed: 0}
	opts.ScoreParams.MaxIndel = 2
	_, _, err := Analyze("query", query, opts)
	require.Error(t, err)
}

func TestAnalyzeSkipsGeneOutsideAlignedRegionWithWarning(t *testing.T) {
	ref := translateRef()
	gm := genemap.New()
	// A gene past the end of the reference can never be extracted.
	gm.Add(genemap.Gene{Name: "ghost", Start: 100, End: 130, Strand: genemap.Forward, Frame: 0})

	opts := baseOptions(ref, gm)
	_, warnings, err := Analyze("query", ref, opts)
	require.Error(t, err) // the only gene failed, so the whole sequence errors
	assert.NotEmpty(t, warnings)
}
