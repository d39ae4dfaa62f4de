package resultio

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nextclade-go/analysis"
	"github.com/grailbio/nextclade-go/genemap"
	"github.com/grailbio/nextclade-go/mutation"
	"github.com/grailbio/nextclade-go/pipeline"
	"github.com/grailbio/nextclade-go/qc"
	"github.com/grailbio/nextclade-go/translate"
)

func testGeneMap() *genemap.GeneMap {
	gm := genemap.New()
	gm.Add(genemap.Gene{Name: "orf", Start: 0, End: 27, Strand: genemap.Forward, Frame: 0})
	return gm
}

// translateIdentity translates ref against itself, as the gene's peptide
// when the query matches the reference exactly.
func translateIdentity(t *testing.T, ref []byte) translate.Peptide {
	t.Helper()
	p, err := translate.Translate("orf", ref, ref)
	require.NoError(t, err)
	return p
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

func TestWriterEmitsAlignedFastaInsertionsAndGeneFasta(t *testing.T) {
	ref := []byte("ACGAGGGCGAATTCGCTCGCTACAGAA")
	var alignedBuf, insBuf, errBuf, geneBuf bytes.Buffer

	w, err := NewWriter(Config{
		AlignedFasta: &alignedBuf,
		Insertions:   &insBuf,
		Errors:       &errBuf,
		GeneFasta:    map[string]io.Writer{"orf": &geneBuf},
		Reference:    ref,
		GeneMap:      testGeneMap(),
	})
	require.NoError(t, err)

	result := analysis.Result{
		Name:         "seq1",
		QueryAligned: ref,
		Mutation: mutation.Analysis{
			Insertions: []mutation.NucleotideInsertion{{Pos: 5, Inserted: []byte("AAA")}},
		},
		QC: qc.Result{Status: qc.StatusGood},
		Peptides: []analysis.GenePeptide{{
			Gene:    genemap.Gene{Name: "orf", Start: 0, End: 27},
			Peptide: translateIdentity(t, ref),
		}},
	}

	require.NoError(t, w.Emit(pipeline.Output{Index: 0, Name: "seq1", Result: result}))
	require.NoError(t, w.Emit(pipeline.Output{Index: 1, Name: "bad-seq", HasError: true, Error: fakeError("boom")}))
	require.NoError(t, w.Close())

	assert.Contains(t, alignedBuf.String(), ">seq1\n"+string(ref)+"\n")
	assert.Contains(t, insBuf.String(), "seq1,5:AAA")
	assert.Contains(t, errBuf.String(), "bad-seq,boom")
	assert.True(t, strings.HasPrefix(geneBuf.String(), ">Reference\n"))
	assert.Contains(t, geneBuf.String(), ">seq1\n")
}

func TestWriterWritesJSONSchemaVersionAndStatus(t *testing.T) {
	var jsonBuf bytes.Buffer
	w, err := NewWriter(Config{JSON: &jsonBuf})
	require.NoError(t, err)

	result := analysis.Result{Name: "seq1", Clade: "19A", QC: qc.Result{Status: qc.StatusMediocre, Score: 42}}
	require.NoError(t, w.Emit(pipeline.Output{Index: 0, Name: "seq1", Result: result}))
	require.NoError(t, w.Close())

	body := jsonBuf.String()
	assert.Contains(t, body, SchemaVersion)
	assert.Contains(t, body, "19A")
	assert.Contains(t, body, "mediocre")
}

func TestWriterJSONSummaryAveragesQCScores(t *testing.T) {
	var jsonBuf bytes.Buffer
	w, err := NewWriter(Config{JSON: &jsonBuf})
	require.NoError(t, err)

	require.NoError(t, w.Emit(pipeline.Output{Index: 0, Name: "seq1", Result: analysis.Result{Name: "seq1", QC: qc.Result{Score: 10}}}))
	require.NoError(t, w.Emit(pipeline.Output{Index: 1, Name: "seq2", Result: analysis.Result{Name: "seq2", QC: qc.Result{Score: 30}}}))
	require.NoError(t, w.Close())

	var doc resultsDocument
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Summary.Count)
	assert.InDelta(t, 20.0, doc.Summary.MeanQCScore, 1e-9)
}

func TestWriterDedupesReferencePeptideAcrossItems(t *testing.T) {
	ref := []byte("ACGAGGGCGAATTCGCTCGCTACAGAA")
	var geneBuf bytes.Buffer
	w, err := NewWriter(Config{
		GeneFasta: map[string]io.Writer{"orf": &geneBuf},
		Reference: ref,
		GeneMap:   testGeneMap(),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result := analysis.Result{
			Name: "seq",
			Peptides: []analysis.GenePeptide{{
				Gene:    genemap.Gene{Name: "orf", Start: 0, End: 27},
				Peptide: translateIdentity(t, ref),
			}},
		}
		require.NoError(t, w.Emit(pipeline.Output{Index: i, Name: "seq", Result: result}))
	}
	require.NoError(t, w.Close())

	assert.Equal(t, 1, strings.Count(geneBuf.String(), "Reference"))
}
