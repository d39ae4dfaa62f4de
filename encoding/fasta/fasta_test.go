package fasta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderBasic(t *testing.T) {
	in := ">seq1\nACGT\nACGT\n>seq2\nTTTT\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].Index)
	assert.Equal(t, "seq1", recs[0].Name)
	assert.Equal(t, "ACGTACGT", string(recs[0].Seq))
	assert.Equal(t, 1, recs[1].Index)
	assert.Equal(t, "seq2", recs[1].Name)
	assert.Equal(t, "TTTT", string(recs[1].Seq))
}

func TestReaderSanitizesAndUppercases(t *testing.T) {
	in := ">x\nacgt123 n!@#.?*\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ACGTN.?*", string(recs[0].Seq))
}

func TestReaderEmptyNameBecomesUntitled(t *testing.T) {
	in := ">\nACGT\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Untitled", recs[0].Name)
}

func TestReaderPlainTextNoHeader(t *testing.T) {
	in := "ACGTACGT\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Untitled", recs[0].Name)
	assert.Equal(t, "ACGTACGT", string(recs[0].Seq))
}

// TestReaderDeduplication matches §8 scenario 7: two records named Hello
// and two named World, interleaved, produce stable 0..4 indices and names
// Hello, World, Foo, World (1), Hello (1), in input order.
func TestReaderDeduplication(t *testing.T) {
	in := ">Hello\nA\n>World\nA\n>Foo\nA\n>World\nA\n>Hello\nA\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 5)
	want := []string{"Hello", "World", "Foo", "World (1)", "Hello (1)"}
	for i, rec := range recs {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, want[i], rec.Name)
	}
}

func TestReaderHeaderWhitespaceTrimmed(t *testing.T) {
	in := ">  spaced name  \nACGT\n"
	recs, err := ReadAll(NewReader(strings.NewReader(in)))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "spaced name", recs[0].Name)
}
