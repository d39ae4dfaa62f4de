package gff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nextclade-go/genemap"
)

const sampleGFF = `##gff-version 3
# comment row, skipped
NC_045512.2	RefSeq	CDS	266	13468	.	+	0	gene_name "ORF1a"
NC_045512.2	RefSeq	CDS	21563	25384	.	+	0	gene_name "S"
NC_045512.2	RefSeq	CDS	27394	27759	.	-	1	gene_name "ORF7a"
NC_045512.2	RefSeq	exon	266	13468	.	+	.	no gene here
`

func TestParseDecodesGenesAndSkipsCommentsAndUntaggedRows(t *testing.T) {
	gm, err := Parse(strings.NewReader(sampleGFF))
	require.NoError(t, err)
	require.Equal(t, []string{"ORF1a", "S", "ORF7a"}, gm.Names())

	orf1a, ok := gm.Get("ORF1a")
	require.True(t, ok)
	assert.Equal(t, 265, orf1a.Start)
	assert.Equal(t, 13468, orf1a.End)
	assert.Equal(t, genemap.Forward, orf1a.Strand)
	assert.Equal(t, 0, orf1a.Frame)

	orf7a, ok := gm.Get("ORF7a")
	require.True(t, ok)
	assert.Equal(t, genemap.Reverse, orf7a.Strand)
	assert.Equal(t, 0, orf7a.Frame) // file frame "1" is 1-based
}

func TestParseRejectsEmptyGeneMap(t *testing.T) {
	_, err := Parse(strings.NewReader("##gff-version 3\n# nothing but comments\n"))
	assert.Error(t, err)
}

func TestParseRejectsMalformedCoordinate(t *testing.T) {
	bad := "NC_045512.2\tRefSeq\tCDS\tnotanumber\t100\t.\t+\t0\tgene_name \"X\"\n"
	_, err := Parse(strings.NewReader(bad))
	assert.Error(t, err)
}
