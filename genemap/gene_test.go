package genemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneValidate(t *testing.T) {
	g := Gene{Name: "ORF1a", Start: 0, End: 300, Frame: 0}
	assert.NoError(t, g.Validate())

	bad := Gene{Name: "bad", Start: 300, End: 300}
	assert.Error(t, bad.Validate())

	badFrame := Gene{Name: "badframe", Start: 0, End: 10, Frame: 3}
	assert.Error(t, badFrame.Validate())
}

func TestGeneWellFormed(t *testing.T) {
	assert.True(t, Gene{Start: 0, End: 300}.WellFormed())
	assert.False(t, Gene{Start: 0, End: 301}.WellFormed())
}

func TestGeneMapPreservesFirstSeenOrder(t *testing.T) {
	m := New()
	m.Add(Gene{Name: "S", Start: 0, End: 300})
	m.Add(Gene{Name: "ORF1a", Start: 300, End: 900})
	m.Add(Gene{Name: "S", Start: 0, End: 303}) // replace, order unchanged

	assert.Equal(t, []string{"S", "ORF1a"}, m.Names())
	assert.Equal(t, 2, m.Len())

	g, ok := m.Get("S")
	assert.True(t, ok)
	assert.Equal(t, 303, g.End)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestGeneMapGenesMatchesNamesOrder(t *testing.T) {
	m := New()
	m.Add(Gene{Name: "b", Start: 0, End: 3})
	m.Add(Gene{Name: "a", Start: 3, End: 6})

	genes := m.Genes()
	assert.Len(t, genes, 2)
	assert.Equal(t, "b", genes[0].Name)
	assert.Equal(t, "a", genes[1].Name)
}
