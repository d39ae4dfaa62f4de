package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nextclade-go/seq"
)

// buildSampleTree builds:
//
//	root (clade "19A")
//	  +-- A (clade "20A", mutation 100:'T')
//	        +-- B (clade "20B", mutation 200:'G')
//	  +-- C (clade "19B", mutation 300:'C')
func buildSampleTree() *Arena {
	a := NewArena()
	root := a.AddNode(0, false, "19A", nil)
	nodeA := a.AddNode(root, true, "20A", map[int]byte{100: 'T'})
	a.AddNode(nodeA, true, "20B", map[int]byte{200: 'G'})
	a.AddNode(root, true, "19B", map[int]byte{300: 'C'})
	a.Preprocess()
	return a
}

func TestPreprocessAccumulatesMutations(t *testing.T) {
	a := buildSampleTree()
	assert.Equal(t, map[int]byte{}, a.Nodes[0].Mutations)
	assert.Equal(t, map[int]byte{100: 'T'}, a.Nodes[1].Mutations)
	assert.Equal(t, map[int]byte{100: 'T', 200: 'G'}, a.Nodes[2].Mutations)
	assert.Equal(t, map[int]byte{300: 'C'}, a.Nodes[3].Mutations)
	assert.Equal(t, 0, a.Nodes[0].Depth)
	assert.Equal(t, 2, a.Nodes[2].Depth)
}

func TestAssignPicksExactMatch(t *testing.T) {
	a := buildSampleTree()
	query := map[int]byte{100: 'T', 200: 'G'}
	got := Assign(a, query, nil)
	assert.Equal(t, NodeID(2), got.NodeID)
	assert.Equal(t, "20B", got.Clade)
	assert.Equal(t, 0, got.Distance)
	assert.Empty(t, got.PrivateMutations)
}

func TestAssignComputesPrivateMutations(t *testing.T) {
	a := buildSampleTree()
	query := map[int]byte{100: 'T', 999: 'A'} // 999 not on any tree path
	got := Assign(a, query, nil)
	assert.Equal(t, NodeID(1), got.NodeID) // matches node A exactly save for the private mutation
	require.Contains(t, got.PrivateMutations, 999)
	assert.Equal(t, byte('A'), got.PrivateMutations[999])
}

func TestAssignExcludesMissingPositionsFromDistance(t *testing.T) {
	a := buildSampleTree()
	query := map[int]byte{100: 'T', 200: 'C'} // disagrees with node B at 200
	missing := []seq.Range{seq.NewRange(200, 201)}
	got := Assign(a, query, missing)
	// With 200 excluded, node B (100:T,200:G) and query (100:T) agree fully.
	assert.Equal(t, NodeID(2), got.NodeID)
	assert.Equal(t, 0, got.Distance)
}

func TestAssignTieBreaksOnDepthThenID(t *testing.T) {
	a := NewArena()
	root := a.AddNode(0, false, "root", nil)
	a.AddNode(root, true, "child1", nil) // no mutations, same distance as root
	a.Preprocess()
	got := Assign(a, map[int]byte{}, nil)
	// Root and child1 both have distance 0; deeper node (child1) should win.
	assert.Equal(t, NodeID(1), got.NodeID)
}
