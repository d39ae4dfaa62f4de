// Package tree implements the reference-tree clade assigner (component I,
// §4.I): the input tree is preprocessed once into a flat, index-addressed
// arena with cumulative per-node genotype maps, then each query is matched
// to its nearest node by genotype distance.
//
// The flat arena keyed by an integer NodeID, with child lists stored as
// index slices rather than pointers, is the DESIGN NOTES' "cycle-free tree
// <-> arena + indices" migration, modelled directly on
// grailbio-bio/fusion/gene_db.go's GeneID-indexed table.
package tree

import "github.com/grailbio/nextclade-go/seq"

// NodeID indexes a node within an Arena. The zero value is the arena's
// root.
type NodeID int

// Node is one tree node. BranchMutations is the raw input (this node's own
// mutations relative to its parent); Mutations is filled in by Preprocess
// as the cumulative genotype relative to the reference.
type Node struct {
	ID              NodeID
	ParentID        NodeID
	HasParent       bool
	Children        []NodeID
	Depth           int
	Clade           string
	BranchMutations map[int]byte
	Mutations       map[int]byte
}

// Arena is the flat, index-addressed tree.
type Arena struct {
	Nodes []Node
	Root  NodeID
}

// NewArena returns an empty arena whose root will be node 0.
func NewArena() *Arena {
	return &Arena{Root: 0}
}

// AddNode appends a new node and returns its ID. parent must already exist
// in the arena, or hasParent must be false (exactly one root is expected).
func (a *Arena) AddNode(parent NodeID, hasParent bool, clade string, branchMutations map[int]byte) NodeID {
	id := NodeID(len(a.Nodes))
	a.Nodes = append(a.Nodes, Node{
		ID:              id,
		ParentID:        parent,
		HasParent:       hasParent,
		Clade:           clade,
		BranchMutations: branchMutations,
	})
	if hasParent {
		a.Nodes[parent].Children = append(a.Nodes[parent].Children, id)
	}
	return id
}

// Preprocess implements §4.I's preprocessing pass: a depth-first walk from
// the root that accumulates each node's cumulative position->letter
// genotype map by copying the parent's map and applying the node's own
// branch mutations on top.
func (a *Arena) Preprocess() {
	if len(a.Nodes) == 0 {
		return
	}
	var walk func(id NodeID, parentMutations map[int]byte, depth int)
	walk = func(id NodeID, parentMutations map[int]byte, depth int) {
		n := &a.Nodes[id]
		n.Depth = depth
		merged := make(map[int]byte, len(parentMutations)+len(n.BranchMutations))
		for k, v := range parentMutations {
			merged[k] = v
		}
		for k, v := range n.BranchMutations {
			merged[k] = v
		}
		n.Mutations = merged
		for _, child := range n.Children {
			walk(child, merged, depth+1)
		}
	}
	walk(a.Root, nil, 0)
}

// inMissing reports whether pos falls inside any of the given missing
// ranges.
func inMissing(pos int, missing []seq.Range) bool {
	for _, r := range missing {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// distance implements §4.I's per-node distance: the number of positions,
// among those the query observed (not in a missing range), where the
// node's cumulative genotype disagrees with the query's.
func distance(nodeMutations, querySubs map[int]byte, missing []seq.Range) int {
	d := 0
	seen := make(map[int]bool, len(nodeMutations)+len(querySubs))
	for pos, nodeLetter := range nodeMutations {
		if inMissing(pos, missing) {
			continue
		}
		seen[pos] = true
		if queryLetter, ok := querySubs[pos]; !ok || queryLetter != nodeLetter {
			d++
		}
	}
	for pos := range querySubs {
		if seen[pos] || inMissing(pos, missing) {
			continue
		}
		// Node has no mutation at pos (implying the node matches the
		// reference there) but the query does: disagreement.
		d++
	}
	return d
}

// Assignment is the outcome of matching one query to the tree.
type Assignment struct {
	NodeID           NodeID
	Clade            string
	Distance         int
	PrivateMutations map[int]byte
}

// Assign implements §4.I's per-query matching: the minimum-distance node
// wins; ties prefer the deeper node, then the smaller node id.
func Assign(a *Arena, querySubs map[int]byte, missing []seq.Range) Assignment {
	best := NodeID(-1)
	bestDist := -1
	bestDepth := -1
	for i := range a.Nodes {
		n := &a.Nodes[i]
		d := distance(n.Mutations, querySubs, missing)
		switch {
		case best == -1 || d < bestDist:
			best, bestDist, bestDepth = n.ID, d, n.Depth
		case d == bestDist && n.Depth > bestDepth:
			best, bestDist, bestDepth = n.ID, d, n.Depth
		case d == bestDist && n.Depth == bestDepth && n.ID < best:
			best, bestDist, bestDepth = n.ID, d, n.Depth
		}
	}
	if best == -1 {
		return Assignment{NodeID: -1}
	}
	node := a.Nodes[best]
	private := make(map[int]byte)
	for pos, letter := range querySubs {
		if inMissing(pos, missing) {
			continue
		}
		if nodeLetter, ok := node.Mutations[pos]; !ok || nodeLetter != letter {
			private[pos] = letter
		}
	}
	return Assignment{NodeID: best, Clade: node.Clade, Distance: bestDist, PrivateMutations: private}
}
