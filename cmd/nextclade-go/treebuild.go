package main

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/grailbio/nextclade-go/encoding/auspice"
	"github.com/grailbio/nextclade-go/tree"
)

// Auspice key names for the per-node branch mutation and clade annotations
// this CLI understands (the Nextstrain Auspice v2 schema convention: a
// node's own mutations live under branch_attrs.mutations.nuc as
// "<refNt><1-based pos><queryNt>" strings, and its clade label under
// node_attrs.clade_membership.value).
const (
	keyBranchAttrs = "branch_attrs"
	keyMutations   = "mutations"
	keyNuc         = "nuc"
	keyNodeAttrs   = "node_attrs"
	keyClade       = "clade_membership"
	keyValue       = "value"
)

// parseNucMutation parses one "<ref><pos><query>" token, e.g. "C241T", into
// a 0-based position and the query-side nucleotide letter.
func parseNucMutation(token string) (pos int, letter byte, err error) {
	if len(token) < 3 {
		return 0, 0, errors.Errorf("malformed branch mutation %q", token)
	}
	digits := token[1 : len(token)-1]
	p, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed branch mutation %q", token)
	}
	return p - 1, token[len(token)-1], nil
}

// branchMutations extracts a node's own branch_attrs.mutations.nuc entries.
func branchMutations(n *auspice.Node) (map[int]byte, error) {
	muts := make(map[int]byte)
	branchAttrs, ok := n.Extra.Get(keyBranchAttrs)
	if !ok || branchAttrs.Kind != auspice.KindObject {
		return muts, nil
	}
	mutations, ok := branchAttrs.Object.Get(keyMutations)
	if !ok || mutations.Kind != auspice.KindObject {
		return muts, nil
	}
	nuc, ok := mutations.Object.Get(keyNuc)
	if !ok || nuc.Kind != auspice.KindArray {
		return muts, nil
	}
	for _, v := range nuc.Array {
		if v.Kind != auspice.KindString {
			continue
		}
		pos, letter, err := parseNucMutation(v.String)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", n.Name)
		}
		muts[pos] = letter
	}
	return muts, nil
}

// nodeClade extracts a node's node_attrs.clade_membership.value, the clade
// label this node's descendants inherit until overridden.
func nodeClade(n *auspice.Node) string {
	nodeAttrs, ok := n.Extra.Get(keyNodeAttrs)
	if !ok || nodeAttrs.Kind != auspice.KindObject {
		return ""
	}
	clade, ok := nodeAttrs.Object.Get(keyClade)
	if !ok || clade.Kind != auspice.KindObject {
		return ""
	}
	value, ok := clade.Object.Get(keyValue)
	if !ok || value.Kind != auspice.KindString {
		return ""
	}
	return value.String
}

// arenaIndex maps back from an auspice.Node to the tree.NodeID it became
// during buildArenaIndexed, so --output-tree can re-locate a node after the
// fact without re-walking the arena alongside the Auspice tree a second
// time.
type arenaIndex struct {
	ids map[*auspice.Node]tree.NodeID
}

func (a *arenaIndex) nodeID(n *auspice.Node) (int, bool) {
	id, ok := a.ids[n]
	return int(id), ok
}

// buildArenaIndexed flattens a parsed Auspice tree into the tree package's
// index-addressed Arena, inheriting the parent's clade label when a node
// carries none of its own, and records each Auspice node's resulting
// NodeID in the returned index.
func buildArenaIndexed(t *auspice.Tree) (*tree.Arena, *arenaIndex, error) {
	arena := tree.NewArena()
	index := &arenaIndex{ids: make(map[*auspice.Node]tree.NodeID)}

	var build func(n *auspice.Node, parent tree.NodeID, hasParent bool, inheritedClade string) error
	build = func(n *auspice.Node, parent tree.NodeID, hasParent bool, inheritedClade string) error {
		muts, err := branchMutations(n)
		if err != nil {
			return err
		}
		clade := nodeClade(n)
		if clade == "" {
			clade = inheritedClade
		}
		id := arena.AddNode(parent, hasParent, clade, muts)
		index.ids[n] = id
		for _, child := range n.Children {
			if err := build(child, id, true, clade); err != nil {
				return err
			}
		}
		return nil
	}

	if err := build(t.Root, 0, false, ""); err != nil {
		return nil, nil, errors.Wrap(err, "build clade tree")
	}
	arena.Preprocess()
	return arena, index, nil
}
