package tree

import "github.com/grailbio/nextclade-go/biopb"

// ToCached converts a preprocessed Arena into its wire form for storage in a
// dataset bundle. Preprocess must already have been called: Mutations maps
// are serialized as-is, not recomputed.
func ToCached(a *Arena, referenceChecksum uint64) *biopb.CachedArena {
	out := &biopb.CachedArena{
		Root:              int32(a.Root),
		ReferenceChecksum: referenceChecksum,
		Nodes:             make([]*biopb.CachedNode, len(a.Nodes)),
	}
	for i, n := range a.Nodes {
		children := make([]int32, len(n.Children))
		for j, c := range n.Children {
			children[j] = int32(c)
		}
		out.Nodes[i] = &biopb.CachedNode{
			Id:              int32(n.ID),
			ParentId:        int32(n.ParentID),
			HasParent:       n.HasParent,
			Depth:           int32(n.Depth),
			Clade:           n.Clade,
			Children:        children,
			BranchMutations: packMutations(n.BranchMutations),
			Mutations:       packMutations(n.Mutations),
		}
	}
	return out
}

// FromCached rebuilds an Arena from its wire form. The result is
// equivalent to building the same tree with AddNode and calling
// Preprocess, without re-running the DFS.
func FromCached(c *biopb.CachedArena) *Arena {
	a := &Arena{Root: NodeID(c.Root), Nodes: make([]Node, len(c.Nodes))}
	for i, n := range c.Nodes {
		children := make([]NodeID, len(n.Children))
		for j, childID := range n.Children {
			children[j] = NodeID(childID)
		}
		a.Nodes[i] = Node{
			ID:              NodeID(n.Id),
			ParentID:        NodeID(n.ParentId),
			HasParent:       n.HasParent,
			Depth:           int(n.Depth),
			Clade:           n.Clade,
			Children:        children,
			BranchMutations: unpackMutations(n.BranchMutations),
			Mutations:       unpackMutations(n.Mutations),
		}
	}
	return a
}

func packMutations(m map[int]byte) map[int32]uint32 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int32]uint32, len(m))
	for pos, letter := range m {
		out[int32(pos)] = uint32(letter)
	}
	return out
}

func unpackMutations(m map[int32]uint32) map[int]byte {
	out := make(map[int]byte, len(m))
	for pos, letter := range m {
		out[int(pos)] = byte(letter)
	}
	return out
}
