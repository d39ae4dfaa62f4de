// Package biopb holds the wire types exchanged with the dataset cache: the
// preprocessed tree arena (tree.Arena after tree.Preprocess) is expensive to
// rebuild on every run (a full DFS over a tree that can carry tens of
// thousands of nodes), so a dataset bundle may ship a precomputed copy
// alongside tree.json and reference.fasta. This file defines that cached
// representation.
//
// The struct layout and tag style (protobuf field tags, Reset/String/
// ProtoMessage satisfying proto.Message) follow grailbio-bio/biopb/coord.go's
// Coord/CoordRange, generalized from a genomic (RefId, Pos, Seq) coordinate
// to a (NodeID, Depth, Clade, mutation-set) tree node.
package biopb

import "fmt"

// CachedNode is the wire form of one tree.Node: enough to reconstruct
// tree.Arena without re-running Preprocess.
type CachedNode struct {
	Id              int32             `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	ParentId        int32             `protobuf:"varint,2,opt,name=parent_id,proto3" json:"parent_id,omitempty"`
	HasParent       bool              `protobuf:"varint,3,opt,name=has_parent,proto3" json:"has_parent,omitempty"`
	Depth           int32             `protobuf:"varint,4,opt,name=depth,proto3" json:"depth,omitempty"`
	Clade           string            `protobuf:"bytes,5,opt,name=clade,proto3" json:"clade,omitempty"`
	Children        []int32           `protobuf:"varint,6,rep,packed,name=children,proto3" json:"children,omitempty"`
	BranchMutations map[int32]uint32  `protobuf:"bytes,7,rep,name=branch_mutations,proto3" json:"branch_mutations,omitempty" protobuf_key:"varint,1,opt,name=key,proto3" protobuf_val:"varint,2,opt,name=value,proto3"`
	Mutations       map[int32]uint32  `protobuf:"bytes,8,rep,name=mutations,proto3" json:"mutations,omitempty" protobuf_key:"varint,1,opt,name=key,proto3" protobuf_val:"varint,2,opt,name=value,proto3"`
}

func (m *CachedNode) Reset()         { *m = CachedNode{} }
func (m *CachedNode) String() string { return fmt.Sprintf("%+v", *m) }
func (*CachedNode) ProtoMessage()    {}

// CachedArena is the wire form of a full tree.Arena, indexed the same way:
// CachedArena.Nodes[i].Id == int32(i) for every i.
type CachedArena struct {
	Nodes []*CachedNode `protobuf:"bytes,1,rep,name=nodes,proto3" json:"nodes,omitempty"`
	Root  int32         `protobuf:"varint,2,opt,name=root,proto3" json:"root,omitempty"`

	// ReferenceChecksum pins the CachedArena to the reference.fasta it was
	// derived from; dataset.Bundle loading must reject a cache whose
	// checksum does not match the accompanying reference before trusting
	// it, rather than silently assigning queries against a stale tree.
	ReferenceChecksum uint64 `protobuf:"varint,3,opt,name=reference_checksum,proto3" json:"reference_checksum,omitempty"`
}

func (m *CachedArena) Reset()         { *m = CachedArena{} }
func (m *CachedArena) String() string { return fmt.Sprintf("%+v", *m) }
func (*CachedArena) ProtoMessage()    {}
