package auspice

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Node is one Auspice tree node. Attributes other than name/children are
// kept in the generic Value-based Extra object so that fields this package
// does not know about (branch_attrs, node_attrs, any future Auspice
// schema addition) still round-trip untouched.
type Node struct {
	Name     string  `json:"name"`
	Children []*Node `json:"children,omitempty"`
	Extra    *Object `json:"-"`
}

// Tree is the root of a decoded Auspice tree document, plus the top-level
// fields Auspice carries alongside "tree" (meta, version, ...), preserved
// in Extra exactly like Node's.
type Tree struct {
	Root  *Node
	Extra *Object
}

// treeDocKeys are the keys Tree understands explicitly; everything else
// round-trips via Extra.
const (
	keyTree = "tree"
)

// nodeKeys are the keys Node understands explicitly.
const (
	keyName     = "name"
	keyChildren = "children"
)

// Parse decodes an Auspice tree JSON document.
func Parse(data []byte) (*Tree, error) {
	var root Value
	if err := root.UnmarshalJSON(data); err != nil {
		return nil, errors.Wrap(err, "auspice: parse tree document")
	}
	if root.Kind != KindObject {
		return nil, errors.New("auspice: tree document is not a JSON object")
	}
	t := &Tree{Extra: NewObject()}
	for _, k := range root.Object.Keys() {
		v, _ := root.Object.Get(k)
		if k == keyTree {
			node, err := decodeNode(v)
			if err != nil {
				return nil, err
			}
			t.Root = node
			continue
		}
		t.Extra.Set(k, v)
	}
	if t.Root == nil {
		return nil, errors.New("auspice: tree document has no \"tree\" field")
	}
	return t, nil
}

func decodeNode(v Value) (*Node, error) {
	if v.Kind != KindObject {
		return nil, errors.New("auspice: tree node is not a JSON object")
	}
	n := &Node{Extra: NewObject()}
	for _, k := range v.Object.Keys() {
		val, _ := v.Object.Get(k)
		switch k {
		case keyName:
			n.Name = val.String
		case keyChildren:
			for _, c := range val.Array {
				child, err := decodeNode(c)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			}
		default:
			n.Extra.Set(k, val)
		}
	}
	return n, nil
}

// SetAttribute attaches or replaces a per-node attribute under
// node_attrs.<name>.value, the Auspice convention for clade/QC annotations
// added after the initial tree build (§12 "Auspice JSON tagged sum type").
func (n *Node) SetAttribute(name string, value Value) {
	nodeAttrs, ok := n.Extra.Get("node_attrs")
	var obj *Object
	if ok && nodeAttrs.Kind == KindObject {
		obj = nodeAttrs.Object
	} else {
		obj = NewObject()
	}
	entry := NewObject()
	entry.Set("value", value)
	obj.Set(name, ObjectOf(entry))
	n.Extra.Set("node_attrs", ObjectOf(obj))
}

// encodeNode rebuilds the node's Value form, reinserting name/children
// alongside whatever Extra holds.
func encodeNode(n *Node) Value {
	obj := NewObject()
	obj.Set(keyName, String(n.Name))
	for _, k := range n.Extra.Keys() {
		if k == keyChildren {
			continue
		}
		v, _ := n.Extra.Get(k)
		obj.Set(k, v)
	}
	if len(n.Children) > 0 {
		children := make([]Value, len(n.Children))
		for i, c := range n.Children {
			children[i] = encodeNode(c)
		}
		obj.Set(keyChildren, ArrayOf(children))
	}
	return ObjectOf(obj)
}

// Marshal re-encodes the full document, with any per-node attributes
// applied via SetAttribute appended and everything else passed through
// unmodified (§6 "Output: Auspice tree JSON").
func (t *Tree) Marshal() ([]byte, error) {
	doc := NewObject()
	for _, k := range t.Extra.Keys() {
		v, _ := t.Extra.Get(k)
		doc.Set(k, v)
	}
	doc.Set(keyTree, encodeNode(t.Root))
	return json.Marshal(ObjectOf(doc))
}

// Walk visits every node in the tree in pre-order (node before children).
func (t *Tree) Walk(visit func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		visit(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}
