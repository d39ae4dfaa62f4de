package auspice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []string{
		`null`,
		`true`,
		`false`,
		`42`,
		`-17`,
		`3.5`,
		`"hello"`,
		`[1,2,3]`,
		`{"a":1,"b":"two","c":[true,false]}`,
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(c), &v))
			out, err := json.Marshal(v)
			require.NoError(t, err)
			var reUnmarshalled interface{}
			require.NoError(t, json.Unmarshal(out, &reUnmarshalled))
			var original interface{}
			require.NoError(t, json.Unmarshal([]byte(c), &original))
			assert.EqualValues(t, original, reUnmarshalled)
		})
	}
}

func TestObjectPreservesKeyOrder(t *testing.T) {
	src := `{"zebra":1,"alpha":2,"mike":3}`
	var v Value
	require.NoError(t, json.Unmarshal([]byte(src), &v))
	require.Equal(t, KindObject, v.Kind)
	assert.Equal(t, []string{"zebra", "alpha", "mike"}, v.Object.Keys())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestParseTreePassThrough(t *testing.T) {
	doc := []byte(`{"meta":{"title":"test"},"tree":{"name":"root","node_attrs":{"div":{"value":0}},"children":[{"name":"child-a"},{"name":"child-b","children":[{"name":"grandchild"}]}]}}`)

	tr, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "root", tr.Root.Name)
	require.Len(t, tr.Root.Children, 2)
	assert.Equal(t, "child-a", tr.Root.Children[0].Name)
	assert.Equal(t, "grandchild", tr.Root.Children[1].Children[0].Name)

	out, err := tr.Marshal()
	require.NoError(t, err)

	var want, got interface{}
	require.NoError(t, json.Unmarshal(doc, &want))
	require.NoError(t, json.Unmarshal(out, &got))
	assert.EqualValues(t, want, got)
}

func TestSetAttributeAppendsWithoutDisturbingSiblings(t *testing.T) {
	doc := []byte(`{"tree":{"name":"root","node_attrs":{"div":{"value":0}}}}`)
	tr, err := Parse(doc)
	require.NoError(t, err)

	tr.Root.SetAttribute("clade_membership", String("19A"))

	nodeAttrs, ok := tr.Root.Extra.Get("node_attrs")
	require.True(t, ok)
	require.Equal(t, KindObject, nodeAttrs.Kind)

	div, ok := nodeAttrs.Object.Get("div")
	require.True(t, ok)
	divValue, ok := div.Object.Get("value")
	require.True(t, ok)
	assert.Equal(t, KindInteger, divValue.Kind)

	clade, ok := nodeAttrs.Object.Get("clade_membership")
	require.True(t, ok)
	cladeValue, ok := clade.Object.Get("value")
	require.True(t, ok)
	assert.Equal(t, "19A", cladeValue.String)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	doc := []byte(`{"tree":{"name":"root","children":[{"name":"a"},{"name":"b","children":[{"name":"c"}]}]}}`)
	tr, err := Parse(doc)
	require.NoError(t, err)

	var names []string
	tr.Walk(func(n *Node) { names = append(names, n.Name) })
	assert.Equal(t, []string{"root", "a", "b", "c"}, names)
}
