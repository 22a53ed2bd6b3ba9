package spf

import (
	"net"
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sysA = state.MustParseSystemId("0000.0000.000a")
	sysB = state.MustParseSystemId("0000.0000.000b")
	sysC = state.MustParseSystemId("0000.0000.000c")
	sysD = state.MustParseSystemId("0000.0000.000d")
	macB = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0b}
	macC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0c}
)

func TestComputeChain(t *testing.T) {
	topo := NewTopology()
	topo.Connect(Endpoint{SystemId: sysA, Port: "eth0"}, Endpoint{SystemId: sysB, Port: "eth0", Mac: macB}, 10)
	topo.Connect(Endpoint{SystemId: sysB, Port: "eth1"}, Endpoint{SystemId: sysC, Port: "eth0", Mac: macC}, 10)

	tree, err := topo.Compute(sysA)
	require.NoError(t, err)
	require.Len(t, tree.Paths, 3)
	assert.Equal(t, sysA, tree.RootSystemId())

	b, ok := tree.Find(sysB, 0)
	require.True(t, ok)
	c, ok := tree.Find(sysC, 0)
	require.True(t, ok)

	assert.Equal(t, []VertexId{tree.Root}, tree.Vertex(b).Parents)
	assert.Equal(t, []VertexId{b}, tree.Vertex(c).Parents)
	assert.Equal(t, uint32(20), tree.Vertex(c).Distance)

	want := Adjacency{Port: "eth0", Neighbor: sysB, Snpa: macB}
	assert.Equal(t, []Adjacency{want}, tree.Vertex(b).Adjacencies)
	// C is reached through B
	assert.Equal(t, []Adjacency{want}, tree.Vertex(c).Adjacencies)
}

func TestComputeLan(t *testing.T) {
	topo := NewTopology()
	topo.AddLan(sysA, 1, []Endpoint{
		{SystemId: sysA, Port: "lan0"},
		{SystemId: sysB, Port: "eth0", Mac: macB},
		{SystemId: sysC, Port: "eth0", Mac: macC},
	}, 10)

	tree, err := topo.Compute(sysA)
	require.NoError(t, err)
	require.Len(t, tree.Paths, 4)

	p, ok := tree.Find(sysA, 1)
	require.True(t, ok)
	assert.Equal(t, KindPseudo, tree.Vertex(p).Kind)
	assert.Empty(t, tree.Vertex(p).Adjacencies)

	b, _ := tree.Find(sysB, 0)
	assert.Equal(t, []VertexId{p}, tree.Vertex(b).Parents)
	assert.Equal(t, []Adjacency{{Port: "lan0", Neighbor: sysB, Snpa: macB}}, tree.Vertex(b).Adjacencies)
	c, _ := tree.Find(sysC, 0)
	assert.Equal(t, []Adjacency{{Port: "lan0", Neighbor: sysC, Snpa: macC}}, tree.Vertex(c).Adjacencies)
}

func TestComputeEqualCost(t *testing.T) {
	// A - B - D and A - C - D with equal metrics
	topo := NewTopology()
	topo.Connect(Endpoint{SystemId: sysA, Port: "p1"}, Endpoint{SystemId: sysB, Mac: macB}, 10)
	topo.Connect(Endpoint{SystemId: sysA, Port: "p2"}, Endpoint{SystemId: sysC, Mac: macC}, 10)
	topo.Connect(Endpoint{SystemId: sysB}, Endpoint{SystemId: sysD}, 10)
	topo.Connect(Endpoint{SystemId: sysC}, Endpoint{SystemId: sysD}, 10)

	tree, err := topo.Compute(sysA)
	require.NoError(t, err)
	d, _ := tree.Find(sysD, 0)
	assert.Len(t, tree.Vertex(d).Parents, 2)
	assert.Len(t, tree.Vertex(d).Adjacencies, 2)
	assert.Equal(t, "p1", tree.Vertex(d).Adjacencies[0].Port)
}

func TestComputeUnknownRoot(t *testing.T) {
	topo := NewTopology()
	topo.AddRouter(sysA)
	_, err := topo.Compute(sysB)
	assert.ErrorIs(t, err, ErrUnknownRoot)

	tree, err := topo.Compute(sysA)
	require.NoError(t, err)
	assert.Len(t, tree.Paths, 1)
}

func TestRemoveRouter(t *testing.T) {
	topo := NewTopology()
	topo.Connect(Endpoint{SystemId: sysA}, Endpoint{SystemId: sysB}, 10)
	topo.RemoveRouter(sysB)
	assert.Equal(t, []state.SystemId{sysA}, topo.Routers())
	tree, err := topo.Compute(sysA)
	require.NoError(t, err)
	assert.Len(t, tree.Paths, 1)
}

func TestTreeArenaBounds(t *testing.T) {
	tree := NewTree()
	a := tree.AddVertex(sysA, 0)
	tree.Link(a, VertexId(7))
	assert.Nil(t, tree.Vertex(VertexId(7)))
	assert.Nil(t, tree.Vertex(NoVertex))
	assert.Empty(t, tree.Vertex(a).Children)
}
