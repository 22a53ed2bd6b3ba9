package integration

import (
	"fmt"
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func ring(t *testing.T, n int, seed uint64) *VirtualCampus {
	vc := &VirtualCampus{Seed: seed}
	for i := range n {
		vc.NewNode(fmt.Sprintf("r%d", i), fmt.Sprintf("0000.0000.%04x", i+1))
	}
	for i := range n {
		vc.AddLink(fmt.Sprintf("r%d", i), fmt.Sprintf("r%d", (i+1)%n))
	}
	require.NoError(t, vc.Start())
	return vc
}

func assertAgreement(t *testing.T, vc *VirtualCampus) {
	t.Helper()
	seen := make(map[state.Nickname]string)
	for _, n := range vc.Nodes {
		nick := n.State.Local.Nick
		require.True(t, nick.Valid(), "node %s has no nickname", n.Cfg.Id)
		if other, dup := seen[nick]; dup {
			t.Fatalf("nickname %d held by both %s and %s", nick, other, n.Cfg.Id)
		}
		seen[nick] = n.Cfg.Id
	}
	for _, n := range vc.Nodes {
		assert.Equal(t, len(vc.Nodes)-1, n.State.Registry.Len(), "registry of %s", n.Cfg.Id)
		for _, o := range vc.Nodes {
			if o == n {
				continue
			}
			assert.Equal(t, o.State.Local.Nick, n.State.Registry.NickOf(o.Cfg.SystemId),
				"%s sees the wrong nickname for %s", n.Cfg.Id, o.Cfg.Id)
		}
	}
}

func TestCollidingNicknamesConverge(t *testing.T) {
	defer goleak.VerifyNone(t)

	// every allocator draws the same sequence, so every node starts on the same nickname
	vc := ring(t, 6, 42)
	first := vc.Nodes[0].State.Local.Nick
	for _, n := range vc.Nodes {
		require.Equal(t, first, n.State.Local.Nick)
	}

	rounds, err := vc.Converge(20)
	require.NoError(t, err)
	assert.Greater(t, rounds, 1)
	assertAgreement(t, vc)

	// the lowest system id keeps the contested nickname
	assert.Equal(t, first, vc.Nodes[0].State.Local.Nick)
}

func TestConfiguredNicknameWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	vc := &VirtualCampus{Seed: 7}
	vc.NewNode("a", "0000.0000.0001")
	vc.NewNode("b", "0000.0000.0002")
	c := vc.NewNode("c", "0000.0000.0003")
	vc.AddLink("a", "b")
	vc.AddLink("b", "c")
	require.NoError(t, vc.Start())

	// c configures the nickname a generated
	taken := vc.Nodes[0].State.Local.Nick
	c.Nickname = taken
	require.NoError(t, vc.Start())

	_, err := vc.Converge(10)
	require.NoError(t, err)
	assertAgreement(t, vc)
	assert.Equal(t, taken, vc.Nodes[2].State.Local.Nick)
	assert.NotEqual(t, taken, vc.Nodes[0].State.Local.Nick)
	assert.True(t, vc.Nodes[2].State.Local.Priority.Configured())
}

func TestCampusTrees(t *testing.T) {
	defer goleak.VerifyNone(t)

	vc := ring(t, 5, 1)
	_, err := vc.Converge(20)
	require.NoError(t, err)
	require.NoError(t, vc.ComputeTrees())

	root := vc.Nodes[0].State.Local.Nick
	for _, n := range vc.Nodes {
		assert.Len(t, n.State.Forwarding, 4, "forwarding table of %s", n.Cfg.Id)
		assert.Len(t, n.Installed, 4, "data plane of %s", n.Cfg.Id)
		assert.Equal(t, root, n.State.TreeRoot)
		require.NotEmpty(t, n.Roots)
		assert.Equal(t, root, n.Roots[len(n.Roots)-1])
		// in a ring every node has two neighbours
		assert.Len(t, n.State.Adjacencies, 2, "adjacencies of %s", n.Cfg.Id)
	}

	gone := vc.Nodes[0].State.Local.Nick
	require.NoError(t, vc.Remove("r0"))
	require.NoError(t, vc.ComputeTrees())
	for _, n := range vc.Nodes {
		assert.Equal(t, 3, n.State.Registry.Len())
		assert.Len(t, n.State.Forwarding, 3)
		assert.NotContains(t, n.Installed, gone)
		assert.NotEqual(t, gone, n.State.TreeRoot)
	}
}
