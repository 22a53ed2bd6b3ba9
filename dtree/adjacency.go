package dtree

import (
	"slices"

	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
)

type adjBuilder struct {
	tree *spf.Tree
	reg  *nickdb.Registry
	fwd  Table
	out  []state.Nickname
}

// add keeps only rbridges that have a nickname and can be forwarded to.
func (b *adjBuilder) add(vid spf.VertexId) {
	v := b.tree.Vertex(vid)
	if v == nil || v.Kind != spf.KindNode {
		return
	}
	nick := b.reg.NickOf(v.SystemId)
	if nick == state.NicknameNone {
		return
	}
	if _, ok := b.fwd.Lookup(nick); !ok {
		return
	}
	if !slices.Contains(b.out, nick) {
		b.out = append(b.out, nick)
	}
}

// BuildAdjacencyList returns the nicknames one hop away from the local rbridge
// in tree. Pseudo-nodes are bridged through and never show up themselves.
func BuildAdjacencyList(tree *spf.Tree, local state.SystemId, reg *nickdb.Registry, fwd Table) []state.Nickname {
	if tree == nil {
		return nil
	}
	pivot, ok := tree.Find(local, 0)
	if !ok || !tree.InPaths(pivot) {
		return nil
	}
	b := &adjBuilder{tree: tree, reg: reg, fwd: fwd, out: make([]state.Nickname, 0)}
	pv := tree.Vertex(pivot)

	if len(pv.Parents) > 0 && hasRealAncestor(tree, pivot, local) {
		for _, p := range pv.Parents {
			parent := tree.Vertex(p)
			if parent == nil {
				continue
			}
			if parent.Kind != spf.KindPseudo {
				b.add(p)
			} else if len(parent.Parents) > 0 {
				b.add(parent.Parents[0])
			}
		}
	}

	// children carrying our own system id are our pseudo-nodes, their children are our neighbours
	var own []spf.VertexId
	for _, c := range pv.Children {
		child := tree.Vertex(c)
		if child == nil {
			continue
		}
		if child.SystemId == local {
			own = append(own, c)
		} else if tree.InPaths(c) {
			b.add(c)
		}
	}
	for i := 0; i < len(own); i++ {
		for _, gc := range tree.Vertex(own[i]).Children {
			grandchild := tree.Vertex(gc)
			if grandchild == nil {
				continue
			}
			if grandchild.SystemId == local && !slices.Contains(own, gc) {
				own = append(own, gc)
			}
			if tree.InPaths(gc) {
				b.add(gc)
			}
		}
	}
	return b.out
}

// hasRealAncestor walks the first parent chain from vid, passing over vertices
// that carry the local system id, until a path member of another rbridge is met.
func hasRealAncestor(tree *spf.Tree, vid spf.VertexId, local state.SystemId) bool {
	v := tree.Vertex(vid)
	if len(v.Parents) == 0 {
		return false
	}
	cur := v.Parents[0]
	for range len(tree.Vertices) {
		pv := tree.Vertex(cur)
		if pv == nil {
			return false
		}
		if pv.SystemId != local && tree.InPaths(cur) {
			return true
		}
		if len(pv.Parents) == 0 {
			return false
		}
		cur = pv.Parents[0]
	}
	return false
}
