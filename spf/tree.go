// Package spf holds shortest path trees in an index based arena, and a
// reference engine that computes them from a topology snapshot.
package spf

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/encodeous/rbridge/state"
)

type VertexId int

const NoVertex VertexId = -1

type VertexKind int

const (
	KindNode VertexKind = iota
	KindPseudo
)

func (k VertexKind) String() string {
	if k == KindPseudo {
		return "pseudo"
	}
	return "node"
}

// Adjacency is the first hop the root uses to reach a vertex.
type Adjacency struct {
	Port     string
	Neighbor state.SystemId
	Snpa     net.HardwareAddr
}

type Vertex struct {
	SystemId state.SystemId
	PseudoId uint8
	Kind     VertexKind
	Distance uint32
	Parents  []VertexId
	Children []VertexId
	// Adjacencies are ordered, the first one is preferred for forwarding
	Adjacencies []Adjacency
}

func (v *Vertex) String() string {
	if v.Kind == KindPseudo {
		return fmt.Sprintf("%s.%02x", v.SystemId, v.PseudoId)
	}
	return v.SystemId.String()
}

// Tree is a shortest path tree. Relations between vertices are expressed as
// indices into Vertices, so a malformed tree can never dangle.
type Tree struct {
	Root     VertexId
	Vertices []Vertex
	// Paths holds the vertices reached by the computation, root first
	Paths  []VertexId
	inPath map[VertexId]struct{}
}

func NewTree() *Tree {
	return &Tree{
		Root:   NoVertex,
		inPath: make(map[VertexId]struct{}),
	}
}

// AddVertex appends a vertex to the arena. The first vertex added becomes the root.
func (t *Tree) AddVertex(id state.SystemId, pseudo uint8) VertexId {
	kind := KindNode
	if pseudo != 0 {
		kind = KindPseudo
	}
	t.Vertices = append(t.Vertices, Vertex{
		SystemId: id,
		PseudoId: pseudo,
		Kind:     kind,
	})
	vid := VertexId(len(t.Vertices) - 1)
	if t.Root == NoVertex {
		t.Root = vid
	}
	return vid
}

// Link records parent as a parent of child.
func (t *Tree) Link(parent, child VertexId) {
	p, c := t.Vertex(parent), t.Vertex(child)
	if p == nil || c == nil {
		return
	}
	if !slices.Contains(c.Parents, parent) {
		c.Parents = append(c.Parents, parent)
	}
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
}

// AddPath marks a vertex as reached.
func (t *Tree) AddPath(vid VertexId) {
	if t.Vertex(vid) == nil || t.InPaths(vid) {
		return
	}
	t.Paths = append(t.Paths, vid)
	t.inPath[vid] = struct{}{}
}

func (t *Tree) InPaths(vid VertexId) bool {
	_, ok := t.inPath[vid]
	return ok
}

// Vertex returns nil for ids outside the arena.
func (t *Tree) Vertex(vid VertexId) *Vertex {
	if vid < 0 || int(vid) >= len(t.Vertices) {
		return nil
	}
	return &t.Vertices[vid]
}

// Find returns the vertex of the given system id and pseudo-node id.
func (t *Tree) Find(id state.SystemId, pseudo uint8) (VertexId, bool) {
	for i := range t.Vertices {
		if t.Vertices[i].SystemId == id && t.Vertices[i].PseudoId == pseudo {
			return VertexId(i), true
		}
	}
	return NoVertex, false
}

func (t *Tree) RootSystemId() state.SystemId {
	if v := t.Vertex(t.Root); v != nil {
		return v.SystemId
	}
	return state.SystemId{}
}

func (t *Tree) String() string {
	sb := strings.Builder{}
	for _, vid := range t.Paths {
		v := t.Vertex(vid)
		parents := make([]string, 0, len(v.Parents))
		for _, p := range v.Parents {
			parents = append(parents, t.Vertex(p).String())
		}
		sb.WriteString(fmt.Sprintf("%s %s dist %d parents [%s]\n", v, v.Kind, v.Distance, strings.Join(parents, " ")))
	}
	return sb.String()
}

// Engine computes the shortest path tree rooted at an rbridge.
type Engine interface {
	Compute(root state.SystemId) (*Tree, error)
}
