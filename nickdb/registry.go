package nickdb

import (
	"fmt"
	"slices"

	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
)

type SearchResult int

const (
	NotFound SearchResult = iota
	Found
	NickChanged
	PriorityChanged
	Duplicate
)

func (r SearchResult) String() string {
	switch r {
	case NotFound:
		return "NotFound"
	case Found:
		return "Found"
	case NickChanged:
		return "NickChanged"
	case PriorityChanged:
		return "PriorityChanged"
	case Duplicate:
		return "Duplicate"
	}
	return fmt.Sprintf("SearchResult(%d)", int(r))
}

// Node is a remote rbridge holding a nickname.
type Node struct {
	Info state.NodeInfo
	// State is NickActive while registered. A removed node ends up retired,
	// passing through NickConflicted when it lost its nickname to another.
	State state.NickState
	// Tree is the distribution tree rooted at this rbridge, built on demand
	Tree        *spf.Tree
	Adjacencies []state.Nickname
}

// UpdateResult describes what Update did with a candidate.
type UpdateResult struct {
	Result SearchResult
	Stored bool
	// Evicted is the previous owner of the nickname when it lost a conflict
	Evicted *state.NodeInfo
	// Released lists the nicknames given back to the allocator
	Released []state.Nickname
}

// Registry indexes rbridges by system id and by nickname. The system id map
// owns the nodes; the nickname index only points back into it.
type Registry struct {
	alloc  *Allocator
	nodes  map[state.SystemId]*Node
	byNick map[state.Nickname]state.SystemId
}

func NewRegistry(alloc *Allocator) *Registry {
	return &Registry{
		alloc:  alloc,
		nodes:  make(map[state.SystemId]*Node),
		byNick: make(map[state.Nickname]state.SystemId),
	}
}

func (r *Registry) Allocator() *Allocator {
	return r.alloc
}

// Classify looks the candidate up by nickname first, then by system id.
func (r *Registry) Classify(c state.NodeInfo) (SearchResult, *Node) {
	if id, ok := r.byNick[c.Nick]; ok {
		n := r.nodes[id]
		switch {
		case id != c.SystemId:
			return Found, n
		case n.Info.Priority != c.Priority:
			return PriorityChanged, n
		default:
			return Duplicate, n
		}
	}
	if n, ok := r.nodes[c.SystemId]; ok {
		return NickChanged, n
	}
	return NotFound, nil
}

// Update stores the candidate according to its classification.
func (r *Registry) Update(c state.NodeInfo) UpdateResult {
	res, n := r.Classify(c)
	out := UpdateResult{Result: res}
	switch res {
	case NotFound:
		r.insert(c)
		out.Stored = true
	case Duplicate, PriorityChanged:
		n.Info = c.Clone()
		out.Stored = true
	case NickChanged:
		out.Released = append(out.Released, n.Info.Nick)
		r.remove(n)
		r.insert(c)
		out.Stored = true
	case Found:
		if prev, ok := r.nodes[c.SystemId]; ok {
			out.Released = append(out.Released, prev.Info.Nick)
			r.remove(prev)
		}
		if Wins(c, n.Info) {
			loser := n.Info.Clone()
			out.Evicted = &loser
			n.move(state.NickConflicted)
			r.remove(n)
			r.insert(c)
			out.Stored = true
		}
	}
	return out
}

func (n *Node) move(next state.NickState) {
	// moves made here are always part of the lifecycle
	n.State, _ = n.State.Transition(next)
}

func (r *Registry) insert(c state.NodeInfo) {
	n := &Node{Info: c.Clone()}
	n.move(state.NickPending)
	n.move(state.NickActive)
	r.nodes[c.SystemId] = n
	r.byNick[c.Nick] = c.SystemId
	r.alloc.Reserve(c.Nick)
}

func (r *Registry) remove(n *Node) {
	delete(r.nodes, n.Info.SystemId)
	if r.byNick[n.Info.Nick] == n.Info.SystemId {
		delete(r.byNick, n.Info.Nick)
	}
	n.Tree = nil
	n.Adjacencies = nil
	n.move(state.NickRetired)
	// the allocator error only reports an already free nickname
	_ = r.alloc.Release(n.Info.Nick)
}

func (r *Registry) DeleteBySystemId(id state.SystemId) bool {
	n, ok := r.nodes[id]
	if !ok {
		return false
	}
	r.remove(n)
	return true
}

func (r *Registry) DeleteByNick(nick state.Nickname) bool {
	id, ok := r.byNick[nick]
	if !ok {
		return false
	}
	return r.DeleteBySystemId(id)
}

// EvictNick removes the holder of nick after it lost a conflict.
func (r *Registry) EvictNick(nick state.Nickname) bool {
	id, ok := r.byNick[nick]
	if !ok {
		return false
	}
	n := r.nodes[id]
	n.move(state.NickConflicted)
	r.remove(n)
	return true
}

func (r *Registry) Lookup(id state.SystemId) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

func (r *Registry) LookupNick(nick state.Nickname) (*Node, bool) {
	id, ok := r.byNick[nick]
	if !ok {
		return nil, false
	}
	return r.Lookup(id)
}

// NickOf returns NONE for unknown system ids.
func (r *Registry) NickOf(id state.SystemId) state.Nickname {
	if n, ok := r.nodes[id]; ok {
		return n.Info.Nick
	}
	return state.NicknameNone
}

func (r *Registry) SystemIdOf(nick state.Nickname) (state.SystemId, bool) {
	id, ok := r.byNick[nick]
	return id, ok
}

func (r *Registry) Len() int {
	return len(r.nodes)
}

// Nodes returns the registered rbridges ordered by nickname. The nodes are
// shared with the registry and must only be read.
func (r *Registry) Nodes() []*Node {
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		return int(a.Info.Nick) - int(b.Info.Nick)
	})
	return out
}
