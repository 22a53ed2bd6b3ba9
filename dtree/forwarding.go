// Package dtree derives forwarding entries and per-root adjacency lists from
// shortest path trees.
package dtree

import (
	"log/slog"
	"slices"

	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
)

// Table is a forwarding table keyed by destination nickname. A table is never
// modified once built, a new one replaces it.
type Table map[state.Nickname]state.ForwardingEntry

func (t Table) Lookup(nick state.Nickname) (state.ForwardingEntry, bool) {
	e, ok := t[nick]
	return e, ok
}

// Entries returns the table ordered by nickname.
func (t Table) Entries() []state.ForwardingEntry {
	out := make([]state.ForwardingEntry, 0, len(t))
	for _, e := range t {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b state.ForwardingEntry) int {
		return int(a.Nick) - int(b.Nick)
	})
	return out
}

// BuildForwardingTable walks the local tree. Rbridges that are reached but
// have no adjacency are presumed gone, they are removed from reg and returned.
func BuildForwardingTable(log *slog.Logger, tree *spf.Tree, reg *nickdb.Registry) (Table, []state.SystemId) {
	table := make(Table)
	var stale []state.SystemId
	if tree == nil {
		return table, nil
	}
	for _, vid := range tree.Paths {
		if vid == tree.Root {
			continue
		}
		v := tree.Vertex(vid)
		if v.Kind != spf.KindNode {
			continue
		}
		if len(v.Adjacencies) == 0 {
			log.Warn("rbridge is unreachable", "sysid", v.SystemId)
			if reg.DeleteBySystemId(v.SystemId) {
				stale = append(stale, v.SystemId)
			}
			continue
		}
		nick := reg.NickOf(v.SystemId)
		if nick == state.NicknameNone {
			continue
		}
		adj := v.Adjacencies[0]
		table[nick] = state.ForwardingEntry{
			Nick:    nick,
			Port:    adj.Port,
			NextHop: slices.Clone(adj.Snpa),
		}
	}
	return table, stale
}
