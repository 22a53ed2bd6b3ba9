package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
)

// ShowSections maps a show command to its projection.
var ShowSections = map[string]func(ts *TrillState) string{
	"nicknames":   ShowNickDatabase,
	"forwarding":  ShowForwarding,
	"adjacencies": ShowAdjacencies,
	"topology":    ShowTopology,
}

func nickList(nicks []state.Nickname) string {
	if len(nicks) == 0 {
		return "-"
	}
	out := make([]string, 0, len(nicks))
	for _, n := range nicks {
		out = append(out, n.String())
	}
	return strings.Join(out, ",")
}

func ShowNickDatabase(ts *TrillState) string {
	sb := strings.Builder{}
	l := ts.Local
	sb.WriteString("Local:\n")
	sb.WriteString(fmt.Sprintf(" - %s nick %s prio 0x%02x root-prio %d state %s auto %v\n",
		l.SystemId, l.Nick, uint8(l.Priority), l.RootPriority, ts.NickState, ts.AutoNick))
	sb.WriteString(fmt.Sprintf("   Tree Roots: %s\n", nickList(l.DtRoots)))
	sb.WriteString(fmt.Sprintf("   Tree Root In Use: %s\n", ts.TreeRoot))

	sb.WriteString("\nNicknames:\n")
	nodes := ts.Registry.Nodes()
	if len(nodes) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, n := range nodes {
		i := n.Info
		sb.WriteString(fmt.Sprintf(" - %s nick %s prio 0x%02x root-prio %d roots %s\n",
			i.SystemId, i.Nick, uint8(i.Priority), i.RootPriority, nickList(i.DtRoots)))
	}
	return sb.String()
}

func ShowForwarding(ts *TrillState) string {
	sb := strings.Builder{}
	sb.WriteString("Forwarding Table:\n")
	entries := ts.Forwarding.Entries()
	if len(entries) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf(" - %s\n", e))
	}
	return sb.String()
}

func ShowAdjacencies(ts *TrillState) string {
	sb := strings.Builder{}
	sb.WriteString("Adjacencies:\n")
	sb.WriteString(fmt.Sprintf(" - local (%s): %s\n", ts.Local.Nick, nickList(ts.Adjacencies)))
	for _, n := range ts.Registry.Nodes() {
		sb.WriteString(fmt.Sprintf(" - root %s: %s\n", n.Info.Nick, nickList(n.Adjacencies)))
	}
	return sb.String()
}

func showTree(sb *strings.Builder, tree *spf.Tree) {
	lines := make([]string, 0, len(tree.Paths))
	for _, vid := range tree.Paths {
		v := tree.Vertex(vid)
		parents := make([]string, 0, len(v.Parents))
		for _, p := range v.Parents {
			parents = append(parents, tree.Vertex(p).String())
		}
		slices.Sort(parents)
		lines = append(lines, fmt.Sprintf("   %s dist %d via [%s]", v, v.Distance, strings.Join(parents, " ")))
	}
	sb.WriteString(strings.Join(lines, "\n") + "\n")
}

func ShowTopology(ts *TrillState) string {
	sb := strings.Builder{}
	sb.WriteString("Paths:\n")
	if ts.Tree == nil {
		sb.WriteString("  (no local tree)\n")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf(" - root %s (local)\n", ts.Local.SystemId))
	showTree(&sb, ts.Tree)
	for _, n := range ts.Registry.Nodes() {
		if n.Tree == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf(" - root %s (nick %s)\n", n.Info.SystemId, n.Info.Nick))
		showTree(&sb, n.Tree)
	}
	return sb.String()
}

// Show renders the named projection, or every projection for "all".
func Show(ts *TrillState, what string) (string, error) {
	if what == "all" {
		names := make([]string, 0, len(ShowSections))
		for name := range ShowSections {
			names = append(names, name)
		}
		slices.Sort(names)
		out := make([]string, 0, len(names))
		for _, name := range names {
			out = append(out, ShowSections[name](ts))
		}
		return strings.Join(out, "\n"), nil
	}
	fn, ok := ShowSections[what]
	if !ok {
		return "", fmt.Errorf("unknown show section %q", what)
	}
	return fn(ts), nil
}
