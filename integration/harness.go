// Package integration runs whole campuses of rbridges in memory, flooding
// their capability TLVs to each other until the nicknames settle.
package integration

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/encodeous/rbridge/core"
	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
)

// VirtualNode is one rbridge of the campus. It implements core.Effects.
type VirtualNode struct {
	Cfg   state.RouterCfg
	State *core.TrillState

	Published []state.Nickname
	Roots     []state.Nickname
	Installed map[state.Nickname]state.ForwardingEntry
}

func (n *VirtualNode) PublishNick(nick state.Nickname) {
	n.Published = append(n.Published, nick)
}

func (n *VirtualNode) PublishRoot(nick state.Nickname) {
	n.Roots = append(n.Roots, nick)
}

func (n *VirtualNode) WithdrawNick(nick state.Nickname) {
	delete(n.Installed, nick)
}

func (n *VirtualNode) FlushNicks() {
	clear(n.Installed)
}

func (n *VirtualNode) InstallNick(entry state.ForwardingEntry, adjacencies []state.Nickname, roots []state.Nickname) {
	n.Installed[entry.Nick] = entry
}

func (n *VirtualNode) RegenerateLsp() {}

func (n *VirtualNode) ScheduleSpf() {}

func (n *VirtualNode) Log(event core.RouterEvent, desc string, args ...any) {
	n.State.Log.Debug(fmt.Sprintf("%s %s", event, desc), args...)
}

// Lsp is the LSP the node currently floods.
func (n *VirtualNode) Lsp() (core.LspEvent, error) {
	ev := core.LspEvent{SystemId: n.Cfg.SystemId}
	if !n.State.Local.Nick.Valid() {
		return ev, nil
	}
	raw, err := tlv.AppendCapability(nil, tlv.MaxLen+2, n.State.Local)
	if err != nil {
		return ev, err
	}
	ev.Capability = raw
	return ev, nil
}

type VirtualCampus struct {
	Campus state.CampusCfg
	Nodes  []*VirtualNode
	// Seed seeds every nickname allocator, equal seeds make the nodes collide
	Seed uint64
	Log  *slog.Logger
}

func (v *VirtualCampus) NewNode(id string, sysid string) *state.RouterCfg {
	v.Campus.Routers = append(v.Campus.Routers, state.RouterCfg{
		Id:       id,
		SystemId: state.MustParseSystemId(sysid),
	})
	return &v.Campus.Routers[len(v.Campus.Routers)-1]
}

func (v *VirtualCampus) AddLink(a, b string) {
	v.Campus.Links = append(v.Campus.Links, state.LinkCfg{A: a, B: b, PortA: "to-" + b, PortB: "to-" + a})
}

// Start creates the rbridges. Configured nicknames come from the router configs.
func (v *VirtualCampus) Start() error {
	if v.Log == nil {
		v.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := state.CampusConfigValidator(&v.Campus); err != nil {
		return err
	}
	v.Nodes = nil
	for _, r := range v.Campus.Routers {
		alloc := nickdb.NewAllocator(rand.New(rand.NewPCG(v.Seed, v.Seed)))
		local := r.NodeInfo()
		local.Nick = state.NicknameNone
		n := &VirtualNode{
			Cfg:       r,
			Installed: make(map[state.Nickname]state.ForwardingEntry),
		}
		n.State = core.NewTrillState(local, nickdb.NewRegistry(alloc), spf.NewTopology(), v.Log.With("node", r.Id))
		if r.Nickname != state.NicknameNone {
			if err := core.ConfigureNickname(n.State, n, r.Nickname); err != nil {
				return err
			}
		}
		if err := core.AcquireLspDb(n.State, n); err != nil {
			return err
		}
		v.Nodes = append(v.Nodes, n)
	}
	return nil
}

// Flood delivers the current LSP of every node to every other node and
// reports whether any local nickname changed.
func (v *VirtualCampus) Flood() (bool, error) {
	lsps := make([]core.LspEvent, len(v.Nodes))
	before := make([]state.Nickname, len(v.Nodes))
	for i, n := range v.Nodes {
		ev, err := n.Lsp()
		if err != nil {
			return false, err
		}
		lsps[i] = ev
		before[i] = n.State.Local.Nick
	}
	for i, n := range v.Nodes {
		for j, ev := range lsps {
			if i == j {
				continue
			}
			if err := core.HandleLsp(n.State, n, ev); err != nil {
				return false, err
			}
		}
	}
	changed := false
	for i, n := range v.Nodes {
		if n.State.Local.Nick != before[i] {
			changed = true
		}
	}
	return changed, nil
}

// Converge floods until a round completes without nickname changes and
// every node has heard the final nicknames.
func (v *VirtualCampus) Converge(maxRounds int) (int, error) {
	for round := 1; round <= maxRounds; round++ {
		changed, err := v.Flood()
		if err != nil {
			return round, err
		}
		if !changed {
			return round, nil
		}
	}
	return maxRounds, fmt.Errorf("campus did not converge in %d rounds", maxRounds)
}

// ComputeTrees runs SPF on every node over the campus links.
func (v *VirtualCampus) ComputeTrees() error {
	for _, n := range v.Nodes {
		topo, err := core.BuildTopology(&v.Campus)
		if err != nil {
			return err
		}
		n.State.Engine = topo
		if err := core.ComputeTrees(n.State, n); err != nil {
			return err
		}
	}
	return nil
}

// Remove takes a router out of the campus and purges its LSP everywhere.
func (v *VirtualCampus) Remove(id string) error {
	idx := -1
	for i, n := range v.Nodes {
		if n.Cfg.Id == id {
			idx = i
		}
	}
	if idx == -1 {
		return fmt.Errorf("router %s is not defined", id)
	}
	gone := v.Nodes[idx]
	purge, err := gone.Lsp()
	if err != nil {
		return err
	}
	purge.Purged = true
	v.Nodes = append(v.Nodes[:idx], v.Nodes[idx+1:]...)
	v.Campus.TryGetRouter(id).Purged = true
	for _, n := range v.Nodes {
		if err := core.HandleLsp(n.State, n, purge); err != nil {
			return err
		}
	}
	return nil
}
