package core

import (
	"fmt"

	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
)

// LspEvent is a link-state PDU as seen by the TRILL layer.
type LspEvent struct {
	SystemId state.SystemId
	PseudoId uint8
	// Capability holds the router capability TLVs of the LSP, nil if it carried none
	Capability []byte
	Purged     bool
}

func (e LspEvent) String() string {
	return fmt.Sprintf("(lsp: %s.%02x, cap: %d bytes, purged: %v)", e.SystemId, e.PseudoId, len(e.Capability), e.Purged)
}

// LinkStateFeed is the link-state database the TRILL layer reads from.
type LinkStateFeed interface {
	// Sync returns every LSP currently held and the topology they describe
	Sync() ([]LspEvent, *spf.Topology, error)
}

// SnapshotFeed serves a campus configuration as a link-state database.
type SnapshotFeed struct {
	Campus state.CampusCfg
}

func (f *SnapshotFeed) Sync() ([]LspEvent, *spf.Topology, error) {
	topo, err := BuildTopology(&f.Campus)
	if err != nil {
		return nil, nil, err
	}
	var events []LspEvent
	for _, r := range f.Campus.Routers {
		ev, err := routerLsp(r)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, ev)
	}
	for _, lan := range f.Campus.Lans {
		dis := f.Campus.TryGetRouter(lan.Dis)
		if dis == nil {
			return nil, nil, fmt.Errorf("lan designated router %s is not defined", lan.Dis)
		}
		events = append(events, LspEvent{SystemId: dis.SystemId, PseudoId: lan.PseudoId})
	}
	return events, topo, nil
}

func routerLsp(r state.RouterCfg) (LspEvent, error) {
	ev := LspEvent{SystemId: r.SystemId, Purged: r.Purged}
	switch {
	case len(r.Capability) > 0:
		ev.Capability = r.Capability
	case r.Nickname != state.NicknameNone:
		raw, err := tlv.AppendCapability(nil, tlv.MaxLen+2, r.NodeInfo())
		if err != nil {
			return ev, fmt.Errorf("router %s: %w", r.Id, err)
		}
		ev.Capability = raw
	}
	return ev, nil
}

// BuildTopology turns the campus links into an SPF topology. Purged routers
// are left out.
func BuildTopology(c *state.CampusCfg) (*spf.Topology, error) {
	topo := spf.NewTopology()
	endpoint := func(name, port string) (spf.Endpoint, bool, error) {
		r := c.TryGetRouter(name)
		if r == nil {
			return spf.Endpoint{}, false, fmt.Errorf("router %s is not defined", name)
		}
		mac, err := r.HardwareAddr()
		if err != nil {
			return spf.Endpoint{}, false, err
		}
		return spf.Endpoint{SystemId: r.SystemId, Port: port, Mac: mac}, !r.Purged, nil
	}
	for _, r := range c.Routers {
		if !r.Purged {
			topo.AddRouter(r.SystemId)
		}
	}
	for _, l := range c.Links {
		a, okA, err := endpoint(l.A, l.PortA)
		if err != nil {
			return nil, err
		}
		b, okB, err := endpoint(l.B, l.PortB)
		if err != nil {
			return nil, err
		}
		if okA && okB {
			topo.Connect(a, b, l.Metric)
		}
	}
	for _, lan := range c.Lans {
		dis, ok, err := endpoint(lan.Dis, "")
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var members []spf.Endpoint
		for _, m := range lan.Members {
			ep, ok, err := endpoint(m.Router, m.Port)
			if err != nil {
				return nil, err
			}
			if ok {
				members = append(members, ep)
			}
		}
		topo.AddLan(dis.SystemId, lan.PseudoId, members, lan.Metric)
	}
	return topo, nil
}
