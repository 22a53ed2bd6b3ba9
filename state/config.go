package state

import (
	"fmt"
	"net"
	"slices"
	"time"
)

// PortCfg describes a bridge port when the port directory is static
type PortCfg struct {
	Name  string
	Index int
	Mac   string `yaml:",omitempty"`
}

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	Id       string   // unique name for this rbridge
	SystemId SystemId `yaml:"system_id"`
	Bridge   string   `yaml:",omitempty"` // linux bridge the TRILL ports belong to, if empty the static port list is used
	// Nickname is configured by the operator, if zero the nickname is generated once the link-state database is acquired
	Nickname        Nickname   `yaml:",omitempty"`
	Priority        uint8      `yaml:",omitempty"`
	RootPriority    uint16     `yaml:"root_priority,omitempty"`
	DtRoots         []Nickname `yaml:"dt_roots,omitempty"`
	Vnis            []uint32   `yaml:",omitempty"`
	Ports           []PortCfg  `yaml:",omitempty"`
	DataplaneSocket string     `yaml:"dataplane_socket,omitempty"` // if empty, data-plane commands are kept in memory
	LogPath         string     `yaml:"log_path,omitempty"`         // if not empty, rbridge will write to this file
	InspectSocket   string     `yaml:"inspect_socket,omitempty"`

	SpfMinInterval      time.Duration `yaml:"spf_min_interval,omitempty"`
	SpfPeriodicInterval time.Duration `yaml:"spf_periodic_interval,omitempty"`
}

// RouterCfg is one rbridge of the campus snapshot.
type RouterCfg struct {
	Id       string
	SystemId SystemId `yaml:"system_id"`
	Mac      string   `yaml:",omitempty"`
	// Capability is the raw router capability TLV, it takes precedence over the fields below
	Capability   HexBytes   `yaml:",omitempty"`
	Nickname     Nickname   `yaml:",omitempty"`
	Priority     uint8      `yaml:",omitempty"`
	RootPriority uint16     `yaml:"root_priority,omitempty"`
	DtRoots      []Nickname `yaml:"dt_roots,omitempty"`
	Purged       bool       `yaml:",omitempty"`
}

// LinkCfg is a point to point link between two routers.
type LinkCfg struct {
	A, B   string
	PortA  string `yaml:"port_a,omitempty"`
	PortB  string `yaml:"port_b,omitempty"`
	Metric uint32 `yaml:",omitempty"`
}

type LanMemberCfg struct {
	Router string
	Port   string `yaml:",omitempty"`
}

// LanCfg is a broadcast segment represented by a pseudo-node owned by its designated router.
type LanCfg struct {
	Dis      string
	PseudoId uint8 `yaml:"pseudo_id"`
	Members  []LanMemberCfg
	Metric   uint32 `yaml:",omitempty"`
}

// CampusCfg is a snapshot of the link-state database
type CampusCfg struct {
	Routers []RouterCfg
	Links   []LinkCfg `yaml:",omitempty"`
	Lans    []LanCfg  `yaml:",omitempty"`
}

func (c *CampusCfg) TryGetRouter(id string) *RouterCfg {
	idx := slices.IndexFunc(c.Routers, func(cfg RouterCfg) bool {
		return cfg.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &c.Routers[idx]
}

func (c *CampusCfg) GetRouter(id string) RouterCfg {
	r := c.TryGetRouter(id)
	if r == nil {
		panic("router " + id + " not found")
	}
	return *r
}

func (c *CampusCfg) FindSystemId(sysid SystemId) *RouterCfg {
	idx := slices.IndexFunc(c.Routers, func(cfg RouterCfg) bool {
		return cfg.SystemId == sysid
	})
	if idx == -1 {
		return nil
	}
	return &c.Routers[idx]
}

// LinkPairs returns every point to point adjacency as a sorted pair of router ids.
func (c *CampusCfg) LinkPairs() []Pair[string, string] {
	pairs := make([]Pair[string, string], 0, len(c.Links))
	for _, l := range c.Links {
		pairs = append(pairs, MakeSortedPair(l.A, l.B))
	}
	SortPairs(pairs)
	return pairs
}

// NodeInfo returns the identity the router advertises when no raw capability is given.
func (r RouterCfg) NodeInfo() NodeInfo {
	prio := Priority(r.Priority)
	if prio == 0 {
		prio = DefaultNickPriority
	}
	rootPrio := r.RootPriority
	if rootPrio == 0 {
		rootPrio = DefaultRootPriority
	}
	return NodeInfo{
		Nick:         r.Nickname,
		Priority:     prio,
		SystemId:     r.SystemId,
		Flags:        FlagV0,
		DtRoots:      slices.Clone(r.DtRoots),
		RootPriority: rootPrio,
	}
}

func (r RouterCfg) HardwareAddr() (net.HardwareAddr, error) {
	if r.Mac == "" {
		return nil, nil
	}
	mac, err := net.ParseMAC(r.Mac)
	if err != nil {
		return nil, fmt.Errorf("router %s: %w", r.Id, err)
	}
	return mac, nil
}

// ExpandLocalConfig fills in defaults.
func ExpandLocalConfig(cfg *LocalCfg) {
	if cfg.Priority == 0 {
		cfg.Priority = uint8(DefaultNickPriority)
	}
	if cfg.RootPriority == 0 {
		cfg.RootPriority = DefaultRootPriority
	}
	if cfg.InspectSocket == "" {
		cfg.InspectSocket = DefaultInspectSocket
	}
	if cfg.SpfMinInterval == 0 {
		cfg.SpfMinInterval = SpfMinInterval
	}
	if cfg.SpfPeriodicInterval == 0 {
		cfg.SpfPeriodicInterval = SpfPeriodicInterval
	}
}
