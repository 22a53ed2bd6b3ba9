package portdir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vishvananda/netlink"
)

// Bridge lists the interfaces enslaved to a Linux bridge.
type Bridge struct {
	Name string
}

func NewBridge(name string) *Bridge {
	return &Bridge{Name: name}
}

func (b *Bridge) Ports() ([]Port, error) {
	br, err := netlink.LinkByName(b.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find bridge %s: %w", b.Name, err)
	}
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	var ports []Port
	for _, l := range links {
		attrs := l.Attrs()
		if attrs.MasterIndex != br.Attrs().Index {
			continue
		}
		ports = append(ports, Port{
			Name:         attrs.Name,
			Index:        attrs.Index,
			HardwareAddr: attrs.HardwareAddr,
		})
	}
	slices.SortFunc(ports, func(a, b Port) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ports, nil
}
