// Package portdir resolves the local ports an RBridge forwards on.
package portdir

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/encodeous/rbridge/state"
)

// Port is a local interface attached to the campus.
type Port struct {
	Name         string
	Index        int
	HardwareAddr net.HardwareAddr
}

func (p Port) String() string {
	return fmt.Sprintf("%s(%d)", p.Name, p.Index)
}

type Directory interface {
	Ports() ([]Port, error)
}

// Find returns the port called name.
func Find(d Directory, name string) (Port, error) {
	ports, err := d.Ports()
	if err != nil {
		return Port{}, err
	}
	for _, p := range ports {
		if p.Name == name {
			return p, nil
		}
	}
	return Port{}, fmt.Errorf("port %s not found", name)
}

// Static serves the ports listed in the node config.
type Static struct {
	ports []Port
}

func NewStatic(cfg []state.PortCfg) (*Static, error) {
	s := &Static{}
	for i, pc := range cfg {
		p := Port{Name: pc.Name, Index: pc.Index}
		if p.Index == 0 {
			p.Index = i + 1
		}
		if pc.Mac != "" {
			mac, err := net.ParseMAC(pc.Mac)
			if err != nil {
				return nil, fmt.Errorf("port %s: %w", pc.Name, err)
			}
			p.HardwareAddr = mac
		}
		s.ports = append(s.ports, p)
	}
	slices.SortFunc(s.ports, func(a, b Port) int {
		return strings.Compare(a.Name, b.Name)
	})
	return s, nil
}

func (s *Static) Ports() ([]Port, error) {
	return slices.Clone(s.ports), nil
}
