package state

import (
	"fmt"
	"net"
	"slices"
)

// NodeInfo is the identity an RBridge advertises about itself.
type NodeInfo struct {
	Nick         Nickname
	Priority     Priority
	SystemId     SystemId
	Flags        Flags
	DtRoots      []Nickname // distribution tree roots chosen by the node
	RootPriority uint16
	// RootCount is carried as received. Its relation to len(DtRoots) is not
	// defined by the advertisement, so it is never derived from it.
	RootCount uint16
}

func (n NodeInfo) Clone() NodeInfo {
	n.DtRoots = slices.Clone(n.DtRoots)
	return n
}

func (n NodeInfo) String() string {
	return fmt.Sprintf("(sysid: %s, nick: %d, prio: %d, root-prio: %d)", n.SystemId, n.Nick, n.Priority, n.RootPriority)
}

// ForwardingEntry tells the data plane how to reach a remote RBridge.
type ForwardingEntry struct {
	Nick    Nickname
	Port    string
	NextHop net.HardwareAddr
}

func (f ForwardingEntry) String() string {
	return fmt.Sprintf("%d via %s (%s)", f.Nick, f.Port, f.NextHop)
}
