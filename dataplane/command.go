// Package dataplane talks to the forwarding plane that applies nicknames and
// distribution trees.
package dataplane

import (
	"fmt"
	"net"

	"github.com/encodeous/rbridge/state"
)

type Kind uint8

const (
	KindSetNick Kind = iota + 1
	KindGetNick
	KindDelNick
	KindSetRoot
	KindNickFlush
	KindPortFlush
	KindNickInfo
	KindGetVnis
	KindVniAttrChange
)

func (k Kind) String() string {
	switch k {
	case KindSetNick:
		return "SET_NICK"
	case KindGetNick:
		return "GET_NICK"
	case KindDelNick:
		return "DEL_NICK"
	case KindSetRoot:
		return "SET_ROOT"
	case KindNickFlush:
		return "NICK_FLUSH"
	case KindPortFlush:
		return "PORT_FLUSH"
	case KindNickInfo:
		return "NICK_INFO"
	case KindGetVnis:
		return "GET_VNIS"
	case KindVniAttrChange:
		return "VNI_ATTR_CHANGE"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Command is one of the message types below.
type Command interface {
	Kind() Kind
}

// SetNick publishes the local nickname.
type SetNick struct {
	Nick state.Nickname
}

// GetNick asks for the nickname the data plane kept from a previous run. The reply carries it in Nick.
type GetNick struct {
	Nick state.Nickname
}

// DelNick withdraws a remote rbridge.
type DelNick struct {
	Nick state.Nickname
}

// SetRoot selects the distribution tree root.
type SetRoot struct {
	Nick state.Nickname
}

// NickFlush drops every remote nickname.
type NickFlush struct{}

// PortFlush drops what was learnt on a port.
type PortFlush struct {
	PortIndex int
}

// NickInfo installs how to reach a remote rbridge.
type NickInfo struct {
	Nick      state.Nickname
	PortIndex int
	NextHop   net.HardwareAddr
	AdjNicks  []state.Nickname
	DtRoots   []state.Nickname
}

// GetVnis asks for the campus VNI list, the reply carries it.
type GetVnis struct {
	Vnis []uint32
}

// VniAttrChange is broadcast by the data plane when a bridge changes its VNIs.
type VniAttrChange struct {
	BridgeId uint32
	Vnis     []uint32
}

func (SetNick) Kind() Kind       { return KindSetNick }
func (GetNick) Kind() Kind       { return KindGetNick }
func (DelNick) Kind() Kind       { return KindDelNick }
func (SetRoot) Kind() Kind       { return KindSetRoot }
func (NickFlush) Kind() Kind     { return KindNickFlush }
func (PortFlush) Kind() Kind     { return KindPortFlush }
func (NickInfo) Kind() Kind      { return KindNickInfo }
func (GetVnis) Kind() Kind       { return KindGetVnis }
func (VniAttrChange) Kind() Kind { return KindVniAttrChange }

// Message frames a command. Replies echo the sequence number of their request.
type Message struct {
	Seq   uint32
	Reply bool
	Cmd   Command
}

func (m Message) String() string {
	return fmt.Sprintf("(seq: %d, reply: %v, %s %+v)", m.Seq, m.Reply, m.Cmd.Kind(), m.Cmd)
}
