package core

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var (
	sysA = state.MustParseSystemId("0000.0000.000a")
	sysB = state.MustParseSystemId("0000.0000.000b")
	sysC = state.MustParseSystemId("0000.0000.000c")
	macA = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0a}
	macB = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0b}
	macC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x0c}

	discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// TrillHarness records effects instead of applying them.
type TrillHarness struct {
	actions []HarnessEvent
}

func (h *TrillHarness) PublishNick(nick state.Nickname) {
	h.actions = append(h.actions, MakeEvent("SET_NICK", nick))
}

func (h *TrillHarness) PublishRoot(nick state.Nickname) {
	h.actions = append(h.actions, MakeEvent("SET_ROOT", nick))
}

func (h *TrillHarness) WithdrawNick(nick state.Nickname) {
	h.actions = append(h.actions, MakeEvent("DEL_NICK", nick))
}

func (h *TrillHarness) FlushNicks() {
	h.actions = append(h.actions, MakeEvent("NICK_FLUSH"))
}

func (h *TrillHarness) InstallNick(entry state.ForwardingEntry, adjacencies []state.Nickname, roots []state.Nickname) {
	h.actions = append(h.actions, MakeEvent("NICK_INFO", entry.Nick, entry.Port, adjacencies, roots))
}

func (h *TrillHarness) RegenerateLsp() {
	h.actions = append(h.actions, MakeEvent("REGEN_LSP"))
}

func (h *TrillHarness) ScheduleSpf() {
	h.actions = append(h.actions, MakeEvent("SCHEDULE_SPF"))
}

func (h *TrillHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears everything but log events.
func (h *TrillHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}

	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetAll returns and clears every recorded event, logs included.
func (h *TrillHarness) GetAll() HarnessEvents {
	x := h.actions
	h.actions = make([]HarnessEvent, 0)
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg, cmpopts.EquateEmpty()) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func newTrillState(local state.SystemId) *TrillState {
	alloc := nickdb.NewAllocator(rand.New(rand.NewPCG(7, 7)))
	return NewTrillState(state.NodeInfo{SystemId: local}, nickdb.NewRegistry(alloc), spf.NewTopology(), discardLog)
}

func node(id state.SystemId, nick state.Nickname, prio state.Priority) state.NodeInfo {
	return state.NodeInfo{
		Nick:         nick,
		Priority:     prio,
		SystemId:     id,
		Flags:        state.FlagV0,
		RootPriority: state.DefaultRootPriority,
	}
}

func lspOf(t *testing.T, info state.NodeInfo) LspEvent {
	t.Helper()
	raw, err := tlv.AppendCapability(nil, tlv.MaxLen+2, info)
	require.NoError(t, err)
	return LspEvent{SystemId: info.SystemId, Capability: raw}
}

// chainTopology is A - B - C with A on eth0 towards B.
func chainTopology() *spf.Topology {
	topo := spf.NewTopology()
	topo.Connect(spf.Endpoint{SystemId: sysA, Port: "eth0", Mac: macA}, spf.Endpoint{SystemId: sysB, Port: "eth0", Mac: macB}, 10)
	topo.Connect(spf.Endpoint{SystemId: sysB, Port: "eth1", Mac: macB}, spf.Endpoint{SystemId: sysC, Port: "eth0", Mac: macC}, 10)
	return topo
}
