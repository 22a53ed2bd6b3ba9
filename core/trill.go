package core

import (
	"fmt"
	"time"

	"github.com/encodeous/rbridge/dataplane"
	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/portdir"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
)

// Trill is the module that owns the TRILL state and applies its effects to
// the data plane.
type Trill struct {
	*state.State
	*TrillState
	Feed      LinkStateFeed
	Ports     portdir.Directory
	Dataplane *dataplane.Client
	// Memory is the in-process data plane, set when no socket is configured
	Memory *dataplane.Memory
	Spf    *SpfScheduler
	// Advertised is the capability TLV of our next LSP
	Advertised []byte

	lspDirty bool
}

func (t *Trill) Init(s *state.State) error {
	s.Log.Debug("init trill")
	t.State = s
	cfg := s.LocalCfg

	t.TrillState = NewTrillState(LocalNodeInfo(cfg), nickdb.NewRegistry(nickdb.NewAllocator(nil)), spf.NewTopology(), s.Log)
	t.ConfiguredVnis = cfg.Vnis
	t.SupportedVnis = cfg.Vnis

	if t.Feed == nil {
		t.Feed = &SnapshotFeed{Campus: s.CampusCfg}
	}
	if t.Ports == nil {
		if cfg.Bridge != "" {
			t.Ports = portdir.NewBridge(cfg.Bridge)
		} else {
			ports, err := portdir.NewStatic(cfg.Ports)
			if err != nil {
				return err
			}
			t.Ports = ports
		}
	}

	var tr dataplane.Transport
	if cfg.DataplaneSocket != "" {
		conn, err := dataplane.Dial(s.Context, cfg.DataplaneSocket)
		if err != nil {
			return err
		}
		tr = conn
	} else {
		t.Memory = dataplane.NewMemory()
		tr = t.Memory
	}
	t.Dataplane = dataplane.NewClient(tr, s.Log, func(m dataplane.Message) {
		s.Env.Dispatch(func(s *state.State) error {
			return t.handleDataplane(m)
		})
	})
	t.Dataplane.Start()

	t.Spf = NewSpfScheduler(s.Env, func(s *state.State) error {
		return t.runSpf()
	})

	if cfg.Nickname != state.NicknameNone {
		if err := ConfigureNickname(t.TrillState, t, cfg.Nickname); err != nil {
			return err
		}
	} else if _, err := t.Dataplane.Request(dataplane.GetNick{}); err != nil {
		t.Log(DataplaneFailed, "failed to ask for the previous nickname", "error", err)
	}
	if _, err := t.Dataplane.Request(dataplane.GetVnis{}); err != nil {
		t.Log(DataplaneFailed, "failed to ask for the campus vnis", "error", err)
	}

	s.Env.Dispatch(func(s *state.State) error {
		return t.Sync()
	})
	s.Env.ScheduleTask(func(s *state.State) error {
		err := AcquireLspDb(t.TrillState, t)
		t.flushLsp()
		return err
	}, state.LspDbAcquireDelay)
	return nil
}

// Sync reloads the link-state database and processes every LSP in it.
func (t *Trill) Sync() error {
	events, topo, err := t.Feed.Sync()
	if err != nil {
		return err
	}
	t.Engine = topo
	for _, ev := range events {
		if err := HandleLsp(t.TrillState, t, ev); err != nil {
			return err
		}
	}
	t.ScheduleSpf()
	t.flushLsp()
	return nil
}

// HandleLsp processes one LSP on the dispatch goroutine.
func (t *Trill) HandleLsp(ev LspEvent) error {
	err := HandleLsp(t.TrillState, t, ev)
	t.flushLsp()
	return err
}

func (t *Trill) runSpf() error {
	start := time.Now()
	err := ComputeTrees(t.TrillState, t)
	perf.SpfDuration.Add(float64(time.Since(start).Microseconds()))
	t.flushLsp()
	return err
}

func (t *Trill) handleDataplane(m dataplane.Message) error {
	switch c := m.Cmd.(type) {
	case dataplane.GetNick:
		AdoptDataplaneNick(t.TrillState, t, c.Nick)
	case dataplane.GetVnis:
		UpdateVnis(t.TrillState, t, c.Vnis)
	case dataplane.VniAttrChange:
		if _, err := t.Dataplane.Request(dataplane.GetVnis{}); err != nil {
			t.Log(DataplaneFailed, "failed to ask for the campus vnis", "error", err)
		}
	case dataplane.SetNick, dataplane.DelNick, dataplane.SetRoot, dataplane.NickFlush,
		dataplane.PortFlush, dataplane.NickInfo:
		t.Env.Log.Debug("unexpected data plane message", "msg", m)
	}
	t.flushLsp()
	return nil
}

func (t *Trill) push(cmd dataplane.Command) {
	if err := t.Dataplane.Push(cmd); err != nil {
		t.Log(DataplaneFailed, "failed to update the data plane", "cmd", cmd.Kind(), "error", err)
	}
}

func (t *Trill) PublishNick(nick state.Nickname) {
	t.push(dataplane.SetNick{Nick: nick})
}

func (t *Trill) PublishRoot(nick state.Nickname) {
	t.push(dataplane.SetRoot{Nick: nick})
}

func (t *Trill) WithdrawNick(nick state.Nickname) {
	if nick.Valid() {
		t.push(dataplane.DelNick{Nick: nick})
	}
}

func (t *Trill) FlushNicks() {
	t.push(dataplane.NickFlush{})
}

func (t *Trill) InstallNick(entry state.ForwardingEntry, adjacencies []state.Nickname, roots []state.Nickname) {
	port, err := portdir.Find(t.Ports, entry.Port)
	if err != nil {
		t.Log(DataplaneFailed, "cannot resolve port", "entry", entry, "error", err)
		return
	}
	t.push(dataplane.NickInfo{
		Nick:      entry.Nick,
		PortIndex: port.Index,
		NextHop:   entry.NextHop,
		AdjNicks:  adjacencies,
		DtRoots:   roots,
	})
}

func (t *Trill) RegenerateLsp() {
	t.lspDirty = true
}

// flushLsp rebuilds our capability TLV once per dispatch.
func (t *Trill) flushLsp() {
	if !t.lspDirty {
		return
	}
	t.lspDirty = false
	raw, err := tlv.AppendCapability(nil, tlv.MaxLen+2, t.Local)
	if err != nil {
		t.Env.Log.Error("failed to encode capability", "error", err)
		return
	}
	t.Advertised = raw
	if state.DBG_log_nickdb {
		t.Env.Log.Debug("regenerated lsp", "local", t.Local, "cap", fmt.Sprintf("%x", raw))
	}
}

func (t *Trill) ScheduleSpf() {
	if err := t.Spf.Schedule(t.State); err != nil {
		t.Env.Log.Error("spf failed", "error", err)
	}
}

func (t *Trill) Log(event RouterEvent, desc string, args ...any) {
	if event.Warning() {
		t.Env.Log.Warn(fmt.Sprintf("%s %s", event.String(), desc), args...)
		return
	}
	t.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}

func (t *Trill) Cleanup(s *state.State) error {
	if t.Spf != nil {
		t.Spf.Stop()
	}
	if t.Dataplane == nil {
		return nil
	}
	return t.Dataplane.Close()
}
