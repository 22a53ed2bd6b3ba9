package core

import (
	"fmt"
	"log/slog"

	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
)

// logEffects only logs, it stands in for the data plane when the state is
// computed offline.
type logEffects struct {
	log *slog.Logger
}

func (e logEffects) PublishNick(nick state.Nickname) {
	e.log.Debug("set nickname", "nick", nick)
}

func (e logEffects) PublishRoot(nick state.Nickname) {
	e.log.Debug("set tree root", "nick", nick)
}

func (e logEffects) WithdrawNick(nick state.Nickname) {
	e.log.Debug("delete nickname", "nick", nick)
}

func (e logEffects) FlushNicks() {
	e.log.Debug("flush nicknames")
}

func (e logEffects) InstallNick(entry state.ForwardingEntry, adjacencies []state.Nickname, roots []state.Nickname) {
	e.log.Debug("install nickname", "entry", entry, "adj", adjacencies, "roots", roots)
}

func (e logEffects) RegenerateLsp() {}

func (e logEffects) ScheduleSpf() {}

func (e logEffects) Log(event RouterEvent, desc string, args ...any) {
	e.log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}

// LocalNodeInfo is the identity the node config asks for, before any nickname is chosen.
func LocalNodeInfo(cfg state.LocalCfg) state.NodeInfo {
	return state.NodeInfo{
		SystemId:     cfg.SystemId,
		Priority:     state.Priority(cfg.Priority),
		RootPriority: cfg.RootPriority,
		DtRoots:      cfg.DtRoots,
		Flags:        state.FlagV0,
	}
}

// Evaluate computes the state the node would converge to on the campus
// snapshot, without timers or a data plane.
func Evaluate(ccfg state.CampusCfg, ncfg state.LocalCfg, log *slog.Logger) (*TrillState, error) {
	ts := NewTrillState(LocalNodeInfo(ncfg), nickdb.NewRegistry(nickdb.NewAllocator(nil)), spf.NewTopology(), log)
	ts.ConfiguredVnis = ncfg.Vnis
	ts.SupportedVnis = ncfg.Vnis
	eff := logEffects{log: log}
	if ncfg.Nickname != state.NicknameNone {
		if err := ConfigureNickname(ts, eff, ncfg.Nickname); err != nil {
			return nil, err
		}
	}

	events, topo, err := (&SnapshotFeed{Campus: ccfg}).Sync()
	if err != nil {
		return nil, err
	}
	ts.Engine = topo
	for _, ev := range events {
		if err := HandleLsp(ts, eff, ev); err != nil {
			return nil, err
		}
	}
	if err := AcquireLspDb(ts, eff); err != nil {
		return nil, err
	}
	if err := ComputeTrees(ts, eff); err != nil {
		return nil, err
	}
	return ts, nil
}
