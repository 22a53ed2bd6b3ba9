package core

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/encodeous/rbridge/dtree"
	"github.com/encodeous/rbridge/nickdb"
	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/spf"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
)

// Effects is what the TRILL algorithms do to the outside world
type Effects interface {
	PublishNick(nick state.Nickname)
	PublishRoot(nick state.Nickname)
	WithdrawNick(nick state.Nickname)
	FlushNicks()
	InstallNick(entry state.ForwardingEntry, adjacencies []state.Nickname, roots []state.Nickname)
	RegenerateLsp()
	ScheduleSpf()
	Log(event RouterEvent, desc string, args ...any)
}

// TrillState is the nickname and distribution tree state of the local RBridge.
type TrillState struct {
	Local     state.NodeInfo
	NickState state.NickState
	// AutoNick is set when the local nickname was generated rather than configured
	AutoNick      bool
	NickSet       bool
	LspDbAcquired bool

	Registry *nickdb.Registry
	Engine   spf.Engine

	Tree        *spf.Tree
	Forwarding  dtree.Table
	Adjacencies []state.Nickname
	TreeRoot    state.Nickname

	ConfiguredVnis []uint32
	LearnedVnis    []uint32
	SupportedVnis  []uint32

	Log *slog.Logger
}

func NewTrillState(local state.NodeInfo, reg *nickdb.Registry, engine spf.Engine, log *slog.Logger) *TrillState {
	local.Flags |= state.FlagV0
	if local.Priority == 0 {
		local.Priority = state.DefaultNickPriority
	}
	if local.RootPriority == 0 {
		local.RootPriority = state.DefaultRootPriority
	}
	return &TrillState{
		Local:      local,
		AutoNick:   true,
		Registry:   reg,
		Engine:     engine,
		Forwarding: make(dtree.Table),
		Log:        log,
	}
}

func (ts *TrillState) alloc() *nickdb.Allocator {
	return ts.Registry.Allocator()
}

func (ts *TrillState) moveNick(next state.NickState) {
	ns, err := ts.NickState.Transition(next)
	if err != nil {
		ts.Log.Warn("nickname lifecycle", "error", err)
		return
	}
	ts.NickState = ns
}

// setLocalNick takes nick for the local RBridge and gives the previous
// nickname back unless a remote RBridge has taken it over.
func (ts *TrillState) setLocalNick(r Effects, nick state.Nickname) {
	old := ts.Local.Nick
	ts.alloc().Reserve(nick)
	ts.Local.Nick = nick
	if old.Valid() && old != nick {
		if _, held := ts.Registry.LookupNick(old); !held {
			_ = ts.alloc().Release(old)
		}
	}
	r.PublishNick(nick)
}

func (ts *TrillState) generateNick(r Effects) error {
	nick := ts.alloc().AllocateRandom()
	if nick == state.NicknameNone {
		return state.ErrAllocationExhausted
	}
	ts.setLocalNick(r, nick)
	ts.moveNick(state.NickPending)
	ts.moveNick(state.NickActive)
	r.Log(NickGenerated, "generated local nickname", "nick", nick)
	return nil
}

// ConfigureNickname applies an operator configured nickname. When another
// RBridge holds it the conflict order decides: if we lose, the previous
// nickname is kept and ErrNicknameConflictLoss is returned.
func ConfigureNickname(ts *TrillState, r Effects, nick state.Nickname) error {
	if !nick.Valid() || nick.Reserved() {
		return fmt.Errorf("%w: %d", state.ErrInvalidNickname, nick)
	}
	cand := ts.Local.Clone()
	cand.Nick = nick
	cand.Priority |= state.PriorityConfigured
	if owner, ok := ts.Registry.LookupNick(nick); ok {
		if !nickdb.Wins(cand, owner.Info) {
			perf.NicknameConflicts.Add(1)
			r.Log(NickConflictLost, "configured nickname is held by a higher priority rbridge", "nick", nick, "owner", owner.Info)
			return fmt.Errorf("%w: %d held by %s", state.ErrNicknameConflictLoss, nick, owner.Info.SystemId)
		}
		perf.NicknameConflicts.Add(1)
		r.Log(NickConflictWon, "configured nickname evicts rbridge", "nick", nick, "owner", owner.Info)
		ts.Registry.EvictNick(nick)
		r.WithdrawNick(nick)
	}
	ts.Local.Priority = cand.Priority
	ts.setLocalNick(r, nick)
	ts.moveNick(state.NickPending)
	ts.moveNick(state.NickActive)
	ts.NickSet = true
	ts.AutoNick = false
	r.Log(NickConfigured, "configured local nickname", "nick", nick)
	r.RegenerateLsp()
	return nil
}

// ClearNickname drops the configured nickname and generates one.
func ClearNickname(ts *TrillState, r Effects) error {
	if err := ts.generateNick(r); err != nil {
		return err
	}
	ts.Local.Priority &^= state.PriorityConfigured
	ts.NickSet = true
	ts.AutoNick = true
	r.RegenerateLsp()
	return nil
}

// ConfigurePriority sets the nickname and root priorities, zero restores the
// defaults. A nickname that was not generated keeps the configured bit.
func ConfigurePriority(ts *TrillState, r Effects, prio uint8, rootPrio uint16) {
	p := state.Priority(prio)
	if p == 0 {
		p = state.DefaultNickPriority
	}
	rp := rootPrio
	if rp == 0 {
		rp = state.DefaultRootPriority
	}
	if !ts.AutoNick {
		p |= state.PriorityConfigured
		rp |= state.RootPriorityConfigured
	}
	ts.Local.Priority = p
	ts.Local.RootPriority = rp
	r.Log(PriorityChanged, "local priority changed", "prio", p, "root-prio", rp)
	r.RegenerateLsp()
	r.ScheduleSpf()
}

func ClearPriority(ts *TrillState, r Effects) {
	ConfigurePriority(ts, r, 0, 0)
}

// AcquireLspDb marks the link-state database as acquired and picks a
// nickname if none was set yet.
func AcquireLspDb(ts *TrillState, r Effects) error {
	if ts.LspDbAcquired || ts.NickSet {
		return nil
	}
	ts.LspDbAcquired = true
	r.Log(LspDbAcquired, "link-state database acquired")
	if ts.Local.Nick == state.NicknameNone {
		if err := ts.generateNick(r); err != nil {
			return err
		}
		ts.NickSet = true
		ts.AutoNick = true
		r.RegenerateLsp()
	}
	return nil
}

// AdoptDataplaneNick takes the nickname the data plane kept across a restart
// so the campus does not see a new one. It is ignored once a nickname is set
// or when the nickname is taken.
func AdoptDataplaneNick(ts *TrillState, r Effects, nick state.Nickname) bool {
	if !nick.Valid() || nick.Reserved() || ts.NickSet || ts.Local.Nick != state.NicknameNone {
		return false
	}
	if ts.alloc().IsUsed(nick) {
		return false
	}
	ts.setLocalNick(r, nick)
	ts.moveNick(state.NickPending)
	ts.moveNick(state.NickActive)
	ts.NickSet = true
	ts.AutoNick = true
	r.Log(NickAdopted, "adopted nickname kept by the data plane", "nick", nick)
	r.RegenerateLsp()
	return true
}

// HandleLsp processes a received LSP. It returns an error only when the
// instance can no longer hold a valid nickname.
func HandleLsp(ts *TrillState, r Effects, ev LspEvent) error {
	if ev.PseudoId != 0 {
		r.Log(LspIgnored, "pseudo-node lsp", "lsp", ev)
		return nil
	}
	perf.LspsParsed.Add(1)
	info, presence := tlv.ParseRecord(ts.Log, ev.Capability)
	info.SystemId = ev.SystemId
	found := presence == tlv.NickFound

	if ev.SystemId == ts.Local.SystemId {
		if found && !ev.Purged && ts.Local.Nick.Valid() && info.Nick != ts.Local.Nick {
			return fmt.Errorf("%w: %s advertises nickname %d", state.ErrDuplicateSystemId, ev.SystemId, info.Nick)
		}
		r.Log(LspIgnored, "own lsp", "lsp", ev)
		return nil
	}

	if presence == tlv.NickUnusable {
		r.Log(LspIgnored, "rbridge advertises an unusable nickname", "sysid", ev.SystemId)
		return nil
	}
	if ev.Purged {
		purgeLsp(ts, r, info, found)
		return nil
	}
	if !found {
		// the rbridge restarted and has not chosen a nickname yet
		dropSystemId(ts, r, ev.SystemId)
		return nil
	}
	if !info.Flags.Has(state.FlagV0) {
		r.Log(LspIgnored, "rbridge does not support TRILL header version 0", "sysid", info.SystemId)
		return nil
	}
	return receiveNick(ts, r, info)
}

func receiveNick(ts *TrillState, r Effects, info state.NodeInfo) error {
	nickChange := false
	if info.Nick == ts.Local.Nick {
		if !nickdb.Wins(info, ts.Local) {
			// they will yield once they see our LSP
			r.Log(NickConflictWon, "rbridge claims our nickname", "other", info)
			return nil
		}
		nickChange = true
		perf.NicknameConflicts.Add(1)
		r.Log(NickConflictLost, "rbridge takes over our nickname", "other", info)
	}

	res := ts.Registry.Update(info)
	if state.DBG_log_nickdb {
		ts.Log.Debug("nickdb update", "info", info, "result", res.Result, "stored", res.Stored)
	}
	for _, nick := range res.Released {
		r.WithdrawNick(nick)
	}
	if res.Evicted != nil {
		perf.NicknameConflicts.Add(1)
		r.Log(NickConflictLost, "rbridge lost its nickname", "loser", *res.Evicted, "winner", info)
		r.WithdrawNick(res.Evicted.Nick)
	}
	if res.Stored && res.Result != nickdb.Duplicate {
		r.Log(NickLearned, "learned nickname", "info", info, "result", res.Result)
		r.ScheduleSpf()
	}

	if nickChange {
		ts.moveNick(state.NickConflicted)
		if err := ts.generateNick(r); err != nil {
			return err
		}
		ts.AutoNick = true
		ts.Local.Priority &^= state.PriorityConfigured
		r.RegenerateLsp()
	}
	return nil
}

func purgeLsp(ts *TrillState, r Effects, info state.NodeInfo, found bool) {
	if !found {
		dropSystemId(ts, r, info.SystemId)
		return
	}
	if info.Priority < state.MinPriority {
		return
	}
	// only forget the nickname if this LSP is where we learned it
	if res, _ := ts.Registry.Classify(info); res == nickdb.Duplicate {
		dropSystemId(ts, r, info.SystemId)
	}
}

func dropSystemId(ts *TrillState, r Effects, id state.SystemId) {
	nick := ts.Registry.NickOf(id)
	if ts.Registry.DeleteBySystemId(id) {
		r.Log(NickWithdrawn, "forgot nickname", "sysid", id, "nick", nick)
		r.WithdrawNick(nick)
		r.ScheduleSpf()
	}
}

// UpdateVnis merges VNIs learned from the data plane with the configured
// ones. A change requires a new LSP.
func UpdateVnis(ts *TrillState, r Effects, learned []uint32) bool {
	ts.LearnedVnis = slices.Clone(learned)
	supported := slices.Concat(ts.ConfiguredVnis, ts.LearnedVnis)
	slices.Sort(supported)
	supported = slices.Compact(supported)
	if slices.Equal(supported, ts.SupportedVnis) {
		return false
	}
	ts.SupportedVnis = supported
	r.Log(VnisChanged, "supported vnis changed", "vnis", supported)
	r.RegenerateLsp()
	return true
}

// SelectTreeRoot picks the distribution tree root: highest root priority,
// then lowest system id. The local RBridge takes part once it has a nickname.
func SelectTreeRoot(ts *TrillState) state.Nickname {
	var best *state.NodeInfo
	consider := func(info *state.NodeInfo) {
		if !info.Nick.Valid() {
			return
		}
		if best == nil ||
			info.RootPriority > best.RootPriority ||
			(info.RootPriority == best.RootPriority && info.SystemId.Compare(best.SystemId) < 0) {
			best = info
		}
	}
	consider(&ts.Local)
	for _, n := range ts.Registry.Nodes() {
		consider(&n.Info)
	}
	if best == nil {
		return state.NicknameNone
	}
	return best.Nick
}

// ComputeTrees runs SPF for the local RBridge and every registered RBridge,
// then rebuilds the forwarding table and the adjacency lists.
func ComputeTrees(ts *TrillState, r Effects) error {
	local := ts.Local.SystemId
	tree, err := ts.Engine.Compute(local)
	if err != nil {
		if !errors.Is(err, spf.ErrUnknownRoot) {
			r.Log(SpfFailed, "local spf failed", "error", err)
			return nil
		}
		// not attached to the campus yet
		ts.Tree = nil
		if len(ts.Forwarding) > 0 {
			r.FlushNicks()
		}
		ts.Forwarding = make(dtree.Table)
		ts.Adjacencies = nil
		return nil
	}
	if state.DBG_log_spf {
		ts.Log.Debug("local spf tree", "tree", tree)
	}

	nicks := make(map[state.SystemId]state.Nickname)
	for _, n := range ts.Registry.Nodes() {
		nicks[n.Info.SystemId] = n.Info.Nick
	}
	fwd, stale := dtree.BuildForwardingTable(ts.Log, tree, ts.Registry)
	for _, id := range stale {
		r.Log(StaleRbridgeDropped, "rbridge is unreachable", "sysid", id, "nick", nicks[id], "error", state.ErrStaleEntry)
		r.WithdrawNick(nicks[id])
	}

	prev := ts.Forwarding
	ts.Tree = tree
	ts.Forwarding = fwd
	ts.Adjacencies = dtree.BuildAdjacencyList(tree, local, ts.Registry, fwd)

	for _, n := range ts.Registry.Nodes() {
		n.Tree, err = ts.Engine.Compute(n.Info.SystemId)
		if err != nil {
			n.Tree = nil
			n.Adjacencies = nil
			if state.DBG_log_spf {
				ts.Log.Debug("no tree for rbridge", "sysid", n.Info.SystemId, "error", err)
			}
			continue
		}
		n.Adjacencies = dtree.BuildAdjacencyList(n.Tree, local, ts.Registry, fwd)
	}

	// stale rbridges were withdrawn above and are no longer registered
	for nick := range prev {
		if _, ok := fwd[nick]; ok {
			continue
		}
		if _, known := ts.Registry.LookupNick(nick); known {
			r.WithdrawNick(nick)
		}
	}
	for _, e := range fwd.Entries() {
		n, ok := ts.Registry.LookupNick(e.Nick)
		if !ok {
			continue
		}
		r.InstallNick(e, n.Adjacencies, n.Info.DtRoots)
	}

	root := SelectTreeRoot(ts)
	if root != ts.TreeRoot {
		ts.TreeRoot = root
		r.Log(TreeRootChanged, "distribution tree root changed", "root", root)
		r.PublishRoot(root)
	}
	perf.SpfRuns.Add(1)
	r.Log(SpfCompleted, "spf completed", "reachable", len(fwd), "adjacencies", ts.Adjacencies)
	return nil
}
