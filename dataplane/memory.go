package dataplane

import (
	"errors"
	"slices"
	"sync"

	"github.com/encodeous/rbridge/state"
)

var ErrClosed = errors.New("data plane transport closed")

// Memory is an in-process data plane. It applies commands to its own tables
// and answers requests, which makes it usable when no forwarding plane runs.
type Memory struct {
	mu      sync.Mutex
	nick    state.Nickname
	root    state.Nickname
	nicks   map[state.Nickname]NickInfo
	vnis    []uint32
	history []Command
	inbox   chan Message
	done    chan struct{}
	once    sync.Once
}

func NewMemory() *Memory {
	return &Memory{
		nicks: make(map[state.Nickname]NickInfo),
		inbox: make(chan Message, 64),
		done:  make(chan struct{}),
	}
}

func (m *Memory) Send(msg Message) error {
	// everything crosses the wire encoding, as it would on a socket
	raw, err := Marshal(msg)
	if err != nil {
		return err
	}
	msg, err = Unmarshal(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.history = append(m.history, msg.Cmd)
	var reply Command
	switch c := msg.Cmd.(type) {
	case SetNick:
		m.nick = c.Nick
	case GetNick:
		reply = GetNick{Nick: m.nick}
	case DelNick:
		delete(m.nicks, c.Nick)
	case SetRoot:
		m.root = c.Nick
	case NickFlush:
		clear(m.nicks)
	case PortFlush:
	case NickInfo:
		m.nicks[c.Nick] = c
	case GetVnis:
		reply = GetVnis{Vnis: slices.Clone(m.vnis)}
	case VniAttrChange:
		m.vnis = slices.Clone(c.Vnis)
	}
	m.mu.Unlock()

	if reply != nil {
		return m.deliver(Message{Seq: msg.Seq, Reply: true, Cmd: reply})
	}
	return nil
}

// Notify broadcasts an unsolicited message to the reader.
func (m *Memory) Notify(cmd Command) error {
	return m.deliver(Message{Cmd: cmd})
}

func (m *Memory) deliver(msg Message) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.inbox <- msg:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

func (m *Memory) Recv() (Message, error) {
	select {
	case msg := <-m.inbox:
		return msg, nil
	case <-m.done:
		return Message{}, ErrClosed
	}
}

func (m *Memory) Close() error {
	m.once.Do(func() {
		close(m.done)
	})
	return nil
}

// History returns the commands received so far.
func (m *Memory) History() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Snapshot returns the current local nickname, tree root and remote nicknames.
func (m *Memory) Snapshot() (state.Nickname, state.Nickname, []state.Nickname) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nicks := make([]state.Nickname, 0, len(m.nicks))
	for n := range m.nicks {
		nicks = append(nicks, n)
	}
	slices.Sort(nicks)
	return m.nick, m.root, nicks
}

func (m *Memory) SetVnis(vnis []uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vnis = slices.Clone(vnis)
}

// Restore sets the nickname a previous run left behind.
func (m *Memory) Restore(nick state.Nickname) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nick = nick
}
