package dataplane

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/state"
	"github.com/jellydator/ttlcache/v3"
)

// Client sends commands to the data plane and hands every inbound reply or
// notification to a handler. Requests left unanswered expire after
// state.DataplaneRequestTTL.
type Client struct {
	t       Transport
	log     *slog.Logger
	handler func(Message)
	seq     atomic.Uint32
	pending *ttlcache.Cache[uint32, Kind]
	closed  atomic.Bool
	started atomic.Bool
	wg      sync.WaitGroup
}

func NewClient(t Transport, log *slog.Logger, handler func(Message)) *Client {
	c := &Client{
		t:       t,
		log:     log,
		handler: handler,
		pending: ttlcache.New[uint32, Kind](
			ttlcache.WithTTL[uint32, Kind](state.DataplaneRequestTTL),
			ttlcache.WithDisableTouchOnHit[uint32, Kind](),
		),
	}
	c.pending.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[uint32, Kind]) {
		if reason == ttlcache.EvictionReasonExpired {
			perf.DataplaneTimeouts.Add(1)
			c.log.Warn("data plane request timed out", "seq", item.Key(), "cmd", item.Value())
		}
	})
	return c
}

// Start begins reading from the transport.
func (c *Client) Start() {
	if c.started.Swap(true) {
		return
	}
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.pending.Start()
	}()
	go func() {
		defer c.wg.Done()
		c.readLoop()
	}()
}

func (c *Client) readLoop() {
	for {
		m, err := c.t.Recv()
		if err != nil {
			if !c.closed.Load() {
				c.log.Error("data plane connection lost", "error", err)
			}
			return
		}
		if state.DBG_log_dataplane {
			c.log.Debug("data plane recv", "msg", m)
		}
		if m.Reply {
			if c.pending.Get(m.Seq) == nil {
				c.log.Warn("dropping unexpected data plane reply", "seq", m.Seq, "cmd", m.Cmd.Kind())
				continue
			}
			c.pending.Delete(m.Seq)
		}
		c.handler(m)
	}
}

func (c *Client) send(seq uint32, cmd Command) error {
	if c.closed.Load() {
		return errors.New("data plane client is closed")
	}
	if state.DBG_log_dataplane {
		c.log.Debug("data plane send", "seq", seq, "cmd", cmd.Kind(), "body", cmd)
	}
	perf.DataplaneRequests.Add(1)
	return c.t.Send(Message{Seq: seq, Cmd: cmd})
}

// Push sends a command that expects no reply.
func (c *Client) Push(cmd Command) error {
	return c.send(c.seq.Add(1), cmd)
}

// Request sends a command whose reply will be passed to the handler.
func (c *Client) Request(cmd Command) (uint32, error) {
	seq := c.seq.Add(1)
	c.pending.Set(seq, cmd.Kind(), ttlcache.DefaultTTL)
	if err := c.send(seq, cmd); err != nil {
		c.pending.Delete(seq)
		return seq, err
	}
	return seq, nil
}

// Pending is the number of requests waiting for a reply.
func (c *Client) Pending() int {
	return c.pending.Len()
}

func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.t.Close()
	if c.started.Load() {
		c.pending.Stop()
	}
	c.wg.Wait()
	return err
}
