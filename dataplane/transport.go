package dataplane

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/encodeous/rbridge/state"
)

// Transport carries messages to and from the data plane.
type Transport interface {
	Send(m Message) error
	// Recv blocks until a message arrives or the transport is closed
	Recv() (Message, error)
	Close() error
}

// StreamTransport frames messages with a 4 byte length over a byte stream.
type StreamTransport struct {
	conn io.ReadWriteCloser
	r    *bufio.Reader
	wmu  sync.Mutex
}

func NewStreamTransport(conn io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{
		conn: conn,
		r:    bufio.NewReader(conn),
	}
}

// Dial connects to a data plane listening on a unix socket.
func Dial(ctx context.Context, path string) (*StreamTransport, error) {
	ctx, cancel := context.WithTimeout(ctx, state.DataplaneDialTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to data plane at %s: %w", path, err)
	}
	return NewStreamTransport(conn), nil
}

func (t *StreamTransport) Send(m Message) error {
	payload, err := Marshal(m)
	if err != nil {
		return err
	}
	if len(payload) > state.DataplaneMaxFrameSize {
		return fmt.Errorf("data plane frame of %d bytes is too large", len(payload))
	}
	frame := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(payload)), uint32(len(payload)))
	frame = append(frame, payload...)
	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err = t.conn.Write(frame)
	return err
}

func (t *StreamTransport) Recv() (Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(t.r, hdr[:]); err != nil {
		return Message{}, err
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if size > uint32(state.DataplaneMaxFrameSize) {
		return Message{}, fmt.Errorf("data plane frame of %d bytes is too large", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(t.r, payload); err != nil {
		return Message{}, err
	}
	return Unmarshal(payload)
}

func (t *StreamTransport) Close() error {
	return t.conn.Close()
}

// Pipe returns two connected in-memory transports.
func Pipe() (*StreamTransport, *StreamTransport) {
	a, b := net.Pipe()
	return NewStreamTransport(a), NewStreamTransport(b)
}
