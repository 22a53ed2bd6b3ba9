package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/encodeous/rbridge/state"
)

// IPCGet asks a running rbridge for a show projection.
func IPCGet(socket, what string) (string, error) {
	conn, err := net.DialTimeout("unix", socket, state.DataplaneDialTimeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	_, err = rw.WriteString("show " + what + "\n")
	if err != nil {
		return "", err
	}
	err = rw.Flush()
	if err != nil {
		return "", err
	}

	res, err := rw.ReadString(0)
	if err != nil && err != io.EOF {
		return "", err
	}
	res = strings.TrimSuffix(res, "\x00")
	if msg, ok := strings.CutPrefix(res, "error: "); ok {
		return "", errors.New(strings.TrimSpace(msg))
	}
	return res, nil
}

func HandleIPCGet(e *state.Env, rw *bufio.ReadWriter) error {
	cmd, err := rw.ReadString('\n')
	if err != nil {
		return err
	}
	what, ok := strings.CutPrefix(strings.TrimSpace(cmd), "show ")
	if !ok {
		return fmt.Errorf("unknown command %s", cmd)
	}
	res, err := e.DispatchWait(func(s *state.State) (any, error) {
		// a bad request must not stop the main loop
		out, err := Show(Get[*Trill](s).TrillState, what)
		if err != nil {
			return "error: " + err.Error(), nil
		}
		return out, nil
	})
	sb := strings.Builder{}
	if err != nil {
		sb.WriteString("error: " + err.Error())
	} else {
		sb.WriteString(res.(string))
	}
	sb.WriteRune(0)
	_, err = rw.WriteString(sb.String())
	if err != nil {
		return err
	}
	return rw.Flush()
}

// Inspector serves show projections on a unix socket.
type Inspector struct {
	ln net.Listener
	wg sync.WaitGroup
}

func (i *Inspector) Init(s *state.State) error {
	socket := s.LocalCfg.InspectSocket
	if socket == "" {
		return nil
	}
	if err := os.MkdirAll(path.Dir(socket), 0700); err != nil {
		return err
	}
	_ = os.Remove(socket)
	ln, err := net.Listen("unix", socket)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", socket, err)
	}
	i.ln = ln
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			i.wg.Add(1)
			go func() {
				defer i.wg.Done()
				defer conn.Close()
				_ = conn.SetDeadline(time.Now().Add(state.DataplaneRequestTTL))
				rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
				if err := HandleIPCGet(s.Env, rw); err != nil {
					s.Log.Debug("inspect request failed", "error", err)
				}
			}()
		}
	}()
	return nil
}

func (i *Inspector) Cleanup(s *state.State) error {
	if i.ln == nil {
		return nil
	}
	err := i.ln.Close()
	i.wg.Wait()
	return err
}
