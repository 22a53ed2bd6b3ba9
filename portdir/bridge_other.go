//go:build !linux

package portdir

import (
	"errors"
	"runtime"
)

type Bridge struct {
	Name string
}

func NewBridge(name string) *Bridge {
	return &Bridge{Name: name}
}

func (b *Bridge) Ports() ([]Port, error) {
	return nil, errors.New("bridge port discovery is not supported on " + runtime.GOOS)
}
