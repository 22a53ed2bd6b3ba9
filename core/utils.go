package core

import (
	"reflect"

	"github.com/encodeous/rbridge/state"
)

func Get[T state.RbModule](s *state.State) T {
	t := reflect.TypeFor[T]()
	return s.Modules[t.String()].(T)
}
