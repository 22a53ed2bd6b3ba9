package nickdb

import (
	"cmp"

	"github.com/encodeous/rbridge/state"
)

// Compare orders two claims on a nickname. A positive result means a wins:
// the higher priority wins, on equal priority the lower system id does.
func Compare(a, b state.NodeInfo) int {
	if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
		return c
	}
	return b.SystemId.Compare(a.SystemId)
}

// Wins reports whether a keeps the nickname over b.
func Wins(a, b state.NodeInfo) bool {
	return Compare(a, b) > 0
}
