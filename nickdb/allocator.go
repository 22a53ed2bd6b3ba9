// Package nickdb keeps the nickname allocation bitmap and the registry of
// rbridges known in the campus.
package nickdb

import (
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/state"
)

const (
	blockSize = 32
	numBlocks = state.NicknameSpace / blockSize
	// blocks from here on lie entirely inside the reserved range
	reservedBlock = int(state.NicknameMinReserved) / blockSize
)

// Allocator hands out nicknames. A set bit means the nickname is in use.
type Allocator struct {
	blocks    [numBlocks]uint32
	free      [numBlocks]uint8
	available int
	intN      func(n int) int
}

// NewAllocator creates an allocator with NONE and UNUSED permanently held.
// A nil rng uses the global source.
func NewAllocator(rng *rand.Rand) *Allocator {
	a := &Allocator{
		available: int(state.NicknameMinReserved) - 1,
		intN:      rand.IntN,
	}
	if rng != nil {
		a.intN = rng.IntN
	}
	for i := range a.free {
		a.free[i] = blockSize
	}
	// NONE is already left out of available
	a.mark(state.NicknameNone)
	a.mark(state.NicknameUnused)
	return a
}

func (a *Allocator) mark(n state.Nickname) {
	a.blocks[n/blockSize] |= 1 << (n % blockSize)
	a.free[n/blockSize]--
}

func (a *Allocator) IsUsed(n state.Nickname) bool {
	return a.blocks[n/blockSize]&(1<<(n%blockSize)) != 0
}

// Available is the number of nicknames left for random allocation.
func (a *Allocator) Available() int {
	return a.available
}

// Reserve marks n as used. It reports whether n was already held, NONE and UNUSED always are.
func (a *Allocator) Reserve(n state.Nickname) bool {
	if !n.Valid() || a.IsUsed(n) {
		return true
	}
	a.mark(n)
	if n < state.NicknameMinReserved {
		a.available--
	}
	return false
}

// Release frees n.
func (a *Allocator) Release(n state.Nickname) error {
	if !n.Valid() {
		return fmt.Errorf("%w: %d can never be released", state.ErrInvalidNickname, n)
	}
	if !a.IsUsed(n) {
		return fmt.Errorf("nickname %d is not in use", n)
	}
	a.blocks[n/blockSize] &^= 1 << (n % blockSize)
	a.free[n/blockSize]++
	if n < state.NicknameMinReserved {
		a.available++
	}
	return nil
}

// AllocateRandom picks a uniformly random free nickname outside the reserved
// range and marks it used. It returns NONE once the pool is exhausted.
func (a *Allocator) AllocateRandom() state.Nickname {
	if a.available < 1 {
		return state.NicknameNone
	}
	idx := a.intN(a.available)
	for b := 0; b < reservedBlock; b++ {
		if idx >= int(a.free[b]) {
			idx -= int(a.free[b])
			continue
		}
		freeBits := ^a.blocks[b]
		for ; idx > 0; idx-- {
			freeBits &= freeBits - 1
		}
		n := state.Nickname(b*blockSize + bits.TrailingZeros32(freeBits))
		a.Reserve(n)
		perf.NicknameAllocations.Add(1)
		return n
	}
	// only reachable if the block counts drifted from available
	return state.NicknameNone
}
