package nickdb

import (
	"math/rand/v2"
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator() *Allocator {
	return NewAllocator(rand.New(rand.NewPCG(1, 2)))
}

func TestAllocatorInit(t *testing.T) {
	a := newTestAllocator()
	assert.True(t, a.IsUsed(state.NicknameNone))
	assert.True(t, a.IsUsed(state.NicknameUnused))
	assert.False(t, a.IsUsed(1))
	assert.False(t, a.IsUsed(state.NicknameMinReserved))
	assert.Equal(t, 0xFFBF, a.Available())
}

func TestAllocatorReserveRelease(t *testing.T) {
	a := newTestAllocator()
	assert.False(t, a.Reserve(100))
	assert.True(t, a.Reserve(100))
	assert.True(t, a.IsUsed(100))
	assert.Equal(t, 0xFFBF-1, a.Available())

	// reserved range does not count towards available
	assert.False(t, a.Reserve(0xFFC5))
	assert.Equal(t, 0xFFBF-1, a.Available())

	require.NoError(t, a.Release(100))
	assert.Error(t, a.Release(100))
	require.NoError(t, a.Release(0xFFC5))
	assert.Equal(t, 0xFFBF, a.Available())

	assert.True(t, a.Reserve(state.NicknameNone))
	assert.ErrorIs(t, a.Release(state.NicknameNone), state.ErrInvalidNickname)
	assert.ErrorIs(t, a.Release(state.NicknameUnused), state.ErrInvalidNickname)
}

func TestAllocateRandomUnique(t *testing.T) {
	a := newTestAllocator()
	seen := make(map[state.Nickname]bool)
	for range 5000 {
		n := a.AllocateRandom()
		require.True(t, n.Valid())
		require.False(t, n.Reserved())
		require.False(t, seen[n], "nickname %d returned twice", n)
		require.True(t, a.IsUsed(n))
		seen[n] = true
	}
	assert.Equal(t, 0xFFBF-5000, a.Available())
}

func TestAllocateRandomExhaustion(t *testing.T) {
	a := newTestAllocator()
	total := a.Available()
	for i := 0; i < total; i++ {
		n := a.AllocateRandom()
		require.NotEqual(t, state.NicknameNone, n, "allocation %d failed early", i)
	}
	assert.Equal(t, 0, a.Available())
	assert.Equal(t, state.NicknameNone, a.AllocateRandom())

	// the reserved range is still untouched
	for n := state.NicknameMinReserved; n <= state.NicknameMaxReserved; n++ {
		assert.False(t, a.IsUsed(n))
	}

	require.NoError(t, a.Release(1234))
	assert.Equal(t, state.Nickname(1234), a.AllocateRandom())
	assert.Equal(t, state.NicknameNone, a.AllocateRandom())
}

func TestAllocateRandomSkipsHeld(t *testing.T) {
	a := newTestAllocator()
	// hold everything except 3 and 0xFFBF
	for n := state.Nickname(1); n < state.NicknameMinReserved; n++ {
		if n != 3 && n != 0xFFBF {
			a.Reserve(n)
		}
	}
	require.Equal(t, 2, a.Available())
	got := []state.Nickname{a.AllocateRandom(), a.AllocateRandom()}
	assert.ElementsMatch(t, []state.Nickname{3, 0xFFBF}, got)
}
