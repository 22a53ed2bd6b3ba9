package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Nickname is the 16-bit identifier an RBridge uses in TRILL headers.
type Nickname uint16

const (
	NicknameNone        Nickname = 0x0000
	NicknameMinReserved Nickname = 0xFFC0
	NicknameMaxReserved Nickname = 0xFFFE
	NicknameUnused      Nickname = 0xFFFF

	MinRandomNickname = NicknameNone + 1
	MaxRandomNickname = NicknameMinReserved - 1

	// NicknameSpace is the number of distinct nickname values
	NicknameSpace = 1 << 16
)

// Valid reports whether the nickname may be held by an RBridge.
func (n Nickname) Valid() bool {
	return n != NicknameNone && n != NicknameUnused
}

// Reserved reports whether the nickname lies in the range kept for future protocol use.
func (n Nickname) Reserved() bool {
	return n >= NicknameMinReserved && n <= NicknameMaxReserved
}

func (n Nickname) String() string {
	return strconv.Itoa(int(n))
}

// ParseNickname accepts decimal or 0x-prefixed hexadecimal values.
func ParseNickname(s string) (Nickname, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return NicknameNone, fmt.Errorf("invalid nickname %q: %w", s, err)
	}
	return Nickname(v), nil
}

// Priority is the nickname priority of use. The low 7 bits carry the value,
// the top bit marks a nickname configured by the operator.
type Priority uint8

const (
	PriorityConfigured  Priority = 0x80
	DefaultNickPriority Priority = 0x40
	MinPriority         Priority = 1
	MaxPriority         Priority = 127

	DefaultRootPriority uint16 = 0x40
	// RootPriorityConfigured is set on the root priority together with PriorityConfigured
	RootPriorityConfigured uint16 = 0x80
	MinRootPriority        uint16 = 1
	MaxRootPriority        uint16 = 65534
)

func (p Priority) Configured() bool {
	return p&PriorityConfigured != 0
}

func (p Priority) Value() uint8 {
	return uint8(p &^ PriorityConfigured)
}

// Flags is the TRILL flags byte advertised in the capability record.
type Flags uint8

const (
	// FlagV0 signals support of TRILL header version 0
	FlagV0 Flags = 0x80
)

func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// NickState tracks where an RBridge nickname is in its lifecycle.
type NickState int

const (
	NickUnassigned NickState = iota
	NickPending
	NickActive
	NickConflicted
	NickRetired
)

func (s NickState) String() string {
	switch s {
	case NickUnassigned:
		return "unassigned"
	case NickPending:
		return "pending"
	case NickActive:
		return "active"
	case NickConflicted:
		return "conflicted"
	case NickRetired:
		return "retired"
	}
	return fmt.Sprintf("NickState(%d)", int(s))
}

var nickTransitions = map[NickState][]NickState{
	NickUnassigned: {NickPending},
	NickPending:    {NickActive, NickConflicted, NickRetired},
	NickActive:     {NickConflicted, NickRetired, NickPending},
	NickConflicted: {NickActive, NickPending, NickRetired},
}

// Transition returns the next state, or an error if the move is not part of the lifecycle.
func (s NickState) Transition(next NickState) (NickState, error) {
	if s == next {
		return s, nil
	}
	for _, allowed := range nickTransitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("invalid nickname state transition %s -> %s", s, next)
}
