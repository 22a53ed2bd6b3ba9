package core

import "fmt"

type RouterEvent int

// trace events

const (
	NickGenerated RouterEvent = iota
	NickConfigured
	NickAdopted
	NickLearned
	NickWithdrawn
	PriorityChanged
	LspDbAcquired
	LspIgnored
	SpfCompleted
	TreeRootChanged
	VnisChanged
)

// warn events

const (
	NickConflictLost RouterEvent = iota + 1000
	NickConflictWon
	StaleRbridgeDropped
	SpfFailed
	DataplaneFailed
)

func (e RouterEvent) String() string {
	switch e {
	case NickGenerated:
		return "NickGenerated"
	case NickConfigured:
		return "NickConfigured"
	case NickAdopted:
		return "NickAdopted"
	case NickLearned:
		return "NickLearned"
	case NickWithdrawn:
		return "NickWithdrawn"
	case PriorityChanged:
		return "PriorityChanged"
	case LspDbAcquired:
		return "LspDbAcquired"
	case LspIgnored:
		return "LspIgnored"
	case SpfCompleted:
		return "SpfCompleted"
	case TreeRootChanged:
		return "TreeRootChanged"
	case VnisChanged:
		return "VnisChanged"
	case NickConflictLost:
		return "NickConflictLost"
	case NickConflictWon:
		return "NickConflictWon"
	case StaleRbridgeDropped:
		return "StaleRbridgeDropped"
	case SpfFailed:
		return "SpfFailed"
	case DataplaneFailed:
		return "DataplaneFailed"
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

// Warning reports whether the event is logged at warn level.
func (e RouterEvent) Warning() bool {
	return e >= NickConflictLost
}
