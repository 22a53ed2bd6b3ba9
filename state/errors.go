package state

import "errors"

var (
	// ErrAllocationExhausted means no nickname is left to allocate. No valid
	// protocol state exists without one, so it is fatal to the instance.
	ErrAllocationExhausted = errors.New("no nicknames available")
	// ErrDuplicateSystemId means another RBridge advertises our own system id.
	ErrDuplicateSystemId = errors.New("local system id advertised by another rbridge")

	ErrNicknameConflictLoss = errors.New("nickname held by a higher priority rbridge")
	ErrMalformedRecord      = errors.New("malformed capability record")
	ErrEncodingOverflow     = errors.New("no room for capability sub-tlv")
	ErrStaleEntry           = errors.New("rbridge unreachable")
	ErrInvalidNickname      = errors.New("invalid nickname")
)

// IsFatal reports whether err leaves the instance without a valid identity.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAllocationExhausted) || errors.Is(err, ErrDuplicateSystemId)
}
