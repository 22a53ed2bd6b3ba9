package state

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// SystemIdLen is the IS-IS system id length
const SystemIdLen = 6

// SystemId is the IS-IS system identifier of an RBridge.
type SystemId [SystemIdLen]byte

func (s SystemId) String() string {
	return fmt.Sprintf("%02x%02x.%02x%02x.%02x%02x", s[0], s[1], s[2], s[3], s[4], s[5])
}

func (s SystemId) IsZero() bool {
	return s == SystemId{}
}

// Compare orders system ids lexicographically.
func (s SystemId) Compare(o SystemId) int {
	return bytes.Compare(s[:], o[:])
}

func (s SystemId) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SystemId) UnmarshalText(text []byte) error {
	id, err := ParseSystemId(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// ParseSystemId accepts the dotted IS-IS form (0000.0000.0001), colon separated bytes or plain hex.
func ParseSystemId(str string) (SystemId, error) {
	clean := strings.NewReplacer(".", "", ":", "", "-", "").Replace(strings.TrimSpace(str))
	data, err := hex.DecodeString(clean)
	if err != nil {
		return SystemId{}, fmt.Errorf("invalid system id %q: %w", str, err)
	}
	if len(data) != SystemIdLen {
		return SystemId{}, fmt.Errorf("invalid system id %q: expected %d bytes, got %d", str, SystemIdLen, len(data))
	}
	return SystemId(data), nil
}

func MustParseSystemId(str string) SystemId {
	id, err := ParseSystemId(str)
	if err != nil {
		panic(err)
	}
	return id
}

// HexBytes is a byte string that serializes as hex in config files.
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	clean := strings.Join(strings.Fields(string(text)), "")
	data, err := hex.DecodeString(clean)
	if err != nil {
		return err
	}
	*h = data
	return nil
}
