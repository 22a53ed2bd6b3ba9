// Package tlv encodes and decodes the TRILL sub-TLVs carried in the IS-IS
// router capability TLV.
package tlv

import (
	"encoding/binary"
	"fmt"

	"github.com/encodeous/rbridge/state"
)

const (
	TypeRouterCapability byte = 242

	SubTrillVersion     byte = 21
	SubTrillNickname    byte = 6
	SubTrillTree        byte = 7
	SubTrillTreeRoots   byte = 8
	SubTrillTreeRootsId byte = 9
	SubTrillFlags       byte = 23

	// HeaderLen is the router id and flags that open a capability TLV
	HeaderLen   = 5
	NicknameLen = 7
	MaxLen      = 255
)

// Builder appends sub-TLVs to one router capability TLV.
type Builder struct {
	buf   []byte
	start int
	limit int
}

// NewBuilder appends an empty capability TLV to buf. limit bounds the total length of buf.
func NewBuilder(buf []byte, limit int, routerId uint32, flags byte) (*Builder, error) {
	if len(buf)+2+HeaderLen > limit {
		return nil, fmt.Errorf("%w: capability header", state.ErrEncodingOverflow)
	}
	b := &Builder{buf: buf, start: len(buf), limit: limit}
	b.buf = append(b.buf, TypeRouterCapability, HeaderLen)
	b.buf = binary.BigEndian.AppendUint32(b.buf, routerId)
	b.buf = append(b.buf, flags)
	return b, nil
}

// Len is the current value length of the outer TLV.
func (b *Builder) Len() int {
	return int(b.buf[b.start+1])
}

// Add appends a sub-TLV and patches the outer length.
func (b *Builder) Add(tag byte, value []byte) error {
	need := 2 + len(value)
	if len(b.buf)+need > b.limit || b.Len()+need > MaxLen {
		return fmt.Errorf("%w: sub-tlv %d needs %d bytes", state.ErrEncodingOverflow, tag, need)
	}
	b.buf = append(b.buf, tag, byte(len(value)))
	b.buf = append(b.buf, value...)
	b.buf[b.start+1] = byte(b.Len() + need)
	return nil
}

func (b *Builder) Bytes() []byte {
	return b.buf
}

// AppendCapability appends the capability TLV advertising info. On error buf
// is returned unchanged and the advertisement should be retried later.
func AppendCapability(buf []byte, limit int, info state.NodeInfo) ([]byte, error) {
	b, err := NewBuilder(buf, limit, 0, 0)
	if err != nil {
		return buf, err
	}
	if err = b.Add(SubTrillFlags, []byte{byte(info.Flags)}); err != nil {
		return buf, err
	}
	nick := make([]byte, 0, NicknameLen)
	nick = append(nick, byte(info.Priority))
	nick = binary.BigEndian.AppendUint16(nick, uint16(info.Nick))
	nick = binary.BigEndian.AppendUint16(nick, info.RootPriority)
	nick = binary.BigEndian.AppendUint16(nick, info.RootCount)
	if err = b.Add(SubTrillNickname, nick); err != nil {
		return buf, err
	}
	if len(info.DtRoots) > 0 {
		roots := make([]byte, 0, 2*len(info.DtRoots))
		for _, r := range info.DtRoots {
			roots = binary.BigEndian.AppendUint16(roots, uint16(r))
		}
		if err = b.Add(SubTrillTreeRoots, roots); err != nil {
			return buf, err
		}
	}
	return b.Bytes(), nil
}
