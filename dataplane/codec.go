package dataplane

import (
	"errors"
	"fmt"
	"net"
	"slices"

	"github.com/encodeous/rbridge/state"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrUnknownCommand = errors.New("unknown data plane command")

const (
	fieldSeq   protowire.Number = 1
	fieldReply protowire.Number = 2
	fieldKind  protowire.Number = 3
	fieldBody  protowire.Number = 4
)

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendNicks(b []byte, num protowire.Number, nicks []state.Nickname) []byte {
	for _, n := range nicks {
		b = appendVarint(b, num, uint64(n))
	}
	return b
}

func appendVnis(b []byte, num protowire.Number, vnis []uint32) []byte {
	for _, v := range vnis {
		b = appendVarint(b, num, uint64(v))
	}
	return b
}

func marshalBody(cmd Command) ([]byte, error) {
	var b []byte
	switch c := cmd.(type) {
	case SetNick:
		b = appendVarint(b, 1, uint64(c.Nick))
	case GetNick:
		b = appendVarint(b, 1, uint64(c.Nick))
	case DelNick:
		b = appendVarint(b, 1, uint64(c.Nick))
	case SetRoot:
		b = appendVarint(b, 1, uint64(c.Nick))
	case NickFlush:
	case PortFlush:
		b = appendVarint(b, 1, uint64(c.PortIndex))
	case NickInfo:
		b = appendVarint(b, 1, uint64(c.Nick))
		b = appendVarint(b, 2, uint64(c.PortIndex))
		b = appendBytes(b, 3, c.NextHop)
		b = appendNicks(b, 4, c.AdjNicks)
		b = appendNicks(b, 5, c.DtRoots)
	case GetVnis:
		b = appendVnis(b, 1, c.Vnis)
	case VniAttrChange:
		b = appendVarint(b, 1, uint64(c.BridgeId))
		b = appendVnis(b, 2, c.Vnis)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return b, nil
}

// Marshal encodes a message in protobuf wire format.
func Marshal(m Message) ([]byte, error) {
	if m.Cmd == nil {
		return nil, fmt.Errorf("%w: empty message", ErrUnknownCommand)
	}
	body, err := marshalBody(m.Cmd)
	if err != nil {
		return nil, err
	}
	var b []byte
	b = appendVarint(b, fieldSeq, uint64(m.Seq))
	if m.Reply {
		b = appendVarint(b, fieldReply, 1)
	}
	b = appendVarint(b, fieldKind, uint64(m.Cmd.Kind()))
	b = appendBytes(b, fieldBody, body)
	return b, nil
}

type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	raw   []byte
}

// fields splits b into varint and length delimited fields, other wire types are skipped.
func fields(b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			out = append(out, field{num: num, typ: typ, value: v})
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			out = append(out, field{num: num, typ: typ, raw: v})
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return out, nil
}

func unmarshalBody(kind Kind, body []byte) (Command, error) {
	fs, err := fields(body)
	if err != nil {
		return nil, err
	}
	varint := func(num protowire.Number) uint64 {
		for _, f := range fs {
			if f.num == num && f.typ == protowire.VarintType {
				return f.value
			}
		}
		return 0
	}
	nick := func(num protowire.Number) state.Nickname {
		return state.Nickname(varint(num))
	}
	repeated := func(num protowire.Number) []uint64 {
		var out []uint64
		for _, f := range fs {
			if f.num == num && f.typ == protowire.VarintType {
				out = append(out, f.value)
			}
		}
		return out
	}
	nicks := func(num protowire.Number) []state.Nickname {
		var out []state.Nickname
		for _, v := range repeated(num) {
			out = append(out, state.Nickname(v))
		}
		return out
	}
	vnis := func(num protowire.Number) []uint32 {
		var out []uint32
		for _, v := range repeated(num) {
			out = append(out, uint32(v))
		}
		return out
	}

	switch kind {
	case KindSetNick:
		return SetNick{Nick: nick(1)}, nil
	case KindGetNick:
		return GetNick{Nick: nick(1)}, nil
	case KindDelNick:
		return DelNick{Nick: nick(1)}, nil
	case KindSetRoot:
		return SetRoot{Nick: nick(1)}, nil
	case KindNickFlush:
		return NickFlush{}, nil
	case KindPortFlush:
		return PortFlush{PortIndex: int(varint(1))}, nil
	case KindNickInfo:
		info := NickInfo{Nick: nick(1), PortIndex: int(varint(2)), AdjNicks: nicks(4), DtRoots: nicks(5)}
		for _, f := range fs {
			if f.num == 3 && f.typ == protowire.BytesType && len(f.raw) > 0 {
				info.NextHop = net.HardwareAddr(slices.Clone(f.raw))
			}
		}
		return info, nil
	case KindGetVnis:
		return GetVnis{Vnis: vnis(1)}, nil
	case KindVniAttrChange:
		return VniAttrChange{BridgeId: uint32(varint(1)), Vnis: vnis(2)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, kind)
}

// Unmarshal decodes a message produced by Marshal.
func Unmarshal(b []byte) (Message, error) {
	fs, err := fields(b)
	if err != nil {
		return Message{}, err
	}
	var m Message
	var kind Kind
	var body []byte
	for _, f := range fs {
		switch f.num {
		case fieldSeq:
			m.Seq = uint32(f.value)
		case fieldReply:
			m.Reply = f.value != 0
		case fieldKind:
			kind = Kind(f.value)
		case fieldBody:
			body = f.raw
		}
	}
	m.Cmd, err = unmarshalBody(kind, body)
	if err != nil {
		return Message{}, err
	}
	return m, nil
}
