package tlv

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/encodeous/rbridge/perf"
	"github.com/encodeous/rbridge/state"
)

// Presence tells what a record said about the nickname of its RBridge.
type Presence int

const (
	// NickAbsent means no nickname sub-TLV was advertised.
	NickAbsent Presence = iota
	// NickUnusable means the first nickname sub-TLV carried NONE or UNUSED.
	NickUnusable
	NickFound
)

func (p Presence) String() string {
	switch p {
	case NickAbsent:
		return "absent"
	case NickUnusable:
		return "unusable"
	case NickFound:
		return "found"
	}
	return fmt.Sprintf("Presence(%d)", int(p))
}

type decoder struct {
	log       *slog.Logger
	info      state.NodeInfo
	haveFlags bool
	seenNick  bool
	haveNick  bool
}

func newDecoder(log *slog.Logger) *decoder {
	if log == nil {
		log = slog.Default()
	}
	return &decoder{
		log:  log,
		info: state.NodeInfo{RootPriority: state.DefaultRootPriority},
	}
}

func (d *decoder) malformed(msg string, args ...any) {
	perf.MalformedRecords.Add(1)
	d.log.Warn(msg, append(args, "error", state.ErrMalformedRecord)...)
}

// capability walks the value of one router capability TLV.
func (d *decoder) capability(value []byte) {
	if len(value) < HeaderLen {
		d.malformed("capability tlv shorter than its header", "len", len(value))
		return
	}
	rest := value[HeaderLen:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			d.malformed("truncated sub-tlv header", "remaining", len(rest))
			return
		}
		tag, length := rest[0], int(rest[1])
		rest = rest[2:]
		if length > len(rest) {
			d.malformed("sub-tlv length exceeds capability tlv", "tag", tag, "len", length, "remaining", len(rest))
			return
		}
		val := rest[:length]
		rest = rest[length:]
		switch tag {
		case SubTrillFlags:
			d.flags(val)
		case SubTrillNickname:
			d.nickname(val)
		case SubTrillTreeRoots:
			d.roots(val)
		case SubTrillVersion, SubTrillTree, SubTrillTreeRootsId:
		default:
			d.log.Debug("skipping unknown sub-tlv", "tag", tag, "len", length)
		}
	}
}

func (d *decoder) flags(val []byte) {
	if d.haveFlags {
		d.malformed("duplicate trill flags sub-tlv ignored")
		return
	}
	if len(val) < 1 {
		d.malformed("empty trill flags sub-tlv")
		return
	}
	d.info.Flags = state.Flags(val[0])
	d.haveFlags = true
}

func (d *decoder) nickname(val []byte) {
	if d.seenNick {
		d.malformed("duplicate trill nickname sub-tlv ignored")
		return
	}
	if len(val) < NicknameLen {
		d.malformed("short trill nickname sub-tlv", "len", len(val))
		return
	}
	d.seenNick = true
	nick := state.Nickname(binary.BigEndian.Uint16(val[1:3]))
	if !nick.Valid() {
		d.malformed("trill nickname sub-tlv carries an invalid nickname", "nick", nick)
		return
	}
	d.info.Priority = state.Priority(val[0])
	d.info.Nick = nick
	d.info.RootPriority = binary.BigEndian.Uint16(val[3:5])
	d.info.RootCount = binary.BigEndian.Uint16(val[5:7])
	d.haveNick = true
}

func (d *decoder) roots(val []byte) {
	if len(val)%2 != 0 {
		d.malformed("odd length distribution tree roots sub-tlv", "len", len(val))
		return
	}
	for i := 0; i < len(val); i += 2 {
		root := state.Nickname(binary.BigEndian.Uint16(val[i:]))
		if !root.Valid() {
			d.malformed("invalid distribution tree root", "nick", root)
			continue
		}
		d.info.DtRoots = append(d.info.DtRoots, root)
	}
}

func (d *decoder) result() (state.NodeInfo, Presence) {
	switch {
	case d.haveNick:
		return d.info, NickFound
	case d.seenNick:
		d.info.Nick = state.NicknameNone
		return d.info, NickUnusable
	}
	d.info.Nick = state.NicknameNone
	return d.info, NickAbsent
}

// Decode parses the value of a router capability TLV. found is false when no
// usable nickname was advertised, which is not an error.
func Decode(log *slog.Logger, value []byte) (info state.NodeInfo, found bool) {
	d := newDecoder(log)
	d.capability(value)
	info, p := d.result()
	return info, p == NickFound
}

// DecodeRecord walks a sequence of TLVs and decodes every router capability
// TLV in it. Only the first flags and nickname sub-TLVs of the record count.
func DecodeRecord(log *slog.Logger, tlvs []byte) (info state.NodeInfo, found bool) {
	info, p := ParseRecord(log, tlvs)
	return info, p == NickFound
}

// ParseRecord is DecodeRecord but tells an RBridge without a nickname apart
// from one advertising an unusable nickname.
func ParseRecord(log *slog.Logger, tlvs []byte) (state.NodeInfo, Presence) {
	d := newDecoder(log)
	rest := tlvs
	for len(rest) > 0 {
		if len(rest) < 2 {
			d.malformed("truncated tlv header", "remaining", len(rest))
			break
		}
		typ, length := rest[0], int(rest[1])
		rest = rest[2:]
		if length > len(rest) {
			d.malformed("tlv length exceeds record", "type", typ, "len", length, "remaining", len(rest))
			break
		}
		if typ == TypeRouterCapability {
			d.capability(rest[:length])
		}
		rest = rest[length:]
	}
	return d.result()
}
