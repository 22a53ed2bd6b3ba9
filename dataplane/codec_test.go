package dataplane

import (
	"net"
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecCommands(t *testing.T) {
	mac, _ := net.ParseMAC("02:00:00:00:00:02")
	cmds := []Command{
		SetNick{Nick: 100},
		GetNick{},
		GetNick{Nick: 0xFFBF},
		DelNick{Nick: 7},
		SetRoot{Nick: 1},
		NickFlush{},
		PortFlush{PortIndex: 3},
		NickInfo{Nick: 200, PortIndex: 2, NextHop: mac, AdjNicks: []state.Nickname{1, 2}, DtRoots: []state.Nickname{200}},
		NickInfo{Nick: 201},
		GetVnis{Vnis: []uint32{10, 20}},
		VniAttrChange{BridgeId: 4, Vnis: []uint32{5000}},
	}
	for i, cmd := range cmds {
		m := Message{Seq: uint32(i), Reply: i%2 == 0, Cmd: cmd}
		raw, err := Marshal(m)
		require.NoError(t, err)
		got, err := Unmarshal(raw)
		require.NoError(t, err)
		if diff := cmp.Diff(m, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", cmd.Kind(), diff)
		}
	}
}

func TestCodecRejectsUnknown(t *testing.T) {
	_, err := Marshal(Message{})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	raw, err := Marshal(Message{Seq: 1, Cmd: SetNick{Nick: 1}})
	require.NoError(t, err)
	// kind is the varint right after the seq field
	raw[3] = 99
	_, err = Unmarshal(raw)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Unmarshal([]byte{0x08})
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SET_NICK", KindSetNick.String())
	assert.Equal(t, "VNI_ATTR_CHANGE", KindVniAttrChange.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
