package tlv

import (
	"bytes"
	"log/slog"
	"slices"
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn})), buf
}

func TestRoundTrip(t *testing.T) {
	log, out := testLogger()
	for _, in := range []state.NodeInfo{
		{Nick: 1, Priority: 1, RootPriority: 1, Flags: state.FlagV0},
		{Nick: 0xFFFE, Priority: 0xFF, RootPriority: 0xFFFF, RootCount: 3, Flags: state.FlagV0},
		{Nick: 0x1234, Priority: 0x40 | state.PriorityConfigured, RootPriority: 0x40, Flags: state.FlagV0, DtRoots: []state.Nickname{7, 9}},
	} {
		buf, err := AppendCapability(nil, 1500, in)
		require.NoError(t, err)
		require.Equal(t, TypeRouterCapability, buf[0])
		require.Equal(t, len(buf)-2, int(buf[1]))

		got, found := Decode(log, buf[2:])
		require.True(t, found)
		assert.Equal(t, in.Nick, got.Nick)
		assert.Equal(t, in.Priority, got.Priority)
		assert.Equal(t, in.RootPriority, got.RootPriority)
		assert.Equal(t, in.RootCount, got.RootCount)
		assert.Equal(t, in.Flags, got.Flags)
		assert.Equal(t, in.DtRoots, got.DtRoots)
	}
	assert.Empty(t, out.String())
}

func TestEncodeLayout(t *testing.T) {
	buf, err := AppendCapability([]byte{0xAA}, 100, state.NodeInfo{
		Nick: 0x0102, Priority: 0x40, RootPriority: 0x0304, Flags: state.FlagV0,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xAA,
		242, 17, 0, 0, 0, 0, 0,
		23, 1, 0x80,
		6, 7, 0x40, 0x01, 0x02, 0x03, 0x04, 0x00, 0x00,
	}, buf)
}

func TestEncodeOverflow(t *testing.T) {
	info := state.NodeInfo{Nick: 5, Priority: 1, RootPriority: 1}
	// room for the header and flags only
	buf, err := AppendCapability(nil, 10, info)
	assert.ErrorIs(t, err, state.ErrEncodingOverflow)
	assert.Empty(t, buf)

	// too many roots for the one byte length
	info.DtRoots = make([]state.Nickname, 130)
	for i := range info.DtRoots {
		info.DtRoots[i] = state.Nickname(i + 1)
	}
	_, err = AppendCapability(nil, 4096, info)
	assert.ErrorIs(t, err, state.ErrEncodingOverflow)
}

func TestBuilderPatchesLength(t *testing.T) {
	b, err := NewBuilder(nil, 64, 0x01020304, 0)
	require.NoError(t, err)
	assert.Equal(t, HeaderLen, b.Len())
	require.NoError(t, b.Add(SubTrillVersion, []byte{0, 0, 0, 0}))
	assert.Equal(t, HeaderLen+6, b.Len())
	assert.Equal(t, []byte{242, 11, 1, 2, 3, 4, 0, 21, 4, 0, 0, 0, 0}, b.Bytes())
}

func header() []byte {
	return []byte{0, 0, 0, 0, 0}
}

func TestDecodeTruncatedNickname(t *testing.T) {
	log, out := testLogger()
	value := append(header(), SubTrillFlags, 1, byte(state.FlagV0))
	value = append(value, SubTrillNickname, 7, 0x40, 0x00)
	info, found := Decode(log, value)
	assert.False(t, found)
	assert.Equal(t, state.NicknameNone, info.Nick)
	assert.True(t, info.Flags.Has(state.FlagV0))
	assert.Contains(t, out.String(), "sub-tlv length exceeds")
}

func TestDecodeDuplicatesFirstWins(t *testing.T) {
	log, out := testLogger()
	value := append(header(), SubTrillFlags, 1, 0x80, SubTrillFlags, 1, 0x00)
	value = append(value, SubTrillNickname, 7, 10, 0, 100, 0, 0x40, 0, 0)
	value = append(value, SubTrillNickname, 7, 20, 0, 200, 0, 0x40, 0, 0)
	info, found := Decode(log, value)
	require.True(t, found)
	assert.Equal(t, state.Nickname(100), info.Nick)
	assert.Equal(t, state.Priority(10), info.Priority)
	assert.Equal(t, state.FlagV0, info.Flags)
	assert.Contains(t, out.String(), "duplicate trill flags")
	assert.Contains(t, out.String(), "duplicate trill nickname")
}

func TestDecodeShortSubTlvs(t *testing.T) {
	log, _ := testLogger()
	value := append(header(), SubTrillFlags, 0, SubTrillNickname, 3, 1, 0, 5)
	// a valid nickname after the ignored short ones is still taken
	value = append(value, SubTrillFlags, 1, 0x80, SubTrillNickname, 7, 1, 0, 5, 0, 1, 0, 0)
	info, found := Decode(log, value)
	require.True(t, found)
	assert.Equal(t, state.Nickname(5), info.Nick)
	assert.Equal(t, state.FlagV0, info.Flags)
}

func TestDecodeRoots(t *testing.T) {
	log, out := testLogger()
	value := append(header(), SubTrillTreeRoots, 3, 0, 1, 0)
	value = append(value, SubTrillTreeRoots, 6, 0x00, 0x07, 0xFF, 0xFF, 0x00, 0x00)
	value = append(value, SubTrillTreeRoots, 2, 0x00, 0x09)
	info, found := Decode(log, value)
	assert.False(t, found)
	assert.Equal(t, []state.Nickname{7, 9}, info.DtRoots)
	assert.Contains(t, out.String(), "odd length")
	assert.Contains(t, out.String(), "invalid distribution tree root")
}

func TestDecodeDefaultsAndUnknown(t *testing.T) {
	log, _ := testLogger()
	value := append(header(), 99, 2, 1, 2, SubTrillVersion, 1, 0)
	info, found := Decode(log, value)
	assert.False(t, found)
	assert.Equal(t, state.DefaultRootPriority, info.RootPriority)

	_, found = Decode(log, []byte{1, 2})
	assert.False(t, found)
	_, found = Decode(log, nil)
	assert.False(t, found)
}

func TestDecodeInvalidNickname(t *testing.T) {
	log, _ := testLogger()
	value := append(header(), SubTrillNickname, 7, 1, 0xFF, 0xFF, 0, 1, 0, 0)
	info, found := Decode(log, value)
	assert.False(t, found)
	assert.Equal(t, state.NicknameNone, info.Nick)
}

func TestParseRecordPresence(t *testing.T) {
	log, out := testLogger()
	unused, err := AppendCapability(nil, 256, state.NodeInfo{Nick: state.NicknameUnused, Priority: 3, Flags: state.FlagV0})
	require.NoError(t, err)
	valid, err := AppendCapability(nil, 256, state.NodeInfo{Nick: 44, Priority: 3, RootPriority: 1, Flags: state.FlagV0})
	require.NoError(t, err)
	noNick := []byte{TypeRouterCapability, HeaderLen + 3}
	noNick = append(noNick, header()...)
	noNick = append(noNick, SubTrillFlags, 1, 0x80)

	_, p := ParseRecord(log, noNick)
	assert.Equal(t, NickAbsent, p)

	info, p := ParseRecord(log, valid)
	assert.Equal(t, NickFound, p)
	assert.Equal(t, state.Nickname(44), info.Nick)

	info, p = ParseRecord(log, unused)
	assert.Equal(t, NickUnusable, p)
	assert.Equal(t, state.NicknameNone, info.Nick)
	assert.Contains(t, out.String(), state.ErrMalformedRecord.Error())

	// the first nickname sub-tlv decides even when it is unusable
	info, p = ParseRecord(log, append(slices.Clone(unused), valid...))
	assert.Equal(t, NickUnusable, p)
	assert.Equal(t, state.NicknameNone, info.Nick)
	_, found := DecodeRecord(log, append(slices.Clone(unused), valid...))
	assert.False(t, found)

	info, p = ParseRecord(log, append(slices.Clone(noNick), valid...))
	assert.Equal(t, NickFound, p)
	assert.Equal(t, state.Nickname(44), info.Nick)
}

func TestDecodeRecord(t *testing.T) {
	log, _ := testLogger()
	first, err := AppendCapability(nil, 256, state.NodeInfo{Nick: 42, Priority: 3, RootPriority: 1, Flags: state.FlagV0})
	require.NoError(t, err)
	record := append([]byte{1, 2, 0xAB, 0xCD}, first...)
	second, err := AppendCapability(nil, 256, state.NodeInfo{Nick: 43, Priority: 3, RootPriority: 1})
	require.NoError(t, err)
	record = append(record, second...)

	info, found := DecodeRecord(log, record)
	require.True(t, found)
	assert.Equal(t, state.Nickname(42), info.Nick)
	assert.Equal(t, state.FlagV0, info.Flags)

	// a truncated trailing tlv does not lose what was already decoded
	info, found = DecodeRecord(log, append(record, TypeRouterCapability, 40, 0))
	require.True(t, found)
	assert.Equal(t, state.Nickname(42), info.Nick)
}

func FuzzDecode(f *testing.F) {
	valid, _ := AppendCapability(nil, 256, state.NodeInfo{Nick: 9, Priority: 1, RootPriority: 1, DtRoots: []state.Nickname{1}})
	f.Add(valid[2:])
	f.Add([]byte{0, 0, 0, 0, 0, 6, 200})
	log, _ := testLogger()
	f.Fuzz(func(t *testing.T, data []byte) {
		info, found := Decode(log, data)
		if found != info.Nick.Valid() {
			t.Fatalf("found=%v with nickname %d", found, info.Nick)
		}
		DecodeRecord(log, data)
	})
}
