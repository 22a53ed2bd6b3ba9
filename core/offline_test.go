package core

import (
	"testing"

	"github.com/encodeous/rbridge/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	ncfg := state.LocalCfg{Id: "a", SystemId: sysA, Nickname: 100}
	state.ExpandLocalConfig(&ncfg)

	ts, err := Evaluate(testCampus(t), ncfg, discardLog)
	require.NoError(t, err)
	assert.Equal(t, state.Nickname(100), ts.Local.Nick)
	assert.False(t, ts.AutoNick)
	assert.Len(t, ts.Forwarding, 2)
	assert.Equal(t, []state.Nickname{200}, ts.Adjacencies)
	assert.Equal(t, state.Nickname(200), ts.TreeRoot)
}

func TestEvaluateGeneratesNickname(t *testing.T) {
	ncfg := state.LocalCfg{Id: "a", SystemId: sysA}
	state.ExpandLocalConfig(&ncfg)

	ts, err := Evaluate(testCampus(t), ncfg, discardLog)
	require.NoError(t, err)
	assert.True(t, ts.Local.Nick.Valid())
	assert.NotContains(t, []state.Nickname{200, 300}, ts.Local.Nick)
	assert.True(t, ts.AutoNick)
}

func TestEvaluateConfiguredNicknameTaken(t *testing.T) {
	campus := testCampus(t)
	campus.Routers[1].Nickname = 100
	campus.Routers[1].Priority = 0xff
	ncfg := state.LocalCfg{Id: "a", SystemId: sysA, Nickname: 100}
	state.ExpandLocalConfig(&ncfg)

	// our configured nickname loses to b, a new one is generated
	ts, err := Evaluate(campus, ncfg, discardLog)
	require.NoError(t, err)
	assert.NotEqual(t, state.Nickname(100), ts.Local.Nick)
	assert.True(t, ts.AutoNick)
	assert.Equal(t, state.Nickname(100), ts.Registry.NickOf(sysB))
}
