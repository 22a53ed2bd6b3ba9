package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameValidator_Valid(t *testing.T) {
	assert.NoError(t, NameValidator("1"))
	assert.NoError(t, NameValidator("rb_1"))
	assert.NoError(t, NameValidator("core-a.campus"))
}

func TestNameValidator_Invalid(t *testing.T) {
	assert.Error(t, NameValidator("1A"))
	assert.Error(t, NameValidator("rbridge name"))
	assert.Error(t, NameValidator(""))
	assert.Error(t, NameValidator("\t"))
	assert.Error(t, NameValidator("core-a\\hi"))
	assert.Error(t, NameValidator(strings.Repeat("a", 200)))
}

func TestNicknameValidator(t *testing.T) {
	assert.NoError(t, NicknameValidator(1))
	assert.NoError(t, NicknameValidator(0xFFBF))
	assert.ErrorIs(t, NicknameValidator(NicknameNone), ErrInvalidNickname)
	assert.ErrorIs(t, NicknameValidator(NicknameUnused), ErrInvalidNickname)
	assert.ErrorIs(t, NicknameValidator(0xFFC0), ErrInvalidNickname)
}

func TestPriorityValidators(t *testing.T) {
	assert.NoError(t, PriorityValidator(1))
	assert.NoError(t, PriorityValidator(127))
	assert.Error(t, PriorityValidator(0))
	assert.Error(t, PriorityValidator(128))
	assert.NoError(t, RootPriorityValidator(65534))
	assert.Error(t, RootPriorityValidator(0))
	assert.Error(t, RootPriorityValidator(65535))
}

func campus() *CampusCfg {
	return &CampusCfg{
		Routers: []RouterCfg{
			{Id: "a", SystemId: MustParseSystemId("0000.0000.0001")},
			{Id: "b", SystemId: MustParseSystemId("0000.0000.0002")},
			{Id: "c", SystemId: MustParseSystemId("0000.0000.0003")},
		},
		Links: []LinkCfg{{A: "a", B: "b"}, {A: "c", B: "b"}},
	}
}

func TestCampusConfigValidator_Valid(t *testing.T) {
	assert.NoError(t, CampusConfigValidator(campus()))
}

func TestCampusConfigValidator_DuplicateLink(t *testing.T) {
	cfg := campus()
	cfg.Links = append(cfg.Links, LinkCfg{A: "b", B: "a"})
	assert.Error(t, CampusConfigValidator(cfg))
}

func TestCampusConfigValidator_DuplicateSystemId(t *testing.T) {
	cfg := campus()
	cfg.Routers[2].SystemId = cfg.Routers[0].SystemId
	assert.Error(t, CampusConfigValidator(cfg))
}

func TestCampusConfigValidator_UnknownEndpoint(t *testing.T) {
	cfg := campus()
	cfg.Links = append(cfg.Links, LinkCfg{A: "a", B: "z"})
	assert.Error(t, CampusConfigValidator(cfg))

	cfg = campus()
	cfg.Lans = []LanCfg{{Dis: "a", PseudoId: 1, Members: []LanMemberCfg{{Router: "q"}}}}
	assert.Error(t, CampusConfigValidator(cfg))
}

func TestNodeConfigValidator(t *testing.T) {
	cfg := &LocalCfg{Id: "a", SystemId: MustParseSystemId("0000.0000.0001")}
	ExpandLocalConfig(cfg)
	assert.NoError(t, NodeConfigValidator(cfg))

	cfg.Nickname = NicknameUnused
	assert.ErrorIs(t, NodeConfigValidator(cfg), ErrInvalidNickname)

	cfg.Nickname = 0
	cfg.SystemId = SystemId{}
	assert.Error(t, NodeConfigValidator(cfg))
}
