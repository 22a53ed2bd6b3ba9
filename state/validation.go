package state

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func PathValidator(s string) error {
	_, err := os.Stat(path.Dir(s))
	if err != nil {
		return err
	}
	_, err = filepath.Abs(s)
	return err
}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func PriorityValidator(p uint8) error {
	if Priority(p) < MinPriority || Priority(p) > MaxPriority {
		return fmt.Errorf("priority %d is out of range [%d, %d]", p, MinPriority, MaxPriority)
	}
	return nil
}

func RootPriorityValidator(p uint16) error {
	if p < MinRootPriority || p > MaxRootPriority {
		return fmt.Errorf("root priority %d is out of range [%d, %d]", p, MinRootPriority, MaxRootPriority)
	}
	return nil
}

// NicknameValidator accepts nicknames an operator may configure.
func NicknameValidator(n Nickname) error {
	if !n.Valid() || n.Reserved() {
		return fmt.Errorf("%w: %d is reserved", ErrInvalidNickname, n)
	}
	return nil
}

func NodeConfigValidator(cfg *LocalCfg) error {
	if err := NameValidator(cfg.Id); err != nil {
		return err
	}
	if cfg.SystemId.IsZero() {
		return fmt.Errorf("node %s has no system id", cfg.Id)
	}
	if cfg.Nickname != NicknameNone {
		if err := NicknameValidator(cfg.Nickname); err != nil {
			return err
		}
	}
	if err := PriorityValidator(cfg.Priority); err != nil {
		return err
	}
	if err := RootPriorityValidator(cfg.RootPriority); err != nil {
		return err
	}
	for _, root := range cfg.DtRoots {
		if !root.Valid() {
			return fmt.Errorf("%w: distribution tree root %d", ErrInvalidNickname, root)
		}
	}
	for _, port := range cfg.Ports {
		if port.Name == "" {
			return fmt.Errorf("port with index %d has no name", port.Index)
		}
	}
	if cfg.LogPath != "" {
		if err := PathValidator(cfg.LogPath); err != nil {
			return err
		}
	}
	return nil
}

func CampusConfigValidator(cfg *CampusCfg) error {
	names := make([]string, 0, len(cfg.Routers))
	sysids := make([]SystemId, 0, len(cfg.Routers))
	for _, r := range cfg.Routers {
		if err := NameValidator(r.Id); err != nil {
			return err
		}
		if slices.Contains(names, r.Id) {
			return fmt.Errorf("duplicate router found: %s", r.Id)
		}
		if slices.Contains(sysids, r.SystemId) {
			return fmt.Errorf("duplicate system id found: %s", r.SystemId)
		}
		if _, err := r.HardwareAddr(); err != nil {
			return err
		}
		names = append(names, r.Id)
		sysids = append(sysids, r.SystemId)
	}
	pairs := cfg.LinkPairs()
	for i, pair := range pairs {
		if pair.V1 == pair.V2 {
			return fmt.Errorf("link from %s to itself", pair.V1)
		}
		if i > 0 && pairs[i-1] == pair {
			return fmt.Errorf("duplicate link found: %s, %s", pair.V1, pair.V2)
		}
		if !slices.Contains(names, pair.V1) {
			return fmt.Errorf("router %s not defined", pair.V1)
		}
		if !slices.Contains(names, pair.V2) {
			return fmt.Errorf("router %s not defined", pair.V2)
		}
	}
	for _, lan := range cfg.Lans {
		if !slices.Contains(names, lan.Dis) {
			return fmt.Errorf("router %s not defined", lan.Dis)
		}
		if lan.PseudoId == 0 {
			return fmt.Errorf("lan of %s must have a non-zero pseudo id", lan.Dis)
		}
		for _, m := range lan.Members {
			if !slices.Contains(names, m.Router) {
				return fmt.Errorf("router %s not defined", m.Router)
			}
		}
	}
	return nil
}
