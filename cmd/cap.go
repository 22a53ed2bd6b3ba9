package cmd

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/rbridge/tlv"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var capCmd = &cobra.Command{
	Use:   "cap",
	Short: "Encodes and decodes TRILL router capability TLVs",
}

var (
	encNick       string
	encPriority   uint8
	encRootPrio   uint16
	encRoots      []string
	encConfigured bool
)

var capEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Prints the capability TLV advertising the given nickname",
	RunE: func(cmd *cobra.Command, args []string) error {
		nick, err := state.ParseNickname(encNick)
		if err != nil {
			return err
		}
		if err = state.NicknameValidator(nick); err != nil {
			return err
		}
		if err = state.PriorityValidator(encPriority); err != nil {
			return err
		}
		if err = state.RootPriorityValidator(encRootPrio); err != nil {
			return err
		}
		info := state.NodeInfo{
			Nick:         nick,
			Priority:     state.Priority(encPriority),
			Flags:        state.FlagV0,
			RootPriority: encRootPrio,
		}
		if encConfigured {
			info.Priority |= state.PriorityConfigured
		}
		for _, r := range encRoots {
			root, err := state.ParseNickname(r)
			if err != nil {
				return err
			}
			info.DtRoots = append(info.DtRoots, root)
		}
		raw, err := tlv.AppendCapability(nil, tlv.MaxLen+2, info)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(raw))
		return nil
	},
	SilenceUsage: true,
}

type decodedCapability struct {
	Found        bool
	Presence     string
	Nickname     state.Nickname
	Priority     uint8
	Configured   bool
	V0           bool
	RootPriority uint16           `yaml:"root_priority"`
	RootCount    uint16           `yaml:"root_count"`
	DtRoots      []state.Nickname `yaml:"dt_roots,omitempty"`
}

var capDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decodes a sequence of TLVs and prints the TRILL record it carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(args[0]), " ", ""))
		if err != nil {
			return err
		}
		log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
		info, presence := tlv.ParseRecord(log, raw)
		out, err := yaml.Marshal(decodedCapability{
			Found:        presence == tlv.NickFound,
			Presence:     presence.String(),
			Nickname:     info.Nick,
			Priority:     info.Priority.Value(),
			Configured:   info.Priority.Configured(),
			V0:           info.Flags.Has(state.FlagV0),
			RootPriority: info.RootPriority,
			RootCount:    info.RootCount,
			DtRoots:      info.DtRoots,
		})
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(capCmd)
	capCmd.GroupID = "cfg"
	capCmd.AddCommand(capEncodeCmd)
	capCmd.AddCommand(capDecodeCmd)

	capEncodeCmd.Flags().StringVar(&encNick, "nick", "", "nickname, decimal or 0x hex")
	capEncodeCmd.Flags().Uint8Var(&encPriority, "priority", uint8(state.DefaultNickPriority), "nickname priority")
	capEncodeCmd.Flags().Uint16Var(&encRootPrio, "root-priority", state.DefaultRootPriority, "tree root priority")
	capEncodeCmd.Flags().StringSliceVar(&encRoots, "roots", nil, "distribution tree roots")
	capEncodeCmd.Flags().BoolVar(&encConfigured, "configured", false, "mark the nickname as configured")
	_ = capEncodeCmd.MarkFlagRequired("nick")
}
