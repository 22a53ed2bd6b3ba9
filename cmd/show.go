package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/encodeous/rbridge/core"
	"github.com/encodeous/rbridge/state"
	"github.com/encodeous/tint"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [nicknames|forwarding|adjacencies|topology|all]",
	Short: "Computes the state this node converges to on the campus snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "all"
		if len(args) == 1 {
			what = args[0]
		}
		campusCfg, nodeCfg, err := core.LoadConfig(state.CampusConfigPath, state.NodeConfigPath)
		if err != nil {
			return err
		}
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, CustomPrefix: nodeCfg.Id}))
		ts, err := core.Evaluate(*campusCfg, *nodeCfg, log)
		if err != nil {
			return err
		}
		out, err := core.Show(ts, what)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
	SilenceUsage: true,
	GroupID:      "cfg",
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolP("verbose", "v", false, "Log every step of the evaluation")
}
