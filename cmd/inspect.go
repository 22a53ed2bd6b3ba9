package cmd

import (
	"fmt"

	"github.com/encodeous/rbridge/core"
	"github.com/encodeous/rbridge/state"
	"github.com/spf13/cobra"
)

var inspectSocket string

var inspectCmd = &cobra.Command{
	Use:     "inspect [nicknames|forwarding|adjacencies|topology|all]",
	Aliases: []string{"i"},
	Short:   "Inspects the state of a running rbridge",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "all"
		if len(args) == 1 {
			what = args[0]
		}
		result, err := core.IPCGet(inspectSocket, what)
		if err != nil {
			return err
		}
		fmt.Print(result)
		return nil
	},
	SilenceUsage: true,
	GroupID:      "rb",
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectSocket, "socket", state.DefaultInspectSocket, "inspect socket of the running rbridge")
}
