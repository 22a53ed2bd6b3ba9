package cmd

import (
	"github.com/encodeous/rbridge/core"
	"github.com/encodeous/rbridge/state"
	"github.com/spf13/cobra"
)

var logPath string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rbridge",
	Long: `This will run the TRILL control plane on the current host.
Data-plane commands go to the socket named by dataplane_socket in the node config (usually ` + state.DefaultDataplaneSocket + `), or stay in memory if it is empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return core.Bootstrap(state.CampusConfigPath, state.NodeConfigPath, logPath, verbose)
	},
	SilenceUsage: true,
	GroupID:      "rb",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().StringVarP(&logPath, "log", "l", "", "Also write logs to this file")
	runCmd.Flags().BoolVarP(&state.DBG_log_nickdb, "lnick", "k", false, "Write nickname database updates to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_spf, "lspf", "s", false, "Write spf trees to console")
	runCmd.Flags().BoolVarP(&state.DBG_log_dataplane, "ldp", "d", false, "Write data plane messages to console")
	runCmd.Flags().BoolVar(&state.DBG_debug, "pprof", false, "Serve pprof on port 6060")
}
