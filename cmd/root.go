package cmd

import (
	"os"

	"github.com/encodeous/rbridge/state"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rbridge",
	Short: "TRILL RBridge control plane",
	Long: `rbridge runs the TRILL layer of an RBridge.
It allocates and defends the local nickname, learns the nicknames of the campus and derives the distribution trees the data plane forwards on.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "rb",
		Title: "RBridge Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cfg",
		Title: "Configuration Tools",
	})
	rootCmd.PersistentFlags().StringVarP(&state.NodeConfigPath, "node-config", "n", state.NodeConfigPath, "node-specific config")
	rootCmd.PersistentFlags().StringVarP(&state.CampusConfigPath, "campus-config", "c", state.CampusConfigPath, "campus link-state snapshot")
}
