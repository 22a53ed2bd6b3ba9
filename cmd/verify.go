package cmd

import (
	"fmt"

	"github.com/encodeous/rbridge/core"
	"github.com/encodeous/rbridge/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validates the node and campus configs and prints the expanded node config",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, nodeCfg, err := core.LoadConfig(state.CampusConfigPath, state.NodeConfigPath)
		if err != nil {
			return err
		}
		cfgYaml, err := yaml.Marshal(nodeCfg)
		if err != nil {
			return err
		}
		fmt.Println("Config is valid")
		fmt.Print(string(cfgYaml))
		return nil
	},
	SilenceUsage: true,
	GroupID:      "cfg",
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
