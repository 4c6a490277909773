package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize legalmcp configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick an LLM provider, embedding backend and storage location, then writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunInitWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
