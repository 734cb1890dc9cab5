package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/secrets"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "List every environment with its members and secret files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		return secrets.Summary(os.Stdout, secrets.ManageOptions{
			Tool: newGPGTool(config),
			Log:  Logger,
		})
	},
}
