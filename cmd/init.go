package cmd

import (
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/secrets"
	"github.com/envault/envault/internal/ui"
)

var initMembers []string

func init() {
	initCmd.Flags().StringSliceVarP(&initMembers, "member", "m", nil,
		"initial member key ID (repeatable)")
}

var initCmd = &cobra.Command{
	Use:   "init <environment>",
	Short: "Create a new environment with an encrypted main secrets file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		environment := args[0]

		if !verbose && !debug {
			figure.NewFigure("envault", "", true).Print()
		}

		spinner, cleanup := startSpinner("Creating environment...")
		defer cleanup()

		if secrets.EnvironmentExists(environment) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Environment " + ui.Highlight.Sprint(environment) + " already exists\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault edit "+environment) + " instead"
			return nil
		}
		if len(initMembers) == 0 {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " At least one " + ui.Code.Sprint("--member") + " is required\n" +
				ui.Info.Sprint("→") + " The environment would be unreadable without a member to encrypt for"
			return nil
		}

		config, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		if err := os.MkdirAll(secrets.EnvironmentPath(environment), 0755); err != nil {
			return Logger.ErrorfAndReturn("failed to create environment directory: %v", err)
		}

		bundle, err := secrets.Open(secrets.MainFilePath(environment), secrets.BundleOptions{
			WriteLock: true,
			Tool:      newGPGTool(config),
			Log:       Logger,
		})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open new secrets file: %v", err)
		}
		defer func() {
			if closeErr := bundle.Close(); closeErr != nil {
				Logger.Errorf("failed to close session: %v", closeErr)
			}
		}()

		bundle.SetMembers(initMembers)
		if err := bundle.Commit(); err != nil {
			return Logger.ErrorfAndReturn("failed to encrypt new secrets file: %v", err)
		}

		audit.Log(audit.Entry{
			Session:      audit.NewSession(),
			Operation:    "init",
			Environment:  environment,
			MembersCount: len(bundle.Members()),
		})

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(secrets.MainFilePath(environment)) +
			" for " + ui.Highlight.Sprintf("%d member(s)", len(bundle.Members())) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault edit "+environment) + " to add secrets"
		return nil
	},
}
