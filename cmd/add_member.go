package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/configs"
	enverrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/secrets"
	"github.com/envault/envault/internal/ui"
)

var addMemberCmd = &cobra.Command{
	Use:   "add-member <key-id> <environment> [<environment>...]",
	Short: "Add a member to environments and re-encrypt their secrets",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyID := args[0]
		environments := args[1:]
		Logger.Infof("Adding %s to %s", keyID, strings.Join(environments, ", "))

		spinner, cleanup := startSpinner("Re-encrypting secrets...")
		defer cleanup()

		config, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		changes, err := secrets.AddMember(keyID, environments, secrets.ManageOptions{
			Tool: newGPGTool(config),
			Log:  Logger,
		})
		if err != nil {
			if errors.Is(err, enverrors.ErrUnknownEnvironment) {
				spinner.FinalMSG = ui.Error.Sprint("✗ ") + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault summary") + " to list environments"
				return nil
			}
			return Logger.ErrorfAndReturn("failed to add member: %v", err)
		}

		session := audit.NewSession()
		var lines []string
		for _, change := range changes {
			if change.Changed {
				audit.Log(audit.Entry{
					Session:      session,
					Operation:    "add-member",
					Environment:  change.Environment,
					Member:       keyID,
					MembersCount: len(change.Members),
				})
				lines = append(lines, "    updated: "+ui.Path.Sprint(change.Environment)+
					" ("+ui.Highlight.Sprintf("%d member(s)", len(change.Members))+")")
			} else {
				lines = append(lines, "    unchanged: "+ui.Path.Sprint(change.Environment)+" already lists "+ui.Highlight.Sprint(keyID))
			}
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Added " + ui.Highlight.Sprint(keyID) + ":\n" +
			strings.Join(lines, "\n")
		return nil
	},
}
