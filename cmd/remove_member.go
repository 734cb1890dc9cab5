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

var removeMemberCmd = &cobra.Command{
	Use:   "remove-member <key-id> <environment> [<environment>...]",
	Short: "Remove a member from environments and re-encrypt their secrets",
	Long: `Removes the key ID from each environment's member list and re-encrypts
the environment's files for the remaining members. Removing the last
member deletes the environment's main secrets file: a bundle nobody can
decrypt is not kept around.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyID := args[0]
		environments := args[1:]
		Logger.Infof("Removing %s from %s", keyID, strings.Join(environments, ", "))

		spinner, cleanup := startSpinner("Re-encrypting secrets...")
		defer cleanup()

		config, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		changes, err := secrets.RemoveMember(keyID, environments, secrets.ManageOptions{
			Tool: newGPGTool(config),
			Log:  Logger,
		})
		if err != nil {
			if errors.Is(err, enverrors.ErrUnknownEnvironment) {
				spinner.FinalMSG = ui.Error.Sprint("✗ ") + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault summary") + " to list environments"
				return nil
			}
			return Logger.ErrorfAndReturn("failed to remove member: %v", err)
		}

		session := audit.NewSession()
		var lines []string
		for _, change := range changes {
			switch {
			case change.Changed && len(change.Members) == 0:
				audit.Log(audit.Entry{
					Session:     session,
					Operation:   "remove-member",
					Environment: change.Environment,
					Member:      keyID,
				})
				lines = append(lines, "    deleted: "+ui.Path.Sprint(change.Environment)+
					" "+ui.Warning.Sprint("(no members left)"))
			case change.Changed:
				audit.Log(audit.Entry{
					Session:      session,
					Operation:    "remove-member",
					Environment:  change.Environment,
					Member:       keyID,
					MembersCount: len(change.Members),
				})
				lines = append(lines, "    updated: "+ui.Path.Sprint(change.Environment)+
					" ("+ui.Highlight.Sprintf("%d member(s)", len(change.Members))+")")
			default:
				lines = append(lines, "    unchanged: "+ui.Path.Sprint(change.Environment)+" does not list "+ui.Highlight.Sprint(keyID))
			}
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Removed " + ui.Highlight.Sprint(keyID) + ":\n" +
			strings.Join(lines, "\n")
		return nil
	},
}
