package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/editor"
	enverrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/secrets"
	"github.com/envault/envault/internal/ui"
)

var editFileName string

func init() {
	editCmd.Flags().StringVarP(&editFileName, "file", "f", "",
		"edit the named secret-<name> file instead of the main secrets file")
}

const (
	actionEdit    = "edit"
	actionEncrypt = "encrypt"
)

var editCmd = &cobra.Command{
	Use:   "edit <environment>",
	Short: "Edit an environment's encrypted secrets in your editor",
	Long: `Opens the environment's main secrets file (or, with --file, one of its
secret-* files) in your editor and re-encrypts the whole bundle for the
current member list afterwards.

On an encryption error your changes stay in memory and you can retry
with "edit" or "encrypt", or abandon them with "quit".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		environment := args[0]
		Logger.Infof("Starting edit session for %s", environment)

		if !secrets.EnvironmentExists(environment) {
			fmt.Println(ui.Error.Sprint("✗") + " Environment " + ui.Highlight.Sprint(environment) + " does not exist. Typo?")
			if existing, err := secrets.ListEnvironments(); err == nil && len(existing) > 0 {
				fmt.Print("Existing environments:" + ui.FormatPaths(existing))
			}
			return fmt.Errorf("%w: %s", enverrors.ErrUnknownEnvironment, environment)
		}

		config, err := configs.LoadUserConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load user config: %v", err)
		}

		mainPath := secrets.MainFilePath(environment)
		bundle, err := secrets.Open(mainPath, secrets.BundleOptions{
			Environment: environment,
			WriteLock:   true,
			Tool:        newGPGTool(config),
			Log:         Logger,
		})
		if err != nil {
			if errors.Is(err, enverrors.ErrLockConflict) {
				fmt.Println(ui.Error.Sprint("✗ ") + err.Error())
				fmt.Println(ui.Info.Sprint("→") + " Someone else is editing this environment; try again later")
				return err
			}
			return Logger.ErrorfAndReturn("failed to open secrets for %s: %v", environment, err)
		}
		defer func() {
			if closeErr := bundle.Close(); closeErr != nil {
				Logger.Errorf("failed to close session: %v", closeErr)
			}
		}()

		// The requested file might be brand new; register it with the
		// session either way.
		editPath := mainPath
		if editFileName != "" {
			editPath = secrets.SecretFilePath(environment, editFileName)
		}
		target, err := bundle.AddFile(editPath)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open %s: %v", editPath, err)
		}
		original, err := target.Read()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read %s: %v", editPath, err)
		}

		cleartext := original
		session := audit.NewSession()
		action := actionEdit

		for {
			err := func() error {
				if action == actionEdit {
					edited, err := editor.Invoke(config.EditorCommand(), cleartext, editor.Suffix(editPath), Logger)
					if err != nil {
						return err
					}
					cleartext = edited
				}

				if cleartext == original && !target.IsNew {
					fmt.Println("No changes from original cleartext. Not updating.")
					return nil
				}

				target.SetCleartext(cleartext)
				// Re-derive the membership before encrypting: if the main
				// file was edited this also proves it still parses.
				if err := bundle.Refresh(); err != nil {
					return err
				}
				if err := bundle.Commit(); err != nil {
					return err
				}

				audit.Log(audit.Entry{
					Session:      session,
					Operation:    "edit",
					Environment:  environment,
					File:         editPath,
					MembersCount: len(bundle.Members()),
					FilesCount:   len(bundle.Files()),
				})
				fmt.Println(ui.Success.Sprint("✓") + " Re-encrypted " + ui.Path.Sprint(editPath) +
					" and its bundle for " + fmt.Sprint(len(bundle.Members())) + " member(s)")
				return nil
			}()
			if err == nil {
				return nil
			}

			next, quit := promptRetry(err)
			if quit {
				Logger.Warnf("Quitting; unsaved changes are lost")
				return nil
			}
			action = next
		}
	},
}

// promptRetry reports err with a kind-specific hint and asks the user
// for the next action. Returns quit=true when the user abandons the
// session (including on stdin EOF).
func promptRetry(err error) (action string, quit bool) {
	fmt.Println()
	fmt.Println(ui.Error.Sprint("An error occurred: ") + err.Error())
	switch {
	case errors.Is(err, enverrors.ErrMissingRecipients):
		fmt.Println(ui.Info.Sprint("→") + " The members list is empty; add at least one key ID to the " +
			ui.Code.Sprint("[envault]") + " section")
	case errors.Is(err, enverrors.ErrMembershipParse):
		fmt.Println(ui.Info.Sprint("→") + " The " + ui.Code.Sprint("[envault]") + " section is malformed; re-edit and fix it")
	case errors.Is(err, enverrors.ErrEncryptFailed):
		fmt.Println(ui.Info.Sprint("→") + " Check that every member's public key is in your GPG keyring")
	case errors.Is(err, enverrors.ErrBinaryNotFound):
		fmt.Println(ui.Info.Sprint("→") + " Install GnuPG or set " + ui.Code.Sprint("gpg_binary") + " in your envault config")
	}
	fmt.Println()
	fmt.Println("Your changes are still available. You can try:")
	fmt.Println("\t" + ui.Code.Sprint("edit") + "       -- opens the editor with the current data again")
	fmt.Println("\t" + ui.Code.Sprint("encrypt") + "    -- tries to encrypt the current data again")
	fmt.Println("\t" + ui.Code.Sprint("quit") + "       -- quits and loses your changes")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return "", true
		}
		switch strings.TrimSpace(line) {
		case actionEdit:
			return actionEdit, false
		case actionEncrypt:
			return actionEncrypt, false
		case "quit":
			return "", true
		default:
			fmt.Println("Unknown command; try " + ui.Code.Sprint("edit") + ", " +
				ui.Code.Sprint("encrypt") + " or " + ui.Code.Sprint("quit"))
		}
	}
}
