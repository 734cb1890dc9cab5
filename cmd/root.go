package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/gpg"
	logger "github.com/envault/envault/internal/logging"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	rootCmd = &cobra.Command{
		Use:   "envault",
		Short: "Manage GPG-encrypted secrets for deployment environments",
		Long: `Envault keeps each deployment environment's secrets in GPG-encrypted
files inside environments/<name>/: a structured main file (secrets.cfg)
carrying the member list, plus any number of secret-* files encrypted
for the same members.

The main focus is to avoid unencrypted secrets ever ending up in the
deployment repository: cleartext only exists in memory and in a
transient editor file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing envault with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(addMemberCmd)
	rootCmd.AddCommand(removeMemberCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(logCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newGPGTool builds the gpg adapter for a command, honoring the user's
// gpg_binary override. Quiet mode is dropped under --debug so gpg's own
// diagnostics come through.
func newGPGTool(config *configs.UserConfig) *gpg.Tool {
	binary := ""
	if config != nil {
		binary = config.GPGBinary
	}
	return &gpg.Tool{
		Binary: binary,
		Quiet:  !debug,
		Log:    Logger,
	}
}
