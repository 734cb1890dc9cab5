package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/ui"
)

var logLimit int

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "number of entries to show")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent secret operations from the audit log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := audit.ReadEntries()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read audit log: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries yet.")
			return nil
		}

		start := 0
		if logLimit > 0 && len(entries) > logLimit {
			start = len(entries) - logLimit
		}
		for _, entry := range entries[start:] {
			line := entry.Timestamp + "  " + ui.Highlight.Sprint(entry.Operation)
			if entry.Environment != "" {
				line += "  " + ui.Path.Sprint(entry.Environment)
			}
			if entry.File != "" {
				line += "  " + entry.File
			}
			if entry.Member != "" {
				line += "  member=" + entry.Member
			}
			if entry.User != "" {
				line += "  by " + entry.User
			}
			fmt.Println(line)
		}
		return nil
	},
}
