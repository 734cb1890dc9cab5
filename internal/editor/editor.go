// Package editor runs the user's text editor on a transient cleartext
// copy. The core never sees this temporary file; its only contract with
// the caller is "hand back the edited cleartext string".
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	logger "github.com/envault/envault/internal/logging"
)

// Invoke writes cleartext to a temporary file carrying the original
// file's suffix (so the editor picks a sensible mode), runs command on
// it through the shell, and returns the file's content afterwards. The
// temporary file is removed on every path.
func Invoke(command, cleartext, suffix string, log logger.Logger) (string, error) {
	tmp, err := os.CreateTemp("", "edit-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary edit file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Warnf("failed to remove temporary edit file %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := tmp.WriteString(cleartext); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write temporary edit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush temporary edit file: %w", err)
	}

	// Through the shell, so configured commands like "code --wait" work.
	shellCommand := command + " " + tmp.Name()
	log.Debugf("running editor: %s", shellCommand)
	run := exec.Command("sh", "-c", shellCommand)
	run.Stdin = os.Stdin
	run.Stdout = os.Stdout
	run.Stderr = os.Stderr
	if err := run.Run(); err != nil {
		return "", fmt.Errorf("editor %q failed: %w", command, err)
	}

	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read back edited file: %w", err)
	}
	return string(edited), nil
}

// Suffix derives the editor-facing filename suffix from the encrypted
// file's path, e.g. ".cfg" for secrets.cfg.
func Suffix(path string) string {
	return filepath.Ext(path)
}
