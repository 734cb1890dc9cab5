package secrets

import (
	"fmt"
	"io"

	"github.com/envault/envault/internal/gpg"
	logger "github.com/envault/envault/internal/logging"
)

// ManageOptions configures membership management operations.
type ManageOptions struct {
	// Tool is the gpg adapter to use. Nil means a fresh quiet Tool.
	Tool *gpg.Tool

	// Log receives operation diagnostics.
	Log logger.Logger
}

// MemberChange reports the outcome of AddMember or RemoveMember for one
// environment.
type MemberChange struct {
	Environment string
	Changed     bool
	Members     []string
}

// AddMember adds keyID to the membership of every named environment and
// re-encrypts each environment's files. Environments that already list
// keyID are left untouched.
func AddMember(keyID string, environments []string, opts ManageOptions) ([]MemberChange, error) {
	if err := CheckEnvironments(environments); err != nil {
		return nil, err
	}

	var changes []MemberChange
	for _, environment := range environments {
		change, err := changeMembers(environment, opts, func(members []string) []string {
			for _, member := range members {
				if member == keyID {
					return members
				}
			}
			return append(members, keyID)
		})
		if err != nil {
			return changes, fmt.Errorf("failed to add %s to %s: %w", keyID, environment, err)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// RemoveMember removes keyID from the membership of every named
// environment and re-encrypts each environment's files for the remaining
// members. Removing the last member deletes the environment's main file.
func RemoveMember(keyID string, environments []string, opts ManageOptions) ([]MemberChange, error) {
	if err := CheckEnvironments(environments); err != nil {
		return nil, err
	}

	var changes []MemberChange
	for _, environment := range environments {
		change, err := changeMembers(environment, opts, func(members []string) []string {
			var kept []string
			for _, member := range members {
				if member != keyID {
					kept = append(kept, member)
				}
			}
			return kept
		})
		if err != nil {
			return changes, fmt.Errorf("failed to remove %s from %s: %w", keyID, environment, err)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// changeMembers opens a write session on the environment, applies the
// membership mutation and commits. An unchanged membership skips the
// re-encrypt; an empty one skips it too and lets Close delete the
// defunct main file.
func changeMembers(environment string, opts ManageOptions, mutate func([]string) []string) (MemberChange, error) {
	bundle, err := Open(MainFilePath(environment), BundleOptions{
		Environment: environment,
		WriteLock:   true,
		Tool:        opts.Tool,
		Log:         opts.Log,
	})
	if err != nil {
		return MemberChange{}, err
	}
	defer func() {
		if closeErr := bundle.Close(); closeErr != nil {
			opts.Log.Errorf("failed to close session for %s: %v", environment, closeErr)
		}
	}()

	before := bundle.Members()
	after := mutate(append([]string{}, before...))
	change := MemberChange{Environment: environment, Members: after}

	if equalStrings(before, after) {
		return change, nil
	}
	change.Changed = true

	bundle.SetMembers(after)
	if len(bundle.Members()) == 0 {
		// Nothing left to encrypt for; Close removes the main file.
		return change, nil
	}
	if err := bundle.Commit(); err != nil {
		return change, err
	}
	return change, nil
}

// Summary writes every environment's membership and secret files to w,
// in the format:
//
//	production
//		 members
//			- 03C7E67FC9FD9364
//		 secret files
//			- secret-ssl-key
//
// Environments that fail to decrypt are reported on the log and skipped;
// the first such error is returned after all environments were printed.
func Summary(w io.Writer, opts ManageOptions) error {
	environments, err := ListEnvironments()
	if err != nil {
		return err
	}

	var firstErr error
	for _, environment := range environments {
		bundle, err := Open(MainFilePath(environment), BundleOptions{
			Environment: environment,
			WriteLock:   false,
			Tool:        opts.Tool,
			Log:         opts.Log,
		})
		if err != nil {
			opts.Log.Errorf("%v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fmt.Fprintf(w, "%s\n", environment)
		fmt.Fprintf(w, "\t members\n")
		for _, member := range bundle.Members() {
			fmt.Fprintf(w, "\t\t- %s\n", member)
		}
		fmt.Fprintf(w, "\t secret files\n")
		siblings := bundle.Files()[1:]
		if len(siblings) == 0 {
			fmt.Fprintf(w, "\t\t(none)\n")
		}
		for _, f := range siblings {
			fmt.Fprintf(w, "\t\t- %s\n", f.Path)
		}
		fmt.Fprintf(w, "\n")

		if err := bundle.Close(); err != nil {
			opts.Log.Errorf("failed to close session for %s: %v", environment, err)
		}
	}
	return firstErr
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
