package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/envault/envault/internal/configs"
	enverrors "github.com/envault/envault/internal/errors"
)

// MainFileName is the structured main secrets file of an environment,
// carrying the membership section.
const MainFileName = "secrets.cfg"

// secretFilePrefix is the naming convention for sibling secret files
// next to the main file.
const secretFilePrefix = "secret-"

// EnvironmentPath returns the directory of the named environment.
func EnvironmentPath(environment string) string {
	return filepath.Join(configs.EnvironmentsRoot(), environment)
}

// MainFilePath returns the path of the environment's main secrets file.
func MainFilePath(environment string) string {
	return filepath.Join(EnvironmentPath(environment), MainFileName)
}

// SecretFilePath returns the path a named sibling secret file lives at,
// applying the secret- prefix convention.
func SecretFilePath(environment, name string) string {
	return filepath.Join(EnvironmentPath(environment), secretFilePrefix+name)
}

// EnvironmentExists reports whether the named environment's directory
// exists.
func EnvironmentExists(environment string) bool {
	info, err := os.Stat(EnvironmentPath(environment))
	return err == nil && info.IsDir()
}

// ListEnvironments returns the names of all environments, sorted.
func ListEnvironments() ([]string, error) {
	entries, err := os.ReadDir(configs.EnvironmentsRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CheckEnvironments verifies that every named environment exists. All
// unknown names are reported together.
func CheckEnvironments(environments []string) error {
	var unknown []string
	for _, environment := range environments {
		if !EnvironmentExists(environment) {
			unknown = append(unknown, environment)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w(s): %s", enverrors.ErrUnknownEnvironment, strings.Join(unknown, ", "))
	}
	return nil
}

// SecretFiles returns the paths of the environment's sibling secret
// files (the secret-* convention), sorted.
func SecretFiles(environment string) ([]string, error) {
	pattern := filepath.Join(EnvironmentPath(environment), secretFilePrefix+"*")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for secret files: %w", EnvironmentPath(environment), err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		// Skip leftovers of an interrupted write.
		if strings.HasSuffix(match, ".old") {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}
