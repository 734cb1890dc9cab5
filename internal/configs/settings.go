package configs

import (
	"log"
	"os"
	"os/user"
	"path/filepath"
)

type UserSettings struct {
	UserConfigsPath string
	Username        string
}

var UserEnvaultSettings *UserSettings

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	username := ""
	if current, err := user.Current(); err == nil {
		username = current.Username
	}

	// Independent of which deployment repository we are in, so it is ok
	// to init here.
	UserEnvaultSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "envault"),
		Username:        username,
	}
}

// EnvironmentsRoot returns the directory holding one subdirectory per
// deployment environment. Commands run from the root of a deployment
// repository, so the path is relative to the working directory.
func EnvironmentsRoot() string {
	return "environments"
}
