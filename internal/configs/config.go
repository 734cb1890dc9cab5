package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds per-user settings stored in config.toml under the
// user's config directory.
type UserConfig struct {
	// Editor is the command used to edit cleartext, run through the
	// shell. Empty means fall back to $EDITOR, then vi.
	Editor string `toml:"editor"`

	// GPGBinary overrides the gpg binary probe. Empty means probe the
	// usual candidates (gpg, gpg2).
	GPGBinary string `toml:"gpg_binary"`
}

// LoadUserConfig loads the user configuration. A missing config file is
// not an error and yields the zero config.
func LoadUserConfig() (*UserConfig, error) {
	configPath := filepath.Join(UserEnvaultSettings.UserConfigsPath, "config.toml")

	config := &UserConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	configPath := filepath.Join(UserEnvaultSettings.UserConfigsPath, "config.toml")

	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	return nil
}

// EditorCommand resolves the editor to use: the configured command, then
// $EDITOR, then vi.
func (c *UserConfig) EditorCommand() string {
	if c != nil && c.Editor != "" {
		return c.Editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return "vi"
}
