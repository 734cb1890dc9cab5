// Package configs handles envault's user configuration and well-known
// paths.
//
// Per-user settings (editor command, gpg binary override) live in
// config.toml under the OS config directory, e.g.
// ~/.config/envault/config.toml on Linux. Deployment-repository paths
// such as the environments root are resolved relative to the working
// directory, since every command runs from the repository root.
package configs
