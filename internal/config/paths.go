package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDirName = "dropbox-batch"

// DefaultConfigPath returns the default config file location under the
// user config directory, e.g. ~/.config/dropbox-batch/config.toml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config.toml")
	}

	return filepath.Join(dir, appDirName, "config.toml")
}

// DefaultHistoryPath returns the default history database location under
// the user cache directory.
func DefaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "history.db")
	}

	return filepath.Join(dir, appDirName, "history.db")
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Paths without the prefix are returned unchanged.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}

		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return path
}
