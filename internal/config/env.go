package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig       = "DROPBOX_BATCH_CONFIG"
	EnvAccessToken  = "DROPBOX_BATCH_ACCESS_TOKEN"
	EnvRefreshToken = "DROPBOX_BATCH_REFRESH_TOKEN"
	EnvLocalPath    = "DROPBOX_BATCH_LOCAL_PATH"
	EnvRemoteFolder = "DROPBOX_BATCH_REMOTE_FOLDER"
)

// EnvOverrides holds values derived from environment variables. Token
// overrides exist so CI and one-off runs never need credentials written
// to a config file.
type EnvOverrides struct {
	ConfigPath   string
	AccessToken  string
	RefreshToken string
	LocalPath    string
	RemoteFolder string
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:   os.Getenv(EnvConfig),
		AccessToken:  os.Getenv(EnvAccessToken),
		RefreshToken: os.Getenv(EnvRefreshToken),
		LocalPath:    os.Getenv(EnvLocalPath),
		RemoteFolder: os.Getenv(EnvRemoteFolder),
	}
}
