// Package config implements TOML configuration loading, validation, and
// default path resolution for dropbox-batch-go. Precedence follows a
// three-layer override chain: defaults -> config file -> environment,
// with CLI flags applied last by the commands themselves.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Auth      AuthConfig      `toml:"auth"`
	Paths     PathsConfig     `toml:"paths"`
	Transfers TransfersConfig `toml:"transfers"`
	Logging   LoggingConfig   `toml:"logging"`
	History   HistoryConfig   `toml:"history"`
}

// AuthConfig holds the Dropbox credentials. Either a long-lived access
// token, or a refresh token plus app key (app secret only for apps not
// using PKCE). Credential acquisition itself happens outside this tool.
type AuthConfig struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	AppKey       string `toml:"app_key"`
	AppSecret    string `toml:"app_secret"`
}

// PathsConfig names the local source folder and the remote destination
// folder prefix.
type PathsConfig struct {
	LocalPath    string `toml:"local_path"`
	RemoteFolder string `toml:"remote_folder"`
}

// TransfersConfig controls the two worker pools and chunking. The
// chunk_size must be a multiple of 4 MiB: concurrent upload sessions
// reject out-of-order appends at unaligned offsets.
type TransfersConfig struct {
	ChunkSize      string `toml:"chunk_size"`
	ParallelFiles  int    `toml:"parallel_files"`
	ParallelChunks int    `toml:"parallel_chunks"`
	PollInterval   string `toml:"poll_interval"`
}

// LoggingConfig controls log output: level and handler format.
// An empty log_format picks text on a terminal and JSON otherwise.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// HistoryConfig controls the batch history ledger. An empty database path
// uses the default location under the user cache directory.
type HistoryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Database string `toml:"database"`
}
