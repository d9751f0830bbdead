package config

// Default values for configuration options, chosen to work without any
// config file. The 8 MiB chunk default is two alignment units: large
// enough to keep per-append overhead low, small enough that the inner
// pool stays busy on medium files.
const (
	defaultLocalPath      = "~/uploads"
	defaultRemoteFolder   = "/batch-uploads"
	defaultChunkSize      = "8MiB"
	defaultParallelFiles  = 4
	defaultParallelChunks = 8
	defaultPollInterval   = "500ms"
	defaultLogLevel       = "info"
)

// DefaultConfig returns a Config populated with all default values.
// Used both as the starting point for TOML decoding (so unset fields
// retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			LocalPath:    defaultLocalPath,
			RemoteFolder: defaultRemoteFolder,
		},
		Transfers: TransfersConfig{
			ChunkSize:      defaultChunkSize,
			ParallelFiles:  defaultParallelFiles,
			ParallelChunks: defaultParallelChunks,
			PollInterval:   defaultPollInterval,
		},
		Logging: LoggingConfig{
			LogLevel: defaultLogLevel,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
