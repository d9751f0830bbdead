package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[auth]
access_token = "tok"

[paths]
local_path = "/data/outbox"
remote_folder = "/incoming"

[transfers]
chunk_size = "4MiB"
parallel_files = 2
parallel_chunks = 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok", cfg.Auth.AccessToken)
	assert.Equal(t, "/data/outbox", cfg.Paths.LocalPath)
	assert.Equal(t, "/incoming", cfg.Paths.RemoteFolder)
	assert.Equal(t, "4MiB", cfg.Transfers.ChunkSize)
	assert.Equal(t, 2, cfg.Transfers.ParallelFiles)
	assert.Equal(t, 16, cfg.Transfers.ParallelChunks)

	// Unset fields keep their defaults.
	assert.Equal(t, "500ms", cfg.Transfers.PollInterval)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.True(t, cfg.History.Enabled)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, `
[transfers]
chunck_size = "4MiB"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "chunck_size")
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, `[transfers`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[auth]
access_token = "file-token"

[paths]
local_path = "/from/file"
`)

	cfg, err := Resolve(EnvOverrides{
		ConfigPath:  path,
		AccessToken: "env-token",
		LocalPath:   "/from/env",
	})
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Auth.AccessToken, "environment wins over the config file")
	assert.Equal(t, "/from/env", cfg.Paths.LocalPath)
	assert.Equal(t, defaultRemoteFolder, cfg.Paths.RemoteFolder, "untouched fields keep defaults")
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAccessToken, "abc")
	t.Setenv(EnvRemoteFolder, "/dest")

	env := ReadEnvOverrides()
	assert.Equal(t, "abc", env.AccessToken)
	assert.Equal(t, "/dest", env.RemoteFolder)
	assert.Empty(t, env.RefreshToken)
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}
