package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ChunkAlignment(t *testing.T) {
	aligned := []string{"4MiB", "8MiB", "16MiB", "128MiB"}
	for _, size := range aligned {
		cfg := DefaultConfig()
		cfg.Transfers.ChunkSize = size
		assert.NoError(t, Validate(cfg), "chunk_size %s", size)
	}

	misaligned := []string{"1MiB", "3MiB", "5MB", "4MB", "0", "1024"}
	for _, size := range misaligned {
		cfg := DefaultConfig()
		cfg.Transfers.ChunkSize = size

		err := Validate(cfg)
		require.Error(t, err, "chunk_size %s", size)
		assert.Contains(t, err.Error(), "multiple of 4 MiB")
	}
}

func TestValidate_Pools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transfers.ParallelFiles = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_files")

	cfg = DefaultConfig()
	cfg.Transfers.ParallelChunks = -1

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_chunks")
}

func TestValidate_PollInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transfers.PollInterval = "not-a-duration"
	require.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Transfers.PollInterval = "0s"
	require.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Transfers.PollInterval = "2s"
	require.NoError(t, Validate(cfg))
}

func TestValidate_LogFormat(t *testing.T) {
	for _, format := range []string{"", "text", "json"} {
		cfg := DefaultConfig()
		cfg.Logging.LogFormat = format
		assert.NoError(t, Validate(cfg), "log_format %q", format)
	}

	cfg := DefaultConfig()
	cfg.Logging.LogFormat = "yaml"
	require.Error(t, Validate(cfg))
}

func TestValidate_EmptyLocalPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.LocalPath = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local_path")
}
