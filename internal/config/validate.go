package config

import (
	"fmt"
	"time"
)

// chunkAlignment is the required alignment for upload chunk sizes (4 MiB).
// Concurrent upload sessions reject appends at offsets that are not
// multiples of this value, so every non-final chunk must be aligned.
const chunkAlignment = 4 * 1024 * 1024

// Validate checks a Config for invalid values. Called by Load after
// decoding; commands that mutate the config from flags re-validate before
// any work starts.
func Validate(cfg *Config) error {
	if err := validateTransfers(&cfg.Transfers); err != nil {
		return err
	}

	if cfg.Paths.LocalPath == "" {
		return fmt.Errorf("paths.local_path must not be empty")
	}

	switch cfg.Logging.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.log_format %q must be \"text\", \"json\", or empty", cfg.Logging.LogFormat)
	}

	return nil
}

func validateTransfers(tc *TransfersConfig) error {
	chunkSize, err := ParseSize(tc.ChunkSize)
	if err != nil {
		return fmt.Errorf("transfers.chunk_size: %w", err)
	}

	if chunkSize <= 0 || chunkSize%chunkAlignment != 0 {
		return fmt.Errorf(
			"transfers.chunk_size %q must be a positive multiple of 4 MiB for concurrent upload sessions",
			tc.ChunkSize,
		)
	}

	if tc.ParallelFiles < 1 {
		return fmt.Errorf("transfers.parallel_files %d must be at least 1", tc.ParallelFiles)
	}

	if tc.ParallelChunks < 1 {
		return fmt.Errorf("transfers.parallel_chunks %d must be at least 1", tc.ParallelChunks)
	}

	interval, err := time.ParseDuration(tc.PollInterval)
	if err != nil {
		return fmt.Errorf("transfers.poll_interval: %w", err)
	}

	if interval <= 0 {
		return fmt.Errorf("transfers.poll_interval %q must be positive", tc.PollInterval)
	}

	return nil
}
