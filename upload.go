package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/dropbox-batch-go/internal/config"
	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
	"github.com/tonimelisma/dropbox-batch-go/internal/history"
	"github.com/tonimelisma/dropbox-batch-go/internal/localfs"
	"github.com/tonimelisma/dropbox-batch-go/internal/uploader"
)

// newUploadCmd builds the one-shot batch upload command.
func newUploadCmd() *cobra.Command {
	var (
		flagPath         string
		flagRemoteFolder string
		flagChunkSize    string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a folder of files as one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyTransferFlags(flagPath, flagRemoteFolder, flagChunkSize)

			if err := config.Validate(cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			logger := buildLogger()

			files, err := localfs.Collect(config.ExpandHome(cfg.Paths.LocalPath))
			if err != nil {
				return err
			}

			if len(files) == 0 {
				cmd.Println("No files to upload.")

				return nil
			}

			coord, err := buildCoordinator(logger)
			if err != nil {
				return err
			}

			return runBatch(ctx, coord, files, logger)
		},
	}

	cmd.Flags().StringVar(&flagPath, "path", "", "local folder to upload (overrides config)")
	cmd.Flags().StringVar(&flagRemoteFolder, "remote-folder", "", "destination folder prefix (overrides config)")
	cmd.Flags().StringVar(&flagChunkSize, "chunk-size", "", "append chunk size, multiple of 4 MiB (overrides config)")

	return cmd
}

// applyTransferFlags copies non-empty flag values over the loaded config.
func applyTransferFlags(path, remoteFolder, chunkSize string) {
	if path != "" {
		cfg.Paths.LocalPath = path
	}

	if remoteFolder != "" {
		cfg.Paths.RemoteFolder = remoteFolder
	}

	if chunkSize != "" {
		cfg.Transfers.ChunkSize = chunkSize
	}
}

// buildCoordinator assembles the authenticated store client and the batch
// coordinator from the validated config.
func buildCoordinator(logger *slog.Logger) (*uploader.Coordinator, error) {
	// Background, not the command context: the token source silently
	// refreshes for the life of the client.
	tokenSource, err := dbx.CredentialsTokenSource(
		context.Background(),
		cfg.Auth.AccessToken, cfg.Auth.RefreshToken,
		cfg.Auth.AppKey, cfg.Auth.AppSecret,
		logger,
	)
	if err != nil {
		return nil, err
	}

	client := dbx.NewClient(dbx.DefaultRPCURL, dbx.DefaultContentURL, rpcHTTPClient(), transferHTTPClient(), tokenSource, logger)

	chunkSize, err := config.ParseSize(cfg.Transfers.ChunkSize)
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(cfg.Transfers.PollInterval)
	if err != nil {
		return nil, err
	}

	coord, err := uploader.NewCoordinator(client, uploader.Options{
		ChunkSize:      chunkSize,
		ParallelFiles:  cfg.Transfers.ParallelFiles,
		ParallelChunks: cfg.Transfers.ParallelChunks,
		RemoteFolder:   cfg.Paths.RemoteFolder,
		PollInterval:   pollInterval,
	}, logger)
	if err != nil {
		return nil, err
	}

	return coord, nil
}

// runBatch executes one batch, records it in the history ledger, and
// prints the aggregate summary. Per-entry commit failures surface as a
// command error after all outcomes have been reported.
func runBatch(ctx context.Context, coord *uploader.Coordinator, files []*localfs.File, logger *slog.Logger) error {
	sources := make([]uploader.Source, len(files))
	for i, f := range files {
		sources[i] = f
	}

	started := time.Now()

	report, err := coord.Run(ctx, sources)
	if err != nil {
		return err
	}

	recordHistory(ctx, report, started, logger)
	printSummary(report)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to commit", report.Failed, len(report.Results))
	}

	return nil
}

// recordHistory persists the batch outcome. Best-effort: a ledger problem
// never fails an upload that already happened.
func recordHistory(ctx context.Context, report *uploader.Report, started time.Time, logger *slog.Logger) {
	if !cfg.History.Enabled {
		return
	}

	ledger, err := history.Open(ctx, historyPath(), logger)
	if err != nil {
		logger.Warn("history unavailable", slog.String("error", err.Error()))

		return
	}
	defer ledger.Close()

	if _, err := ledger.RecordBatch(ctx, report, started); err != nil {
		logger.Warn("recording batch failed", slog.String("error", err.Error()))
	}
}

func historyPath() string {
	if cfg.History.Database != "" {
		return config.ExpandHome(cfg.History.Database)
	}

	return config.DefaultHistoryPath()
}

// printSummary writes the human-readable batch outcome to stderr.
func printSummary(report *uploader.Report) {
	statusf("Uploaded %d of %d files (%s) in %.1fs (%s/s)\n",
		report.Uploaded, len(report.Results),
		formatSize(report.BytesUploaded),
		report.Elapsed.Seconds(),
		formatSize(int64(report.BytesPerSecond())),
	)

	for _, result := range report.Results {
		if result.Failed() {
			statusf("  failed: %s: %s\n", result.Name, result.Reason)
		}
	}
}
