package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/dropbox-batch-go/internal/config"
	"github.com/tonimelisma/dropbox-batch-go/internal/localfs"
)

// defaultSettle is how long the watched folder must stay quiet before a
// pending batch is uploaded.
const defaultSettle = 2 * time.Second

// newWatchCmd builds the continuous watch-and-upload command.
func newWatchCmd() *cobra.Command {
	var (
		flagRemoteFolder string
		flagSettle       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder and upload new files in batches",
		RunE: func(_ *cobra.Command, _ []string) error {
			applyTransferFlags("", flagRemoteFolder, "")

			if err := config.Validate(cfg); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			logger := buildLogger()

			coord, err := buildCoordinator(logger)
			if err != nil {
				return err
			}

			dir := config.ExpandHome(cfg.Paths.LocalPath)

			watcher, err := localfs.NewWatcher(dir, flagSettle, logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			err = watcher.Run(ctx, func(batch []*localfs.File) {
				if batchErr := runBatch(ctx, coord, batch, logger); batchErr != nil {
					// A failed batch must not stop the watch loop; the
					// files stay local and a later batch can retry them.
					logger.Error("batch failed",
						slog.Int("files", len(batch)),
						slog.String("error", batchErr.Error()),
					)
				}
			})

			if errors.Is(err, context.Canceled) {
				return nil
			}

			return err
		},
	}

	cmd.Flags().StringVar(&flagRemoteFolder, "remote-folder", "", "destination folder prefix (overrides config)")
	cmd.Flags().DurationVar(&flagSettle, "settle", defaultSettle, "quiet period before a pending batch uploads")

	return cmd
}
