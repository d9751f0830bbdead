package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/dropbox-batch-go/internal/history"
)

// newHistoryCmd builds the batch history listing command.
func newHistoryCmd() *cobra.Command {
	var (
		flagLimit int
		flagBatch int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past upload batches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := buildLogger()

			ledger, err := history.Open(ctx, historyPath(), logger)
			if err != nil {
				return err
			}
			defer ledger.Close()

			if flagBatch > 0 {
				return printBatchEntries(cmd, ledger, flagBatch)
			}

			batches, err := ledger.Recent(ctx, flagLimit)
			if err != nil {
				return err
			}

			if len(batches) == 0 {
				cmd.Println("No batches recorded.")

				return nil
			}

			rows := make([][]string, len(batches))
			for i, b := range batches {
				rows[i] = []string{
					fmt.Sprintf("%d", b.ID),
					formatTime(b.StartedAt),
					fmt.Sprintf("%d", b.Files),
					fmt.Sprintf("%d", b.Uploaded),
					fmt.Sprintf("%d", b.Failed),
					formatSize(b.Bytes),
					fmt.Sprintf("%.1fs", b.Duration.Seconds()),
				}
			}

			printTable(os.Stdout, []string{"ID", "STARTED", "FILES", "OK", "FAILED", "SIZE", "TIME"}, rows)

			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 20, "maximum batches to list")
	cmd.Flags().Int64Var(&flagBatch, "batch", 0, "show per-file entries for one batch id")

	return cmd
}

// printBatchEntries lists the per-file outcomes of one recorded batch.
func printBatchEntries(cmd *cobra.Command, ledger *history.Ledger, batchID int64) error {
	entries, err := ledger.Entries(cmd.Context(), batchID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		cmd.Printf("No entries for batch %d.\n", batchID)

		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		outcome := e.RemotePath
		if e.Reason != "" {
			outcome = "failed: " + e.Reason
		}

		rows[i] = []string{fmt.Sprintf("%d", e.Index), e.Name, outcome}
	}

	printTable(os.Stdout, []string{"#", "NAME", "RESULT"}, rows)

	return nil
}
