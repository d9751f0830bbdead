package uploader

import (
	"log/slog"
	"path"

	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
)

// reconcile maps the store's per-entry finish outcomes back to source
// files by task index, logging each. Pure mapping: entries with
// unrecognized variants become failures, never errors, so one odd entry
// does not hide sibling outcomes.
func reconcile(entries []dbx.FinishEntry, args []dbx.FinishArg, logger *slog.Logger) []EntryResult {
	results := make([]EntryResult, len(entries))

	for i, entry := range entries {
		result := EntryResult{Index: i}

		if i < len(args) {
			result.Name = path.Base(args[i].Commit.Path)
		}

		if entry.Committed {
			result.Path = entry.Path

			logger.Info("file committed",
				slog.String("name", result.Name),
				slog.String("path", entry.Path),
			)
		} else {
			result.Reason = entry.Reason

			logger.Error("commit failed",
				slog.String("name", result.Name),
				slog.String("reason", entry.Reason),
			)
		}

		results[i] = result
	}

	return results
}
