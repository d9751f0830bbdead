package uploader

import (
	"time"

	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
)

// Report aggregates one batch's outcome: per-entry results in original
// file order plus transfer totals for display and the history ledger.
type Report struct {
	Results       []EntryResult
	Uploaded      int
	Failed        int
	BytesUploaded int64
	Elapsed       time.Duration
}

// BytesPerSecond returns the aggregate transfer rate.
func (r *Report) BytesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.BytesUploaded) / r.Elapsed.Seconds()
}

// buildReport totals the reconciled results. Bytes uploaded is the sum of
// final cursor offsets: every byte appended for committed and rejected
// entries alike crossed the wire.
func buildReport(results []EntryResult, args []dbx.FinishArg, elapsed time.Duration) *Report {
	report := &Report{
		Results: results,
		Elapsed: elapsed,
	}

	for _, result := range results {
		if result.Failed() {
			report.Failed++
		} else {
			report.Uploaded++
		}
	}

	for _, arg := range args {
		report.BytesUploaded += arg.Cursor.Offset
	}

	return report
}
