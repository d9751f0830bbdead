package dbx

import "encoding/json"

// SessionID is an opaque token identifying one remote upload session.
// Issued by StartSessions, logically destroyed when the session is closed
// by a finishing append or committed by the batch finish call.
type SessionID string

// Cursor addresses a write position within an upload session. Offset is
// the exclusive count of bytes already appended when the cursor is issued.
type Cursor struct {
	SessionID SessionID `json:"session_id"`
	Offset    int64     `json:"offset"`
}

// CommitInfo names the destination of a finished session.
type CommitInfo struct {
	Path       string `json:"path"`
	Mode       string `json:"mode,omitempty"`
	Autorename bool   `json:"autorename,omitempty"`
}

// FinishArg pairs a session's final cursor with its commit destination.
// The cursor offset must equal the file's total byte length.
type FinishArg struct {
	Cursor Cursor     `json:"cursor"`
	Commit CommitInfo `json:"commit"`
}

// FinishEntry is one per-file outcome from a completed batch finish.
// Exactly one of Path or Reason is set: Path for committed entries,
// Reason (the store-provided failure description) for rejected ones.
type FinishEntry struct {
	Committed bool
	Path      string // path_lower of the committed file
	Name      string
	Size      int64
	Reason    string
}

// FinishLaunch is the result of FinishBatch: either the completed entries
// (synchronous finish) or an async job id to poll via PollBatchFinish.
type FinishLaunch struct {
	AsyncJobID string
	Complete   []FinishEntry // nil when the finish is asynchronous
}

// FinishStatus is one PollBatchFinish result: still in progress, or
// complete with the per-entry outcomes.
type FinishStatus struct {
	InProgress bool
	Entries    []FinishEntry
}

// Wire shapes for the Dropbox JSON union types.

type startBatchArg struct {
	NumSessions int         `json:"num_sessions"`
	SessionType sessionType `json:"session_type"`
}

type sessionType struct {
	Tag string `json:".tag"`
}

type startBatchResult struct {
	SessionIDs []SessionID `json:"session_ids"`
}

type appendArg struct {
	Cursor Cursor `json:"cursor"`
	Close  bool   `json:"close"`
}

type finishBatchArg struct {
	Entries []FinishArg `json:"entries"`
}

type finishEntryWire struct {
	Tag       string          `json:".tag"`
	PathLower string          `json:"path_lower"`
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	Failure   json.RawMessage `json:"failure"`
}

type finishLaunchWire struct {
	Tag        string            `json:".tag"`
	AsyncJobID string            `json:"async_job_id"`
	Entries    []finishEntryWire `json:"entries"`
}

type checkArg struct {
	AsyncJobID string `json:"async_job_id"`
}

// toEntry converts a wire entry to the public FinishEntry model. Entries
// with an unrecognized tag become failures carrying the tag as reason, so
// one odd entry never sinks the rest of the batch.
func (w *finishEntryWire) toEntry() FinishEntry {
	switch w.Tag {
	case "success":
		return FinishEntry{
			Committed: true,
			Path:      w.PathLower,
			Name:      w.Name,
			Size:      w.Size,
		}
	case "failure":
		return FinishEntry{Reason: failureReason(w.Failure)}
	default:
		return FinishEntry{Reason: "unrecognized entry result: " + w.Tag}
	}
}

// failureReason renders a Dropbox failure union as a compact reason string,
// e.g. "path/conflict". Falls back to the raw JSON when the union shape is
// not recognized, so the store-provided reason is never lost.
func failureReason(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown failure"
	}

	var u struct {
		Tag  string          `json:".tag"`
		Path json.RawMessage `json:"path"`
	}

	if err := json.Unmarshal(raw, &u); err != nil || u.Tag == "" {
		return string(raw)
	}

	if u.Tag == "path" && len(u.Path) > 0 {
		var p struct {
			Tag string `json:".tag"`
		}

		if err := json.Unmarshal(u.Path, &p); err == nil && p.Tag != "" {
			return u.Tag + "/" + p.Tag
		}
	}

	return u.Tag
}

func toEntries(wires []finishEntryWire) []FinishEntry {
	entries := make([]FinishEntry, len(wires))
	for i := range wires {
		entries[i] = wires[i].toEntry()
	}

	return entries
}
