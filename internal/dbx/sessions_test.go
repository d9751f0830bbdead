package dbx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathStartBatch, r.URL.Path)

		var arg startBatchArg

		require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))
		assert.Equal(t, 3, arg.NumSessions)
		assert.Equal(t, "concurrent", arg.SessionType.Tag)

		w.Write([]byte(`{"session_ids":["s1","s2","s3"]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	ids, err := client.StartSessions(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []SessionID{"s1", "s2", "s3"}, ids)
}

func TestStartSessions_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"session_ids":["s1"]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.StartSessions(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requested 2 sessions, received 1")
}

func TestAppendToSession(t *testing.T) {
	payload := []byte("chunk payload bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathAppend, r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var arg appendArg

		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))
		assert.Equal(t, SessionID("s1"), arg.Cursor.SessionID)
		assert.Equal(t, int64(4194304), arg.Cursor.Offset)
		assert.True(t, arg.Close)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, body)

		w.Write([]byte("null"))
	}))
	defer server.Close()

	client := newTestClient(server)

	err := client.AppendToSession(
		context.Background(), Cursor{SessionID: "s1", Offset: 4194304}, payload, true,
	)
	require.NoError(t, err)
}

func TestAppendToSession_NotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)

	err := client.AppendToSession(context.Background(), Cursor{SessionID: "s1"}, []byte("x"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, int32(1), calls.Load(), "append calls must never be retried")
}

func TestFinishBatch_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathFinishBatch, r.URL.Path)

		var arg finishBatchArg

		require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))
		require.Len(t, arg.Entries, 2)
		assert.Equal(t, "/dest/a.bin", arg.Entries[0].Commit.Path)
		assert.Equal(t, int64(100), arg.Entries[0].Cursor.Offset)

		w.Write([]byte(`{
			".tag": "complete",
			"entries": [
				{".tag":"success","path_lower":"/dest/a.bin","name":"a.bin","size":100},
				{".tag":"failure","failure":{".tag":"path","path":{".tag":"conflict"}}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	launch, err := client.FinishBatch(context.Background(), []FinishArg{
		{
			Cursor: Cursor{SessionID: "s1", Offset: 100},
			Commit: CommitInfo{Path: "/dest/a.bin", Mode: "add"},
		},
		{
			Cursor: Cursor{SessionID: "s2", Offset: 50},
			Commit: CommitInfo{Path: "/dest/b.bin", Mode: "add"},
		},
	})
	require.NoError(t, err)
	require.Empty(t, launch.AsyncJobID)
	require.Len(t, launch.Complete, 2)

	assert.True(t, launch.Complete[0].Committed)
	assert.Equal(t, "/dest/a.bin", launch.Complete[0].Path)
	assert.Equal(t, int64(100), launch.Complete[0].Size)

	assert.False(t, launch.Complete[1].Committed)
	assert.Equal(t, "path/conflict", launch.Complete[1].Reason)
}

func TestFinishBatch_Async(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{".tag":"async_job_id","async_job_id":"job-7"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	launch, err := client.FinishBatch(context.Background(), []FinishArg{{}})
	require.NoError(t, err)
	assert.Equal(t, "job-7", launch.AsyncJobID)
	assert.Nil(t, launch.Complete)
}

func TestFinishBatch_EmptyAsyncJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{".tag":"async_job_id"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.FinishBatch(context.Background(), []FinishArg{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty async job id")
}

func TestFinishBatch_UnknownTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{".tag":"other"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.FinishBatch(context.Background(), []FinishArg{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unrecognized finish batch result "other"`)
}

func TestPollBatchFinish(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathFinishCheck, r.URL.Path)

		var arg checkArg

		require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))
		assert.Equal(t, "job-7", arg.AsyncJobID)

		if calls.Add(1) == 1 {
			w.Write([]byte(`{".tag":"in_progress"}`))

			return
		}

		w.Write([]byte(`{".tag":"complete","entries":[{".tag":"success","path_lower":"/dest/a.bin","name":"a.bin","size":5}]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	status, err := client.PollBatchFinish(context.Background(), "job-7")
	require.NoError(t, err)
	assert.True(t, status.InProgress)

	status, err = client.PollBatchFinish(context.Background(), "job-7")
	require.NoError(t, err)
	assert.False(t, status.InProgress)
	require.Len(t, status.Entries, 1)
	assert.Equal(t, "/dest/a.bin", status.Entries[0].Path)
}

func TestPollBatchFinish_UnknownTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{".tag":"mystery"}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.PollBatchFinish(context.Background(), "job-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unrecognized finish check result "mystery"`)
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"path conflict", `{".tag":"path","path":{".tag":"conflict"}}`, "path/conflict"},
		{"path no detail", `{".tag":"path"}`, "path"},
		{"flat tag", `{".tag":"too_many_write_operations"}`, "too_many_write_operations"},
		{"empty", ``, "unknown failure"},
		{"unparseable", `not json`, "not json"},
		{"no tag", `{"other":true}`, `{"other":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureReason(json.RawMessage(tt.raw)))
		})
	}
}

func TestFinishEntryWire_UnknownTag(t *testing.T) {
	wire := finishEntryWire{Tag: "surprise"}

	entry := wire.toEntry()
	assert.False(t, entry.Committed)
	assert.Equal(t, "unrecognized entry result: surprise", entry.Reason)
}
