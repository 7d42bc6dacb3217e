package comfy

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T) *Workflow {
	t.Helper()
	wf, err := LoadTemplate("testdata/workflow.json", testBindings)
	require.NoError(t, err)
	return wf
}

func newTestClient(serverURL string) *Client {
	c := NewClient(serverURL, "ep", "test-key")
	c.pollInterval = 10 * time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.Marshal(v)
	_, _ = w.Write(data)
}

func TestSubmitPollsUntilCompleted(t *testing.T) {
	statuses := []string{StatusInQueue, StatusInProgress, StatusCompleted}
	artifact := base64.StdEncoding.EncodeToString([]byte("image-bytes"))

	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ep/run":
			writeJSON(w, map[string]any{"id": "job1", "status": StatusInQueue})
		case "/ep/status/job1":
			n := atomic.AddInt32(&statusCalls, 1)
			status := statuses[n-1]
			record := map[string]any{"id": "job1", "status": status}
			if status == StatusCompleted {
				record["output"] = map[string]any{"message": []string{artifact}}
			}
			writeJSON(w, record)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	start := time.Now()
	output, err := c.Submit(context.Background(), newTestWorkflow(t), false)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, int32(3), atomic.LoadInt32(&statusCalls))
	// 第一次查询不等待，之后每次查询前等一个间隔：3 次查询正好 2 次等待
	assert.GreaterOrEqual(t, elapsed, 2*c.pollInterval)

	artifacts, err := DecodeArtifacts(output)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, []byte("image-bytes"), artifacts[0])
}

func TestSubmitTimedOutStopsPolling(t *testing.T) {
	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ep/run":
			writeJSON(w, map[string]any{"id": "job2", "status": StatusInQueue})
		case "/ep/status/job2":
			atomic.AddInt32(&statusCalls, 1)
			writeJSON(w, map[string]any{"id": "job2", "status": StatusTimedOut})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Submit(context.Background(), newTestWorkflow(t), false)

	var remoteErr *RemoteJobError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, StatusTimedOut, remoteErr.Status)
	assert.Equal(t, "job2", remoteErr.JobID)
	assert.NotNil(t, remoteErr.Record)

	// 失败终态后不再轮询
	time.Sleep(3 * c.pollInterval)
	assert.Equal(t, int32(1), atomic.LoadInt32(&statusCalls))
}

func TestSubmitWithoutStatusPollsByID(t *testing.T) {
	artifact := base64.StdEncoding.EncodeToString([]byte("late-bytes"))

	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ep/run":
			// 提交响应只带任务 id，不带 status 字段
			writeJSON(w, map[string]any{"id": "job5"})
		case "/ep/status/job5":
			atomic.AddInt32(&statusCalls, 1)
			writeJSON(w, map[string]any{
				"id":     "job5",
				"status": StatusCompleted,
				"output": map[string]any{"message": artifact},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	output, err := c.Submit(context.Background(), newTestWorkflow(t), false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&statusCalls))

	artifacts, err := DecodeArtifacts(output)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, []byte("late-bytes"), artifacts[0])
}

func TestSubmitWithoutJobIDMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Submit(context.Background(), newTestWorkflow(t), false)

	var malformedErr *MalformedResponseError
	require.ErrorAs(t, err, &malformedErr)
}

func TestSubmitUnknownStatusTreatedAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ep/run":
			writeJSON(w, map[string]any{"id": "job3", "status": StatusInQueue})
		case "/ep/status/job3":
			writeJSON(w, map[string]any{"id": "job3", "status": "EXPLODED"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Submit(context.Background(), newTestWorkflow(t), false)

	var remoteErr *RemoteJobError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "EXPLODED", remoteErr.Status)
}

func TestSubmitNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"error":"bad token"}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Submit(context.Background(), newTestWorkflow(t), false)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "bad token")
}

func TestSubmitSyncReturnsWithoutPolling(t *testing.T) {
	artifact := base64.StdEncoding.EncodeToString([]byte("sync-bytes"))

	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ep/runsync":
			writeJSON(w, map[string]any{
				"id":     "job4",
				"status": StatusCompleted,
				"output": map[string]any{"message": artifact},
			})
		default:
			atomic.AddInt32(&statusCalls, 1)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	output, err := c.Submit(context.Background(), newTestWorkflow(t), true)
	require.NoError(t, err)

	artifacts, err := DecodeArtifacts(output)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, []byte("sync-bytes"), artifacts[0])
	assert.Equal(t, int32(0), atomic.LoadInt32(&statusCalls))
}

func TestDecodeArtifacts(t *testing.T) {
	one := base64.StdEncoding.EncodeToString([]byte("a"))
	two := base64.StdEncoding.EncodeToString([]byte("b"))

	artifacts, err := DecodeArtifacts(map[string]any{"message": one})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	artifacts, err = DecodeArtifacts(map[string]any{"message": []any{one, two}})
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, []byte("b"), artifacts[1])
}

func TestDecodeArtifactsMalformed(t *testing.T) {
	var malformedErr *MalformedResponseError

	_, err := DecodeArtifacts(nil)
	require.ErrorAs(t, err, &malformedErr)

	_, err = DecodeArtifacts(map[string]any{})
	require.ErrorAs(t, err, &malformedErr)

	_, err = DecodeArtifacts(map[string]any{"message": 42})
	require.ErrorAs(t, err, &malformedErr)

	_, err = DecodeArtifacts(map[string]any{"message": []any{1}})
	require.ErrorAs(t, err, &malformedErr)

	_, err = DecodeArtifacts(map[string]any{"message": "not-base64!!!"})
	require.ErrorAs(t, err, &malformedErr)
}
