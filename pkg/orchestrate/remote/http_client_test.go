package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
)

func newTestClient(t *testing.T, handler http.Handler) (port.WorkerClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := cfg.NewConfig()
	config.Darkroom.Worker.APIEndpoint = server.URL
	config.Darkroom.Worker.APIKey = "test-key"

	return NewHTTPWorkerClient(HTTPWorkerClientParams{Config: config}), server
}

func TestHTTPWorkerClient_Submit(t *testing.T) {
	var gotAuth string
	var gotBody submitRequest

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/tasks", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"task_id": "task-42", "total_items": 3})
	}))

	receipt, err := client.Submit(context.Background(),
		model.WorkItemList{"a", "b", "c"},
		port.SubmitOptions{JobName: "face-cluster"})

	require.NoError(t, err)
	assert.Equal(t, "task-42", receipt.TaskID)
	assert.Equal(t, 3, receipt.TotalItems)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, model.WorkItemList{"a", "b", "c"}, gotBody.Items)
	assert.Equal(t, "face-cluster", gotBody.JobName)
}

func TestHTTPWorkerClient_SubmitDefaultsTotalToItemCount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"task_id": "task-7"})
	}))

	receipt, err := client.Submit(context.Background(), model.WorkItemList{"a", "b"}, port.SubmitOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, receipt.TotalItems)
}

func TestHTTPWorkerClient_SubmitRejectedIsSubmissionError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))

	_, err := client.Submit(context.Background(), model.WorkItemList{"a"}, port.SubmitOptions{})

	require.Error(t, err)
	assert.True(t, exception.IsSubmissionError(err))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPWorkerClient_SubmitTransportFailureIsSubmissionError(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.Submit(context.Background(), model.WorkItemList{"a"}, port.SubmitOptions{})

	require.Error(t, err)
	assert.True(t, exception.IsSubmissionError(err))
}

func TestHTTPWorkerClient_SubmitEmptyTaskID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"task_id": ""})
	}))

	_, err := client.Submit(context.Background(), model.WorkItemList{"a"}, port.SubmitOptions{})

	require.Error(t, err)
	assert.True(t, exception.IsSubmissionError(err))
}

func TestHTTPWorkerClient_Status(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tasks/task-42/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "processing",
			"completed_count": 4,
			"failed_count":    1,
			"total_count":     10,
			"progress":        50,
		})
	}))

	status, err := client.Status(context.Background(), "task-42")

	require.NoError(t, err)
	assert.Equal(t, model.TaskProcessing, status.Phase)
	assert.Equal(t, 4, status.Counts.Completed)
	assert.Equal(t, 1, status.Counts.Failed)
	assert.Equal(t, 10, status.Counts.Total)
	assert.Equal(t, 50.0, status.ProgressPercent)
}

func TestHTTPWorkerClient_StatusNotFoundIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	status, err := client.Status(context.Background(), "gone")

	require.NoError(t, err)
	assert.Equal(t, model.TaskNotFound, status.Phase)
}

func TestHTTPWorkerClient_StatusServerErrorIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.Status(context.Background(), "task-42")

	require.Error(t, err)
	assert.True(t, exception.IsTemporary(err))
}

func TestNormalizePhase(t *testing.T) {
	cases := map[string]model.TaskPhase{
		"processing": model.TaskProcessing,
		"Completed":  model.TaskCompleted,
		"done":       model.TaskCompleted,
		"FAILED":     model.TaskFailed,
		"error":      model.TaskFailed,
		"not_found":  model.TaskNotFound,
		"whatever":   model.TaskProcessing,
		"":           model.TaskProcessing,
	}
	for raw, want := range cases {
		assert.Equal(t, want, normalizePhase(raw), "raw status %q", raw)
	}
}

func TestStatusPayload_CountAliases(t *testing.T) {
	newer := 4
	older := 9
	total := 12

	// Newer field names win over legacy aliases when both are present.
	p := statusPayload{
		Status:          "completed",
		CompletedCount:  &newer,
		CompletedPhotos: &older,
		TotalPhotos:     &total,
	}
	status := p.normalize()
	assert.Equal(t, 4, status.Counts.Completed)
	assert.Equal(t, 12, status.Counts.Total)

	// Legacy-only payloads still normalize.
	legacy := statusPayload{Status: "completed", CompletedPhotos: &older, TotalPhotos: &total}
	status = legacy.normalize()
	assert.Equal(t, 9, status.Counts.Completed)
}
