package remote

import (
	"context"
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

func newTestReconciler(t *testing.T, handler http.Handler) port.Reconciler {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := cfg.NewConfig()
	config.Darkroom.Worker.APIEndpoint = server.URL
	config.Darkroom.Worker.APIKey = "test-key"

	return NewHTTPReconciler(HTTPReconcilerParams{Config: config})
}

func TestHTTPReconciler_FetchesAuthoritativeState(t *testing.T) {
	var gotPath, gotJobName, gotAuth string
	reconciler := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotJobName = r.URL.Query().Get("job_name")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"item_count": 42, "last_modified": "2026-08-01T10:00:00Z"}`))
	}))

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})
	err := reconciler.Reconcile(context.Background(), je)

	require.NoError(t, err)
	assert.Equal(t, "/api/library/state", gotPath)
	assert.Equal(t, "clusterFaces", gotJobName)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestHTTPReconciler_ServerErrorIsRetryable(t *testing.T) {
	reconciler := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "state store unavailable", http.StatusServiceUnavailable)
	}))

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})
	err := reconciler.Reconcile(context.Background(), je)

	require.Error(t, err)
	assert.True(t, exception.IsTemporary(err))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPReconciler_MalformedResponse(t *testing.T) {
	reconciler := newTestReconciler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	je := model.NewJobExecution("clusterFaces", model.WorkItemList{"p1"}, model.JobConfig{})
	err := reconciler.Reconcile(context.Background(), je)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
