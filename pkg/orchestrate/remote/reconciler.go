package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/fx"

	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

// HTTPReconcilerParams holds the dependencies injected via DI.
type HTTPReconcilerParams struct {
	fx.In
	Config *cfg.Config
}

// HTTPReconciler re-fetches the authoritative library state from the worker
// service after a task vanished server-side. The fetched state is logged and
// discarded; settling the vanished batch is the scheduler's decision, the
// fetch only refreshes whatever the worker still knows about the items.
type HTTPReconciler struct {
	apiEndpoint   string
	apiKey        string
	reconcilePath string
	httpClient    *http.Client
}

// NewHTTPReconciler creates a new instance of HTTPReconciler from the worker
// section of the application configuration.
func NewHTTPReconciler(p HTTPReconcilerParams) port.Reconciler {
	workerConfig := p.Config.Darkroom.Worker

	timeout := time.Duration(workerConfig.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPReconciler{
		apiEndpoint:   workerConfig.APIEndpoint,
		apiKey:        workerConfig.APIKey,
		reconcilePath: workerConfig.ReconcilePath,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// reconcileResponse is the wire shape of the authoritative state endpoint.
type reconcileResponse struct {
	ItemCount    int    `json:"item_count"`
	LastModified string `json:"last_modified"`
}

// Reconcile fetches the authoritative state for the job's items.
func (r *HTTPReconciler) Reconcile(ctx context.Context, jobExecution *model.JobExecution) error {
	endpoint := r.apiEndpoint + r.reconcilePath + "?" + url.Values{"job_name": {jobExecution.JobName}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to build reconciliation request", err, false, true)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	logger.Infof("HTTPReconciler: Fetching authoritative state for job '%s' (ID: %s).", jobExecution.JobName, jobExecution.ID)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return exception.NewBatchError(moduleName, "reconciliation fetch failed", err, false, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readBodySnippet(resp.Body)
		return exception.NewBatchError(moduleName,
			fmt.Sprintf("reconciliation fetch returned HTTP %d: %s", resp.StatusCode, snippet), nil, false, true)
	}

	var payload reconcileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return exception.NewBatchError(moduleName, "failed to decode reconciliation response", err, false, true)
	}

	logger.Infof("HTTPReconciler: Authoritative state for job '%s': %d items, last modified %s.",
		jobExecution.JobName, payload.ItemCount, payload.LastModified)
	return nil
}

var _ port.Reconciler = (*HTTPReconciler)(nil)
