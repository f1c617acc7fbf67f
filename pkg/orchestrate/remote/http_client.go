package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"

	cfg "github.com/lumapix/darkroom/pkg/orchestrate/core/config"
	model "github.com/lumapix/darkroom/pkg/orchestrate/core/domain/model"
	port "github.com/lumapix/darkroom/pkg/orchestrate/core/port"
	exception "github.com/lumapix/darkroom/pkg/orchestrate/support/util/exception"
	logger "github.com/lumapix/darkroom/pkg/orchestrate/support/util/logger"
)

const moduleName = "remote"

// HTTPWorkerClientParams holds the dependencies injected via DI.
type HTTPWorkerClientParams struct {
	fx.In
	Config *cfg.Config
}

// HTTPWorkerClient is the HTTP implementation of [port.WorkerClient].
// It talks to the remote worker service that performs the actual batch
// processing (e.g., face clustering on a set of photos).
type HTTPWorkerClient struct {
	apiEndpoint      string
	apiKey           string
	submitPath       string
	statusPathFormat string
	httpClient       *http.Client
}

// NewHTTPWorkerClient creates a new instance of HTTPWorkerClient from the
// worker section of the application configuration.
func NewHTTPWorkerClient(p HTTPWorkerClientParams) port.WorkerClient {
	workerConfig := p.Config.Darkroom.Worker

	timeout := time.Duration(workerConfig.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPWorkerClient{
		apiEndpoint:      workerConfig.APIEndpoint,
		apiKey:           workerConfig.APIKey,
		submitPath:       workerConfig.SubmitPath,
		statusPathFormat: workerConfig.StatusPathFormat,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// submitRequest is the wire shape of a batch submission.
type submitRequest struct {
	Items   model.WorkItemList     `json:"items"`
	JobName string                 `json:"job_name,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// submitResponse is the wire shape of a successful submission response.
type submitResponse struct {
	TaskID     string `json:"task_id"`
	TotalItems int    `json:"total_items"`
}

// Submit sends one batch of items to the worker's submission endpoint.
// Any transport failure or non-2xx response is wrapped as a submission
// error: the batch is considered to have never reached the worker.
func (c *HTTPWorkerClient) Submit(ctx context.Context, items model.WorkItemList, opts port.SubmitOptions) (model.SubmitReceipt, error) {
	url := c.apiEndpoint + c.submitPath

	body, err := json.Marshal(submitRequest{Items: items, JobName: opts.JobName, Params: opts.Params})
	if err != nil {
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName, "failed to encode submission request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName, "failed to build submission request", err)
	}
	c.setHeaders(req)

	logger.Debugf("HTTPWorkerClient: Submitting %d items to %s.", len(items), url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName, fmt.Sprintf("submission request to %s failed", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readBodySnippet(resp.Body)
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName,
			fmt.Sprintf("worker rejected submission with HTTP %d: %s", resp.StatusCode, snippet), nil)
	}

	var payload submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName, "failed to decode submission response", err)
	}
	if payload.TaskID == "" {
		return model.SubmitReceipt{}, exception.NewSubmissionError(moduleName, "worker returned an empty task_id", nil)
	}

	receipt := model.SubmitReceipt{TaskID: payload.TaskID, TotalItems: payload.TotalItems}
	if receipt.TotalItems == 0 {
		receipt.TotalItems = len(items)
	}

	logger.Debugf("HTTPWorkerClient: Obtained task ID '%s' for %d items.", receipt.TaskID, receipt.TotalItems)
	return receipt, nil
}

// Status fetches one status observation for the given task.
// An HTTP 404 is not an error: it is reported as the not_found phase so the
// scheduler can reconcile instead of failing the batch.
func (c *HTTPWorkerClient) Status(ctx context.Context, taskID string) (model.TaskStatus, error) {
	url := c.apiEndpoint + fmt.Sprintf(c.statusPathFormat, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.TaskStatus{}, exception.NewBatchError(moduleName, "failed to build status request", err, false, true)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.TaskStatus{}, exception.NewBatchError(moduleName, fmt.Sprintf("status request for task '%s' failed", taskID), err, false, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Debugf("HTTPWorkerClient: Task '%s' not found on worker.", taskID)
		return model.TaskStatus{Phase: model.TaskNotFound}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readBodySnippet(resp.Body)
		return model.TaskStatus{}, exception.NewBatchError(moduleName,
			fmt.Sprintf("status request for task '%s' returned HTTP %d: %s", taskID, resp.StatusCode, snippet), nil, false, true)
	}

	var payload statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.TaskStatus{}, exception.NewBatchError(moduleName, fmt.Sprintf("failed to decode status response for task '%s'", taskID), err, false, true)
	}
	return payload.normalize(), nil
}

func (c *HTTPWorkerClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// readBodySnippet reads a bounded prefix of an error response body for
// inclusion in error messages.
func readBodySnippet(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(b) == 0 {
		return "<no body>"
	}
	return string(bytes.TrimSpace(b))
}

var _ port.WorkerClient = (*HTTPWorkerClient)(nil)
