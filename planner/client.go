package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/trajectory"
)

// Client calls a planner Server. The base URL may carry a path prefix, such as
// "http://host:8080/ns/loco", when the server is mounted under one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient returns a client for the server at baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient, logger: logger}
}

// Plan requests a plan from start to goal.
func (c *Client) Plan(ctx context.Context, start, goal trajectory.State) (*PlanResponse, error) {
	body, err := json.Marshal(PlanRequest{Start: start, Goal: goal})
	if err != nil {
		return nil, err
	}
	var resp PlanResponse
	if err := c.do(ctx, http.MethodPost, "/plan", body, &resp); err != nil {
		return nil, errors.Wrap(err, "plan request failed")
	}
	if !resp.Converged {
		c.logger.Warnw("planner returned an unconverged plan", "id", resp.ID)
	}
	return &resp, nil
}

// PlanAsync starts Plan in the background. The returned task reports the result, including any
// panic raised while planning.
func (c *Client) PlanAsync(ctx context.Context, start, goal trajectory.State) *Task {
	task := newTask()
	utils.PanicCapturingGo(func() {
		task.run(func() (*PlanResponse, error) {
			return c.Plan(ctx, start, goal)
		})
	})
	return task
}

// PublishPath asks the server to republish the path of its most recent plan.
func (c *Client) PublishPath(ctx context.Context) error {
	return errors.Wrap(c.do(ctx, http.MethodPost, "/publish_path", nil, nil), "publish path request failed")
}

// GetPlan fetches a recent plan by id.
func (c *Client) GetPlan(ctx context.Context, id string) (*PlanResponse, error) {
	var resp PlanResponse
	if err := c.do(ctx, http.MethodGet, "/plans/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Healthy reports whether the server answers its health check.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.logger.Debugw("calling planner", "method", method, "url", req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			return &StatusError{Code: resp.StatusCode, Message: resp.Status}
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError is a non-OK answer from the planner server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("planner returned %d: %s", e.Code, e.Message)
}
