// Package controlplane provides the HTTP client runtime processes use to
// reach a remote Warden control plane: definition resolution and policy
// evaluation over its public API.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/resilience"
)

// Client talks to a Warden control plane. It implements definitions.Source
// and policyeval.Evaluator, so a library-embedded runtime degrades exactly
// like the in-process services do when the control plane is unreachable.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a control-plane client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Fetch implements definitions.Source against GET /api/v1/agents/{id}.
func (c *Client) Fetch(ctx context.Context, agentID string) (*agent.Definition, error) {
	data, status, err := c.doRequest(ctx, http.MethodGet, "/api/v1/agents/"+url.PathEscape(agentID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch definition %q: %w", agentID, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("definition %q: %w", agentID, domain.ErrNotFound)
	}
	if status >= 400 {
		return nil, fmt.Errorf("fetch definition %q: control plane error %d", agentID, status)
	}

	var def agent.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode definition %q: %w", agentID, err)
	}
	return &def, nil
}

// Evaluate implements policyeval.Evaluator against
// POST /api/v1/policies/{id}/evaluate.
func (c *Client) Evaluate(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return policy.Decision{}, fmt.Errorf("marshal input: %w", err)
	}

	// Policy identifiers are namespace/name pairs and map directly onto
	// two path segments.
	path := "/api/v1/policies/" + policyID + "/evaluate"
	data, status, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("%w: %w", policy.ErrEvaluatorUnavailable, err)
	}
	if status >= 400 {
		return policy.Decision{}, fmt.Errorf("%w: control plane error %d", policy.ErrEvaluatorUnavailable, status)
	}

	var d policy.Decision
	if err := json.Unmarshal(data, &d); err != nil {
		return policy.Decision{}, fmt.Errorf("%w: decode decision: %w", policy.ErrEvaluatorUnavailable, err)
	}
	return d, nil
}

// doRequest performs one call; non-2xx statuses are returned to the caller
// rather than treated as transport errors, except through the breaker where
// 5xx counts as failure.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (data []byte, status int, err error) {
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if reqErr != nil {
			return fmt.Errorf("create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return fmt.Errorf("http request: %w", doErr)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		status = resp.StatusCode

		if status >= 500 {
			return fmt.Errorf("control plane error %d: %s", status, string(data))
		}
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, status, err
		}
		return data, status, nil
	}

	if err := call(); err != nil {
		return nil, status, err
	}
	return data, status, nil
}
