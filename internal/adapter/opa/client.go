// Package opa implements the policy evaluator port against an OPA
// (Open Policy Agent) data API endpoint.
package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/resilience"
)

// Client evaluates policies via OPA's POST /v1/data/<path> API. Every error
// it returns degrades the caller to the in-process fallback tier, so errors
// here are deliberately broad: transport failures, non-2xx statuses and
// malformed responses all count as evaluator unavailability.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates an OPA client. baseURL is the server root, e.g.
// "http://opa.internal:8181".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// evalResult is the OPA data API response shape. The rule is expected to
// produce an object with "allowed" and "reason".
type evalResult struct {
	Result *struct {
		Allowed bool           `json:"allowed"`
		Reason  string         `json:"reason"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"result"`
}

// Evaluate implements policyeval.Evaluator. The policy identifier maps to
// an OPA data path, e.g. "payments/retry" -> /v1/data/payments/retry.
func (c *Client) Evaluate(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return policy.Decision{}, fmt.Errorf("marshal input: %w", err)
	}

	data, err := c.post(ctx, "/v1/data/"+policyID, body)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("%w: %w", policy.ErrEvaluatorUnavailable, err)
	}

	var result evalResult
	if err := json.Unmarshal(data, &result); err != nil {
		return policy.Decision{}, fmt.Errorf("%w: decode response: %w", policy.ErrEvaluatorUnavailable, err)
	}
	if result.Result == nil {
		// OPA returns an empty object for undefined documents.
		return policy.Decision{}, fmt.Errorf("%w: policy %q undefined", policy.ErrEvaluatorUnavailable, policyID)
	}

	return policy.Decision{
		Allowed: result.Result.Allowed,
		Reason:  result.Result.Reason,
		Details: result.Result.Details,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("opa API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
