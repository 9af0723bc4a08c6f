// Package filecatalog implements the tool catalog port over a YAML file.
// Besides listing metadata it materializes implementations for "api" kind
// entries: thin HTTP executors posting the call arguments to a configured
// endpoint.
package filecatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

// entry is one tool in the catalog file.
type entry struct {
	toolcatalog.Meta `yaml:",inline"`

	// API executor settings, used when Kind is "api".
	URL     string            `yaml:"url,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
}

// catalogFile is the on-disk shape.
type catalogFile struct {
	Tools []entry `yaml:"tools"`
}

// Catalog implements toolcatalog.Catalog and toolcatalog.Loader from a YAML
// file. Entries of kind "builtin" resolve through the process-local builtin
// registry; entries of kind "api" get an HTTP executor built from their
// endpoint settings.
type Catalog struct {
	entries  map[string]entry
	builtins toolcatalog.Builtins
}

// Load reads the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	entries := make(map[string]entry, len(file.Tools))
	for _, e := range file.Tools {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog %s: tool with empty name", path)
		}
		if e.Kind == "api" && e.URL == "" {
			return nil, fmt.Errorf("catalog %s: api tool %q has no url", path, e.Name)
		}
		entries[e.Name] = e
	}

	return &Catalog{entries: entries}, nil
}

// Lookup implements toolcatalog.Catalog.
func (c *Catalog) Lookup(name string) (toolcatalog.Meta, bool) {
	e, ok := c.entries[name]
	return e.Meta, ok
}

// List implements toolcatalog.Catalog.
func (c *Catalog) List() []toolcatalog.Meta {
	out := make([]toolcatalog.Meta, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load implements toolcatalog.Loader.
func (c *Catalog) Load(name string) (capability.Func, bool) {
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}

	switch e.Kind {
	case "builtin":
		return c.builtins.Load(name)
	case "api":
		return apiExecutor(e), true
	default:
		return nil, false
	}
}

// apiExecutor builds an HTTP executor for an api-kind entry. The call
// arguments are posted as JSON; the decoded JSON response is the result.
func apiExecutor(e entry) capability.Func {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	method := e.Method
	if method == "" {
		method = http.MethodPost
	}

	return func(ctx context.Context, args map[string]any) (any, error) {
		body, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("tool %s: marshal args: %w", e.Name, err)
		}

		req, err := http.NewRequestWithContext(ctx, method, e.URL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("tool %s: create request: %w", e.Name, err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range e.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", e.Name, err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("tool %s: read response: %w", e.Name, err)
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("tool %s: endpoint error %d: %s", e.Name, resp.StatusCode, data)
		}

		var result any
		if len(data) > 0 {
			if err := json.Unmarshal(data, &result); err != nil {
				// Non-JSON responses pass through as text.
				return string(data), nil
			}
		}
		return result, nil
	}
}
