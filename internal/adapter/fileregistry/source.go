// Package fileregistry implements the definitions source port over a
// directory of YAML files, one file per agent. It serves as the degraded
// fallback when the primary registry is unreachable, and as the whole
// registry for air-gapped deployments.
package fileregistry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
)

// fileDefinition is the on-disk YAML shape. Older definition files used a
// "tools" key; it merges into capabilities on load.
type fileDefinition struct {
	agent.Definition `yaml:",inline"`
	Tools            []string `yaml:"tools,omitempty"`
}

// Source reads agent definitions from <dir>/<agent-id>.yaml.
type Source struct {
	dir string
}

// New creates a file-backed definitions source rooted at dir.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Fetch implements definitions.Source.
func (s *Source) Fetch(_ context.Context, agentID string) (*agent.Definition, error) {
	if strings.ContainsAny(agentID, `/\`) {
		return nil, fmt.Errorf("definition %q: %w", agentID, domain.ErrValidation)
	}

	path := filepath.Join(s.dir, agentID+".yaml")
	data, err := os.ReadFile(path) //nolint:gosec // G304: dir comes from config, id is validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("definition %q: %w", agentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read definition %q: %w", agentID, err)
	}

	var file fileDefinition
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse definition %q: %w", agentID, err)
	}

	def := file.Definition
	def.Capabilities = append(def.Capabilities, file.Tools...)
	if def.ID == "" {
		def.ID = agentID
	}
	return &def, nil
}

// List returns all definitions found in the directory, for the offline
// inspection command.
func (s *Source) List(ctx context.Context) ([]agent.Definition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read registry dir: %w", err)
	}

	var defs []agent.Definition
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		def, err := s.Fetch(ctx, strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}
