package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/artpar/workbench/internal/core"
	"gopkg.in/yaml.v3"
)

// environmentExts are the file types an environment can be read from, in
// lookup order.
var environmentExts = []string{".yaml", ".yml", ".json", ".env"}

// EnvironmentStore resolves named environments from a directory of .yaml,
// .json and .env files.
type EnvironmentStore struct {
	basePath string
}

// NewEnvironmentStore creates a new filesystem-based environment store.
func NewEnvironmentStore(basePath string) (*EnvironmentStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create environments directory: %w", err)
	}

	return &EnvironmentStore{
		basePath: basePath,
	}, nil
}

// Save writes env as <name>.yaml, keeping variable order.
func (s *EnvironmentStore) Save(ctx context.Context, env *core.Environment) error {
	if strings.TrimSpace(env.Name()) == "" {
		return core.NewValidationError("name", core.ErrEmptyName, "environment name is required")
	}
	path := filepath.Join(s.basePath, fileStem(env.Name())+".yaml")

	content, err := yaml.Marshal(toEnvironmentNode(env))
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return nil
}

// Get returns the environment called name. A file named after it wins;
// otherwise the name declared inside the files is matched.
func (s *EnvironmentStore) Get(ctx context.Context, name string) (*core.Environment, error) {
	stem := fileStem(name)
	for _, ext := range environmentExts {
		path := filepath.Join(s.basePath, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return core.LoadEnvironmentFromFile(path)
		}
	}

	paths, err := s.files()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		env, err := core.LoadEnvironmentFromFile(path)
		if err != nil {
			continue
		}
		if env.Name() == name {
			return env, nil
		}
	}
	return nil, core.NewNotFoundError("environment", name)
}

// List returns the names of every readable environment, sorted.
func (s *EnvironmentStore) List(ctx context.Context) ([]string, error) {
	paths, err := s.files()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, path := range paths {
		env, err := core.LoadEnvironmentFromFile(path)
		if err != nil || seen[env.Name()] {
			continue
		}
		seen[env.Name()] = true
		names = append(names, env.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes every file named after the environment.
func (s *EnvironmentStore) Delete(ctx context.Context, name string) error {
	stem := fileStem(name)
	removed := false
	for _, ext := range environmentExts {
		path := filepath.Join(s.basePath, stem+ext)
		if err := os.Remove(path); err == nil {
			removed = true
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete environment: %w", err)
		}
	}
	if !removed {
		return core.NewNotFoundError("environment", name)
	}
	return nil
}

func (s *EnvironmentStore) files() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isEnvironmentFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.basePath, entry.Name()))
	}
	return paths, nil
}

func isEnvironmentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range environmentExts {
		if ext == e {
			return true
		}
	}
	return false
}

// fileStem makes an environment name safe to use as a file name.
func fileStem(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
}

func toEnvironmentNode(env *core.Environment) *yaml.Node {
	vars := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range env.Names() {
		vars.Content = append(vars.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: env.GetVariable(k)},
		)
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: env.Name()},
			{Kind: yaml.ScalarNode, Value: "variables"},
			vars,
		},
	}
}
