package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PostmanEnvironment represents a Postman environment file format.
type PostmanEnvironment struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Values []PostmanEnvValue `json:"values"`
}

// PostmanEnvValue represents a single variable in Postman format.
type PostmanEnvValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// LoadEnvironmentFromFile loads an environment from a .env, .json or .yaml file.
// The environment is named after the file unless the content names it.
func LoadEnvironmentFromFile(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadEnvironmentFromJSON(name, data)
	case ".yaml", ".yml":
		return LoadEnvironmentFromYAML(name, data)
	default:
		return LoadEnvironmentFromDotenv(name, data)
	}
}

// LoadEnvironmentFromDotenv parses KEY=value lines. Dotenv files carry no
// order, so variables are sorted by name.
func LoadEnvironmentFromDotenv(name string, data []byte) (*Environment, error) {
	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dotenv environment: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := NewEnvironment(name)
	for _, k := range keys {
		env.SetVariable(k, values[k])
	}
	return env, nil
}

// LoadEnvironmentFromJSON loads an environment from JSON data.
// Supports the Postman format, {"name","variables"} and a flat object.
func LoadEnvironmentFromJSON(name string, data []byte) (*Environment, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if _, hasValues := raw["values"]; hasValues {
		return loadPostmanEnvironment(name, data)
	}

	if n, ok := raw["name"]; ok {
		var s string
		if err := json.Unmarshal(n, &s); err == nil && s != "" {
			name = s
		}
	}

	if vars, ok := raw["variables"]; ok {
		return loadFlatJSON(name, vars, "")
	}
	return loadFlatJSON(name, data, "name")
}

func loadPostmanEnvironment(name string, data []byte) (*Environment, error) {
	var pm PostmanEnvironment
	if err := json.Unmarshal(data, &pm); err != nil {
		return nil, fmt.Errorf("failed to parse Postman environment: %w", err)
	}
	if pm.Name != "" {
		name = pm.Name
	}

	env := NewEnvironment(name)
	for _, v := range pm.Values {
		if v.Enabled != nil && !*v.Enabled {
			continue
		}
		env.SetVariable(v.Key, v.Value)
	}
	return env, nil
}

// loadFlatJSON reads an object of scalar values keeping key order.
func loadFlatJSON(name string, data []byte, skip string) (*Environment, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse environment: expected object")
	}

	env := NewEnvironment(name)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse environment: %w", err)
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to parse environment: %w", err)
		}
		if key == skip {
			continue
		}
		switch v := value.(type) {
		case string:
			env.SetVariable(key, v)
		case float64, bool:
			env.SetVariable(key, fmt.Sprint(v))
		}
	}
	return env, nil
}

// LoadEnvironmentFromYAML loads a flat YAML mapping, or one nested under
// "variables", keeping key order.
func LoadEnvironmentFromYAML(name string, data []byte) (*Environment, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML environment: %w", err)
	}

	env := NewEnvironment(name)
	if len(doc.Content) == 0 {
		return env, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse YAML environment: expected mapping")
	}

	mapping := root
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch {
		case key.Value == "name" && value.Kind == yaml.ScalarNode:
			env.name = value.Value
		case key.Value == "variables" && value.Kind == yaml.MappingNode:
			mapping = value
		}
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			continue
		}
		if mapping == root && key.Value == "name" {
			continue
		}
		env.SetVariable(key.Value, value.Value)
	}
	return env, nil
}

// LoadMultipleEnvironments loads and merges multiple environment files.
// Later files take precedence over earlier ones.
func LoadMultipleEnvironments(paths []string) (*Environment, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	var merged *Environment
	for _, path := range paths {
		env, err := LoadEnvironmentFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if merged == nil {
			merged = env
			continue
		}
		merged.Merge(env)
		merged.name = env.Name()
	}
	return merged, nil
}
