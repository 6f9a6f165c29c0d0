package interpolate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/artpar/workbench/internal/core"
)

// namePattern is the accepted variable name syntax.
const namePattern = `[A-Za-z_][A-Za-z0-9_.\-]*`

// variablePattern matches ${variable} and {{variable}}, with optional inner spaces.
var variablePattern = regexp.MustCompile(`\$\{\s*(` + namePattern + `)\s*\}|\{\{\s*(` + namePattern + `)\s*\}\}`)

// Engine substitutes variables into strings. Unknown variables are left
// verbatim, so Interpolate never fails.
type Engine struct {
	mu        sync.RWMutex
	variables map[string]string
}

// NewEngine creates a new interpolation engine.
func NewEngine() *Engine {
	return &Engine{
		variables: make(map[string]string),
	}
}

// NewEngineFromEnvironment creates an engine holding env's variables.
// A nil env yields an empty engine.
func NewEngineFromEnvironment(env *core.Environment) *Engine {
	e := NewEngine()
	for _, name := range env.Names() {
		e.variables[name] = env.GetVariable(name)
	}
	return e
}

// SetVariable sets a variable value.
func (e *Engine) SetVariable(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables[name] = value
}

// GetVariable gets a variable value.
func (e *Engine) GetVariable(name string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.variables[name]
}

// HasVariable checks if a variable exists.
func (e *Engine) HasVariable(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.variables[name]
	return exists
}

// SetVariables sets multiple variables at once.
func (e *Engine) SetVariables(vars map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range vars {
		e.variables[k] = v
	}
}

// Variables returns a copy of all variables.
func (e *Engine) Variables() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	result := make(map[string]string, len(e.variables))
	for k, v := range e.variables {
		result[k] = v
	}
	return result
}

// Interpolate replaces every known placeholder in input. Substituted values
// are not rescanned.
func (e *Engine) Interpolate(input string) string {
	if !strings.Contains(input, "${") && !strings.Contains(input, "{{") {
		return input
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if value, ok := e.variables[matchName(match)]; ok {
			return value
		}
		return match
	})
}

// InterpolateMap interpolates all values in a string map.
func (e *Engine) InterpolateMap(input map[string]string) map[string]string {
	result := make(map[string]string, len(input))
	for k, v := range input {
		result[k] = e.Interpolate(v)
	}
	return result
}

// ExtractVariables returns the variable names referenced by input, in order
// of first appearance.
func ExtractVariables(input string) []string {
	matches := variablePattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	var result []string

	for _, match := range matches {
		name := match[1]
		if name == "" {
			name = match[2]
		}
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

// Missing returns the variables referenced by input that the engine does not define.
func (e *Engine) Missing(input string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var missing []string
	for _, name := range ExtractVariables(input) {
		if _, ok := e.variables[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Validate checks if all variables in the input string are defined.
func (e *Engine) Validate(input string) error {
	if missing := e.Missing(input); len(missing) > 0 {
		return fmt.Errorf("undefined variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Clone creates a copy of the engine with the same variables.
func (e *Engine) Clone() *Engine {
	clone := NewEngine()
	clone.SetVariables(e.Variables())
	return clone
}

func matchName(match string) string {
	sub := variablePattern.FindStringSubmatch(match)
	if sub == nil {
		return ""
	}
	if sub[1] != "" {
		return sub[1]
	}
	return sub[2]
}
