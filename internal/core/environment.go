package core

// Environment is an ordered set of substitution variables. The compiler only
// reads it.
type Environment struct {
	name      string
	keys      []string
	variables map[string]string
}

// NewEnvironment creates an empty environment with the given name.
func NewEnvironment(name string) *Environment {
	return &Environment{
		name:      name,
		keys:      make([]string, 0),
		variables: make(map[string]string),
	}
}

func (e *Environment) Name() string { return e.name }

// Len returns the number of variables.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Names returns variable names in insertion order.
func (e *Environment) Names() []string {
	if e == nil {
		return nil
	}
	result := make([]string, len(e.keys))
	copy(result, e.keys)
	return result
}

// Lookup returns a variable value and whether it is defined.
func (e *Environment) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.variables[key]
	return v, ok
}

// GetVariable returns a variable value, or empty when undefined.
func (e *Environment) GetVariable(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// SetVariable sets a variable value. A new key goes to the end of the order.
func (e *Environment) SetVariable(key, value string) {
	if _, exists := e.variables[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.variables[key] = value
}

// DeleteVariable removes a variable.
func (e *Environment) DeleteVariable(key string) {
	if _, exists := e.variables[key]; !exists {
		return
	}
	delete(e.variables, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Variables returns a copy of all variables.
func (e *Environment) Variables() map[string]string {
	result := make(map[string]string, e.Len())
	if e == nil {
		return result
	}
	for k, v := range e.variables {
		result[k] = v
	}
	return result
}

// Merge copies other's variables in order; other's values take precedence.
func (e *Environment) Merge(other *Environment) {
	for _, k := range other.Names() {
		e.SetVariable(k, other.variables[k])
	}
}

// Clone creates a deep copy of the environment.
func (e *Environment) Clone() *Environment {
	clone := NewEnvironment(e.name)
	clone.Merge(e)
	return clone
}
