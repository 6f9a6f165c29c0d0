package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment(t *testing.T) {
	env := NewEnvironment("dev")
	env.SetVariable("host", "localhost")
	env.SetVariable("port", "8080")
	env.SetVariable("host", "127.0.0.1")

	assert.Equal(t, []string{"host", "port"}, env.Names())
	assert.Equal(t, "127.0.0.1", env.GetVariable("host"))

	_, ok := env.Lookup("missing")
	assert.False(t, ok)

	env.DeleteVariable("host")
	assert.Equal(t, []string{"port"}, env.Names())

	t.Run("nil environment is empty", func(t *testing.T) {
		var nilEnv *Environment
		assert.Equal(t, 0, nilEnv.Len())
		_, ok := nilEnv.Lookup("x")
		assert.False(t, ok)
	})

	t.Run("merge overrides and appends", func(t *testing.T) {
		base := NewEnvironment("base")
		base.SetVariable("a", "1")
		other := NewEnvironment("other")
		other.SetVariable("b", "2")
		other.SetVariable("a", "3")

		base.Merge(other)
		assert.Equal(t, []string{"a", "b"}, base.Names())
		assert.Equal(t, "3", base.GetVariable("a"))
	})
}

func TestLoadEnvironmentFromFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("dotenv", func(t *testing.T) {
		path := write("staging.env", "TOKEN=abc\n# comment\nBASE_URL=https://staging.example.com\n")
		env, err := LoadEnvironmentFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "staging", env.Name())
		assert.Equal(t, []string{"BASE_URL", "TOKEN"}, env.Names())
		assert.Equal(t, "abc", env.GetVariable("TOKEN"))
	})

	t.Run("flat json keeps order", func(t *testing.T) {
		path := write("prod.json", `{"name":"Production","z":"1","a":"2","n":3}`)
		env, err := LoadEnvironmentFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Production", env.Name())
		assert.Equal(t, []string{"z", "a", "n"}, env.Names())
		assert.Equal(t, "3", env.GetVariable("n"))
	})

	t.Run("json with variables object", func(t *testing.T) {
		path := write("simple.json", `{"name":"Simple","variables":{"host":"h"}}`)
		env, err := LoadEnvironmentFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Simple", env.Name())
		assert.Equal(t, "h", env.GetVariable("host"))
	})

	t.Run("postman skips disabled values", func(t *testing.T) {
		path := write("pm.json", `{"name":"PM","values":[{"key":"a","value":"1"},{"key":"b","value":"2","enabled":false}]}`)
		env, err := LoadEnvironmentFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, env.Names())
	})

	t.Run("yaml keeps order", func(t *testing.T) {
		path := write("local.yaml", "name: Local\nvariables:\n  zeta: z\n  alpha: a\n")
		env, err := LoadEnvironmentFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Local", env.Name())
		assert.Equal(t, []string{"zeta", "alpha"}, env.Names())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadEnvironmentFromFile(filepath.Join(dir, "nope.env"))
		assert.Error(t, err)
	})

	t.Run("merges multiple files", func(t *testing.T) {
		a := write("a.env", "X=1\nY=1\n")
		b := write("b.env", "Y=2\n")
		env, err := LoadMultipleEnvironments([]string{a, b})
		require.NoError(t, err)
		assert.Equal(t, "2", env.GetVariable("Y"))
		assert.Equal(t, "1", env.GetVariable("X"))
		assert.Equal(t, "b", env.Name())
	})
}
