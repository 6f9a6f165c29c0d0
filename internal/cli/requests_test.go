package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRequestsCommand(t *testing.T) {
	setup := func(t *testing.T) (*testCLI, string, string) {
		c := newTestCLI(t)
		collID := lastID(t, c.mustRun("collections", "create", "API"))
		reqID := lastID(t, c.mustRun("requests", "add", collID, "POST", "{{base}}/users",
			"-n", "Create user", "-H", "X-Trace: 1", "-d", `{"name":"ann"}`))
		return c, collID, reqID
	}

	t.Run("show prints the saved request", func(t *testing.T) {
		c, _, reqID := setup(t)

		var view requestView
		require.NoError(t, yaml.Unmarshal([]byte(c.mustRun("requests", "show", reqID)), &view))
		assert.Equal(t, reqID, view.ID)
		assert.Equal(t, "Create user", view.Name)
		assert.Equal(t, "POST", view.Method)
		assert.Equal(t, "{{base}}/users", view.URL)
		require.Len(t, view.Headers, 1)
		assert.Equal(t, "X-Trace", view.Headers[0].Key)
		require.NotNil(t, view.Body)
		assert.Equal(t, "json", string(view.Body.Kind))
	})

	t.Run("show as curl compiles against the environment", func(t *testing.T) {
		c, _, reqID := setup(t)
		c.mustRun("env", "set", "prod", "base=https://prod.example.com")

		out := c.mustRun("requests", "show", reqID, "--curl", "-e", "prod")
		assert.Equal(t, `curl -X POST -H 'X-Trace: 1' -H 'Content-Type: application/json' --data-raw '{"name":"ann"}' https://prod.example.com/users`+"\n", out)
	})

	t.Run("default name", func(t *testing.T) {
		c, collID, _ := setup(t)
		out := c.mustRun("requests", "add", collID, "GET", "https://api.example.com/health")
		assert.Contains(t, out, `"GET https://api.example.com/health"`)
	})

	t.Run("move", func(t *testing.T) {
		c, _, reqID := setup(t)
		otherID := lastID(t, c.mustRun("collections", "create", "Archive"))

		c.mustRun("requests", "move", reqID, otherID)
		out := c.mustRun("collections", "list", "--filter", "Archive")
		assert.Contains(t, out, "Create user")
	})

	t.Run("move into a clashing name", func(t *testing.T) {
		c, _, reqID := setup(t)
		otherID := lastID(t, c.mustRun("collections", "create", "Archive"))
		c.mustRun("requests", "add", otherID, "GET", "https://x", "-n", "create user")

		_, _, err := c.run("requests", "move", reqID, otherID)
		assert.ErrorContains(t, err, "name already in use")
	})

	t.Run("rename", func(t *testing.T) {
		c, _, reqID := setup(t)
		out := c.mustRun("requests", "rename", reqID, "Register")
		assert.Contains(t, out, `Renamed to "Register"`)
	})

	t.Run("delete", func(t *testing.T) {
		c, _, reqID := setup(t)
		_, _, err := c.run("requests", "delete", reqID)
		assert.ErrorIs(t, err, ErrConfirmationRequired)

		c.mustRun("requests", "delete", reqID, "-y")
		_, _, err = c.run("requests", "show", reqID)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("add to unknown collection", func(t *testing.T) {
		c := newTestCLI(t)
		_, _, err := c.run("requests", "add", "missing", "GET", "https://x")
		assert.ErrorContains(t, err, "not found")
	})
}
