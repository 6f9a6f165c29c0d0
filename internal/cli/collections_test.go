package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionsCommand(t *testing.T) {
	t.Run("empty tree", func(t *testing.T) {
		out := newTestCLI(t).mustRun("collections", "list")
		assert.Equal(t, "No collections\n", out)
	})

	t.Run("create, nest and list", func(t *testing.T) {
		c := newTestCLI(t)
		apiID := lastID(t, c.mustRun("collections", "create", "API"))
		usersID := lastID(t, c.mustRun("collections", "create", "Users", "--parent", apiID))
		c.mustRun("requests", "add", usersID, "GET", "https://api.example.com/users", "--name", "List users")

		out := c.mustRun("c", "list")
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "API  ["))
		assert.True(t, strings.HasPrefix(lines[1], "  Users  ["))
		assert.Contains(t, lines[2], "GET     List users")
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		c := newTestCLI(t)
		c.mustRun("collections", "create", "API")
		_, _, err := c.run("collections", "create", "api")
		assert.ErrorContains(t, err, "name already in use")
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, _, err := newTestCLI(t).run("collections", "create", "  ")
		assert.Error(t, err)
	})

	t.Run("rename", func(t *testing.T) {
		c := newTestCLI(t)
		id := lastID(t, c.mustRun("collections", "create", "API"))
		out := c.mustRun("collections", "rename", id, "Public API")
		assert.Contains(t, out, `Renamed to "Public API"`)
		assert.Contains(t, c.mustRun("collections", "list"), "Public API")
	})

	t.Run("duplicate", func(t *testing.T) {
		c := newTestCLI(t)
		id := lastID(t, c.mustRun("collections", "create", "API"))
		out := c.mustRun("collections", "duplicate", id)
		assert.Contains(t, out, `"API (copy)"`)
		assert.NotEqual(t, id, lastID(t, out))
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		c := newTestCLI(t)
		id := lastID(t, c.mustRun("collections", "create", "API"))

		_, _, err := c.run("collections", "delete", id)
		assert.ErrorIs(t, err, ErrConfirmationRequired)
		assert.Contains(t, c.mustRun("collections", "list"), "API")

		c.mustRun("collections", "delete", id, "--yes")
		assert.Contains(t, c.mustRun("collections", "list"), "No collections")
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := newTestCLI(t).run("collections", "rename", "missing", "X")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("filter", func(t *testing.T) {
		c := newTestCLI(t)
		c.mustRun("collections", "create", "Billing")
		c.mustRun("collections", "create", "Accounts")

		out := c.mustRun("collections", "list", "--filter", "bill")
		assert.Contains(t, out, "Billing")
		assert.NotContains(t, out, "Accounts")

		out = c.mustRun("collections", "list", "--filter", "acts", "--fuzzy")
		assert.Contains(t, out, "Accounts")
		assert.NotContains(t, out, "Billing")

		out = c.mustRun("collections", "list", "--filter", "acts")
		assert.Contains(t, out, "No collections")
	})
}
