package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCLI runs workbench commands against one temporary data directory.
type testCLI struct {
	t       *testing.T
	dataDir string
	stdin   string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &testCLI{t: t, dataDir: t.TempDir()}
}

// run executes one invocation with a fresh command tree.
func (c *testCLI) run(args ...string) (string, string, error) {
	c.t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand("test")
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(c.stdin))
	cmd.SetArgs(append([]string{"--data-dir=" + c.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *testCLI) mustRun(args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run(args...)
	require.NoError(c.t, err, errOut)
	return out
}

var idPattern = regexp.MustCompile(`\[([0-9a-f-]{36})\]`)

// lastID returns the last bracketed id printed by a command.
func lastID(t *testing.T, out string) string {
	t.Helper()
	matches := idPattern.FindAllStringSubmatch(out, -1)
	require.NotEmpty(t, matches, "no id in %q", out)
	return matches[len(matches)-1][1]
}

func TestNewRootCommand(t *testing.T) {
	t.Run("creates root command", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		assert.NotNil(t, cmd)
		assert.Equal(t, "workbench", cmd.Use)
		assert.Equal(t, "1.0.0", cmd.Version)
		assert.Contains(t, cmd.Long, "collections")
	})

	t.Run("has persistent flags", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		for _, name := range []string{"config", "user", "data-dir", "storage", "env", "verbose"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
		}
		assert.Equal(t, "e", cmd.PersistentFlags().Lookup("env").Shorthand)
	})

	t.Run("has subcommands", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		for _, name := range []string{"send", "curl", "import", "export", "run", "collections", "requests", "env"} {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("flags override config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		dir := t.TempDir()

		cfg, err := loadConfig(&RootOptions{User: "alice", DataDir: dir, Storage: "sqlite", Verbose: true})
		require.NoError(t, err)
		assert.Equal(t, "alice", cfg.User)
		assert.Equal(t, dir, cfg.DataDir)
		assert.Equal(t, dir+"/environments", cfg.EnvDir)
		assert.Equal(t, "sqlite", cfg.Storage)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("invalid storage", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		_, err := loadConfig(&RootOptions{Storage: "mongo"})
		assert.Error(t, err)
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		_, err := loadConfig(&RootOptions{ConfigPath: "/nonexistent/config.yaml"})
		assert.Error(t, err)
	})
}

func TestVerboseLogging(t *testing.T) {
	c := newTestCLI(t)
	_, errOut, err := c.run("--verbose", "collections", "list")
	require.NoError(t, err)
	assert.Contains(t, errOut, "config resolved")
}

func TestSQLiteStorage(t *testing.T) {
	c := newTestCLI(t)
	out := c.mustRun("--storage=sqlite", "collections", "create", "API")
	id := lastID(t, out)

	out = c.mustRun("--storage=sqlite", "collections", "list")
	assert.Contains(t, out, "API")
	assert.Contains(t, out, id)

	out = c.mustRun("collections", "list")
	assert.Contains(t, out, "No collections")
}
