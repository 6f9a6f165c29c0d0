package cli

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func stubClipboard(t *testing.T, text string, err error) *string {
	t.Helper()
	var written string
	oldRead, oldWrite := readClipboard, writeClipboard
	readClipboard = func() (string, error) { return text, err }
	writeClipboard = func(s string) error {
		written = s
		return err
	}
	t.Cleanup(func() {
		readClipboard, writeClipboard = oldRead, oldWrite
	})
	return &written
}

func TestCurlCommand(t *testing.T) {
	t.Run("prints the parsed request", func(t *testing.T) {
		out := newTestCLI(t).mustRun("curl", "--", "-X", "POST", "https://api.example.com/users",
			"-H", "Authorization: Bearer abc", "-d", `{"name": "test"}`)

		var view requestView
		require.NoError(t, yaml.Unmarshal([]byte(out), &view))
		assert.Empty(t, view.ID)
		assert.Equal(t, "users", view.Name)
		assert.Equal(t, "POST", view.Method)
		assert.Equal(t, "https://api.example.com/users", view.URL)
		assert.Equal(t, "bearer", view.Auth["type"])
		assert.Equal(t, "abc", view.Auth["token"])
		require.NotNil(t, view.Body)
		assert.Equal(t, `{"name": "test"}`, view.Body.Content)
	})

	t.Run("adds configured default headers without -H", func(t *testing.T) {
		out := newTestCLI(t).mustRun("curl", "--", "https://api.example.com/items")

		var view requestView
		require.NoError(t, yaml.Unmarshal([]byte(out), &view))
		require.Len(t, view.Headers, 1)
		assert.Equal(t, "Content-Type", view.Headers[0].Key)
		assert.Equal(t, "GET", view.Method)
	})

	t.Run("accepts a whole quoted command", func(t *testing.T) {
		out := newTestCLI(t).mustRun("curl", "curl -X DELETE 'https://api.example.com/items/3'")
		assert.Contains(t, out, "method: DELETE")
	})

	t.Run("reads stdin", func(t *testing.T) {
		c := newTestCLI(t)
		c.stdin = "curl https://api.example.com/health \\\n  -H 'Accept: text/plain'"
		out := c.mustRun("curl", "-")
		assert.Contains(t, out, "Accept")
		assert.Contains(t, out, "text/plain")
	})

	t.Run("reads the clipboard", func(t *testing.T) {
		stubClipboard(t, "curl -u admin:secret https://api.example.com/protected", nil)
		out := newTestCLI(t).mustRun("curl", "--clipboard")
		assert.Contains(t, out, "type: basic")
		assert.Contains(t, out, "username: admin")
	})

	t.Run("clipboard failure", func(t *testing.T) {
		stubClipboard(t, "", errors.New("no clipboard utility"))
		_, _, err := newTestCLI(t).run("curl", "--clipboard")
		assert.ErrorContains(t, err, "clipboard")
	})

	t.Run("sends the parsed request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "PATCH", r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"a":1}`, string(body))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		out := newTestCLI(t).mustRun("curl", "--send", "--", "-X", "PATCH", server.URL+"/things",
			"-H", "Content-Type: application/json", "-d", `{"a":1}`)
		assert.Contains(t, out, "HTTP 202 Accepted")
	})

	t.Run("saves into a collection", func(t *testing.T) {
		c := newTestCLI(t)
		collID := lastID(t, c.mustRun("collections", "create", "API"))

		out := c.mustRun("curl", "--save", collID, "--name", "Login", "--",
			"-X", "POST", "https://api.example.com/login")
		assert.Contains(t, out, `Saved "Login"`)

		out = c.mustRun("collections", "list")
		assert.Contains(t, out, "POST")
		assert.Contains(t, out, "Login")
	})

	t.Run("rejects text that is not curl", func(t *testing.T) {
		c := newTestCLI(t)
		c.stdin = "wget https://example.com"
		_, _, err := c.run("curl", "-")
		assert.Error(t, err)
	})

	t.Run("requires arguments", func(t *testing.T) {
		_, _, err := newTestCLI(t).run("curl")
		assert.ErrorContains(t, err, "no curl arguments")
	})
}

func TestCurlText(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain url", []string{"https://example.com"}, "curl https://example.com"},
		{"leading curl is dropped", []string{"curl", "https://example.com"}, "curl https://example.com"},
		{"spaces are quoted", []string{"-H", "Accept: text/plain", "https://example.com"}, "curl -H 'Accept: text/plain' https://example.com"},
		{"json is single quoted", []string{"-d", `{"a":1}`}, `curl -d '{"a":1}'`},
		{"single quote falls back to double", []string{"-d", "it's"}, `curl -d "it's"`},
		{"whole command", []string{"curl -X GET https://example.com"}, "curl -X GET https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := curlText(NewCurlCommand(&RootOptions{}), tt.args, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
