package core

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewResponseDescriptor(t *testing.T) {
	raw := &RawResponse{
		StatusCode: 404,
		Status:     "404 Not Found",
		Headers:    http.Header{"Content-Type": {"text/plain"}, "Vary": {"Accept", "Origin"}},
		Body:       []byte("missing"),
	}

	resp := NewResponseDescriptor(raw, 42*time.Millisecond)
	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, "Not Found", resp.StatusText)
	assert.Equal(t, "missing", resp.Body)
	assert.Equal(t, int64(42), resp.ElapsedMs)
	assert.Equal(t, "Accept, Origin", resp.Headers["Vary"])
	assert.Equal(t, "text/plain", resp.Header("content-type"))
	assert.True(t, resp.IsError())
	assert.False(t, resp.IsTransportError())
}

func TestNewResponseDescriptor_StatusTextFallback(t *testing.T) {
	resp := NewResponseDescriptor(&RawResponse{StatusCode: 201}, 0)
	assert.Equal(t, "Created", resp.StatusText)
	assert.True(t, resp.IsSuccess())
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(errors.New("dial tcp: no such host"), 7*time.Millisecond)
	assert.Equal(t, 0, resp.Status)
	assert.Equal(t, "Error", resp.StatusText)
	assert.Empty(t, resp.Headers)
	assert.NotNil(t, resp.Headers)
	assert.Equal(t, "Error: dial tcp: no such host", resp.Body)
	assert.Equal(t, int64(7), resp.ElapsedMs)
	assert.True(t, resp.IsTransportError())
	assert.False(t, resp.IsSuccess())

	t.Run("transport error body carries the cause", func(t *testing.T) {
		resp := NewErrorResponse(NewTransportError(errors.New("connection refused")), 0)
		assert.Equal(t, "Error: connection refused", resp.Body)
	})
}

func TestHeaders(t *testing.T) {
	h := NewHeaders()
	h.Set("Authorization", "stale")
	h.Set("authorization", "Bearer tok")
	h.Add("Accept", "a")
	h.Add("accept", "b")

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "Bearer tok", h.Get("AUTHORIZATION"))
	assert.Equal(t, []string{"authorization", "Accept"}, h.Keys())
	assert.Equal(t, []string{"a", "b"}, h.GetAll("Accept"))
	assert.Equal(t, map[string]string{"authorization": "Bearer tok", "Accept": "a, b"}, h.ToMap())

	clone := h.Clone()
	h.Del("Accept")
	assert.False(t, h.Has("accept"))
	assert.True(t, clone.Has("accept"))
}
