package protocol

import (
	"context"
	"testing"

	"github.com/artpar/workbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRequester struct {
	calls []*core.DispatchDescriptor
}

func (r *recordingRequester) Send(_ context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
	r.calls = append(r.calls, desc)
	return &core.RawResponse{StatusCode: 200, Status: "200 OK"}, nil
}

func TestRouter(t *testing.T) {
	httpReq := &recordingRequester{}
	router := NewRouter(httpReq)

	assert.Equal(t, []string{"graphql", "http", "websocket"}, router.Protocols())

	t.Run("routes http and empty protocol", func(t *testing.T) {
		_, err := router.Send(context.Background(), &core.DispatchDescriptor{Protocol: core.ProtocolHTTP, URL: "http://a"})
		require.NoError(t, err)
		_, err = router.Send(context.Background(), &core.DispatchDescriptor{URL: "http://b"})
		require.NoError(t, err)
		assert.Len(t, httpReq.calls, 2)
	})

	t.Run("websocket is unsupported", func(t *testing.T) {
		resp, err := router.Send(context.Background(), &core.DispatchDescriptor{Protocol: core.ProtocolWebSocket, URL: "ws://a"})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, core.ErrUnsupportedProtocol)
		assert.Equal(t, core.CodeTransport, core.CodeOf(err))
	})

	t.Run("unknown protocol is unsupported", func(t *testing.T) {
		_, err := router.Send(context.Background(), &core.DispatchDescriptor{Protocol: "grpc"})
		assert.ErrorIs(t, err, core.ErrUnsupportedProtocol)
		assert.Contains(t, err.Error(), "grpc")
	})

	t.Run("register replaces", func(t *testing.T) {
		ws := &recordingRequester{}
		router.Register(core.ProtocolWebSocket, ws)
		_, err := router.Send(context.Background(), &core.DispatchDescriptor{Protocol: core.ProtocolWebSocket})
		require.NoError(t, err)
		assert.Len(t, ws.calls, 1)
	})
}
