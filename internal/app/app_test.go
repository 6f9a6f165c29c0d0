package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/exporter"
	"github.com/artpar/workbench/internal/importer"
	"github.com/artpar/workbench/internal/session"
	"github.com/artpar/workbench/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRequester records descriptors and answers with sendFunc.
type MockRequester struct {
	sendFunc func(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error)
	calls    chan *core.DispatchDescriptor
}

func NewMockRequester() *MockRequester {
	return &MockRequester{
		sendFunc: func(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
			return &core.RawResponse{StatusCode: 200, Status: "200 OK", Body: []byte("ok")}, nil
		},
		calls: make(chan *core.DispatchDescriptor, 16),
	}
}

func (m *MockRequester) Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
	m.calls <- desc
	return m.sendFunc(ctx, desc)
}

func newTestApp(t *testing.T, opts ...Option) (*App, *MockRequester) {
	t.Helper()
	mock := NewMockRequester()
	app := New(append([]Option{WithProtocol(core.ProtocolHTTP, mock)}, opts...)...)
	t.Cleanup(app.Shutdown)
	return app, mock
}

func TestNewApp(t *testing.T) {
	t.Run("creates app with defaults", func(t *testing.T) {
		app := New()
		assert.Equal(t, "default", app.Tree().UserID())
		assert.Equal(t, 1, app.Sessions().Len())
		assert.Equal(t, []string{"graphql", "http", "websocket"}, app.ListProtocols())
		assert.Nil(t, app.Environment())
	})

	t.Run("uses injected components", func(t *testing.T) {
		store := tree.New("alice")
		sessions := session.New()
		app := New(WithTree(store), WithSessions(sessions))
		assert.Same(t, store, app.Tree())
		assert.Same(t, sessions, app.Sessions())
	})
}

func TestApp_Send(t *testing.T) {
	t.Run("sends through net/http and stores the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/users", r.URL.Path)
			assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"ann"}`, string(body))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":1}`))
		}))
		defer server.Close()

		env := core.NewEnvironment("local")
		env.SetVariable("base", server.URL)
		env.SetVariable("token", "s3cret")
		app := New(WithEnvironment(env))

		tab := app.Sessions().Active()
		_, err := app.Sessions().SetMethod(tab.ID, "POST")
		require.NoError(t, err)
		_, err = app.Sessions().SetURL(tab.ID, "{{base}}/users")
		require.NoError(t, err)
		_, err = app.Sessions().SetBody(tab.ID, core.BodySpec{Kind: core.BodyJSON, Raw: `{"name":"ann"}`})
		require.NoError(t, err)
		_, err = app.Sessions().SetAuth(tab.ID, core.NewBearerAuth("${token}"))
		require.NoError(t, err)

		resp, err := app.Send(context.Background(), tab.ID)
		require.NoError(t, err)
		assert.Equal(t, 201, resp.Status)
		assert.Equal(t, "Created", resp.StatusText)
		assert.Equal(t, `{"id":1}`, resp.Body)

		state, _ := app.Sessions().Get(tab.ID)
		assert.Same(t, resp, state.Response)
		assert.False(t, state.Pending)
		assert.False(t, state.Dirty)
	})

	t.Run("transport failure is a status zero response", func(t *testing.T) {
		app, mock := newTestApp(t)
		mock.sendFunc = func(context.Context, *core.DispatchDescriptor) (*core.RawResponse, error) {
			return nil, core.NewTransportError(errors.New("dial tcp: no such host"))
		}
		tab := app.Sessions().Active()

		_, err := app.Sessions().SetURL(tab.ID, "https://nowhere.invalid")
		require.NoError(t, err)

		resp, err := app.Send(context.Background(), tab.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Status)
		assert.Equal(t, "Error: dial tcp: no such host", resp.Body)

		state, _ := app.Sessions().Get(tab.ID)
		assert.True(t, state.Dirty)
	})

	t.Run("websocket urls are unsupported", func(t *testing.T) {
		app := New()
		tab := app.Sessions().Active()
		_, err := app.Sessions().SetURL(tab.ID, "wss://stream.example.com")
		require.NoError(t, err)

		resp, err := app.Send(context.Background(), tab.ID)
		require.NoError(t, err)
		assert.True(t, resp.IsTransportError())
		assert.Contains(t, resp.Body, "protocol not supported")
	})

	t.Run("unknown tab", func(t *testing.T) {
		app, _ := newTestApp(t)
		_, err := app.Send(context.Background(), "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

// blockingRequester holds every send until its context is done.
func blockingRequester(mock *MockRequester) {
	mock.sendFunc = func(ctx context.Context, _ *core.DispatchDescriptor) (*core.RawResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func TestApp_Cancel(t *testing.T) {
	t.Run("cancel clears pending without a response", func(t *testing.T) {
		app, mock := newTestApp(t)
		blockingRequester(mock)
		tab := app.Sessions().Active()

		done := make(chan error, 1)
		go func() {
			_, err := app.Send(context.Background(), tab.ID)
			done <- err
		}()
		<-mock.calls

		state, _ := app.Sessions().Get(tab.ID)
		assert.True(t, state.Pending)
		assert.True(t, app.Cancel(tab.ID))

		select {
		case err := <-done:
			assert.ErrorIs(t, err, core.ErrCanceled)
		case <-time.After(2 * time.Second):
			t.Fatal("send did not return after cancel")
		}

		state, _ = app.Sessions().Get(tab.ID)
		assert.False(t, state.Pending)
		assert.Nil(t, state.Response)
		assert.False(t, app.Cancel(tab.ID))
	})

	t.Run("parent context cancel clears pending", func(t *testing.T) {
		app, mock := newTestApp(t)
		blockingRequester(mock)
		tab := app.Sessions().Active()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := app.Send(ctx, tab.ID)
			done <- err
		}()
		<-mock.calls
		cancel()

		assert.ErrorIs(t, <-done, core.ErrCanceled)
		state, _ := app.Sessions().Get(tab.ID)
		assert.False(t, state.Pending)
	})

	t.Run("new send supersedes the pending one", func(t *testing.T) {
		app, mock := newTestApp(t)
		var sends atomic.Int32
		mock.sendFunc = func(ctx context.Context, _ *core.DispatchDescriptor) (*core.RawResponse, error) {
			if sends.Add(1) == 1 {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &core.RawResponse{StatusCode: 204, Status: "204 No Content"}, nil
		}
		tab := app.Sessions().Active()

		firstDone := make(chan error, 1)
		go func() {
			_, err := app.Send(context.Background(), tab.ID)
			firstDone <- err
		}()
		<-mock.calls

		resp, err := app.Send(context.Background(), tab.ID)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.Status)
		assert.ErrorIs(t, <-firstDone, core.ErrCanceled)

		state, _ := app.Sessions().Get(tab.ID)
		assert.Equal(t, 204, state.Response.Status)
		assert.False(t, state.Pending)
	})

	t.Run("tabs are independent", func(t *testing.T) {
		app, mock := newTestApp(t)
		mock.sendFunc = func(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
			if strings.HasSuffix(desc.URL, "/slow") {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &core.RawResponse{StatusCode: 200, Status: "200 OK"}, nil
		}
		a := app.Sessions().Active()
		_, err := app.Sessions().SetURL(a.ID, "https://api.example.com/slow")
		require.NoError(t, err)
		b := app.Sessions().NewTab()
		_, err = app.Sessions().SetURL(b.ID, "https://api.example.com/fast")
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := app.Send(context.Background(), a.ID)
			done <- err
		}()
		<-mock.calls

		resp, err := app.Send(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)

		state, _ := app.Sessions().Get(a.ID)
		assert.True(t, state.Pending)
		assert.True(t, app.Cancel(a.ID))
		assert.ErrorIs(t, <-done, core.ErrCanceled)
	})
}

func TestApp_SaveFlow(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	coll, err := app.Tree().CreateCollection(ctx, "", "API")
	require.NoError(t, err)

	tab := app.Sessions().Active()
	_, err = app.Sessions().SetURL(tab.ID, "https://api.example.com/health")
	require.NoError(t, err)

	t.Run("unlinked tab needs a destination", func(t *testing.T) {
		_, err := app.SaveTab(ctx, tab.ID)
		assert.ErrorIs(t, err, core.ErrSaveDestinationRequired)
	})

	var savedID string
	t.Run("save as links the tab", func(t *testing.T) {
		state, err := app.SaveTabAs(ctx, tab.ID, coll.ID(), "Health")
		require.NoError(t, err)
		assert.True(t, state.IsLinked())
		assert.False(t, state.Dirty)
		assert.Equal(t, "Health", state.Draft.Name())
		savedID = state.LinkedDefinitionID

		owner, ok := app.Tree().FindRequestOwner(savedID)
		require.True(t, ok)
		assert.Equal(t, coll.ID(), owner)
	})

	t.Run("save updates in place", func(t *testing.T) {
		_, err := app.Sessions().SetMethod(tab.ID, "HEAD")
		require.NoError(t, err)

		state, err := app.SaveTab(ctx, tab.ID)
		require.NoError(t, err)
		assert.False(t, state.Dirty)

		stored, err := app.Tree().GetRequest(savedID)
		require.NoError(t, err)
		assert.Equal(t, "HEAD", stored.Method())
		_, requests := app.Tree().Len()
		assert.Equal(t, 1, requests)
	})

	t.Run("open request gives a linked clean tab", func(t *testing.T) {
		state, err := app.OpenRequest(savedID)
		require.NoError(t, err)
		assert.Equal(t, savedID, state.LinkedDefinitionID)
		assert.False(t, state.Dirty)

		_, err = app.OpenRequest("missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("deleted request unlinks on save", func(t *testing.T) {
		require.NoError(t, app.Tree().DeleteRequest(ctx, savedID))

		state, err := app.SaveTab(ctx, tab.ID)
		assert.ErrorIs(t, err, core.ErrSaveDestinationRequired)
		assert.False(t, state.IsLinked())
	})

	t.Run("save as into unknown collection", func(t *testing.T) {
		_, err := app.SaveTabAs(ctx, tab.ID, "missing", "")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestApp_SendRequest(t *testing.T) {
	ctx := context.Background()
	app, mock := newTestApp(t)
	coll, err := app.Tree().CreateCollection(ctx, "", "API")
	require.NoError(t, err)
	saved, err := app.Tree().AddRequest(ctx, coll.ID(), core.NewRequestDefinition("Ping", "GET", "{{base}}/ping"))
	require.NoError(t, err)

	env := core.NewEnvironment("prod")
	env.SetVariable("base", "https://prod.example.com")
	app.SetEnvironment(env)

	resp, err := app.SendRequest(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "https://prod.example.com/ping", (<-mock.calls).URL)
}

func TestApp_ImportExport(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	coll, err := app.Import(ctx, importer.FormatAuto, []byte(`curl -X DELETE https://api.example.com/items/3 -H 'X-Key: k'`))
	require.NoError(t, err)
	assert.Equal(t, "Imported from curl", coll.Name())
	require.Len(t, coll.Requests(), 1)
	assert.Equal(t, "DELETE", coll.Requests()[0].Method())

	again, err := app.Import(ctx, importer.FormatCurl, []byte(`curl https://api.example.com/other`))
	require.NoError(t, err)
	assert.Equal(t, "Imported from curl (2)", again.Name())

	t.Run("export as curl", func(t *testing.T) {
		result, err := app.Export(ctx, exporter.FormatCurl, coll.ID())
		require.NoError(t, err)
		assert.Contains(t, string(result.Content), "-X DELETE")
	})

	t.Run("export unknown collection", func(t *testing.T) {
		_, err := app.Export(ctx, exporter.FormatCurl, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("invalid import", func(t *testing.T) {
		_, err := app.Import(ctx, importer.FormatAuto, []byte("hello world"))
		assert.Error(t, err)
	})
}

func TestApp_CopyAsCurl(t *testing.T) {
	app, _ := newTestApp(t)
	tab := app.Sessions().Active()
	_, err := app.Sessions().SetURL(tab.ID, "https://api.example.com/me")
	require.NoError(t, err)
	_, err = app.Sessions().SetAuth(tab.ID, core.NewAPIKeyAuth("api_key", "k1", core.APIKeyInQuery))
	require.NoError(t, err)

	out, err := app.CopyAsCurl(tab.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "curl 'https://api.example.com/me?api_key=k1'", out)
}

func TestApp_Hooks(t *testing.T) {
	t.Run("pre dispatch can rewrite the descriptor", func(t *testing.T) {
		app, mock := newTestApp(t)
		app.RegisterHook(HookPreDispatch, func(ctx context.Context, data any) (any, error) {
			desc := data.(*core.DispatchDescriptor)
			desc.Headers.Set("X-Request-Id", "abc")
			return desc, nil
		})
		app.RegisterHook(HookPostResponse, func(ctx context.Context, data any) (any, error) {
			resp := data.(*core.ResponseDescriptor)
			resp.Body = "rewritten"
			return resp, nil
		})

		resp, err := app.Send(context.Background(), app.Sessions().Active().ID)
		require.NoError(t, err)
		assert.Equal(t, "abc", (<-mock.calls).Headers.Get("X-Request-Id"))
		assert.Equal(t, "rewritten", resp.Body)
		assert.Len(t, app.GetHooks(HookPreDispatch), 1)
	})

	t.Run("hook error aborts the send", func(t *testing.T) {
		app, mock := newTestApp(t)
		app.RegisterHook(HookPreDispatch, func(ctx context.Context, data any) (any, error) {
			return nil, errors.New("blocked")
		})
		tab := app.Sessions().Active()

		_, err := app.Send(context.Background(), tab.ID)
		assert.ErrorContains(t, err, "blocked")
		assert.Len(t, mock.calls, 0)

		state, _ := app.Sessions().Get(tab.ID)
		assert.False(t, state.Pending)
	})
}

func TestApp_CloseTab(t *testing.T) {
	app, mock := newTestApp(t)
	blockingRequester(mock)
	a := app.Sessions().Active()
	b := app.Sessions().NewTab()

	done := make(chan error, 1)
	go func() {
		_, err := app.Send(context.Background(), b.ID)
		done <- err
	}()
	<-mock.calls

	require.NoError(t, app.CloseTab(b.ID))
	assert.ErrorIs(t, <-done, core.ErrCanceled)
	assert.Equal(t, a.ID, app.Sessions().Active().ID)
	assert.Equal(t, 1, app.Sessions().Len())
}
