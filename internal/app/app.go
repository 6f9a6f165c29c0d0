// Package app wires the collection tree, the tab sessions, the compiler and
// the dispatcher into one engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/artpar/workbench/internal/compiler"
	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/dispatch"
	"github.com/artpar/workbench/internal/exporter"
	"github.com/artpar/workbench/internal/importer"
	"github.com/artpar/workbench/internal/protocol"
	httpclient "github.com/artpar/workbench/internal/protocol/http"
	"github.com/artpar/workbench/internal/session"
	"github.com/artpar/workbench/internal/tree"
)

// Hook names.
const (
	// HookPreDispatch handlers receive and may replace the compiled
	// *core.DispatchDescriptor. An error aborts the send.
	HookPreDispatch = "pre_dispatch"
	// HookPostResponse handlers receive and may replace the
	// *core.ResponseDescriptor before it is stored on the tab.
	HookPostResponse = "post_response"
)

// HookHandler is a function that handles a hook event.
type HookHandler func(ctx context.Context, data any) (any, error)

// App is the main application container with dependency injection.
type App struct {
	mu         sync.RWMutex
	tree       *tree.Store
	sessions   *session.Manager
	router     *protocol.Router
	dispatcher *dispatch.Dispatcher
	tracker    *dispatch.Tracker
	importers  *importer.Registry
	exporters  *exporter.Registry
	env        *core.Environment
	hooks      map[string][]HookHandler
	logger     *slog.Logger
}

// Option is a function that configures the App.
type Option func(*App)

// New creates a new App with the given options. Without options it holds an
// in-memory tree for the "default" user and sends HTTP with net/http.
func New(opts ...Option) *App {
	app := &App{
		router:    protocol.NewRouter(httpclient.NewClient()),
		tracker:   dispatch.NewTracker(),
		importers: importer.NewDefaultRegistry(),
		exporters: exporter.NewDefaultRegistry(),
		hooks:     make(map[string][]HookHandler),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.tree == nil {
		app.tree = tree.New("default", tree.WithLogger(app.logger))
	}
	if app.sessions == nil {
		app.sessions = session.New()
	}
	app.dispatcher = dispatch.New(app.router, dispatch.WithLogger(app.logger))

	return app
}

// WithTree sets the collection tree store.
func WithTree(store *tree.Store) Option {
	return func(a *App) {
		a.tree = store
	}
}

// WithSessions sets the tab session manager.
func WithSessions(m *session.Manager) Option {
	return func(a *App) {
		a.sessions = m
	}
}

// WithProtocol registers a protocol adapter.
func WithProtocol(name string, requester protocol.Requester) Option {
	return func(a *App) {
		a.router.Register(name, requester)
	}
}

// WithEnvironment sets the active environment.
func WithEnvironment(env *core.Environment) Option {
	return func(a *App) {
		a.env = env
	}
}

// WithLogger sets the logger handed to the tree and the dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func (a *App) Tree() *tree.Store             { return a.tree }
func (a *App) Sessions() *session.Manager    { return a.sessions }
func (a *App) Importers() *importer.Registry { return a.importers }
func (a *App) Exporters() *exporter.Registry { return a.exporters }

// ListProtocols returns all registered protocol names.
func (a *App) ListProtocols() []string {
	return a.router.Protocols()
}

// Environment returns the active environment, or nil.
func (a *App) Environment() *core.Environment {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.env
}

// SetEnvironment replaces the active environment. nil disables
// substitution.
func (a *App) SetEnvironment(env *core.Environment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.env = env
}

// Compile renders the draft of a tab against the active environment.
func (a *App) Compile(tabID string) (*core.DispatchDescriptor, error) {
	state, err := a.sessions.Get(tabID)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(state.Draft, a.Environment()), nil
}

// Send compiles and dispatches the draft of a tab, and stores the response
// on it. A new send for the same tab cancels the pending one. Transport
// failures come back as a status-0 response; ErrCanceled means the send was
// canceled or superseded and the tab holds no new response.
func (a *App) Send(ctx context.Context, tabID string) (*core.ResponseDescriptor, error) {
	flightCtx, finish := a.tracker.Begin(ctx, tabID)
	state, err := a.sessions.BeginSend(tabID)
	if err != nil {
		finish()
		return nil, err
	}
	desc := compiler.Compile(state.Draft, a.Environment())

	resp, err := a.send(flightCtx, desc)
	if !finish() {
		return nil, &core.Error{Code: core.CodeCanceled, Message: "superseded", Err: core.ErrCanceled}
	}
	if err != nil {
		if cerr := a.sessions.CancelSend(tabID); cerr != nil {
			a.logger.Debug("tab closed during send", "tab", tabID)
		}
		return nil, err
	}

	if err := a.sessions.CompleteSend(tabID, resp); err != nil {
		a.logger.Debug("tab closed during send", "tab", tabID)
	}
	return resp, nil
}

func (a *App) send(ctx context.Context, desc *core.DispatchDescriptor) (*core.ResponseDescriptor, error) {
	data, err := a.ExecuteHooks(ctx, HookPreDispatch, desc)
	if err != nil {
		return nil, fmt.Errorf("pre-dispatch hook: %w", err)
	}
	if d, ok := data.(*core.DispatchDescriptor); ok && d != nil {
		desc = d
	}

	resp, err := a.dispatcher.Dispatch(ctx, desc)
	if err != nil {
		return nil, err
	}

	data, err = a.ExecuteHooks(ctx, HookPostResponse, resp)
	if err != nil {
		return nil, fmt.Errorf("post-response hook: %w", err)
	}
	if r, ok := data.(*core.ResponseDescriptor); ok && r != nil {
		resp = r
	}
	return resp, nil
}

// SendRequest dispatches a saved request without opening a tab.
func (a *App) SendRequest(ctx context.Context, requestID string) (*core.ResponseDescriptor, error) {
	def, err := a.tree.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	return a.send(ctx, compiler.Compile(def, a.Environment()))
}

// Cancel aborts the pending send of a tab. It reports whether one was
// pending.
func (a *App) Cancel(tabID string) bool {
	if !a.tracker.Cancel(tabID) {
		return false
	}
	if err := a.sessions.CancelSend(tabID); err != nil {
		a.logger.Debug("cancel on closed tab", "tab", tabID)
	}
	return true
}

// CloseTab cancels any pending send and closes the tab.
func (a *App) CloseTab(tabID string) error {
	a.tracker.Cancel(tabID)
	return a.sessions.Close(tabID)
}

// OpenRequest opens a saved request in a new linked tab.
func (a *App) OpenRequest(requestID string) (session.TabState, error) {
	def, err := a.tree.GetRequest(requestID)
	if err != nil {
		return session.TabState{}, err
	}
	return a.sessions.OpenDefinition(def), nil
}

// SaveTab writes a linked tab back to its saved request. An unlinked tab
// needs SaveTabAs. A tab whose request was deleted is unlinked and reports
// ErrSaveDestinationRequired too.
func (a *App) SaveTab(ctx context.Context, tabID string) (session.TabState, error) {
	state, err := a.sessions.Get(tabID)
	if err != nil {
		return session.TabState{}, err
	}
	if !state.IsLinked() {
		return state, core.NewValidationError("collection", core.ErrSaveDestinationRequired, "tab %q is not linked to a saved request", tabID)
	}

	saved, err := a.tree.UpdateRequest(ctx, state.Draft)
	if errors.Is(err, core.ErrNotFound) {
		if uerr := a.sessions.Unlink(tabID); uerr != nil {
			return state, uerr
		}
		state, _ = a.sessions.Get(tabID)
		return state, core.NewValidationError("collection", core.ErrSaveDestinationRequired, "saved request %q no longer exists", state.Draft.ID())
	}
	if saved == nil {
		return state, err
	}

	// A persistence failure still leaves the tree updated.
	marked, merr := a.sessions.MarkSaved(tabID, saved)
	if merr != nil {
		return state, merr
	}
	return marked, err
}

// SaveTabAs stores the draft of a tab as a new request in collectionID and
// links the tab to it. A non-empty name renames the draft first.
func (a *App) SaveTabAs(ctx context.Context, tabID, collectionID, name string) (session.TabState, error) {
	state, err := a.sessions.Get(tabID)
	if err != nil {
		return session.TabState{}, err
	}

	def := state.Draft
	if name != "" {
		def.SetName(name)
	}

	saved, err := a.tree.AddRequest(ctx, collectionID, def)
	if saved == nil {
		return state, err
	}

	marked, merr := a.sessions.MarkSaved(tabID, saved)
	if merr != nil {
		return state, merr
	}
	return marked, err
}

// Import parses content and adds it to the tree as a root collection.
func (a *App) Import(ctx context.Context, format importer.Format, content []byte) (*core.Collection, error) {
	result, err := a.importers.Import(ctx, format, content)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("imported collection", "format", result.SourceFormat, "requests", result.RequestCount)
	return a.tree.ImportCollection(ctx, "", result.Collection)
}

// Export renders a collection of the tree in the given format.
func (a *App) Export(ctx context.Context, format exporter.Format, collectionID string) (*exporter.ExportResult, error) {
	coll, err := a.tree.GetCollection(collectionID)
	if err != nil {
		return nil, err
	}
	return a.exporters.Export(ctx, format, coll, a.Environment())
}

// CopyAsCurl renders the compiled draft of a tab as a curl command.
func (a *App) CopyAsCurl(tabID string, pretty bool) (string, error) {
	desc, err := a.Compile(tabID)
	if err != nil {
		return "", err
	}
	return (&exporter.CurlExporter{Pretty: pretty}).ExportDescriptor(desc), nil
}

// Shutdown cancels every pending send.
func (a *App) Shutdown() {
	a.tracker.CancelAll()
}

// RegisterHook registers a hook handler for the given hook name.
func (a *App) RegisterHook(hook string, handler HookHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks[hook] = append(a.hooks[hook], handler)
}

// GetHooks returns all handlers for the given hook.
func (a *App) GetHooks(hook string) []HookHandler {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]HookHandler(nil), a.hooks[hook]...)
}

// ExecuteHooks executes all handlers for the given hook in order.
func (a *App) ExecuteHooks(ctx context.Context, hook string, data any) (any, error) {
	result := data

	for _, handler := range a.GetHooks(hook) {
		var err error
		result, err = handler(ctx, result)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
