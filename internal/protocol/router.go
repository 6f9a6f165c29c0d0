// Package protocol routes compiled requests to the transport for their
// protocol.
package protocol

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/workbench/internal/core"
)

// Requester executes compiled requests for one protocol.
type Requester interface {
	Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error)
}

// Unsupported is the transport for protocols the engine cannot execute.
type Unsupported struct {
	Name string
}

// Send always fails with ErrUnsupportedProtocol.
func (u Unsupported) Send(context.Context, *core.DispatchDescriptor) (*core.RawResponse, error) {
	return nil, core.NewTransportError(fmt.Errorf("%w: %s", core.ErrUnsupportedProtocol, u.Name))
}

// Router picks a Requester by the descriptor's protocol.
type Router struct {
	mu         sync.RWMutex
	requesters map[string]Requester
}

// NewRouter creates a router with the given HTTP requester. WebSocket and
// GraphQL are registered as Unsupported.
func NewRouter(httpRequester Requester) *Router {
	r := &Router{requesters: make(map[string]Requester)}
	r.Register(core.ProtocolHTTP, httpRequester)
	r.Register(core.ProtocolWebSocket, Unsupported{Name: core.ProtocolWebSocket})
	r.Register(core.ProtocolGraphQL, Unsupported{Name: core.ProtocolGraphQL})
	return r
}

// Register sets the requester for protocol, replacing any previous one.
func (r *Router) Register(protocol string, requester Requester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requesters[protocol] = requester
}

// Get returns the requester for protocol.
func (r *Router) Get(protocol string) (Requester, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requesters[protocol]
	return req, ok
}

// Protocols lists registered protocol names, sorted.
func (r *Router) Protocols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.requesters))
	for name := range r.requesters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send dispatches desc to the requester for its protocol. An empty protocol
// means HTTP; an unknown one fails like an unsupported protocol.
func (r *Router) Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
	protocol := desc.Protocol
	if protocol == "" {
		protocol = core.ProtocolHTTP
	}
	requester, ok := r.Get(protocol)
	if !ok {
		requester = Unsupported{Name: protocol}
	}
	return requester.Send(ctx, desc)
}
