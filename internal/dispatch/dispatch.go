// Package dispatch issues compiled requests through a transport and turns the
// outcome into a ResponseDescriptor.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/artpar/workbench/internal/core"
)

var errEmptyResponse = errors.New("empty response")

// Transport is the I/O boundary: it executes one compiled request. It must
// honor ctx and abort the network call when ctx is done.
type Transport interface {
	Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error)

func (f TransportFunc) Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
	return f(ctx, desc)
}

// Dispatcher times transport calls and classifies their outcome.
type Dispatcher struct {
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for dispatch start/finish records.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// New creates a Dispatcher sending through transport.
func New(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends desc and returns the response descriptor.
//
// Transport failures never surface as errors: they come back as a status-0
// descriptor whose body carries the message. The only error is ErrCanceled,
// returned when ctx was canceled before the transport finished; no response
// is produced in that case. A deadline is a transport failure, not a cancel.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *core.DispatchDescriptor) (*core.ResponseDescriptor, error) {
	start := d.now()
	d.logger.Debug("dispatch start", "method", desc.Method, "url", desc.URL, "protocol", desc.Protocol)

	raw, err := d.transport.Send(ctx, desc)
	elapsed := d.now().Sub(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
			d.logger.Debug("dispatch canceled", "method", desc.Method, "url", desc.URL, "elapsed_ms", elapsed.Milliseconds())
			return nil, &core.Error{Code: core.CodeCanceled, Err: core.ErrCanceled}
		}
		d.logger.Debug("dispatch failed", "method", desc.Method, "url", desc.URL, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		return core.NewErrorResponse(err, elapsed), nil
	}

	if raw == nil {
		d.logger.Debug("dispatch failed", "method", desc.Method, "url", desc.URL, "elapsed_ms", elapsed.Milliseconds(), "error", errEmptyResponse)
		return core.NewErrorResponse(errEmptyResponse, elapsed), nil
	}

	resp := core.NewResponseDescriptor(raw, elapsed)
	d.logger.Debug("dispatch finished", "method", desc.Method, "url", desc.URL, "status", resp.Status, "elapsed_ms", resp.ElapsedMs)
	return resp, nil
}
