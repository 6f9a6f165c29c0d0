// Package runner sends every request of a collection in order.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/workbench/internal/compiler"
	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/dispatch"
	"github.com/artpar/workbench/internal/protocol"
	httpclient "github.com/artpar/workbench/internal/protocol/http"
)

// RunResult represents the result of a single request execution.
type RunResult struct {
	RequestID   string
	RequestName string
	Method      string
	URL         string
	Status      int
	StatusText  string
	Duration    time.Duration
	Error       error
}

// RunSummary represents the summary of a collection run.
type RunSummary struct {
	CollectionName string
	TotalRequests  int
	Executed       int
	Passed         int
	Failed         int
	TotalDuration  time.Duration
	Results        []RunResult
	StartTime      time.Time
	EndTime        time.Time
}

// ProgressCallback is called after each request is executed.
type ProgressCallback func(current int, total int, result *RunResult)

// Sender dispatches one compiled request. *dispatch.Dispatcher implements it.
type Sender interface {
	Dispatch(ctx context.Context, desc *core.DispatchDescriptor) (*core.ResponseDescriptor, error)
}

// Runner executes all requests in a collection.
type Runner struct {
	collection    *core.Collection
	env           *core.Environment
	sender        Sender
	clientOptions []httpclient.Option
	onProgress    ProgressCallback
}

// Option configures the Runner.
type Option func(*Runner)

// WithEnvironment sets the environment for variable interpolation.
func WithEnvironment(env *core.Environment) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// WithSender replaces the default HTTP sender.
func WithSender(s Sender) Option {
	return func(r *Runner) {
		r.sender = s
	}
}

// WithClientOptions configures the default HTTP client.
func WithClientOptions(opts ...httpclient.Option) Option {
	return func(r *Runner) {
		r.clientOptions = append(r.clientOptions, opts...)
	}
}

// WithProgressCallback sets a callback for progress updates.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(r *Runner) {
		r.onProgress = cb
	}
}

// NewRunner creates a new collection runner. Without WithSender the run uses
// its own HTTP client whose cookie jar carries cookies from one request to
// the next.
func NewRunner(collection *core.Collection, opts ...Option) *Runner {
	r := &Runner{collection: collection}
	for _, opt := range opts {
		opt(r)
	}

	if r.sender == nil {
		clientOpts := []httpclient.Option{httpclient.WithTimeout(httpclient.DefaultTimeout)}
		if jar, err := httpclient.NewCookieJar(); err == nil {
			clientOpts = append(clientOpts, httpclient.WithCookieJar(jar))
		}
		client := httpclient.NewClient(append(clientOpts, r.clientOptions...)...)
		r.sender = dispatch.New(protocol.NewRouter(client))
	}
	return r
}

// Run executes all requests in the collection sequentially, sub-collections
// depth first. A canceled context stops the run after the current request.
func (r *Runner) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		CollectionName: r.collection.Name(),
		StartTime:      time.Now(),
		Results:        make([]RunResult, 0),
	}

	var requests []*core.RequestDefinition
	r.collection.Walk(func(c *core.Collection) {
		requests = append(requests, c.Requests()...)
	})
	summary.TotalRequests = len(requests)

	for i, reqDef := range requests {
		if ctx.Err() != nil {
			break
		}

		result := r.executeRequest(ctx, reqDef)
		summary.Results = append(summary.Results, result)
		summary.Executed++

		if result.IsSuccess() {
			summary.Passed++
		} else {
			summary.Failed++
		}

		if r.onProgress != nil {
			r.onProgress(i+1, len(requests), &result)
		}
	}

	summary.EndTime = time.Now()
	summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)

	return summary
}

// executeRequest executes a single request and returns the result.
func (r *Runner) executeRequest(ctx context.Context, reqDef *core.RequestDefinition) RunResult {
	desc := compiler.Compile(reqDef, r.env)
	result := RunResult{
		RequestID:   reqDef.ID(),
		RequestName: reqDef.Name(),
		Method:      desc.Method,
		URL:         desc.URL,
	}

	resp, err := r.sender.Dispatch(ctx, desc)
	if err != nil {
		result.Error = err
		return result
	}

	result.Status = resp.Status
	result.StatusText = resp.StatusText
	result.Duration = time.Duration(resp.ElapsedMs) * time.Millisecond
	switch {
	case resp.IsTransportError():
		result.Error = errors.New(resp.Body)
	case resp.IsError():
		result.Error = &StatusError{Status: resp.Status, StatusText: resp.StatusText}
	}
	return result
}

// StatusError marks a request answered with a 4xx or 5xx status.
type StatusError struct {
	Status     int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.Status, e.StatusText)
}

// IsSuccess returns true if the request got a non-error HTTP response.
func (r *RunResult) IsSuccess() bool {
	return r.Error == nil
}

// IsSuccess returns true if all requests passed.
func (s *RunSummary) IsSuccess() bool {
	return s.Failed == 0
}
