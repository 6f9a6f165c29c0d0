package core

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RawResponse is what a transport returns for a completed HTTP exchange.
type RawResponse struct {
	StatusCode int
	// Status is the full status line, e.g. "200 OK".
	Status  string
	Headers http.Header
	Body    []byte
}

// ResponseDescriptor is the uniform result shown for a dispatched request.
// Status 0 means no HTTP response was received; check IsTransportError
// before interpreting Status numerically.
type ResponseDescriptor struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Body       string
	ElapsedMs  int64
}

// NewResponseDescriptor converts a raw transport response.
func NewResponseDescriptor(raw *RawResponse, elapsed time.Duration) *ResponseDescriptor {
	headers := make(map[string]string, len(raw.Headers))
	for key, values := range raw.Headers {
		headers[key] = strings.Join(values, ", ")
	}
	return &ResponseDescriptor{
		Status:     raw.StatusCode,
		StatusText: statusText(raw.StatusCode, raw.Status),
		Headers:    headers,
		Body:       string(raw.Body),
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

// NewErrorResponse synthesizes the status-0 descriptor for a transport failure.
// A transport-coded error contributes only its cause to the body.
func NewErrorResponse(err error, elapsed time.Duration) *ResponseDescriptor {
	msg := err.Error()
	var e *Error
	if errors.As(err, &e) && e.Code == CodeTransport && e.Err != nil {
		msg = e.Err.Error()
	}
	return &ResponseDescriptor{
		Status:     0,
		StatusText: "Error",
		Headers:    map[string]string{},
		Body:       "Error: " + msg,
		ElapsedMs:  elapsed.Milliseconds(),
	}
}

// IsTransportError reports whether no HTTP response was received.
func (r *ResponseDescriptor) IsTransportError() bool {
	return r.Status == 0
}

func (r *ResponseDescriptor) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *ResponseDescriptor) IsError() bool {
	return r.Status >= 400
}

// Header returns a response header by case-insensitive name.
func (r *ResponseDescriptor) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// statusText strips the numeric code from a status line like "404 Not Found".
func statusText(code int, line string) string {
	line = strings.TrimSpace(line)
	if prefix := strconv.Itoa(code); strings.HasPrefix(line, prefix) {
		line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	}
	if line != "" {
		return line
	}
	return http.StatusText(code)
}
