package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/artpar/workbench/internal/core"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a request when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// Client is the net/http transport for compiled requests.
type Client struct {
	httpClient *http.Client
	config     Config
	err        error
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	Proxy          string
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		config: Config{
			Timeout:        DefaultTimeout,
			FollowRedirect: true,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.config.FollowRedirect = false
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// WithProxy routes requests through the proxy at rawURL. An empty value is
// ignored; an invalid one makes every Send fail.
func WithProxy(rawURL string) Option {
	return func(c *Client) {
		if rawURL == "" {
			return
		}
		proxyURL, err := url.Parse(rawURL)
		if err != nil || proxyURL.Host == "" {
			c.err = fmt.Errorf("invalid proxy URL %q", rawURL)
			return
		}
		c.config.Proxy = rawURL

		transport := http.DefaultTransport.(*http.Transport).Clone()
		if t, ok := c.httpClient.Transport.(*http.Transport); ok {
			transport = t.Clone()
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		c.httpClient.Transport = transport
	}
}

// WithCookieJar keeps cookies between requests sent by this client.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// NewCookieJar returns an in-memory jar scoped by the public suffix list.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
}

// Protocol returns the protocol identifier.
func (c *Client) Protocol() string {
	return core.ProtocolHTTP
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Send executes a compiled request. Failures are returned as transport
// errors; a canceled ctx surfaces as context.Canceled.
func (c *Client) Send(ctx context.Context, desc *core.DispatchDescriptor) (*core.RawResponse, error) {
	if c.err != nil {
		return nil, core.NewTransportError(c.err)
	}

	httpReq, err := c.toHTTPRequest(ctx, desc)
	if err != nil {
		return nil, core.NewTransportError(err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, core.NewTransportError(err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, core.NewTransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	return &core.RawResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header.Clone(),
		Body:       bodyBytes,
	}, nil
}

// toHTTPRequest converts a descriptor to an http.Request.
func (c *Client) toHTTPRequest(ctx context.Context, desc *core.DispatchDescriptor) (*http.Request, error) {
	bodyReader, contentType, err := encodeBody(desc.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, desc.Method, desc.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	if desc.Headers != nil {
		for _, key := range desc.Headers.Keys() {
			for _, value := range desc.Headers.GetAll(key) {
				httpReq.Header.Add(key, value)
			}
		}
	}

	if contentType != "" && (desc.Body.Kind == core.BodyFormData || httpReq.Header.Get("Content-Type") == "") {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, nil
}

// encodeBody returns the payload reader and the content type the encoding
// implies. Form-data bodies are multipart encoded here; the boundary must win
// over any user Content-Type.
func encodeBody(body *core.DispatchBody) (io.Reader, string, error) {
	if body.IsEmpty() {
		return nil, "", nil
	}

	switch body.Kind {
	case core.BodyFormData:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range body.Fields {
			if err := w.WriteField(f.Key, f.Value); err != nil {
				return nil, "", fmt.Errorf("failed to encode form field %q: %w", f.Key, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to encode form body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil
	case core.BodyURLEncoded:
		return bytes.NewReader(body.Bytes()), "application/x-www-form-urlencoded", nil
	default:
		return bytes.NewReader(body.Bytes()), "", nil
	}
}
