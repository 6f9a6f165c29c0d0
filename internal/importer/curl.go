package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/workbench/internal/core"
)

// CurlImporter imports curl commands.
type CurlImporter struct {
	defaults core.KeyValueList
}

// NewCurlImporter creates a new curl importer. defaults are applied to
// commands that carry no -H flags.
func NewCurlImporter(defaults ...core.KeyValuePair) *CurlImporter {
	return &CurlImporter{defaults: defaults}
}

func (c *CurlImporter) Name() string {
	return "curl command"
}

func (c *CurlImporter) Format() Format {
	return FormatCurl
}

func (c *CurlImporter) FileExtensions() []string {
	return []string{".sh", ".curl", ".txt"}
}

func (c *CurlImporter) DetectFormat(content []byte) bool {
	return LooksLikeCurl(string(content))
}

// Import wraps the parsed command in a single-request collection.
func (c *CurlImporter) Import(ctx context.Context, content []byte) (*core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, ok := ParseCurl(string(content), c.defaults)
	if !ok {
		return nil, fmt.Errorf("%w: no URL found in curl command", ErrParseError)
	}

	coll := core.NewCollection("Imported from curl")
	coll.AddRequest(parsed.ToDefinition(""))
	return coll, nil
}

// PartialRequest is the structured result of parsing a curl command.
type PartialRequest struct {
	Method  string
	URL     string
	Headers core.KeyValueList
	Body    core.BodySpec
	Auth    core.Auth
}

// ToDefinition builds a new request definition. An empty name is derived
// from the URL.
func (p *PartialRequest) ToDefinition(name string) *core.RequestDefinition {
	if name == "" {
		name = generateNameFromURL(p.URL)
	}
	def := core.NewRequestDefinition(name, p.Method, p.URL)
	def.SetHeaders(p.Headers)
	def.SetBody(p.Body)
	def.SetAuth(p.Auth)
	return def
}

// ApplyTo overwrites the request fields of def, keeping its id and name.
func (p *PartialRequest) ApplyTo(def *core.RequestDefinition) {
	def.SetMethod(p.Method)
	def.SetURL(p.URL)
	def.SetHeaders(p.Headers)
	def.SetBody(p.Body)
	def.SetAuth(p.Auth)
}

func generateNameFromURL(url string) string {
	name := url
	if idx := strings.Index(name, "://"); idx >= 0 {
		name = name[idx+3:]
	}
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}

	if idx := strings.Index(name, "/"); idx >= 0 {
		segments := strings.Split(strings.Trim(name[idx:], "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
		name = name[:idx]
	}

	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// Verify CurlImporter implements Importer interface
var _ Importer = (*CurlImporter)(nil)
