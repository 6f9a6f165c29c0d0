package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/artpar/workbench/internal/core"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// ResponseOutput controls how a response is printed.
type ResponseOutput struct {
	JSON bool
	// Raw prints the body exactly as received.
	Raw bool
}

func printResponse(out io.Writer, resp *core.ResponseDescriptor, opts ResponseOutput) error {
	if opts.JSON {
		return outputJSON(out, resp)
	}
	outputHuman(out, resp, opts.Raw)
	return nil
}

func outputJSON(out io.Writer, resp *core.ResponseDescriptor) error {
	result := map[string]any{
		"status":      resp.Status,
		"status_text": resp.StatusText,
		"headers":     resp.Headers,
		"body":        resp.Body,
		"elapsed_ms":  resp.ElapsedMs,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputHuman(out io.Writer, resp *core.ResponseDescriptor, raw bool) {
	if resp.IsTransportError() {
		fmt.Fprintln(out, resp.Body)
		fmt.Fprintf(out, "Time: %dms\n", resp.ElapsedMs)
		return
	}

	fmt.Fprintf(out, "HTTP %d %s\n", resp.Status, resp.StatusText)
	fmt.Fprintf(out, "Time: %dms\n", resp.ElapsedMs)
	fmt.Fprintf(out, "Size: %s\n", humanize.Bytes(uint64(len(resp.Body))))
	fmt.Fprintln(out)

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(out, "Headers:")
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, resp.Headers[k])
	}
	fmt.Fprintln(out)

	if resp.Body != "" {
		fmt.Fprintln(out, "Body:")
		fmt.Fprintln(out, formatBody(resp, raw))
	}
}

// formatBody indents JSON bodies unless raw is set.
func formatBody(resp *core.ResponseDescriptor, raw bool) string {
	body := resp.Body
	if raw || !json.Valid([]byte(body)) {
		return body
	}
	return strings.TrimRight(string(pretty.Pretty([]byte(body))), "\n")
}

// requestView is the printable form of a request.
type requestView struct {
	ID      string            `yaml:"id,omitempty"`
	Name    string            `yaml:"name,omitempty"`
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Params  []pairView        `yaml:"params,omitempty"`
	Headers []pairView        `yaml:"headers,omitempty"`
	Body    *bodyView         `yaml:"body,omitempty"`
	Auth    map[string]string `yaml:"auth,omitempty"`
}

type pairView struct {
	Key      string `yaml:"key"`
	Value    string `yaml:"value"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type bodyView struct {
	Kind    core.BodyKind `yaml:"kind"`
	Content string        `yaml:"content"`
}

func newRequestView(id, name, method, url string, params, headers core.KeyValueList, body core.BodySpec, auth core.Auth) requestView {
	v := requestView{
		ID:      id,
		Name:    name,
		Method:  method,
		URL:     url,
		Params:  pairViews(params),
		Headers: pairViews(headers),
		Auth:    authView(auth),
	}
	if !body.IsEmpty() {
		v.Body = &bodyView{Kind: body.Kind, Content: body.Raw}
	}
	return v
}

func definitionView(def *core.RequestDefinition) requestView {
	return newRequestView(def.ID(), def.Name(), def.Method(), def.URL(), def.Params(), def.Headers(), def.Body(), def.Auth())
}

func pairViews(list core.KeyValueList) []pairView {
	var views []pairView
	for _, p := range list {
		if p.IsBlank() {
			continue
		}
		views = append(views, pairView{Key: p.Key, Value: p.Value, Disabled: !p.Enabled})
	}
	return views
}

func authView(a core.Auth) map[string]string {
	switch a := a.(type) {
	case core.BearerAuth:
		return map[string]string{"type": string(a.Type()), "token": a.Token}
	case core.BasicAuth:
		return map[string]string{"type": string(a.Type()), "username": a.Username, "password": a.Password}
	case core.APIKeyAuth:
		return map[string]string{"type": string(a.Type()), "key": a.Key, "value": a.Value, "in": string(a.AddTo)}
	default:
		return nil
	}
}

func printYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
