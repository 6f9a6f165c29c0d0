// Package compiler turns request definitions into dispatch-ready descriptors.
package compiler

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/interpolate"
)

// Compile renders def into a descriptor. It performs no I/O and cannot fail:
// identical inputs always produce identical output. env may be nil, in which
// case no substitution happens.
func Compile(def *core.RequestDefinition, env *core.Environment) *core.DispatchDescriptor {
	engine := interpolate.NewEngineFromEnvironment(env)
	auth := resolveAuth(def.Auth(), engine)

	rawURL := engine.Interpolate(def.URL())
	desc := &core.DispatchDescriptor{
		Protocol: protocolFor(rawURL),
		Method:   def.Method(),
		URL:      appendQuery(rawURL, queryPairs(def.Params(), auth, engine)),
		Headers:  buildHeaders(def.Headers(), auth, engine),
	}

	if core.MethodAllowsBody(def.Method()) {
		desc.Body = buildBody(def.Body(), engine)
		if desc.Body.Kind == core.BodyJSON && !desc.Headers.Has("Content-Type") {
			desc.Headers.Set("Content-Type", "application/json")
		}
	}
	return desc
}

// resolveAuth substitutes variables into every credential field.
func resolveAuth(auth core.Auth, engine *interpolate.Engine) core.Auth {
	switch a := auth.(type) {
	case core.BearerAuth:
		return core.BearerAuth{Token: engine.Interpolate(a.Token)}
	case core.BasicAuth:
		return core.BasicAuth{
			Username: engine.Interpolate(a.Username),
			Password: engine.Interpolate(a.Password),
		}
	case core.APIKeyAuth:
		return core.APIKeyAuth{
			Key:   engine.Interpolate(a.Key),
			Value: engine.Interpolate(a.Value),
			AddTo: a.AddTo,
		}
	default:
		return core.NoAuth{}
	}
}

// queryPairs encodes the enabled params in order, then the API key when it
// goes in the query.
func queryPairs(params core.KeyValueList, auth core.Auth, engine *interpolate.Engine) []string {
	var pairs []string
	for _, p := range params.Enabled() {
		key := engine.Interpolate(strings.TrimSpace(p.Key))
		pairs = append(pairs, encodePair(key, engine.Interpolate(p.Value)))
	}
	if a, ok := auth.(core.APIKeyAuth); ok && a.AddTo == core.APIKeyInQuery && a.Key != "" {
		pairs = append(pairs, encodePair(a.Key, a.Value))
	}
	return pairs
}

func encodePair(key, value string) string {
	return url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

// appendQuery joins pairs onto base, keeping any #fragment at the end.
func appendQuery(base string, pairs []string) string {
	if len(pairs) == 0 {
		return base
	}

	var fragment string
	if i := strings.Index(base, "#"); i >= 0 {
		base, fragment = base[:i], base[i:]
	}

	sep := "?"
	switch {
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		sep = ""
	case strings.Contains(base, "?"):
		sep = "&"
	}
	return base + sep + strings.Join(pairs, "&") + fragment
}

// buildHeaders applies explicit headers, then auth headers over them.
// Repeated explicit names keep every value; an auth header replaces them.
func buildHeaders(list core.KeyValueList, auth core.Auth, engine *interpolate.Engine) *core.Headers {
	headers := core.NewHeaders()
	for _, h := range list.Enabled() {
		headers.Add(strings.TrimSpace(h.Key), strings.TrimSpace(engine.Interpolate(h.Value)))
	}

	switch a := auth.(type) {
	case core.BearerAuth:
		if a.Token != "" {
			headers.Set("Authorization", "Bearer "+a.Token)
		}
	case core.BasicAuth:
		if a.Username != "" && a.Password != "" {
			credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
			headers.Set("Authorization", "Basic "+credentials)
		}
	case core.APIKeyAuth:
		if a.AddTo != core.APIKeyInQuery && a.Key != "" && a.Value != "" {
			headers.Set(a.Key, a.Value)
		}
	case core.NoAuth:
	}
	return headers
}

func buildBody(spec core.BodySpec, engine *interpolate.Engine) *core.DispatchBody {
	raw := engine.Interpolate(spec.Raw)

	switch spec.Kind {
	case core.BodyFormData:
		return &core.DispatchBody{Kind: spec.Kind, Fields: ParseFormLines(raw)}
	case core.BodyURLEncoded:
		fields := ParseFormLines(raw)
		pairs := make([]string, len(fields))
		for i, f := range fields {
			pairs[i] = encodePair(f.Key, f.Value)
		}
		return &core.DispatchBody{Kind: spec.Kind, Raw: strings.Join(pairs, "&"), Fields: fields}
	case core.BodyText, core.BodyRaw:
		return &core.DispatchBody{Kind: spec.Kind, Raw: raw}
	default:
		return &core.DispatchBody{Kind: core.BodyJSON, Raw: raw}
	}
}

// ParseFormLines reads newline-delimited key=value pairs. Blank lines and
// lines without '=' are dropped.
func ParseFormLines(raw string) []core.FormField {
	var fields []core.FormField
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		fields = append(fields, core.FormField{Key: key, Value: value})
	}
	return fields
}

func protocolFor(rawURL string) string {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://") {
		return core.ProtocolWebSocket
	}
	return core.ProtocolHTTP
}
