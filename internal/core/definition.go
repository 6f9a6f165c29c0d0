package core

import (
	"strings"

	"github.com/google/uuid"
)

// Supported HTTP methods.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// Methods lists the supported methods in display order.
var Methods = []string{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions}

// IsSupportedMethod reports whether m (any case) is one of Methods.
func IsSupportedMethod(m string) bool {
	m = strings.ToUpper(m)
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// MethodAllowsBody reports whether a compiled request with method m carries a body.
func MethodAllowsBody(m string) bool {
	switch strings.ToUpper(m) {
	case MethodPost, MethodPut, MethodPatch:
		return true
	default:
		return false
	}
}

// RequestDefinition represents a saved request definition.
type RequestDefinition struct {
	id      string
	name    string
	method  string
	url     string
	headers KeyValueList
	params  KeyValueList
	body    BodySpec
	auth    Auth
}

// NewRequestDefinition creates a new request definition.
func NewRequestDefinition(name, method, url string) *RequestDefinition {
	return NewRequestDefinitionWithID(uuid.New().String(), name, method, url)
}

// NewRequestDefinitionWithID creates a request definition with a specific ID
// (for loading from storage).
func NewRequestDefinitionWithID(id, name, method, url string) *RequestDefinition {
	if method == "" {
		method = MethodGet
	}
	return &RequestDefinition{
		id:     id,
		name:   name,
		method: strings.ToUpper(method),
		url:    url,
		body:   BodySpec{Kind: BodyJSON},
		auth:   NoAuth{},
	}
}

func (r *RequestDefinition) ID() string              { return r.id }
func (r *RequestDefinition) Name() string            { return r.name }
func (r *RequestDefinition) Method() string          { return r.method }
func (r *RequestDefinition) URL() string             { return r.url }
func (r *RequestDefinition) Body() BodySpec          { return r.body }
func (r *RequestDefinition) Auth() Auth              { return AuthOrNone(r.auth) }
func (r *RequestDefinition) Headers() KeyValueList   { return r.headers.Clone() }
func (r *RequestDefinition) Params() KeyValueList    { return r.params.Clone() }
func (r *RequestDefinition) SetName(name string)     { r.name = name }
func (r *RequestDefinition) SetURL(url string)       { r.url = url }
func (r *RequestDefinition) SetBody(body BodySpec)   { r.body = body }
func (r *RequestDefinition) SetAuth(auth Auth)       { r.auth = AuthOrNone(auth) }
func (r *RequestDefinition) SetMethod(method string) { r.method = strings.ToUpper(method) }

// SetHeaders replaces the header list.
func (r *RequestDefinition) SetHeaders(headers KeyValueList) {
	r.headers = headers.Clone()
}

// SetParams replaces the query parameter list.
func (r *RequestDefinition) SetParams(params KeyValueList) {
	r.params = params.Clone()
}

// AddHeader appends an empty header row.
func (r *RequestDefinition) AddHeader() KeyValuePair { return r.headers.Add() }

// UpdateHeader edits one field of a header row.
func (r *RequestDefinition) UpdateHeader(id string, field KVField, value string) bool {
	return r.headers.Update(id, field, value)
}

// RemoveHeader removes a header row.
func (r *RequestDefinition) RemoveHeader(id string) bool { return r.headers.Remove(id) }

// AddParam appends an empty query parameter row.
func (r *RequestDefinition) AddParam() KeyValuePair { return r.params.Add() }

// UpdateParam edits one field of a query parameter row.
func (r *RequestDefinition) UpdateParam(id string, field KVField, value string) bool {
	return r.params.Update(id, field, value)
}

// RemoveParam removes a query parameter row.
func (r *RequestDefinition) RemoveParam(id string) bool { return r.params.Remove(id) }

// Clone creates a deep copy keeping every id.
func (r *RequestDefinition) Clone() *RequestDefinition {
	clone := *r
	clone.headers = r.headers.Clone()
	clone.params = r.params.Clone()
	clone.auth = r.Auth()
	return &clone
}

// Duplicate creates a deep copy with a fresh id for the request and each row.
func (r *RequestDefinition) Duplicate() *RequestDefinition {
	clone := r.Clone()
	clone.id = uuid.New().String()
	clone.headers = r.headers.Duplicate()
	clone.params = r.params.Duplicate()
	return clone
}

// CopyFieldsFrom overwrites every field except the id with other's values.
func (r *RequestDefinition) CopyFieldsFrom(other *RequestDefinition) {
	id := r.id
	*r = *other.Clone()
	r.id = id
}
