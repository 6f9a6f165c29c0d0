package core

import (
	"strings"
)

// Protocols a descriptor can be routed to.
const (
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "websocket"
	ProtocolGraphQL   = "graphql"
)

// DispatchDescriptor is a compiled, dispatch-ready request.
type DispatchDescriptor struct {
	Protocol string
	Method   string
	URL      string
	Headers  *Headers
	// Body is nil when the method carries no body.
	Body *DispatchBody
}

// FormField is one key/value entry of a form body.
type FormField struct {
	Key   string
	Value string
}

// DispatchBody is the compiled payload. For form-data bodies Fields holds the
// entries and the transport performs the multipart encoding; for urlencoded
// bodies Raw holds the encoded string and Fields the decoded entries.
type DispatchBody struct {
	Kind   BodyKind
	Raw    string
	Fields []FormField
}

// Bytes returns the raw payload.
func (b *DispatchBody) Bytes() []byte {
	if b == nil {
		return nil
	}
	return []byte(b.Raw)
}

// IsEmpty reports whether there is nothing to send.
func (b *DispatchBody) IsEmpty() bool {
	return b == nil || (b.Raw == "" && len(b.Fields) == 0)
}

// Headers implements a case-insensitive HTTP header store.
type Headers struct {
	data     map[string][]string
	keyOrder []string // Preserves original casing for keys
}

// NewHeaders creates an empty headers collection.
func NewHeaders() *Headers {
	return &Headers{
		data:     make(map[string][]string),
		keyOrder: make([]string, 0),
	}
}

func (h *Headers) normalize(key string) string {
	return strings.ToLower(key)
}

// Set replaces every value of key. The stored casing follows the latest call.
func (h *Headers) Set(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	} else {
		for i, k := range h.keyOrder {
			if h.normalize(k) == normalized {
				h.keyOrder[i] = key
				break
			}
		}
	}
	h.data[normalized] = []string{value}
}

func (h *Headers) Add(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	}
	h.data[normalized] = append(h.data[normalized], value)
}

func (h *Headers) Get(key string) string {
	values := h.data[h.normalize(key)]
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

func (h *Headers) Has(key string) bool {
	_, ok := h.data[h.normalize(key)]
	return ok
}

func (h *Headers) GetAll(key string) []string {
	values := h.data[h.normalize(key)]
	if values == nil {
		return []string{}
	}
	result := make([]string, len(values))
	copy(result, values)
	return result
}

func (h *Headers) Del(key string) {
	normalized := h.normalize(key)
	delete(h.data, normalized)
	for i, k := range h.keyOrder {
		if h.normalize(k) == normalized {
			h.keyOrder = append(h.keyOrder[:i], h.keyOrder[i+1:]...)
			break
		}
	}
}

func (h *Headers) Keys() []string {
	result := make([]string, len(h.keyOrder))
	copy(result, h.keyOrder)
	return result
}

func (h *Headers) Len() int {
	return len(h.keyOrder)
}

func (h *Headers) Clone() *Headers {
	clone := NewHeaders()
	for _, key := range h.keyOrder {
		for _, v := range h.data[h.normalize(key)] {
			clone.Add(key, v)
		}
	}
	return clone
}

// ToMap returns the headers keyed by their stored casing.
func (h *Headers) ToMap() map[string]string {
	result := make(map[string]string, len(h.keyOrder))
	for _, key := range h.keyOrder {
		result[key] = strings.Join(h.data[h.normalize(key)], ", ")
	}
	return result
}
