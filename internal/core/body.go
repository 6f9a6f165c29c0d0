package core

import "strings"

// BodyKind selects how a request body is interpreted.
type BodyKind string

const (
	BodyJSON       BodyKind = "json"
	BodyText       BodyKind = "text"
	BodyFormData   BodyKind = "form-data"
	BodyURLEncoded BodyKind = "urlencoded"
	BodyRaw        BodyKind = "raw"
)

// BodySpec is the editable body of a request. For form-data and urlencoded
// kinds Raw holds newline-delimited key=value pairs.
type BodySpec struct {
	Kind BodyKind
	Raw  string
}

// ParseBodyKind maps a stored or user-supplied name to a kind, defaulting to json.
func ParseBodyKind(s string) BodyKind {
	switch BodyKind(strings.ToLower(strings.TrimSpace(s))) {
	case BodyText:
		return BodyText
	case BodyFormData, "form", "multipart":
		return BodyFormData
	case BodyURLEncoded, "form-urlencoded", "x-www-form-urlencoded":
		return BodyURLEncoded
	case BodyRaw:
		return BodyRaw
	default:
		return BodyJSON
	}
}

// BodyKindForContentType derives a body kind from a Content-Type value.
func BodyKindForContentType(contentType string) BodyKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/json"):
		return BodyJSON
	case strings.Contains(ct, "application/x-www-form-urlencoded"):
		return BodyURLEncoded
	case strings.Contains(ct, "multipart/form-data"):
		return BodyFormData
	default:
		return BodyText
	}
}

// IsEmpty reports whether there is no body text.
func (b BodySpec) IsEmpty() bool {
	return b.Raw == ""
}
