package core

import (
	"fmt"
)

// AuthType represents the type of authentication.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "apikey"
)

// AuthTypeNames returns display names for auth types.
var AuthTypeNames = map[AuthType]string{
	AuthTypeNone:   "No Auth",
	AuthTypeBasic:  "Basic Auth",
	AuthTypeBearer: "Bearer Token",
	AuthTypeAPIKey: "API Key",
}

// APIKeyLocation specifies where to add the API key.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

// Auth is the authentication configured on a request. Exactly one of
// NoAuth, BearerAuth, BasicAuth or APIKeyAuth.
type Auth interface {
	Type() AuthType
	isAuth()
}

// NoAuth sends no credentials.
type NoAuth struct{}

// BearerAuth sends "Authorization: Bearer <token>".
type BearerAuth struct {
	Token string
}

// BasicAuth sends "Authorization: Basic <base64(username:password)>".
type BasicAuth struct {
	Username string
	Password string
}

// APIKeyAuth sends a named key either as a header or a query parameter.
type APIKeyAuth struct {
	Key   string
	Value string
	AddTo APIKeyLocation
}

func (NoAuth) Type() AuthType     { return AuthTypeNone }
func (BearerAuth) Type() AuthType { return AuthTypeBearer }
func (BasicAuth) Type() AuthType  { return AuthTypeBasic }
func (APIKeyAuth) Type() AuthType { return AuthTypeAPIKey }

func (NoAuth) isAuth()     {}
func (BearerAuth) isAuth() {}
func (BasicAuth) isAuth()  {}
func (APIKeyAuth) isAuth() {}

// NewBasicAuth creates a new basic auth configuration.
func NewBasicAuth(username, password string) Auth {
	return BasicAuth{Username: username, Password: password}
}

// NewBearerAuth creates a new bearer token auth configuration.
func NewBearerAuth(token string) Auth {
	return BearerAuth{Token: token}
}

// NewAPIKeyAuth creates a new API key auth configuration. An empty location
// defaults to the header.
func NewAPIKeyAuth(key, value string, location APIKeyLocation) Auth {
	if location == "" {
		location = APIKeyInHeader
	}
	return APIKeyAuth{Key: key, Value: value, AddTo: location}
}

// AuthOrNone returns a, or NoAuth when a is nil.
func AuthOrNone(a Auth) Auth {
	if a == nil {
		return NoAuth{}
	}
	return a
}

// IsConfigured returns true if a carries credentials of some kind.
func IsConfigured(a Auth) bool {
	return a != nil && a.Type() != AuthTypeNone
}

// DisplayName returns a human-readable name for the auth type.
func DisplayName(a Auth) string {
	return AuthTypeNames[AuthOrNone(a).Type()]
}

// Summary returns a brief summary of the auth configuration.
func Summary(a Auth) string {
	switch v := AuthOrNone(a).(type) {
	case BasicAuth:
		return fmt.Sprintf("Basic: %s", v.Username)
	case BearerAuth:
		if len(v.Token) > 20 {
			return fmt.Sprintf("Bearer: %s...%s", v.Token[:8], v.Token[len(v.Token)-4:])
		}
		return "Bearer: ****"
	case APIKeyAuth:
		loc := APIKeyInHeader
		if v.AddTo != "" {
			loc = v.AddTo
		}
		return fmt.Sprintf("API Key: %s (in %s)", v.Key, loc)
	default:
		return "No authentication"
	}
}
