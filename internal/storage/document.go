// Package storage defines the persisted form of a user's collection tree,
// shared by the filesystem and sqlite backends.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/artpar/workbench/internal/core"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is written into every document.
const DocumentVersion = 1

// Document is the full persisted tree of one user.
type Document struct {
	Version     int              `yaml:"version" json:"version"`
	Collections []collectionData `yaml:"collections" json:"collections"`
}

type collectionData struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Collections []collectionData `yaml:"collections,omitempty" json:"collections,omitempty"`
	Requests    []requestData    `yaml:"requests,omitempty" json:"requests,omitempty"`
}

type requestData struct {
	ID      string     `yaml:"id" json:"id"`
	Name    string     `yaml:"name" json:"name"`
	Method  string     `yaml:"method" json:"method"`
	URL     string     `yaml:"url" json:"url"`
	Headers []pairData `yaml:"headers,omitempty" json:"headers,omitempty"`
	Params  []pairData `yaml:"params,omitempty" json:"params,omitempty"`
	Body    *bodyData  `yaml:"body,omitempty" json:"body,omitempty"`
	Auth    *authData  `yaml:"auth,omitempty" json:"auth,omitempty"`
}

type pairData struct {
	ID          string `yaml:"id" json:"id"`
	Key         string `yaml:"key" json:"key"`
	Value       string `yaml:"value" json:"value"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type bodyData struct {
	Type    string `yaml:"type" json:"type"`
	Content string `yaml:"content,omitempty" json:"content,omitempty"`
}

type authData struct {
	Type     string `yaml:"type" json:"type"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`
	In       string `yaml:"in,omitempty" json:"in,omitempty"`
}

// NewDocument converts root collections to their persisted form.
func NewDocument(collections []*core.Collection) *Document {
	doc := &Document{Version: DocumentVersion, Collections: make([]collectionData, 0, len(collections))}
	for _, c := range collections {
		doc.Collections = append(doc.Collections, toCollectionData(c))
	}
	return doc
}

// ToCollections rebuilds the root collections.
func (d *Document) ToCollections() []*core.Collection {
	result := make([]*core.Collection, 0, len(d.Collections))
	for i := range d.Collections {
		result = append(result, fromCollectionData(&d.Collections[i]))
	}
	return result
}

// MarshalYAML encodes collections as a YAML document.
func MarshalYAML(collections []*core.Collection) ([]byte, error) {
	data, err := yaml.Marshal(NewDocument(collections))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collections: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a YAML document. Empty input yields no collections.
func UnmarshalYAML(data []byte) ([]*core.Collection, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collections: %w", err)
	}
	return doc.ToCollections(), nil
}

// MarshalJSON encodes collections as a JSON document.
func MarshalJSON(collections []*core.Collection) ([]byte, error) {
	data, err := json.Marshal(NewDocument(collections))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collections: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes a JSON document.
func UnmarshalJSON(data []byte) ([]*core.Collection, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collections: %w", err)
	}
	return doc.ToCollections(), nil
}

func toCollectionData(c *core.Collection) collectionData {
	data := collectionData{ID: c.ID(), Name: c.Name()}
	for _, sub := range c.Collections() {
		data.Collections = append(data.Collections, toCollectionData(sub))
	}
	for _, r := range c.Requests() {
		data.Requests = append(data.Requests, toRequestData(r))
	}
	return data
}

func toRequestData(r *core.RequestDefinition) requestData {
	data := requestData{
		ID:      r.ID(),
		Name:    r.Name(),
		Method:  r.Method(),
		URL:     r.URL(),
		Headers: toPairData(r.Headers()),
		Params:  toPairData(r.Params()),
		Auth:    toAuthData(r.Auth()),
	}
	if body := r.Body(); !body.IsEmpty() || body.Kind != core.BodyJSON {
		data.Body = &bodyData{Type: string(body.Kind), Content: body.Raw}
	}
	return data
}

func toPairData(list core.KeyValueList) []pairData {
	if len(list) == 0 {
		return nil
	}
	result := make([]pairData, 0, len(list))
	for _, p := range list {
		result = append(result, pairData(p))
	}
	return result
}

func toAuthData(a core.Auth) *authData {
	switch v := a.(type) {
	case core.BearerAuth:
		return &authData{Type: string(core.AuthTypeBearer), Token: v.Token}
	case core.BasicAuth:
		return &authData{Type: string(core.AuthTypeBasic), Username: v.Username, Password: v.Password}
	case core.APIKeyAuth:
		return &authData{Type: string(core.AuthTypeAPIKey), Key: v.Key, Value: v.Value, In: string(v.AddTo)}
	default:
		return nil
	}
}

func fromCollectionData(data *collectionData) *core.Collection {
	c := core.NewCollectionWithID(data.ID, data.Name)
	for i := range data.Collections {
		c.AddCollection(fromCollectionData(&data.Collections[i]))
	}
	for i := range data.Requests {
		c.AddRequest(fromRequestData(&data.Requests[i]))
	}
	return c
}

func fromRequestData(data *requestData) *core.RequestDefinition {
	r := core.NewRequestDefinitionWithID(data.ID, data.Name, data.Method, data.URL)
	r.SetHeaders(fromPairData(data.Headers))
	r.SetParams(fromPairData(data.Params))
	if data.Body != nil {
		r.SetBody(core.BodySpec{Kind: core.ParseBodyKind(data.Body.Type), Raw: data.Body.Content})
	}
	r.SetAuth(fromAuthData(data.Auth))
	return r
}

func fromPairData(pairs []pairData) core.KeyValueList {
	list := make(core.KeyValueList, 0, len(pairs))
	for _, p := range pairs {
		list = append(list, core.KeyValuePair(p))
	}
	return list
}

func fromAuthData(data *authData) core.Auth {
	if data == nil {
		return core.NoAuth{}
	}
	switch core.AuthType(data.Type) {
	case core.AuthTypeBearer:
		return core.NewBearerAuth(data.Token)
	case core.AuthTypeBasic:
		return core.NewBasicAuth(data.Username, data.Password)
	case core.AuthTypeAPIKey:
		return core.NewAPIKeyAuth(data.Key, data.Value, core.APIKeyLocation(data.In))
	default:
		return core.NoAuth{}
	}
}
