package core

import (
	"github.com/google/uuid"
)

// Collection is a named container of requests and nested collections.
// Values returned by the tree store are snapshots; mutating them does not
// change the store.
type Collection struct {
	id          string
	name        string
	requests    []*RequestDefinition
	collections []*Collection
}

// NewCollection creates a new collection with the given name.
func NewCollection(name string) *Collection {
	return NewCollectionWithID(uuid.New().String(), name)
}

// NewCollectionWithID creates a collection with a specific ID (for loading from storage).
func NewCollectionWithID(id, name string) *Collection {
	return &Collection{
		id:          id,
		name:        name,
		requests:    make([]*RequestDefinition, 0),
		collections: make([]*Collection, 0),
	}
}

func (c *Collection) ID() string                        { return c.id }
func (c *Collection) Name() string                      { return c.name }
func (c *Collection) Requests() []*RequestDefinition    { return c.requests }
func (c *Collection) Collections() []*Collection        { return c.collections }
func (c *Collection) SetName(name string)               { c.name = name }
func (c *Collection) AddRequest(req *RequestDefinition) { c.requests = append(c.requests, req) }

// AddCollection appends a nested collection.
func (c *Collection) AddCollection(sub *Collection) {
	c.collections = append(c.collections, sub)
}

// FindRequest searches for a request by ID in the entire subtree.
func (c *Collection) FindRequest(id string) (*RequestDefinition, bool) {
	for _, r := range c.requests {
		if r.ID() == id {
			return r, true
		}
	}
	for _, sub := range c.collections {
		if req, ok := sub.FindRequest(id); ok {
			return req, true
		}
	}
	return nil, false
}

// FindCollection searches for a collection by ID recursively, including c itself.
func (c *Collection) FindCollection(id string) *Collection {
	if c.id == id {
		return c
	}
	for _, sub := range c.collections {
		if found := sub.FindCollection(id); found != nil {
			return found
		}
	}
	return nil
}

// FirstRequest returns the first request in the collection or its descendants.
func (c *Collection) FirstRequest() *RequestDefinition {
	if len(c.requests) > 0 {
		return c.requests[0]
	}
	for _, sub := range c.collections {
		if req := sub.FirstRequest(); req != nil {
			return req
		}
	}
	return nil
}

// CountRequests returns the number of requests in the subtree.
func (c *Collection) CountRequests() int {
	count := len(c.requests)
	for _, sub := range c.collections {
		count += sub.CountRequests()
	}
	return count
}

// Clone creates a deep copy keeping every id.
func (c *Collection) Clone() *Collection {
	clone := NewCollectionWithID(c.id, c.name)
	for _, r := range c.requests {
		clone.requests = append(clone.requests, r.Clone())
	}
	for _, sub := range c.collections {
		clone.collections = append(clone.collections, sub.Clone())
	}
	return clone
}

// Walk calls fn for c and every descendant collection, depth first.
func (c *Collection) Walk(fn func(*Collection)) {
	fn(c)
	for _, sub := range c.collections {
		sub.Walk(fn)
	}
}
