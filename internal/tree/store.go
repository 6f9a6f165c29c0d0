// Package tree holds the collection hierarchy of one user.
//
// Collections are kept in an arena keyed by id; each node lists its parent
// and its children, so moves and cascading deletes are index rewrites.
// Every mutation validates before it changes anything and persists after it
// succeeds. A persistence failure is returned alongside the result and does
// not roll back memory.
package tree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/artpar/workbench/internal/core"
	"github.com/google/uuid"
)

// Persister loads and saves the full collection list of a user.
type Persister interface {
	LoadCollections(ctx context.Context, userID string) ([]*core.Collection, error)
	SaveCollections(ctx context.Context, userID string, collections []*core.Collection) error
}

type node struct {
	id       string
	name     string
	parent   string // empty for roots
	children []string
	requests []*core.RequestDefinition
}

// Store is the collection tree. It is safe for concurrent use; mutations
// are serialized together with their persistence call.
type Store struct {
	mu        sync.RWMutex
	userID    string
	nodes     map[string]*node
	roots     []string
	owners    map[string]string // request id -> collection id
	persister Persister
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves the tree after every mutation.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store for userID.
func New(userID string, opts ...Option) *Store {
	s := &Store{
		userID: userID,
		nodes:  make(map[string]*node),
		owners: make(map[string]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads the user's collections from the persister.
func Open(ctx context.Context, userID string, opts ...Option) (*Store, error) {
	s := New(userID, opts...)
	if s.persister == nil {
		return s, nil
	}

	collections, err := s.persister.LoadCollections(ctx, userID)
	if err != nil {
		return nil, core.NewPersistenceError(fmt.Errorf("load collections for %s: %w", userID, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range collections {
		s.roots = append(s.roots, s.insertLocked(c, "", false))
	}
	s.logger.Debug("collections loaded", "user", userID, "collections", len(collections))
	return s, nil
}

// UserID returns the user the store belongs to.
func (s *Store) UserID() string { return s.userID }

// CreateCollection adds an empty collection under parentID, or at the root
// when parentID is empty.
func (s *Store) CreateCollection(ctx context.Context, parentID, name string) (*core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != "" {
		if _, err := s.nodeLocked(parentID); err != nil {
			return nil, err
		}
	}
	name, err := s.checkCollectionNameLocked(parentID, name, "")
	if err != nil {
		return nil, err
	}

	n := &node{id: uuid.New().String(), name: name, parent: parentID}
	s.nodes[n.id] = n
	s.attachLocked(n)

	return s.snapshotLocked(n.id), s.commitLocked(ctx, "create collection")
}

// RenameCollection renames a collection, keeping names unique among its siblings.
func (s *Store) RenameCollection(ctx context.Context, id, name string) (*core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nodeLocked(id)
	if err != nil {
		return nil, err
	}
	name, err = s.checkCollectionNameLocked(n.parent, name, id)
	if err != nil {
		return nil, err
	}

	n.name = name
	return s.snapshotLocked(id), s.commitLocked(ctx, "rename collection")
}

// DeleteCollection removes a collection with all nested collections and
// requests. Callers confirm with the user first.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nodeLocked(id)
	if err != nil {
		return err
	}

	s.detachLocked(n)
	s.dropLocked(id)
	return s.commitLocked(ctx, "delete collection")
}

// DuplicateCollection deep-copies a collection with fresh ids and appends the
// copy next to the source, named "<name> (copy)" or "<name> (copy N)".
func (s *Store) DuplicateCollection(ctx context.Context, id string) (*core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nodeLocked(id)
	if err != nil {
		return nil, err
	}

	copied := s.snapshotLocked(id)
	copied.SetName(s.uniqueCollectionNameLocked(n.parent, n.name, copyName))
	newID := s.insertLocked(copied, n.parent, true)
	s.attachLocked(s.nodes[newID])

	return s.snapshotLocked(newID), s.commitLocked(ctx, "duplicate collection")
}

// ImportCollection adds a whole collection tree under parentID with fresh
// ids. Clashing names get a numeric suffix.
func (s *Store) ImportCollection(ctx context.Context, parentID string, c *core.Collection) (*core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != "" {
		if _, err := s.nodeLocked(parentID); err != nil {
			return nil, err
		}
	}

	imported := c.Clone()
	name := strings.TrimSpace(imported.Name())
	if name == "" {
		name = "Imported"
	}
	imported.SetName(s.uniqueCollectionNameLocked(parentID, name, numberedName))
	newID := s.insertLocked(imported, parentID, true)
	s.attachLocked(s.nodes[newID])

	return s.snapshotLocked(newID), s.commitLocked(ctx, "import collection")
}

// AddRequest stores a copy of def in a collection. A def whose id is already
// in use is stored under a fresh id; the returned definition carries the
// stored id.
func (s *Store) AddRequest(ctx context.Context, collectionID string, def *core.RequestDefinition) (*core.RequestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nodeLocked(collectionID)
	if err != nil {
		return nil, err
	}
	name, err := checkRequestName(n, def.Name(), "")
	if err != nil {
		return nil, err
	}

	stored := def.Clone()
	if _, taken := s.owners[stored.ID()]; taken {
		stored = def.Duplicate()
	}
	stored.SetName(name)
	n.requests = append(n.requests, stored)
	s.owners[stored.ID()] = n.id

	return stored.Clone(), s.commitLocked(ctx, "add request")
}

// UpdateRequest replaces the stored request with the same id as def.
func (s *Store) UpdateRequest(ctx context.Context, def *core.RequestDefinition) (*core.RequestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, idx, err := s.requestLocked(def.ID())
	if err != nil {
		return nil, err
	}
	name, err := checkRequestName(n, def.Name(), def.ID())
	if err != nil {
		return nil, err
	}

	stored := def.Clone()
	stored.SetName(name)
	n.requests[idx] = stored
	return stored.Clone(), s.commitLocked(ctx, "update request")
}

// RenameRequest renames a request, keeping names unique within its collection.
func (s *Store) RenameRequest(ctx context.Context, id, name string) (*core.RequestDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, idx, err := s.requestLocked(id)
	if err != nil {
		return nil, err
	}
	name, err = checkRequestName(n, name, id)
	if err != nil {
		return nil, err
	}

	n.requests[idx].SetName(name)
	return n.requests[idx].Clone(), s.commitLocked(ctx, "rename request")
}

// DeleteRequest removes a request.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, idx, err := s.requestLocked(id)
	if err != nil {
		return err
	}

	n.requests = append(n.requests[:idx], n.requests[idx+1:]...)
	delete(s.owners, id)
	return s.commitLocked(ctx, "delete request")
}

// MoveRequest moves a request to the end of another collection. Moving
// within the same collection is a no-op. The request must currently be in
// fromID, and its name must be free in toID.
func (s *Store) MoveRequest(ctx context.Context, requestID, fromID, toID string) error {
	if fromID == toID {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := s.nodeLocked(fromID)
	if err != nil {
		return err
	}
	to, err := s.nodeLocked(toID)
	if err != nil {
		return err
	}

	idx := indexOfRequest(from.requests, requestID)
	if idx < 0 {
		return fmt.Errorf("move request: %w", core.NewNotFoundError("request", requestID))
	}
	req := from.requests[idx]
	if _, err := checkRequestName(to, req.Name(), ""); err != nil {
		return err
	}

	from.requests = append(from.requests[:idx], from.requests[idx+1:]...)
	to.requests = append(to.requests, req)
	s.owners[requestID] = to.id
	return s.commitLocked(ctx, "move request")
}

// GetRequest returns a copy of a stored request.
func (s *Store) GetRequest(id string) (*core.RequestDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, idx, err := s.requestLocked(id)
	if err != nil {
		return nil, err
	}
	return n.requests[idx].Clone(), nil
}

// FindRequestOwner returns the id of the collection holding a request.
func (s *Store) FindRequestOwner(requestID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[requestID]
	return owner, ok
}

// GetCollection returns a snapshot of one collection subtree.
func (s *Store) GetCollection(id string) (*core.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.nodeLocked(id); err != nil {
		return nil, err
	}
	return s.snapshotLocked(id), nil
}

// Collections returns a snapshot of every root collection in order.
func (s *Store) Collections() []*core.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotAllLocked()
}

// Len returns the number of collections and requests in the store.
func (s *Store) Len() (collections, requests int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.owners)
}

func (s *Store) nodeLocked(id string) (*node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, core.NewNotFoundError("collection", id)
	}
	return n, nil
}

func (s *Store) requestLocked(id string) (*node, int, error) {
	owner, ok := s.owners[id]
	if !ok {
		return nil, -1, core.NewNotFoundError("request", id)
	}
	n := s.nodes[owner]
	return n, indexOfRequest(n.requests, id), nil
}

func (s *Store) siblingsLocked(parentID string) []string {
	if parentID == "" {
		return s.roots
	}
	return s.nodes[parentID].children
}

func (s *Store) attachLocked(n *node) {
	if n.parent == "" {
		s.roots = append(s.roots, n.id)
		return
	}
	parent := s.nodes[n.parent]
	parent.children = append(parent.children, n.id)
}

func (s *Store) detachLocked(n *node) {
	if n.parent == "" {
		s.roots = removeID(s.roots, n.id)
		return
	}
	parent := s.nodes[n.parent]
	parent.children = removeID(parent.children, n.id)
}

// dropLocked forgets a node, its descendants and their requests.
func (s *Store) dropLocked(id string) {
	n := s.nodes[id]
	for _, child := range n.children {
		s.dropLocked(child)
	}
	for _, r := range n.requests {
		delete(s.owners, r.ID())
	}
	delete(s.nodes, id)
}

// insertLocked adds c's subtree below parentID without attaching its root.
// With fresh set every collection and request gets a new id. Blank names
// become "Untitled" and names clashing with an existing sibling get a
// numeric suffix, at every level.
func (s *Store) insertLocked(c *core.Collection, parentID string, fresh bool) string {
	id := c.ID()
	if _, taken := s.nodes[id]; fresh || taken || id == "" {
		id = uuid.New().String()
	}
	name := strings.TrimSpace(c.Name())
	if name == "" {
		name = "Untitled"
	}
	name = s.uniqueCollectionNameLocked(parentID, name, numberedName)
	n := &node{id: id, name: name, parent: parentID}
	s.nodes[id] = n

	for _, r := range c.Requests() {
		stored := r.Clone()
		if _, taken := s.owners[stored.ID()]; fresh || taken || stored.ID() == "" {
			stored = r.Duplicate()
		}
		if name := strings.TrimSpace(stored.Name()); name == "" || requestNameTaken(n, name, "") {
			stored.SetName(uniqueRequestName(n, name))
		}
		n.requests = append(n.requests, stored)
		s.owners[stored.ID()] = id
	}
	for _, sub := range c.Collections() {
		n.children = append(n.children, s.insertLocked(sub, id, fresh))
	}
	return id
}

func (s *Store) snapshotLocked(id string) *core.Collection {
	n := s.nodes[id]
	c := core.NewCollectionWithID(n.id, n.name)
	for _, r := range n.requests {
		c.AddRequest(r.Clone())
	}
	for _, child := range n.children {
		c.AddCollection(s.snapshotLocked(child))
	}
	return c
}

func (s *Store) snapshotAllLocked() []*core.Collection {
	result := make([]*core.Collection, 0, len(s.roots))
	for _, id := range s.roots {
		result = append(result, s.snapshotLocked(id))
	}
	return result
}

// commitLocked saves the whole tree. Failures are logged and returned as
// persistence errors; memory stays as it is.
func (s *Store) commitLocked(ctx context.Context, op string) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveCollections(ctx, s.userID, s.snapshotAllLocked()); err != nil {
		s.logger.Warn("failed to persist collections", "op", op, "user", s.userID, "error", err)
		return core.NewPersistenceError(fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

func indexOfRequest(requests []*core.RequestDefinition, id string) int {
	for i, r := range requests {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
