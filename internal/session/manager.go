// Package session keeps the open request tabs.
//
// A tab holds its own copy of a request definition. Opening the same saved
// request twice yields two independent drafts; edits only reach the tree
// through an explicit save. At least one tab is always open.
package session

import (
	"fmt"
	"sync"

	"github.com/artpar/workbench/internal/core"
	"github.com/artpar/workbench/internal/importer"
	"github.com/google/uuid"
)

// DefaultTabName names drafts that did not come from a saved request.
const DefaultTabName = "New Request"

type tab struct {
	id       string
	draft    *core.RequestDefinition
	dirty    bool
	linkedID string
	response *core.ResponseDescriptor
	pending  bool

	// edits counts draft edits; sentEdits is its value when the latest
	// send began.
	edits     int
	sentEdits int
}

func (t *tab) markDirty() {
	t.dirty = true
	t.edits++
}

// TabState is a snapshot of one tab. Draft is a copy.
type TabState struct {
	ID                 string
	Draft              *core.RequestDefinition
	Dirty              bool
	LinkedDefinitionID string
	Response           *core.ResponseDescriptor
	Pending            bool
}

// IsLinked reports whether saving updates an existing request in place.
func (s TabState) IsLinked() bool { return s.LinkedDefinitionID != "" }

func (t *tab) state() TabState {
	return TabState{
		ID:                 t.id,
		Draft:              t.draft.Clone(),
		Dirty:              t.dirty,
		LinkedDefinitionID: t.linkedID,
		Response:           t.response,
		Pending:            t.pending,
	}
}

// Manager owns the open tabs. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	tabs     []*tab
	active   string
	defaults core.KeyValueList
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultHeaders sets the headers used for imported curl commands that
// carry none.
func WithDefaultHeaders(headers core.KeyValueList) Option {
	return func(m *Manager) {
		m.defaults = headers.Clone()
	}
}

// New creates a manager holding one empty tab.
func New(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	m.openLocked(newDraft(), "", false)
	return m
}

func newDraft() *core.RequestDefinition {
	return core.NewRequestDefinition(DefaultTabName, core.MethodGet, "")
}

func (m *Manager) openLocked(draft *core.RequestDefinition, linkedID string, dirty bool) *tab {
	t := &tab{id: uuid.New().String(), draft: draft, linkedID: linkedID, dirty: dirty}
	m.tabs = append(m.tabs, t)
	m.active = t.id
	return t
}

func (m *Manager) open(draft *core.RequestDefinition, linkedID string, dirty bool) TabState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLocked(draft, linkedID, dirty).state()
}

// NewTab opens an empty draft and makes it active.
func (m *Manager) NewTab() TabState {
	return m.open(newDraft(), "", false)
}

// OpenDefinition opens a clean copy of a saved request, linked to it.
func (m *Manager) OpenDefinition(def *core.RequestDefinition) TabState {
	return m.open(def.Clone(), def.ID(), false)
}

// DuplicateIntoNewTab opens an unlinked copy of def with fresh ids. Saving it
// requires a destination.
func (m *Manager) DuplicateIntoNewTab(def *core.RequestDefinition) TabState {
	return m.open(def.Duplicate(), "", false)
}

// ImportCurl opens a dirty draft parsed from a curl command. It reports false
// and opens nothing when the text is not a usable curl command.
func (m *Manager) ImportCurl(text string) (TabState, bool) {
	parsed, ok := importer.ParseCurl(text, m.defaultHeaders())
	if !ok {
		return TabState{}, false
	}
	return m.open(parsed.ToDefinition(""), "", true), true
}

// PasteURL handles text pasted into a tab's URL field. A curl command fills
// the whole draft; anything else becomes the URL. It reports whether the
// text was parsed as curl.
func (m *Manager) PasteURL(tabID, text string) (TabState, bool, error) {
	parsed, isCurl := importer.ParseCurl(text, m.defaultHeaders())

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.tabLocked(tabID)
	if err != nil {
		return TabState{}, false, err
	}
	if isCurl {
		parsed.ApplyTo(t.draft)
	} else {
		t.draft.SetURL(text)
	}
	t.markDirty()
	return t.state(), isCurl, nil
}

func (m *Manager) defaultHeaders() core.KeyValueList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults.Clone()
}

// Close removes a tab. Closing the last open tab is a no-op.
func (m *Manager) Close(tabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(tabID)
	if idx < 0 {
		return core.NewNotFoundError("tab", tabID)
	}
	if len(m.tabs) == 1 {
		return nil
	}

	m.tabs = append(m.tabs[:idx], m.tabs[idx+1:]...)
	if m.active == tabID {
		if idx >= len(m.tabs) {
			idx = len(m.tabs) - 1
		}
		m.active = m.tabs[idx].id
	}
	return nil
}

// Get returns a snapshot of a tab.
func (m *Manager) Get(tabID string) (TabState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.tabLocked(tabID)
	if err != nil {
		return TabState{}, err
	}
	return t.state(), nil
}

// Tabs returns snapshots of all tabs in the order they were opened.
func (m *Manager) Tabs() []TabState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]TabState, len(m.tabs))
	for i, t := range m.tabs {
		states[i] = t.state()
	}
	return states
}

// Len returns the number of open tabs. It is never below one.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

// Active returns the active tab.
func (m *Manager) Active() TabState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.tabLocked(m.active)
	if err != nil {
		return m.tabs[len(m.tabs)-1].state()
	}
	return t.state()
}

// SetActive makes a tab the active one.
func (m *Manager) SetActive(tabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.tabLocked(tabID); err != nil {
		return err
	}
	m.active = tabID
	return nil
}

// MarkSaved records that a tab's draft was stored as saved. The tab becomes
// clean and linked to saved.
func (m *Manager) MarkSaved(tabID string, saved *core.RequestDefinition) (TabState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.tabLocked(tabID)
	if err != nil {
		return TabState{}, err
	}
	t.draft = saved.Clone()
	t.linkedID = saved.ID()
	t.dirty = false
	return t.state(), nil
}

// Unlink detaches a tab from the saved request it was opened from, for
// example after that request was deleted.
func (m *Manager) Unlink(tabID string) error {
	return m.update(tabID, func(t *tab) {
		t.linkedID = ""
	})
}

// BeginSend marks a tab as waiting for a response and returns the state
// being sent.
func (m *Manager) BeginSend(tabID string) (TabState, error) {
	var state TabState
	err := m.update(tabID, func(t *tab) {
		t.pending = true
		t.sentEdits = t.edits
		state = t.state()
	})
	return state, err
}

// CompleteSend stores the response of the tab's latest send. A response
// that arrived from the server cleans the tab unless the draft was edited
// after the send began.
func (m *Manager) CompleteSend(tabID string, resp *core.ResponseDescriptor) error {
	return m.update(tabID, func(t *tab) {
		t.pending = false
		t.response = resp
		if resp != nil && !resp.IsTransportError() && t.edits == t.sentEdits {
			t.dirty = false
		}
	})
}

// CancelSend clears the pending state without storing a response.
func (m *Manager) CancelSend(tabID string) error {
	return m.update(tabID, func(t *tab) {
		t.pending = false
	})
}

// Edit applies fn to the tab's draft and marks the tab dirty.
func (m *Manager) Edit(tabID string, fn func(def *core.RequestDefinition)) (TabState, error) {
	return m.edit(tabID, func(def *core.RequestDefinition) bool {
		fn(def)
		return true
	})
}

func (m *Manager) SetName(tabID, name string) (TabState, error) {
	return m.Edit(tabID, func(def *core.RequestDefinition) { def.SetName(name) })
}

func (m *Manager) SetMethod(tabID, method string) (TabState, error) {
	if !core.IsSupportedMethod(method) {
		return TabState{}, core.NewValidationError("method", core.ErrUnsupportedMethod, "%q", method)
	}
	return m.Edit(tabID, func(def *core.RequestDefinition) { def.SetMethod(method) })
}

func (m *Manager) SetURL(tabID, url string) (TabState, error) {
	return m.Edit(tabID, func(def *core.RequestDefinition) { def.SetURL(url) })
}

func (m *Manager) SetBody(tabID string, body core.BodySpec) (TabState, error) {
	return m.Edit(tabID, func(def *core.RequestDefinition) { def.SetBody(body) })
}

func (m *Manager) SetAuth(tabID string, auth core.Auth) (TabState, error) {
	return m.Edit(tabID, func(def *core.RequestDefinition) { def.SetAuth(auth) })
}

// AddHeader appends an empty header row and returns it.
func (m *Manager) AddHeader(tabID string) (core.KeyValuePair, error) {
	var pair core.KeyValuePair
	_, err := m.Edit(tabID, func(def *core.RequestDefinition) { pair = def.AddHeader() })
	return pair, err
}

// UpdateHeader edits a header row. An unknown row id changes nothing and
// leaves the dirty flag alone.
func (m *Manager) UpdateHeader(tabID, rowID string, field core.KVField, value string) (TabState, error) {
	return m.edit(tabID, func(def *core.RequestDefinition) bool {
		return def.UpdateHeader(rowID, field, value)
	})
}

func (m *Manager) RemoveHeader(tabID, rowID string) (TabState, error) {
	return m.edit(tabID, func(def *core.RequestDefinition) bool {
		return def.RemoveHeader(rowID)
	})
}

// AddParam appends an empty query parameter row and returns it.
func (m *Manager) AddParam(tabID string) (core.KeyValuePair, error) {
	var pair core.KeyValuePair
	_, err := m.Edit(tabID, func(def *core.RequestDefinition) { pair = def.AddParam() })
	return pair, err
}

func (m *Manager) UpdateParam(tabID, rowID string, field core.KVField, value string) (TabState, error) {
	return m.edit(tabID, func(def *core.RequestDefinition) bool {
		return def.UpdateParam(rowID, field, value)
	})
}

func (m *Manager) RemoveParam(tabID, rowID string) (TabState, error) {
	return m.edit(tabID, func(def *core.RequestDefinition) bool {
		return def.RemoveParam(rowID)
	})
}

// edit runs fn on the draft; the tab turns dirty when fn reports a change.
func (m *Manager) edit(tabID string, fn func(*core.RequestDefinition) bool) (TabState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.tabLocked(tabID)
	if err != nil {
		return TabState{}, err
	}
	if fn(t.draft) {
		t.markDirty()
	}
	return t.state(), nil
}

// update changes tab bookkeeping under the lock.
func (m *Manager) update(tabID string, fn func(*tab)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.tabLocked(tabID)
	if err != nil {
		return fmt.Errorf("update tab: %w", err)
	}
	fn(t)
	return nil
}

func (m *Manager) tabLocked(tabID string) (*tab, error) {
	if idx := m.indexLocked(tabID); idx >= 0 {
		return m.tabs[idx], nil
	}
	return nil, core.NewNotFoundError("tab", tabID)
}

func (m *Manager) indexLocked(tabID string) int {
	for i, t := range m.tabs {
		if t.id == tabID {
			return i
		}
	}
	return -1
}
