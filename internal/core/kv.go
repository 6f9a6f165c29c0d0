package core

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// KVField names an editable field of a KeyValuePair.
type KVField string

const (
	KVFieldKey         KVField = "key"
	KVFieldValue       KVField = "value"
	KVFieldEnabled     KVField = "enabled"
	KVFieldDescription KVField = "description"
)

// KeyValuePair is a single header or query parameter row.
type KeyValuePair struct {
	ID          string
	Key         string
	Value       string
	Enabled     bool
	Description string
}

// NewKeyValuePair creates an enabled pair with a fresh id.
func NewKeyValuePair(key, value string) KeyValuePair {
	return KeyValuePair{
		ID:      uuid.New().String(),
		Key:     key,
		Value:   value,
		Enabled: true,
	}
}

// IsBlank reports whether the key is empty after trimming.
func (p KeyValuePair) IsBlank() bool {
	return strings.TrimSpace(p.Key) == ""
}

// KeyValueList is an ordered list of pairs. Order is significant.
// Operations on unknown ids are no-ops.
type KeyValueList []KeyValuePair

// Add appends an enabled pair with empty key and value and returns it.
func (l *KeyValueList) Add() KeyValuePair {
	p := NewKeyValuePair("", "")
	*l = append(*l, p)
	return p
}

// Append appends an enabled pair with the given key and value.
func (l *KeyValueList) Append(key, value string) KeyValuePair {
	p := NewKeyValuePair(key, value)
	*l = append(*l, p)
	return p
}

// Update sets one field of the pair with the given id.
// It reports whether a pair was changed.
func (l KeyValueList) Update(id string, field KVField, value string) bool {
	for i := range l {
		if l[i].ID != id {
			continue
		}
		switch field {
		case KVFieldKey:
			l[i].Key = value
		case KVFieldValue:
			l[i].Value = value
		case KVFieldDescription:
			l[i].Description = value
		case KVFieldEnabled:
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return false
			}
			l[i].Enabled = enabled
		default:
			return false
		}
		return true
	}
	return false
}

// Remove deletes the pair with the given id. It reports whether one was removed.
func (l *KeyValueList) Remove(id string) bool {
	for i, p := range *l {
		if p.ID == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the pair with the given id.
func (l KeyValueList) Get(id string) (KeyValuePair, bool) {
	for _, p := range l {
		if p.ID == id {
			return p, true
		}
	}
	return KeyValuePair{}, false
}

// Lookup returns the first enabled pair whose key matches name case-insensitively.
func (l KeyValueList) Lookup(name string) (KeyValuePair, bool) {
	name = strings.TrimSpace(name)
	for _, p := range l {
		if p.Enabled && strings.EqualFold(strings.TrimSpace(p.Key), name) {
			return p, true
		}
	}
	return KeyValuePair{}, false
}

// Enabled returns the enabled pairs with a non-blank key, in order.
func (l KeyValueList) Enabled() KeyValueList {
	result := make(KeyValueList, 0, len(l))
	for _, p := range l {
		if p.Enabled && !p.IsBlank() {
			result = append(result, p)
		}
	}
	return result
}

// Clone copies the list keeping ids.
func (l KeyValueList) Clone() KeyValueList {
	if l == nil {
		return nil
	}
	result := make(KeyValueList, len(l))
	copy(result, l)
	return result
}

// Duplicate copies the list assigning fresh ids.
func (l KeyValueList) Duplicate() KeyValueList {
	if l == nil {
		return nil
	}
	result := make(KeyValueList, len(l))
	for i, p := range l {
		p.ID = uuid.New().String()
		result[i] = p
	}
	return result
}
