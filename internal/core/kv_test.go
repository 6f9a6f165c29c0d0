package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueList_Add(t *testing.T) {
	t.Run("adds enabled empty pair", func(t *testing.T) {
		var l KeyValueList
		p := l.Add()

		require.Len(t, l, 1)
		assert.NotEmpty(t, p.ID)
		assert.True(t, p.Enabled)
		assert.Empty(t, p.Key)
		assert.Empty(t, p.Value)
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		var l KeyValueList
		a := l.Add()
		b := l.Add()
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		var l KeyValueList
		l.Append("a", "1")
		l.Append("b", "2")
		l.Append("c", "3")

		assert.Equal(t, "a", l[0].Key)
		assert.Equal(t, "b", l[1].Key)
		assert.Equal(t, "c", l[2].Key)
	})
}

func TestKeyValueList_Update(t *testing.T) {
	t.Run("updates each field", func(t *testing.T) {
		var l KeyValueList
		p := l.Add()

		assert.True(t, l.Update(p.ID, KVFieldKey, "Accept"))
		assert.True(t, l.Update(p.ID, KVFieldValue, "text/html"))
		assert.True(t, l.Update(p.ID, KVFieldDescription, "content negotiation"))
		assert.True(t, l.Update(p.ID, KVFieldEnabled, "false"))

		got, ok := l.Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, "Accept", got.Key)
		assert.Equal(t, "text/html", got.Value)
		assert.Equal(t, "content negotiation", got.Description)
		assert.False(t, got.Enabled)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		var l KeyValueList
		l.Append("a", "1")
		before := l.Clone()

		assert.False(t, l.Update("missing", KVFieldKey, "x"))
		assert.Equal(t, before, l)
	})

	t.Run("invalid enabled value is a no-op", func(t *testing.T) {
		var l KeyValueList
		p := l.Append("a", "1")

		assert.False(t, l.Update(p.ID, KVFieldEnabled, "maybe"))
		got, _ := l.Get(p.ID)
		assert.True(t, got.Enabled)
	})
}

func TestKeyValueList_Remove(t *testing.T) {
	t.Run("removes by id", func(t *testing.T) {
		var l KeyValueList
		a := l.Append("a", "1")
		l.Append("b", "2")

		assert.True(t, l.Remove(a.ID))
		require.Len(t, l, 1)
		assert.Equal(t, "b", l[0].Key)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		var l KeyValueList
		l.Append("a", "1")

		assert.False(t, l.Remove("missing"))
		assert.Len(t, l, 1)
	})

	t.Run("removing twice is idempotent", func(t *testing.T) {
		var l KeyValueList
		a := l.Append("a", "1")

		assert.True(t, l.Remove(a.ID))
		assert.False(t, l.Remove(a.ID))
		assert.Empty(t, l)
	})
}

func TestKeyValueList_Enabled(t *testing.T) {
	var l KeyValueList
	l.Append("a", "1")
	off := l.Append("b", "2")
	l.Update(off.ID, KVFieldEnabled, "false")
	l.Append("   ", "blank")
	l.Append("c", "3")

	enabled := l.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "a", enabled[0].Key)
	assert.Equal(t, "c", enabled[1].Key)
	assert.Len(t, l, 4, "disabled and blank entries are retained")
}

func TestKeyValueList_Lookup(t *testing.T) {
	var l KeyValueList
	l.Append("Content-Type", "application/json")

	p, ok := l.Lookup("content-type")
	require.True(t, ok)
	assert.Equal(t, "application/json", p.Value)

	_, ok = l.Lookup("Accept")
	assert.False(t, ok)
}

func TestKeyValueList_Duplicate(t *testing.T) {
	var l KeyValueList
	l.Append("a", "1")
	l.Append("b", "2")

	dup := l.Duplicate()
	require.Len(t, dup, 2)
	for i := range l {
		assert.NotEqual(t, l[i].ID, dup[i].ID)
		assert.Equal(t, l[i].Key, dup[i].Key)
		assert.Equal(t, l[i].Value, dup[i].Value)
	}

	clone := l.Clone()
	assert.Equal(t, l, clone)
}
