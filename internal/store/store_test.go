package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("Append assigns dense IDs", func(t *testing.T) {
		s := New[string, int]()

		assert.Equal(t, uint32(0), s.Append("first", 10))
		assert.Equal(t, uint32(1), s.Append("second", 20))
		assert.Equal(t, 2, s.Len())
	})

	t.Run("Get returns stored entries", func(t *testing.T) {
		s := New[string, int]()

		_ = s.Append("first", 10)

		ent, ok := s.Get(0)
		require.True(t, ok)
		assert.Equal(t, Entry[string, int]{Key: "first", Value: 10}, ent)

		_, ok = s.Get(1)
		assert.False(t, ok)
	})

	t.Run("Key resolves without materializing the value", func(t *testing.T) {
		s := New[string, []byte]()

		_ = s.Append("doc-1", []byte("payload"))

		key, ok := s.Key(0)
		require.True(t, ok)
		assert.Equal(t, "doc-1", key)

		_, ok = s.Key(7)
		assert.False(t, ok)
	})

	t.Run("duplicate keys occupy distinct slots", func(t *testing.T) {
		s := New[string, string]()

		_ = s.Append("dup", "a")
		_ = s.Append("dup", "b")

		first, _ := s.Get(0)
		second, _ := s.Get(1)
		assert.Equal(t, "a", first.Value)
		assert.Equal(t, "b", second.Value)
	})
}
