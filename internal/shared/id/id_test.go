package id

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	t.Run("Length and format", func(t *testing.T) {
		sid := NewSessionID()
		assert.Len(t, sid, SessionIDLength)
		_, err := hex.DecodeString(sid)
		require.NoError(t, err)
	})

	t.Run("Uniqueness", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			sid := NewSessionID()
			assert.False(t, seen[sid], "duplicate session id %s", sid)
			seen[sid] = true
		}
	})
}

func TestNewSyntheticPID(t *testing.T) {
	t.Run("Always negative", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			pid := NewSyntheticPID()
			assert.Negative(t, pid)
			assert.True(t, IsSynthetic(pid))
		}
	})

	t.Run("Real PIDs are not synthetic", func(t *testing.T) {
		assert.False(t, IsSynthetic(1))
		assert.False(t, IsSynthetic(0))
		assert.False(t, IsSynthetic(32768))
	})
}

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestNewMessageID(t *testing.T) {
	t.Run("Sorts in creation order", func(t *testing.T) {
		prev := NewMessageID()
		for i := 0; i < 100; i++ {
			next := NewMessageID()
			assert.Less(t, prev, next)
			prev = next
		}
	})
}
