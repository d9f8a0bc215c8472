package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryBackend(0)
	m.now = func() time.Time { return now }
	defer m.Close()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	t.Run("returned bytes are a copy", func(t *testing.T) {
		got[0] = 'x'
		again, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), again)
	})

	t.Run("expired entries are hidden then cleaned", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := m.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, m.cleanup())
		assert.Equal(t, 0, m.Len())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NoError(t, m.Close())
		assert.NoError(t, m.Close())
	})
}
