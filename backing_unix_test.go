//go:build !windows

package fixedarena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaMmapBacking(t *testing.T) {
	a, err := NewArena(1<<16, BackingMmap)
	require.NoError(t, err)
	assert.Equal(t, BackingMmap, a.Backing())
	assert.Equal(t, 1<<16, a.Cap())

	b := a.Slice(100, 4)
	assert.Equal(t, []byte{0, 0, 0, 0}, b, "anonymous mappings start zeroed")
	copy(b, "ping")
	assert.Equal(t, "ping", string(a.Slice(100, 4)))

	off, ok := a.Offset(a.Pointer(100))
	require.True(t, ok)
	assert.Equal(t, 100, off)

	require.NoError(t, a.Close())
	_, ok = a.Offset(a.Pointer(100))
	assert.False(t, ok)
}

func TestAllocatorMmapBacking(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backing = BackingMmap
	a, err := New(cfg)
	require.NoError(t, err)

	b, err := a.AllocBytes(4096, 4096)
	require.NoError(t, err)
	assert.Zero(t, uintptr(a.Arena().Pointer(0))%4096, "mmap base is page aligned")
	copy(b, "payload")
	require.NoError(t, a.FreeBytes(b))
	require.NoError(t, a.Verify())

	require.NoError(t, a.Close())
}
