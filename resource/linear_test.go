package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinearAllocator(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	require.Nil(t, a.Allocate(2048, 1), "larger than the block")

	fa := a.Allocate(512, 1)
	require.NotNil(t, fa)
	require.Equal(t, uint64(0), fa.Offset)

	require.Nil(t, a.Allocate(768, 1))

	k := a.Allocate(500, 1)
	require.NotNil(t, k)
	require.Equal(t, uint64(512), k.Offset)

	require.Nil(t, a.Allocate(50, 1))
	require.NotNil(t, a.Allocate(5, 1))
	require.Nil(t, a.Allocate(20, 1))

	a.Free(k)
	require.NotNil(t, a.Allocate(500, 1), "space released by free is reused")

	a.Free(fa)
	require.NotNil(t, a.Allocate(20, 1))
	require.NotNil(t, a.Allocate(40, 1))
	require.NotNil(t, a.Allocate(12, 1))
	require.Nil(t, a.Allocate(500, 1))
	require.NotNil(t, a.Allocate(5, 1))
}

func TestLinearAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 4096}

	first := a.Allocate(10, 64)
	require.NotNil(t, first)
	require.Equal(t, uint64(0), first.Offset)

	second := a.Allocate(10, 64)
	require.NotNil(t, second)
	require.Equal(t, uint64(64), second.Offset)

	third := a.Allocate(100, 256)
	require.NotNil(t, third)
	require.Equal(t, uint64(256), third.Offset)

	// the 64..256 gap is used for an aligned request that fits
	gap := a.Allocate(64, 128)
	require.NotNil(t, gap)
	require.Equal(t, uint64(128), gap.Offset)

	require.Equal(t, 4, a.Len())
	require.Equal(t, uint64(184), a.Used())
}

func TestLinearAllocatorFreeTwice(t *testing.T) {
	a := LinearAllocator{Size: 128}
	x := a.Allocate(64, 1)
	a.Free(x)
	a.Free(x)
	require.Zero(t, a.Len())
	require.Nil(t, a.Allocate(0, 1))
}

func TestLinearAllocatorExhaustedTail(t *testing.T) {
	a := LinearAllocator{Size: 100}
	require.NotNil(t, a.Allocate(90, 1))
	// aligned end would be past the block
	require.Nil(t, a.Allocate(1, 128))
}
