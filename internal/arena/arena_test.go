package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAllocWithinBlock(t *testing.T) {
	a := New()
	p1 := a.Alloc(10, 1)
	p2 := a.Alloc(10, 1)
	require.Len(t, p1, 10)
	require.Len(t, p2, 10)
	require.Len(t, a.blocks, 1)
}

func TestAllocGrowsAcrossBlocks(t *testing.T) {
	a := New()
	a.Alloc(minBlockSize, 1)
	a.Alloc(10, 1)
	require.Len(t, a.blocks, 2)
}

func TestAllocLargerThanMaxBlockGetsOwnBlock(t *testing.T) {
	a := New()
	a.Alloc(1, 1)
	a.Alloc(200*1024, 1)
	last := a.blocks[len(a.blocks)-1]
	require.GreaterOrEqual(t, len(last.buf), 200*1024)
}

func TestAlignment(t *testing.T) {
	a := New()
	a.Alloc(1, 1)
	p := a.Alloc(8, 8)
	addr := uintptr(unsafe.Pointer(&p[0]))
	require.Zero(t, addr%8)
}

func TestCopyBytesIsIndependent(t *testing.T) {
	a := New()
	src := []byte("hello")
	dst := a.CopyBytes(src)
	src[0] = 'H'
	require.Equal(t, "hello", string(dst))
}

func TestResetReusesFirstBlock(t *testing.T) {
	a := New()
	a.Alloc(10, 1)
	a.Alloc(minBlockSize, 1)
	require.Len(t, a.blocks, 2)
	a.Reset()
	require.Len(t, a.blocks, 1)
	require.Equal(t, 0, a.blocks[0].off)
}

func TestFreeDropsAllBlocks(t *testing.T) {
	a := New()
	a.Alloc(10, 1)
	a.Free()
	require.Empty(t, a.blocks)
}
