package csv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldBufferGrowthPolicy(t *testing.T) {
	var f fieldBuffer
	f.reset(false)
	f.grow(10)
	require.Equal(t, 64, cap(f.owned), "first allocation is max(needed, 64)")

	var f2 fieldBuffer
	f2.reset(false)
	f2.grow(100)
	require.Equal(t, 100, cap(f2.owned), "first allocation falls back to needed when needed > 64")

	var f3 fieldBuffer
	f3.reset(false)
	f3.grow(64)
	f3.grow(100)
	require.Equal(t, 128, cap(f3.owned), "growth under 1 KiB adds 64 at a time")

	var f4 fieldBuffer
	f4.reset(false)
	f4.grow(1024)
	f4.grow(1025)
	require.Equal(t, 2048, cap(f4.owned), "growth at/above 1 KiB doubles")
}

func TestFieldBufferPromotePreservesBytes(t *testing.T) {
	// Testable property 9: promotion preserves all bytes seen so far
	// byte-for-byte.
	data := []byte("hello world, this is a field")
	var f fieldBuffer
	f.reset(false)
	f.promote(data, 0, len(data))
	require.True(t, f.isOwned)
	require.Equal(t, data, f.finalBytes(nil, 0, 0))

	// Promoting twice is a no-op.
	f.promote([]byte("garbage"), 0, 7)
	require.Equal(t, data, f.finalBytes(nil, 0, 0))
}

func TestFieldBufferWindowModeZeroCopy(t *testing.T) {
	data := []byte("abcdef")
	var f fieldBuffer
	f.reset(false)
	got := f.finalBytes(data, 1, 4)
	require.Equal(t, "bcd", string(got))
	require.False(t, f.isOwned)
}

func TestUnescapeFieldDoubledQuote(t *testing.T) {
	out, err := unescapeField(DoubledQuote, '"', []byte(`he""llo`))
	require.NoError(t, err)
	require.Equal(t, `he"llo`, string(out))
}

func TestUnescapeFieldBackslash(t *testing.T) {
	out, err := unescapeField(Backslash, '"', []byte(`a\nb\"c`))
	require.NoError(t, err)
	require.Equal(t, "a\nb\"c", string(out))
}

func TestUnescapeFieldInvalidBackslash(t *testing.T) {
	_, err := unescapeField(Backslash, '"', []byte(`a\qb`))
	require.Error(t, err)
}
