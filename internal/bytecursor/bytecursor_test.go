package bytecursor

import (
	"errors"
	"testing"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_ReadPrimitives(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	c := New(buf, "test.bin")

	b, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	u16, err := c.ReadU16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), u16)

	rest, err := c.ReadBytes(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05, 0x06, 0x07}, rest)

	assert.Equal(t, 0, c.Remaining())
}

func TestCursor_ReadU32LE(t *testing.T) {
	c := New([]byte{0xEF, 0xBE, 0xAD, 0xDE}, "")
	v, err := c.ReadU32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestCursor_TruncatedReadsError(t *testing.T) {
	c := New([]byte{0x01}, "short.bin")

	_, err := c.ReadU16LE()
	require.Error(t, err)

	var ce *codecerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, codecerr.Truncated, ce.Kind)
	assert.Equal(t, "short.bin", ce.File)
}

func TestCursor_RewindReReadsBytes(t *testing.T) {
	c := New([]byte{0xAA, 0xBB, 0xCC}, "")
	first, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), first)

	second, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xBB), second)

	c.Rewind(1)
	reread, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xBB), reread)
}

func TestCursor_WritePrimitivesRoundTrip(t *testing.T) {
	w := NewWriter("")
	w.WriteU8(0x42)
	w.WriteU16LE(0xBEEF)
	w.WriteU32LE(0xCAFEBABE)
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteZeros(2)

	r := New(w.Bytes(), "")
	b, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)

	u16, err := r.ReadU16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, err := r.ReadU32LE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), u32)

	tail, err := r.ReadBytes(5)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, tail)
}

func TestCursor_PeekDoesNotAdvance(t *testing.T) {
	c := New([]byte{0x09, 0x0A}, "")
	peeked, err := c.PeekU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x09), peeked)
	assert.Equal(t, 0, c.Pos())

	read, err := c.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x09), read)
}
