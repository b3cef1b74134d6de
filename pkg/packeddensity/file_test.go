package packeddensity

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip_SingleRange(t *testing.T) {
	dimension, numChannels := 32, 4
	combined := make([]uint32, dimension*dimension)
	for i := range combined {
		combined[i] = uint32(i % 16)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, combined, dimension, numChannels, nil))

	got, gotDim, gotChannels, gotSplit, err := ReadFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, dimension, gotDim)
	assert.Equal(t, numChannels, gotChannels)
	assert.Empty(t, gotSplit)
	assert.Equal(t, combined, got)
}

func TestFileRoundTrip_TwoRangeSplit(t *testing.T) {
	// Four 32x32 chunks (64x64 image), channel 3 split: range0 in bits
	// [0,3), range1 in bits [3,8).
	dimension, numChannels := 64, 8
	combined := make([]uint32, dimension*dimension)
	for i := range combined {
		r0 := uint32(i % 8)
		r1 := uint32((i / 8) % 32)
		combined[i] = r0 | (r1 << 3)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, combined, dimension, numChannels, []int{3}))

	raw := buf.Bytes()
	require.Equal(t, magicLong, string(raw[0:4]))
	assert.Equal(t, byte(2), raw[12]) // numRanges
	assert.Equal(t, byte(3), raw[16]) // sole inner boundary byte

	got, gotDim, gotChannels, gotSplit, err := ReadFile(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, dimension, gotDim)
	assert.Equal(t, numChannels, gotChannels)
	assert.Equal(t, []int{3}, gotSplit)
	assert.Equal(t, combined, got)
}

func TestReadFile_ShortHeaderVariant(t *testing.T) {
	// Hand-build a minimal !MDF file: one uniform 32x32 chunk, single range.
	var buf bytes.Buffer
	buf.WriteString(magicShort)
	buf.WriteByte(0) // dim_log2 -> dimension = 1<<(0+5) = 32
	buf.WriteByte(chunkLog2)
	buf.WriteByte(0) // reserved
	buf.WriteByte(4) // numChannels
	buf.WriteByte(1) // numRanges
	// one uniform ChunkBlock: bitDepth=0, paletteCount=1, palette[0]=5
	buf.WriteByte(0)
	buf.WriteByte(1)
	buf.WriteByte(5)
	buf.WriteByte(0)

	got, dim, channels, split, err := ReadFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, dim)
	assert.Equal(t, 4, channels)
	assert.Empty(t, split)
	for _, v := range got {
		assert.Equal(t, uint32(5), v)
	}
}

func TestWriteFile_RejectsNonPowerOfTwoDimension(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFile(&buf, make([]uint32, 48*48), 48, 4, nil)
	require.Error(t, err)

	var ce *codecerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, codecerr.BadDimensions, ce.Kind)
}

func TestReadFile_RejectsBadMagic(t *testing.T) {
	_, _, _, _, err := ReadFile(bytes.NewReader([]byte("NOPE")))
	require.Error(t, err)

	var ce *codecerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, codecerr.BadMagic, ce.Kind)
}
