package rlelayer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	width, height := 256, 512
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i % 251)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, pixels, width, height))

	gotPixels, gotW, gotH, err := ReadFile(&buf)
	require.NoError(t, err)
	assert.Equal(t, width, gotW)
	assert.Equal(t, height, gotH)
	assert.Equal(t, pixels, gotPixels)
}

func TestFileHeader_RecoverDimensions(t *testing.T) {
	width, height := 512, 256
	pixels := make([]byte, width*height)

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, pixels, width, height))

	raw := buf.Bytes()
	require.Equal(t, "GRLE", string(raw[0:4]))
	assert.Equal(t, uint16(width/256), leU16(raw[6:8]))
	assert.Equal(t, uint16(height/256), leU16(raw[10:12]))
	assert.Equal(t, uint16(256), leU16(raw[12:14]))
}

func TestFileHeader_StoredLengthIsPayloadLenMinusOne(t *testing.T) {
	width, height := 256, 256
	pixels := make([]byte, width*height)

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, pixels, width, height))

	raw := buf.Bytes()
	payloadLen := len(raw) - headerSize
	stored := int(raw[17]) | int(raw[18])<<8 | int(raw[19])<<16
	assert.Equal(t, byte(0), raw[16])
	assert.Equal(t, payloadLen-1, stored)
}

func TestWriteFile_RejectsNonMultipleOf256(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFile(&buf, make([]byte, 100*100), 100, 100)
	require.Error(t, err)

	var ce *codecerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, codecerr.BadDimensions, ce.Kind)
}

func TestReadFile_RejectsBadMagic(t *testing.T) {
	_, _, _, err := ReadFile(bytes.NewReader([]byte("NOTAGRLEFILEXXXXXXXX")))
	require.Error(t, err)

	var ce *codecerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, codecerr.BadMagic, ce.Kind)
}

func leU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
