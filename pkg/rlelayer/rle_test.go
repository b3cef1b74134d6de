package rlelayer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_AllZero256x256(t *testing.T) {
	width, height := 256, 256
	pixels := make([]byte, width*height)

	encoded, err := EncodePixels(pixels, width, height)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodePixels(encoded, width, height)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestRoundTrip_Alternating256x256(t *testing.T) {
	width, height := 256, 256
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i % 2)
	}

	encoded, err := EncodePixels(pixels, width, height)
	require.NoError(t, err)
	// Every adjacent pair differs, so the grammar re-reads every byte
	// as a transition: one output byte per input pixel, plus the
	// leading flag byte.
	assert.Equal(t, 1+width*height, len(encoded))

	decoded, err := DecodePixels(encoded, width, height)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestRoundTrip_RowGradientRepeated(t *testing.T) {
	width, height := 256, 256
	pixels := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels[y*width+x] = byte(x)
		}
	}

	encoded, err := EncodePixels(pixels, width, height)
	require.NoError(t, err)

	decoded, err := DecodePixels(encoded, width, height)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestRoundTrip_GradientAndRuns(t *testing.T) {
	width, height := 100, 100
	pixels := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < 50 {
				pixels[y*width+x] = byte(y) // a run per row
			} else {
				pixels[y*width+x] = byte(x) // a gradient
			}
		}
	}

	encoded, err := EncodePixels(pixels, width, height)
	require.NoError(t, err)

	decoded, err := DecodePixels(encoded, width, height)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestRoundTrip_SinglePixel(t *testing.T) {
	pixels := []byte{42}
	encoded, err := EncodePixels(pixels, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 42, 42, 0x00}, encoded)

	decoded, err := DecodePixels(encoded, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestRoundTrip_VeryLongRun(t *testing.T) {
	// A run long enough to require multiple 0xFF continuation bytes.
	width, height := 1000, 1000
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = 7
	}

	encoded, err := EncodePixels(pixels, width, height)
	require.NoError(t, err)

	run := width * height
	rem := run - 2
	wantContinuations := rem / 255
	wantRemainder := rem % 255
	// leading 0x00, value, value, N continuation 0xFF, 1 remainder byte
	assert.Equal(t, 1+2+wantContinuations+1, len(encoded))
	assert.Equal(t, byte(wantRemainder), encoded[len(encoded)-1])

	decoded, err := DecodePixels(encoded, width, height)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestEncodePixels_RejectsWrongLength(t *testing.T) {
	_, err := EncodePixels(make([]byte, 10), 4, 4)
	require.Error(t, err)
}

func TestDecodePixels_TruncatedStreamZeroFills(t *testing.T) {
	// A leading flag byte with nothing else: the decoder must tolerate
	// this and zero-fill the rest rather than error.
	decoded, err := DecodePixels([]byte{0x00}, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), decoded)
}

func TestDecodePixels_EmptyPayloadZeroFills(t *testing.T) {
	decoded, err := DecodePixels(nil, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 4), decoded)
}

func TestRoundTrip_TrailingUnpairedLiteral(t *testing.T) {
	// The last pixel differs from its predecessor and has no following
	// byte to pair against in the stream.
	pixels := []byte{5, 5, 3}
	encoded, err := EncodePixels(pixels, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 5, 5, 0x00, 3}, encoded)

	decoded, err := DecodePixels(encoded, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}

func TestDecodePixels_TrailingPaddingByteTolerated(t *testing.T) {
	pixels := []byte{1, 1, 1, 1}
	encoded, err := EncodePixels(pixels, 2, 2)
	require.NoError(t, err)

	padded := append(bytes.Clone(encoded), 0xAB)
	decoded, err := DecodePixels(padded, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, pixels, decoded)
}
