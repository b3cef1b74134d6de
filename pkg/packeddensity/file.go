// Package packeddensity implements the PACKED-DENSITY chunked
// palette/bit-packed codec (file extension .gdm): channel values are
// split into independently-encoded bit ranges, each range of each
// 32x32 chunk stored as a variable-width ChunkBlock.
//
// Grounded on the teacher's pkg/compress (manual cursor-offset binary
// layouts) and on the bounded header-variant dispatch pattern used
// throughout the original Rust reference for "MDF vs !MDF files.
package packeddensity

import (
	"io"

	"github.com/Paint-a-Farm/grleconvert/internal/bytecursor"
	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
)

const (
	magicLong  = "\x22MDF" // `"MDF`, 16-byte header, written by this encoder
	magicShort = "\x21MDF" // `!MDF`, 9-byte header, read-only compatibility form

	longHeaderSize  = 16
	shortHeaderSize = 9

	// chunkLog2 fixes chunkSize = 32, the only size this encoder
	// produces; re-chunking to other sizes is out of scope.
	chunkLog2 = 5
	chunkSize = 1 << chunkLog2

	maxBPPConstant = 2 // informational only; the reference decoder never checks it
)

// WriteFile serializes combined per-pixel channel values (row-major,
// dimension x dimension) as a complete PACKED-DENSITY file using the
// "MDF header variant. rangeSplit holds the inner channel boundaries
// (excluding 0 and numChannels); pass nil for a single range spanning
// all channels.
func WriteFile(w io.Writer, combined []uint32, dimension, numChannels int, rangeSplit []int) error {
	if dimension%chunkSize != 0 {
		return codecerr.New(codecerr.BadDimensions, "",
			"PACKED-DENSITY dimension must be a multiple of the chunk size")
	}
	if len(combined) != dimension*dimension {
		return codecerr.New(codecerr.BadDimensions, "",
			"combined pixel buffer does not match dimension*dimension")
	}
	if numChannels <= 0 || numChannels > 24 {
		return codecerr.New(codecerr.BadColorMode, "",
			"numChannels must be in (0, 24]")
	}

	boundaries := makeBoundaries(rangeSplit, numChannels)
	numRanges := len(boundaries) - 1

	dimLog2, err := log2Exact(dimension)
	if err != nil {
		return codecerr.Wrap(codecerr.BadDimensions, "", "dimension must be a power of two", err)
	}

	hc := bytecursor.NewWriter("")
	hc.WriteBytes([]byte(magicLong))
	hc.WriteU32LE(0) // version
	hc.WriteU8(byte(dimLog2 - chunkLog2))
	hc.WriteU8(chunkLog2)
	hc.WriteU8(maxBPPConstant)
	hc.WriteU8(byte(numChannels))
	hc.WriteU8(byte(numRanges))
	hc.WriteU8(0) // typeIndexChannels
	hc.WriteZeros(2)

	if numRanges > 1 {
		for _, b := range boundaries[1 : len(boundaries)-1] {
			hc.WriteU8(byte(b))
		}
	}

	if _, err := w.Write(hc.Bytes()); err != nil {
		return codecerr.Wrap(codecerr.Io, "", "writing PACKED-DENSITY header", err)
	}

	chunksPerDim := dimension / chunkSize
	shifts, masks := rangeShiftsAndMasks(boundaries)

	for cy := 0; cy < chunksPerDim; cy++ {
		for cx := 0; cx < chunksPerDim; cx++ {
			values := extractChunk(combined, dimension, cy, cx)
			for k := 0; k < numRanges; k++ {
				rangeValues := make([]uint16, len(values))
				for i, v := range values {
					rangeValues[i] = uint16((v >> shifts[k]) & masks[k])
				}
				block := encodeBlock(rangeValues)
				if _, err := w.Write(block); err != nil {
					return codecerr.Wrap(codecerr.Io, "", "writing PACKED-DENSITY chunk", err)
				}
			}
		}
	}
	return nil
}

// ReadFile reads a complete PACKED-DENSITY file (either header
// variant) and returns the combined per-pixel channel values along
// with the dimension, channel count, and inner range boundaries.
func ReadFile(r io.Reader) (combined []uint32, dimension, numChannels int, rangeSplit []int, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Io, "", "reading PACKED-DENSITY file", err)
	}
	if len(raw) < 4 {
		return nil, 0, 0, nil, codecerr.New(codecerr.Truncated, "", "PACKED-DENSITY header truncated")
	}

	switch string(raw[0:4]) {
	case magicLong:
		return readLongHeader(raw)
	case magicShort:
		return readShortHeader(raw)
	default:
		return nil, 0, 0, nil, codecerr.New(codecerr.BadMagic, "", "not a PACKED-DENSITY (\"MDF/!MDF) file")
	}
}

func readLongHeader(raw []byte) ([]uint32, int, int, []int, error) {
	cur := bytecursor.New(raw, "")
	if _, err := cur.ReadBytes(4); err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if _, err := cur.ReadU32LE(); err != nil { // version, unvalidated
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	dimLog2, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	chunkLog2Field, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if _, err := cur.ReadU8(); err != nil { // max_bpp, informational
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	numChannelsB, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	numRangesB, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if _, err := cur.ReadU8(); err != nil { // typeIndexChannels, unused on read
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if _, err := cur.ReadBytes(2); err != nil { // padding
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if cur.Pos() != longHeaderSize {
		return nil, 0, 0, nil, codecerr.New(codecerr.Unsupported, "", "PACKED-DENSITY header size mismatch")
	}
	return readBody(cur, raw, int(dimLog2), int(chunkLog2Field), int(numChannelsB), int(numRangesB))
}

func readShortHeader(raw []byte) ([]uint32, int, int, []int, error) {
	cur := bytecursor.New(raw, "")
	if _, err := cur.ReadBytes(4); err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	dimLog2, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	chunkLog2Field, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if _, err := cur.ReadU8(); err != nil { // reserved
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	numChannelsB, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	numRangesB, err := cur.ReadU8()
	if err != nil {
		return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "header truncated", err)
	}
	if cur.Pos() != shortHeaderSize {
		return nil, 0, 0, nil, codecerr.New(codecerr.Unsupported, "", "PACKED-DENSITY header size mismatch")
	}
	return readBody(cur, raw, int(dimLog2), int(chunkLog2Field), int(numChannelsB), int(numRangesB))
}

func readBody(cur *bytecursor.Cursor, raw []byte, dimLog2, chunkLog2Field, numChannels, numRanges int) ([]uint32, int, int, []int, error) {
	dimension := 1 << (dimLog2 + chunkLog2)
	chSize := 1 << chunkLog2Field

	var rangeSplit []int
	if numRanges > 1 {
		for i := 0; i < numRanges-1; i++ {
			b, err := cur.ReadU8()
			if err != nil {
				return nil, 0, 0, nil, codecerr.Wrap(codecerr.Truncated, "", "range boundary truncated", err)
			}
			rangeSplit = append(rangeSplit, int(b))
		}
	}

	boundaries := makeBoundaries(rangeSplit, numChannels)
	shifts, masks := rangeShiftsAndMasks(boundaries)

	combined := make([]uint32, dimension*dimension)
	chunksPerDim := dimension / chSize

	for cy := 0; cy < chunksPerDim; cy++ {
		for cx := 0; cx < chunksPerDim; cx++ {
			merged := make([]uint32, chSize*chSize)
			for k := 0; k < numRanges; k++ {
				values, err := decodeBlock(cur, chSize)
				if err != nil {
					return nil, 0, 0, nil, err
				}
				for i, v := range values {
					merged[i] |= (uint32(v) & masks[k]) << shifts[k]
				}
			}
			for ly := 0; ly < chSize; ly++ {
				for lx := 0; lx < chSize; lx++ {
					y := cy*chSize + ly
					x := cx*chSize + lx
					combined[y*dimension+x] = merged[ly*chSize+lx]
				}
			}
		}
	}

	return combined, dimension, numChannels, rangeSplit, nil
}

// extractChunk pulls one chunkSize x chunkSize tile out of a
// dimension x dimension combined buffer in chunk-local row-major order.
func extractChunk(combined []uint32, dimension, cy, cx int) []uint32 {
	out := make([]uint32, chunkSize*chunkSize)
	for ly := 0; ly < chunkSize; ly++ {
		for lx := 0; lx < chunkSize; lx++ {
			y := cy*chunkSize + ly
			x := cx*chunkSize + lx
			out[ly*chunkSize+lx] = combined[y*dimension+x]
		}
	}
	return out
}

// makeBoundaries turns the inner split points into the full boundary
// list 0 = b0 < b1 < ... < bK = numChannels.
func makeBoundaries(rangeSplit []int, numChannels int) []int {
	boundaries := make([]int, 0, len(rangeSplit)+2)
	boundaries = append(boundaries, 0)
	boundaries = append(boundaries, rangeSplit...)
	boundaries = append(boundaries, numChannels)
	return boundaries
}

// rangeShiftsAndMasks derives each range's left-shift amount and
// value mask from the cumulative bit widths between boundaries.
func rangeShiftsAndMasks(boundaries []int) (shifts []uint, masks []uint32) {
	numRanges := len(boundaries) - 1
	shifts = make([]uint, numRanges)
	masks = make([]uint32, numRanges)

	shift := uint(0)
	for k := 0; k < numRanges; k++ {
		bits := boundaries[k+1] - boundaries[k]
		shifts[k] = shift
		masks[k] = uint32(1)<<uint(bits) - 1
		shift += uint(bits)
	}
	return shifts, masks
}

func log2Exact(n int) (int, error) {
	if n <= 0 {
		return 0, codecerr.New(codecerr.BadDimensions, "", "dimension must be positive")
	}
	bits := 0
	v := n
	for v > 1 {
		if v%2 != 0 {
			return 0, codecerr.New(codecerr.BadDimensions, "", "dimension must be a power of two")
		}
		v /= 2
		bits++
	}
	return bits, nil
}
