package packeddensity

import (
	"github.com/Paint-a-Farm/grleconvert/internal/bytecursor"
)

// decodeBlock reads one ChunkBlock (§3/§4.2) from cur and returns its
// chunkSize*chunkSize pixel values in row-major order. cur is advanced
// past the block.
func decodeBlock(cur *bytecursor.Cursor, chunkSize int) ([]uint16, error) {
	bitDepth, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}
	paletteCount, err := cur.ReadU8()
	if err != nil {
		return nil, err
	}

	palette := make([]uint16, paletteCount)
	for i := range palette {
		v, err := cur.ReadU16LE()
		if err != nil {
			return nil, err
		}
		palette[i] = v
	}

	total := chunkSize * chunkSize
	values := make([]uint16, total)

	if bitDepth == 0 {
		var uniform uint16
		if len(palette) > 0 {
			uniform = palette[0]
		}
		for i := range values {
			values[i] = uniform
		}
		return values, nil
	}

	bitmapLen := int(bitDepth) * total / 8
	bitmap, err := cur.ReadBytes(bitmapLen)
	if err != nil {
		return nil, err
	}

	mask := uint32(1)<<uint(bitDepth) - 1
	usePalette := bitDepth <= 2 && len(palette) > 0

	for i := 0; i < total; i++ {
		raw := readPacked(bitmap, i, int(bitDepth))
		idx := raw & mask
		if usePalette {
			if int(idx) < len(palette) {
				values[i] = palette[idx]
			}
			continue
		}
		values[i] = uint16(idx)
	}
	return values, nil
}

// encodeBlock serializes chunkSize*chunkSize pixel values (already
// masked to their range's bit width by the caller) as one ChunkBlock, choosing uniform,
// 1-bit/2-bit palette, or raw bit-packed form per §4.2.
func encodeBlock(values []uint16) []byte {
	distinct := make(map[uint16]struct{})
	var maxVal uint16
	for _, v := range values {
		distinct[v] = struct{}{}
		if v > maxVal {
			maxVal = v
		}
	}

	w := bytecursor.NewWriter("")

	switch {
	case len(distinct) == 1:
		w.WriteU8(0)
		w.WriteU8(1)
		w.WriteU16LE(values[0])

	case len(distinct) <= 4:
		bitDepth := 1
		if len(distinct) > 2 {
			bitDepth = 2
		}
		palette := sortedKeys(distinct)
		indexOf := make(map[uint16]uint32, len(palette))
		for i, p := range palette {
			indexOf[p] = uint32(i)
		}

		w.WriteU8(byte(bitDepth))
		w.WriteU8(byte(len(palette)))
		for _, p := range palette {
			w.WriteU16LE(p)
		}

		indices := make([]uint32, len(values))
		for i, v := range values {
			indices[i] = indexOf[v]
		}
		w.WriteBytes(packBits(indices, bitDepth, len(values)))

	default:
		bitDepth := bitsNeeded(maxVal)
		w.WriteU8(byte(bitDepth))
		w.WriteU8(0)

		raw := make([]uint32, len(values))
		for i, v := range values {
			raw[i] = uint32(v)
		}
		w.WriteBytes(packBits(raw, bitDepth, len(values)))
	}

	return w.Bytes()
}

// readPacked extracts the bitDepth-wide value at pixel index i from a
// bitmap packed LSB-first, matching encodeBlock/packBits.
func readPacked(bitmap []byte, i, bitDepth int) uint32 {
	bitPos := i * bitDepth
	byteIdx := bitPos / 8
	bitOffset := uint(bitPos % 8)

	var raw uint32
	if byteIdx < len(bitmap) {
		raw |= uint32(bitmap[byteIdx])
	}
	if byteIdx+1 < len(bitmap) {
		raw |= uint32(bitmap[byteIdx+1]) << 8
	}
	if byteIdx+2 < len(bitmap) {
		raw |= uint32(bitmap[byteIdx+2]) << 16
	}
	return raw >> bitOffset
}

// packBits writes len(values) bitDepth-wide values LSB-first into a
// byte buffer sized for total pixels (bitDepth*total/8 bytes).
func packBits(values []uint32, bitDepth, total int) []byte {
	bitmap := make([]byte, bitDepth*total/8)
	for i, v := range values {
		bitPos := i * bitDepth
		byteIdx := bitPos / 8
		bitOffset := uint(bitPos % 8)

		raw := v << bitOffset
		bitmap[byteIdx] |= byte(raw)
		if byteIdx+1 < len(bitmap) {
			bitmap[byteIdx+1] |= byte(raw >> 8)
		}
		if byteIdx+2 < len(bitmap) {
			bitmap[byteIdx+2] |= byte(raw >> 16)
		}
	}
	return bitmap
}

// bitsNeeded returns ceil(log2(maxValue+1)), clamped to [1, 16].
func bitsNeeded(maxValue uint16) int {
	bits := 1
	for (uint32(1) << uint(bits)) <= uint32(maxValue) {
		bits++
	}
	if bits > 16 {
		bits = 16
	}
	return bits
}

// sortedKeys returns the keys of a uint16 set in ascending order.
func sortedKeys(set map[uint16]struct{}) []uint16 {
	out := make([]uint16, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

