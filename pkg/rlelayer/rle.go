// Package rlelayer implements the RLE-LAYER run-length codec (file
// extension .grle): a single grayscale channel compressed with a
// look-ahead/rewind byte-pair grammar.
//
// Grounded on the teacher's pkg/compress/rle (PackBits-family codec
// for DICOM), adapted from the symmetric two-side run encoding there
// to the asymmetric "prev/next pair with rewind" grammar this format
// actually uses.
package rlelayer

import (
	"github.com/Paint-a-Farm/grleconvert/internal/bytecursor"
	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
)

// EncodePixels compresses a row-major grayscale pixel buffer into the
// RLE-LAYER payload grammar (§4.1): a leading flag byte, then a
// sequence of run/transition events.
func EncodePixels(pixels []byte, width, height int) ([]byte, error) {
	expected := width * height
	if len(pixels) != expected {
		return nil, codecerr.New(codecerr.BadDimensions, "",
			"pixel buffer does not match width*height")
	}

	w := bytecursor.NewWriter("")
	w.WriteU8(0x00)

	i := 0
	for i < len(pixels) {
		value := pixels[i]
		run := runLength(pixels, i)

		if run >= 2 {
			w.WriteU8(value)
			w.WriteU8(value)
			rem := run - 2
			q, r := rem/255, rem%255
			for k := 0; k < q; k++ {
				w.WriteU8(0xFF)
			}
			w.WriteU8(byte(r))
		} else {
			w.WriteU8(value)
		}
		i += run
	}

	out := w.Bytes()
	if len(out) == 2 {
		// Single-pixel input: the decoder needs a full (prev, next)
		// pair to read, so pad with the same value and a terminator.
		out = append(out, out[1], 0x00)
	}
	return out, nil
}

// runLength returns the length of the maximal run of identical values
// starting at index i.
func runLength(pixels []byte, i int) int {
	v := pixels[i]
	j := i + 1
	for j < len(pixels) && pixels[j] == v {
		j++
	}
	return j - i
}

// DecodePixels expands an RLE-LAYER payload into exactly width*height
// bytes. A trailing unpaired literal byte is emitted as a single pixel;
// if the stream ends before that, the remainder is zero-filled.
func DecodePixels(payload []byte, width, height int) ([]byte, error) {
	expected := width * height
	out := make([]byte, 0, expected)

	cur := bytecursor.New(payload, "")
	if _, err := cur.ReadU8(); err != nil {
		// No data at all: zero-fill per the early-termination rule.
		return append(out, make([]byte, expected)...), nil
	}

	for len(out) < expected {
		prev, err := cur.ReadU8()
		if err != nil {
			break
		}
		next, err := cur.PeekU8()
		if err != nil {
			// Trailing unpaired literal: the stream ends without a
			// partner byte to compare against, so emit it as-is
			// instead of discarding it.
			out = append(out, prev)
			break
		}

		if prev == next {
			_, _ = cur.ReadU8() // consume the paired next byte

			count := 0
			for {
				b, err := cur.PeekU8()
				if err != nil || b != 0xFF {
					break
				}
				_, _ = cur.ReadU8()
				count += 255
			}
			if b, err := cur.ReadU8(); err == nil {
				count += int(b)
			}
			count += 2

			remaining := expected - len(out)
			if count > remaining {
				count = remaining
			}
			for k := 0; k < count; k++ {
				out = append(out, prev)
			}
		} else {
			out = append(out, prev)
		}
	}

	if len(out) < expected {
		out = append(out, make([]byte, expected-len(out))...)
	}
	return out, nil
}
