package rlelayer

import (
	"io"

	"github.com/Paint-a-Farm/grleconvert/internal/bytecursor"
	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
)

const (
	magic = "GRLE"

	// dimensionGranularity is the unit RLE-LAYER stores width/height
	// in: the file holds width/256 and height/256 as u16 fields.
	dimensionGranularity = 256

	// headerSize is the fixed 20-byte RLE-LAYER header.
	headerSize = 20

	// reservedWidthField is bytes 12-13 of the header: observed always
	// 256 in real files; its intended meaning is undocumented (§9 open
	// question). We write the same constant and ignore it on read.
	reservedWidthField = 256
)

// WriteFile writes pixels (width*height grayscale bytes, row-major) as
// a complete RLE-LAYER file: 20-byte header followed by the RLE
// payload.
func WriteFile(w io.Writer, pixels []byte, width, height int) error {
	if width%dimensionGranularity != 0 || height%dimensionGranularity != 0 {
		return codecerr.New(codecerr.BadDimensions, "",
			"RLE-LAYER width and height must be multiples of 256")
	}

	payload, err := EncodePixels(pixels, width, height)
	if err != nil {
		return err
	}

	hc := bytecursor.NewWriter("")
	hc.WriteBytes([]byte(magic))
	hc.WriteU16LE(0) // version: informational, unvalidated on read
	hc.WriteU16LE(uint16(width / dimensionGranularity))
	hc.WriteU16LE(0) // reserved
	hc.WriteU16LE(uint16(height / dimensionGranularity))
	hc.WriteU16LE(reservedWidthField)
	hc.WriteU16LE(0) // reserved

	storedLen := len(payload) - 1
	hc.WriteU8(0)
	hc.WriteU8(byte(storedLen))
	hc.WriteU8(byte(storedLen >> 8))
	hc.WriteU8(byte(storedLen >> 16))

	if _, err := w.Write(hc.Bytes()); err != nil {
		return codecerr.Wrap(codecerr.Io, "", "writing RLE-LAYER header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return codecerr.Wrap(codecerr.Io, "", "writing RLE-LAYER payload", err)
	}
	return nil
}

// ReadFile reads a complete RLE-LAYER file and returns its decoded
// pixel buffer along with the image dimensions.
func ReadFile(r io.Reader) (pixels []byte, width, height int, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, 0, codecerr.Wrap(codecerr.Io, "", "reading RLE-LAYER file", err)
	}

	cur := bytecursor.New(raw, "")
	magicBytes, err := cur.ReadBytes(4)
	if err != nil {
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	if string(magicBytes) != magic {
		return nil, 0, 0, codecerr.New(codecerr.BadMagic, "", "not an RLE-LAYER (GRLE) file")
	}

	if _, err := cur.ReadU16LE(); err != nil { // version, unvalidated
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	widthUnits, err := cur.ReadU16LE()
	if err != nil {
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	if _, err := cur.ReadU16LE(); err != nil { // reserved
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	heightUnits, err := cur.ReadU16LE()
	if err != nil {
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	if _, err := cur.ReadU16LE(); err != nil { // constant 256, ignored
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	if _, err := cur.ReadU16LE(); err != nil { // reserved
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}
	if _, err := cur.ReadBytes(4); err != nil { // stored payload length, informational
		return nil, 0, 0, codecerr.Wrap(codecerr.Truncated, "", "RLE-LAYER header truncated", err)
	}

	if cur.Pos() != headerSize {
		return nil, 0, 0, codecerr.New(codecerr.Unsupported, "", "RLE-LAYER header size mismatch")
	}

	width = int(widthUnits) * dimensionGranularity
	height = int(heightUnits) * dimensionGranularity

	payload := raw[headerSize:]
	pixels, err = DecodePixels(payload, width, height)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, width, height, nil
}
