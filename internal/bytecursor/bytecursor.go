// Package bytecursor provides a small little-endian cursor over a byte
// slice, used by both binary codecs for bounds-checked primitive reads
// and writes. It is the one place encoding/binary offsets are computed
// by hand, mirroring the teacher's reader.go/writer.go convention of
// threading a running offset through a flat buffer rather than
// allocating an io.Reader per field.
package bytecursor

import (
	"encoding/binary"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
)

// Cursor reads from or writes to an in-memory byte buffer at a running
// position. The zero value is not usable; use New or NewWriter.
type Cursor struct {
	buf  []byte
	pos  int
	file string // identifies the offending file in bounds-check errors
}

// New wraps buf for reading, starting at position 0.
func New(buf []byte, file string) *Cursor {
	return &Cursor{buf: buf, file: file}
}

// NewWriter starts an empty cursor for appending output.
func NewWriter(file string) *Cursor {
	return &Cursor{file: file}
}

// Bytes returns the accumulated buffer (for a writer) or the original
// buffer (for a reader).
func (c *Cursor) Bytes() []byte { return c.buf }

// Pos returns the current read/write position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(pos int) { c.pos = pos }

// Rewind moves the cursor back n bytes so they can be read again. The
// RLE-LAYER decoder does not call it; it looks ahead with PeekU8.
func (c *Cursor) Rewind(n int) { c.pos -= n }

func (c *Cursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return codecerr.New(codecerr.Truncated, c.file, "unexpected end of input")
	}
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (c *Cursor) ReadU8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// PeekU8 reads the byte at the cursor without advancing it.
func (c *Cursor) PeekU8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

// ReadU16LE reads a little-endian uint16 and advances the cursor.
func (c *Cursor) ReadU16LE() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32 and advances the cursor.
func (c *Cursor) ReadU32LE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadBytes reads the next n bytes and advances the cursor. The
// returned slice aliases the underlying buffer; callers that need to
// retain it across further writes should copy.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// WriteU8 appends a byte.
func (c *Cursor) WriteU8(b byte) {
	c.buf = append(c.buf, b)
	c.pos = len(c.buf)
}

// WriteU16LE appends a little-endian uint16.
func (c *Cursor) WriteU16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	c.buf = append(c.buf, tmp[:]...)
	c.pos = len(c.buf)
}

// WriteU32LE appends a little-endian uint32.
func (c *Cursor) WriteU32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	c.buf = append(c.buf, tmp[:]...)
	c.pos = len(c.buf)
}

// WriteBytes appends b verbatim.
func (c *Cursor) WriteBytes(b []byte) {
	c.buf = append(c.buf, b...)
	c.pos = len(c.buf)
}

// WriteZeros appends n zero bytes.
func (c *Cursor) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		c.buf = append(c.buf, 0)
	}
	c.pos = len(c.buf)
}
