package parser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blkindex/blkindex/pkg/util"
)

// ErrUnexpectedEOF is returned when a read runs past the end of the buffer.
var ErrUnexpectedEOF = errors.New("unexpected end of buffer")

// Cursor is a rewindable reader over an in-memory block payload.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Rewind moves the cursor back n bytes, clamping at the start.
func (c *Cursor) Rewind(n int) {
	if n > c.pos {
		n = c.pos
	}
	c.pos -= n
}

// Slice returns the underlying bytes between two offsets. The returned
// slice aliases the cursor's buffer.
func (c *Cursor) Slice(start, end int) []byte {
	return c.buf[start:end]
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.Remaining() < 1 {
		return 0, ErrUnexpectedEOF
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the
// cursor's buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadVarInt reads a Bitcoin-style variable-length integer.
func (c *Cursor) ReadVarInt() (uint64, error) {
	val, n, err := util.ReadVarInt(c.buf[c.pos:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	c.pos += n
	return val, nil
}

// ReadHash32 reads a 32-byte hash and returns it in display order
// (byte-reversed hex).
func (c *Cursor) ReadHash32() (string, error) {
	b, err := c.ReadBytes(32)
	if err != nil {
		return "", err
	}
	return util.BytesToHex(util.ReverseBytes(b)), nil
}
