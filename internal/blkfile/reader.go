package blkfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blkindex/blkindex/internal/coin"
)

// ErrTruncatedFrame is returned when a file ends inside a frame. The node
// may still be appending to the file, so callers treat it like EOF.
var ErrTruncatedFrame = errors.New("truncated block frame")

// InvalidMagicError is returned when a frame does not start with the
// coin's network magic. It marks the end of useful data in the file.
type InvalidMagicError struct {
	Got [4]byte
}

func (e *InvalidMagicError) Error() string {
	return fmt.Sprintf("invalid magic bytes %x", e.Got)
}

// Reader iterates over the magic-framed blocks of a single blk*.dat file.
type Reader struct {
	f     *os.File
	br    *bufio.Reader
	magic [4]byte
	path  string
}

// Open opens a block file for the given coin.
func Open(path string, c coin.Coin) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block file: %w", err)
	}
	return &Reader{
		f:     f,
		br:    bufio.NewReaderSize(f, 1<<20),
		magic: c.Magic(),
		path:  path,
	}, nil
}

// Path returns the file path the reader was opened with.
func (r *Reader) Path() string {
	return r.path
}

// Next returns the next raw block payload. io.EOF signals a clean end of
// file; ErrTruncatedFrame signals a partial trailing frame. Both terminate
// iteration without being failures.
func (r *Reader) Next() ([]byte, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r.br, magic[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrTruncatedFrame
	}
	if magic != r.magic {
		return nil, &InvalidMagicError{Got: magic}
	}

	var sizeBytes [4]byte
	if _, err := io.ReadFull(r.br, sizeBytes[:]); err != nil {
		return nil, ErrTruncatedFrame
	}
	size := binary.LittleEndian.Uint32(sizeBytes[:])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		return nil, ErrTruncatedFrame
	}
	return payload, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}
