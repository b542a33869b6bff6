package testutil

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// MustDecodeHex decodes hex or fails the test.
func MustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

// WriteBlockFile writes magic-framed block payloads to dir/name and returns
// the full path.
func WriteBlockFile(t *testing.T, dir, name string, magic [4]byte, payloads [][]byte) string {
	t.Helper()
	var buf []byte
	for _, p := range payloads {
		buf = append(buf, FrameBlock(magic, p)...)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write block file %s: %v", path, err)
	}
	return path
}

// FrameBlock wraps a raw block payload in the on-disk [magic][size][payload]
// frame.
func FrameBlock(magic [4]byte, payload []byte) []byte {
	frame := make([]byte, 0, 8+len(payload))
	frame = append(frame, magic[:]...)
	frame = append(frame,
		byte(len(payload)),
		byte(len(payload)>>8),
		byte(len(payload)>>16),
		byte(len(payload)>>24),
	)
	return append(frame, payload...)
}

// Uint32Ptr returns a pointer to v.
func Uint32Ptr(v uint32) *uint32 {
	return &v
}
