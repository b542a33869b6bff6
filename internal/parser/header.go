package parser

import (
	"fmt"

	"github.com/blkindex/blkindex/internal/types"
)

// headerSize is the fixed serialized size of a block header.
const headerSize = 80

// parseHeader reads the 80-byte block header from the cursor. No field
// validation is performed; proof-of-work is not checked.
func parseHeader(c *Cursor) (types.HeaderRecord, error) {
	var h types.HeaderRecord
	var err error

	if h.Version, err = c.ReadUint32(); err != nil {
		return h, fmt.Errorf("header version: %w", err)
	}
	if h.PreviousBlockHash, err = c.ReadHash32(); err != nil {
		return h, fmt.Errorf("header prev hash: %w", err)
	}
	if h.MerkleRoot, err = c.ReadHash32(); err != nil {
		return h, fmt.Errorf("header merkle root: %w", err)
	}
	if h.Timestamp, err = c.ReadUint32(); err != nil {
		return h, fmt.Errorf("header timestamp: %w", err)
	}
	if h.Bits, err = c.ReadUint32(); err != nil {
		return h, fmt.Errorf("header bits: %w", err)
	}
	if h.Nonce, err = c.ReadUint32(); err != nil {
		return h, fmt.Errorf("header nonce: %w", err)
	}
	return h, nil
}
