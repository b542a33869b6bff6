package parser

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/types"
	"github.com/blkindex/blkindex/pkg/util"
)

// Decoder turns raw block payloads into structured records for one coin.
type Decoder struct {
	coin   coin.Coin
	logger *zap.Logger
}

// NewDecoder creates a block decoder for the given coin.
func NewDecoder(c coin.Coin, logger *zap.Logger) *Decoder {
	return &Decoder{coin: c, logger: logger}
}

// ParseBlock decodes a raw block payload. If height is nil it is recovered
// from the coinbase scriptSig via BIP-34 when possible.
//
// A transaction decode error does not fail the block: the payload is likely
// misaligned past that point, so the block is returned with the
// transactions parsed so far and the remainder is skipped.
func (d *Decoder) ParseBlock(raw []byte, height *uint32) (*types.BlockRecord, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("block payload %d bytes: %w", len(raw), ErrUnexpectedEOF)
	}

	// The hash is the double-SHA256 of the exact 80 header bytes.
	hash := util.HashToHex(util.DoubleSHA256(raw[:headerSize]))

	c := NewCursor(raw)
	header, err := parseHeader(c)
	if err != nil {
		return nil, err
	}

	txCount, err := c.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("tx count: %w", err)
	}

	txs := make([]*types.TxRecord, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx, err := d.parseTransaction(c)
		if err != nil {
			d.logger.Debug("transaction decode aborted",
				zap.String("block", hash),
				zap.Uint64("index", i),
				zap.Error(err),
			)
			break
		}
		txs = append(txs, tx)
	}

	if height == nil && len(txs) > 0 {
		height = coinbaseHeight(txs[0])
	}

	return &types.BlockRecord{
		Height:    height,
		Hash:      hash,
		Coin:      d.coin.String(),
		Timestamp: header.Timestamp,
		TxCount:   uint32(len(txs)),
		Header:    header,
		Tx:        txs,
	}, nil
}

// coinbaseHeight extracts the BIP-34 height push from the coinbase
// scriptSig. Returns nil when the first push is empty, longer than eight
// bytes, or runs past the script.
func coinbaseHeight(coinbase *types.TxRecord) *uint32 {
	if len(coinbase.VIn) == 0 {
		return nil
	}
	script, err := util.HexToBytes(coinbase.VIn[0].ScriptSig)
	if err != nil || len(script) == 0 {
		return nil
	}
	pushLen := int(script[0])
	if pushLen < 1 || pushLen > 8 || pushLen > len(script)-1 {
		return nil
	}
	var height uint32
	for i, b := range script[1 : 1+pushLen] {
		height |= uint32(b) << (8 * i)
	}
	return &height
}
