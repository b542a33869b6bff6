package parser

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blkindex/blkindex/internal/address"
	"github.com/blkindex/blkindex/internal/types"
	"github.com/blkindex/blkindex/pkg/util"
)

// parseTransaction decodes one transaction from the cursor. Segwit
// encodings are detected via the 0x00 0x01 marker/flag pair following the
// version; anything else is decoded as a legacy transaction. The txid is
// always the legacy double-SHA256, so witness bytes never affect it.
func (d *Decoder) parseTransaction(c *Cursor) (*types.TxRecord, error) {
	start := c.Pos()
	tx := &types.TxRecord{}

	var err error
	if tx.Version, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("tx version: %w", err)
	}

	segwit := false
	marker, err := c.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("tx marker: %w", err)
	}
	if marker == 0x00 {
		flag, err := c.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("tx flag: %w", err)
		}
		if flag == 0x01 {
			segwit = true
		} else {
			c.Rewind(2)
		}
	} else {
		c.Rewind(1)
	}

	vinCount, err := c.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("vin count: %w", err)
	}
	for i := uint64(0); i < vinCount; i++ {
		vin := &types.VIn{}
		if vin.TxID, err = c.ReadHash32(); err != nil {
			return nil, fmt.Errorf("vin %d prev txid: %w", i, err)
		}
		if vin.VOut, err = c.ReadUint32(); err != nil {
			return nil, fmt.Errorf("vin %d prev vout: %w", i, err)
		}
		scriptLen, err := c.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("vin %d script len: %w", i, err)
		}
		script, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, fmt.Errorf("vin %d script: %w", i, err)
		}
		vin.ScriptSig = util.BytesToHex(script)
		if vin.Sequence, err = c.ReadUint32(); err != nil {
			return nil, fmt.Errorf("vin %d sequence: %w", i, err)
		}
		tx.VIn = append(tx.VIn, vin)
	}

	voutCount, err := c.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("vout count: %w", err)
	}
	for i := uint64(0); i < voutCount; i++ {
		vout := &types.VOut{N: uint32(i)}
		if vout.ValueSat, err = c.ReadUint64(); err != nil {
			return nil, fmt.Errorf("vout %d value: %w", i, err)
		}
		scriptLen, err := c.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("vout %d script len: %w", i, err)
		}
		script, err := c.ReadBytes(int(scriptLen))
		if err != nil {
			return nil, fmt.Errorf("vout %d script: %w", i, err)
		}
		vout.ScriptPubKey = util.BytesToHex(script)
		vout.Address = address.FromScript(script, d.coin)
		tx.VOut = append(tx.VOut, vout)
	}

	if segwit {
		for i, vin := range tx.VIn {
			itemCount, err := c.ReadVarInt()
			if err != nil {
				return nil, fmt.Errorf("vin %d witness count: %w", i, err)
			}
			vin.Witness = make([]string, 0, itemCount)
			for j := uint64(0); j < itemCount; j++ {
				itemLen, err := c.ReadVarInt()
				if err != nil {
					return nil, fmt.Errorf("vin %d witness %d len: %w", i, j, err)
				}
				item, err := c.ReadBytes(int(itemLen))
				if err != nil {
					return nil, fmt.Errorf("vin %d witness %d: %w", i, j, err)
				}
				vin.Witness = append(vin.Witness, util.BytesToHex(item))
			}
		}
	}

	if tx.LockTime, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("tx locktime: %w", err)
	}

	// Legacy txid. For segwit transactions re-serialise without marker,
	// flag, and witnesses; legacy transactions hash their raw bytes.
	var raw []byte
	if segwit {
		raw = serializeLegacy(tx)
	} else {
		raw = c.Slice(start, c.Pos())
	}
	tx.TxID = util.HashToHex(util.DoubleSHA256(raw))

	return tx, nil
}

// serializeLegacy re-serialises a transaction in the pre-segwit layout:
// version, vin, vout, locktime. Used only for txid computation.
func serializeLegacy(tx *types.TxRecord) []byte {
	var buf bytes.Buffer

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], tx.Version)
	buf.Write(u32[:])

	buf.Write(util.WriteVarInt(uint64(len(tx.VIn))))
	for _, vin := range tx.VIn {
		prev, _ := util.HexToBytes(vin.TxID)
		buf.Write(util.ReverseBytes(prev))
		binary.LittleEndian.PutUint32(u32[:], vin.VOut)
		buf.Write(u32[:])
		script, _ := util.HexToBytes(vin.ScriptSig)
		buf.Write(util.WriteVarInt(uint64(len(script))))
		buf.Write(script)
		binary.LittleEndian.PutUint32(u32[:], vin.Sequence)
		buf.Write(u32[:])
	}

	buf.Write(util.WriteVarInt(uint64(len(tx.VOut))))
	for _, vout := range tx.VOut {
		var u64 [8]byte
		binary.LittleEndian.PutUint64(u64[:], vout.ValueSat)
		buf.Write(u64[:])
		script, _ := util.HexToBytes(vout.ScriptPubKey)
		buf.Write(util.WriteVarInt(uint64(len(script))))
		buf.Write(script)
	}

	binary.LittleEndian.PutUint32(u32[:], tx.LockTime)
	buf.Write(u32[:])

	return buf.Bytes()
}
