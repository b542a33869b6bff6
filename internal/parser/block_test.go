package parser

import (
	"testing"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/testutil"
)

func newTestDecoder() *Decoder {
	return NewDecoder(coin.Bitcoin, zap.NewNop())
}

func TestParseGenesisBlock(t *testing.T) {
	raw := testutil.MustDecodeHex(t, testutil.GenesisBlockHex)
	if len(raw) != 285 {
		t.Fatalf("genesis fixture is %d bytes, want 285", len(raw))
	}

	block, err := newTestDecoder().ParseBlock(raw, nil)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}

	if block.Hash != testutil.GenesisBlockHash {
		t.Errorf("hash = %s, want %s", block.Hash, testutil.GenesisBlockHash)
	}
	if block.TxCount != 1 || len(block.Tx) != 1 {
		t.Fatalf("tx count = %d (%d parsed), want 1", block.TxCount, len(block.Tx))
	}
	if block.Tx[0].TxID != testutil.GenesisCoinbaseTxID {
		t.Errorf("coinbase txid = %s, want %s", block.Tx[0].TxID, testutil.GenesisCoinbaseTxID)
	}
	if block.Coin != "bitcoin" {
		t.Errorf("coin = %s, want bitcoin", block.Coin)
	}

	// Header fields.
	h := block.Header
	if h.Version != 1 {
		t.Errorf("header version = %d, want 1", h.Version)
	}
	zero := "0000000000000000000000000000000000000000000000000000000000000000"
	if h.PreviousBlockHash != zero {
		t.Errorf("prev hash = %s, want all zeros", h.PreviousBlockHash)
	}
	// The genesis merkle root equals its only txid.
	if h.MerkleRoot != testutil.GenesisCoinbaseTxID {
		t.Errorf("merkle root = %s, want %s", h.MerkleRoot, testutil.GenesisCoinbaseTxID)
	}
	if h.Timestamp != 1231006505 || block.Timestamp != 1231006505 {
		t.Errorf("timestamp = %d/%d, want 1231006505", h.Timestamp, block.Timestamp)
	}
	if h.Bits != 0x1d00ffff {
		t.Errorf("bits = %08x, want 1d00ffff", h.Bits)
	}

	// Coinbase input and output.
	cb := block.Tx[0]
	if len(cb.VIn) != 1 || !cb.VIn[0].IsCoinbase() {
		t.Fatal("genesis coinbase input not detected")
	}
	if len(cb.VOut) != 1 {
		t.Fatalf("genesis vout count = %d, want 1", len(cb.VOut))
	}
	out := cb.VOut[0]
	if out.ValueSat != 50_0000_0000 {
		t.Errorf("value = %d sat, want 5000000000", out.ValueSat)
	}
	if out.Address == nil || *out.Address != "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa" {
		t.Errorf("address = %v, want 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", out.Address)
	}

	// The genesis coinbase scriptSig happens to start with a 4-byte push,
	// so BIP-34 extraction reads the bits field as a height.
	if block.Height == nil || *block.Height != 0x1d00ffff {
		t.Errorf("height = %v, want 486604799", block.Height)
	}
}

func TestParseBlockPreassignedHeight(t *testing.T) {
	raw := testutil.MustDecodeHex(t, testutil.GenesisBlockHex)
	h := uint32(0)
	block, err := newTestDecoder().ParseBlock(raw, &h)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if block.Height == nil || *block.Height != 0 {
		t.Errorf("height = %v, want preassigned 0", block.Height)
	}
}

func TestParseBlockTooShort(t *testing.T) {
	if _, err := newTestDecoder().ParseBlock(make([]byte, 79), nil); err == nil {
		t.Error("ParseBlock should fail on payload shorter than a header")
	}
}

func TestParseBlockPartialTransactions(t *testing.T) {
	// Claim two transactions but provide only one: the decoder must keep
	// the coinbase and drop the rest without failing the block.
	raw := testutil.TestBlock(5)
	raw[80] = 0x02

	block, err := newTestDecoder().ParseBlock(raw, nil)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if block.TxCount != 1 || len(block.Tx) != 1 {
		t.Errorf("partial block kept %d txs, want 1", len(block.Tx))
	}
	if block.Height == nil || *block.Height != 5 {
		t.Errorf("height = %v, want 5", block.Height)
	}
}

func TestCoinbaseHeight(t *testing.T) {
	makeBlock := func(scriptSig []byte) []byte {
		var block []byte
		block = append(block, make([]byte, 80)...)
		block = append(block, 0x01)
		// version
		block = append(block, 0x01, 0x00, 0x00, 0x00)
		// one coinbase input
		block = append(block, 0x01)
		block = append(block, make([]byte, 32)...)
		block = append(block, 0xff, 0xff, 0xff, 0xff)
		block = append(block, byte(len(scriptSig)))
		block = append(block, scriptSig...)
		block = append(block, 0xff, 0xff, 0xff, 0xff)
		// no outputs, locktime
		block = append(block, 0x00)
		block = append(block, 0x00, 0x00, 0x00, 0x00)
		return block
	}

	tests := []struct {
		name      string
		scriptSig []byte
		want      *uint32
	}{
		{"three byte push", []byte{0x03, 0x10, 0x27, 0x00}, testutil.Uint32Ptr(10000)},
		{"single byte push", []byte{0x01, 0x2a}, testutil.Uint32Ptr(42)},
		{"empty script", nil, nil},
		{"zero push", []byte{0x00, 0x01, 0x02}, nil},
		{"push longer than eight", []byte{0x09, 1, 2, 3, 4, 5, 6, 7, 8, 9}, nil},
		{"push past end of script", []byte{0x05, 0x01}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := newTestDecoder().ParseBlock(makeBlock(tt.scriptSig), nil)
			if err != nil {
				t.Fatalf("ParseBlock error: %v", err)
			}
			switch {
			case tt.want == nil && block.Height != nil:
				t.Errorf("height = %d, want nil", *block.Height)
			case tt.want != nil && block.Height == nil:
				t.Errorf("height = nil, want %d", *tt.want)
			case tt.want != nil && *block.Height != *tt.want:
				t.Errorf("height = %d, want %d", *block.Height, *tt.want)
			}
		})
	}
}
