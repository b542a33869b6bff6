package testutil

import "encoding/binary"

// GenesisBlockHex is the raw Bitcoin mainnet genesis block (285 bytes).
const GenesisBlockHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c0101000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

// GenesisBlockHash is the display-order hash of the genesis block header.
const GenesisBlockHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

// GenesisCoinbaseTxID is the txid of the genesis coinbase transaction.
const GenesisCoinbaseTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

// Block170TxHex is the second transaction of Bitcoin block 170, the first
// coin transfer on the network (txid f4184fc5...).
const Block170TxHex = "0100000001c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd3704000000004847304402204e45e16932b8af514961a1d3a1a25fdf3f4f7732e9d624c6c61548ab5fb8cd410220181522ec8eca07de4860a4acdd12909d831cc56cbbac4622082221a8768d1d0901ffffffff0200ca9a3b00000000434104ae1a62fe09c5f51b13905f07f06b99a2f7159b2225f374cd378d71302fa28414e7aab37397f554a7df5f142c21c1b7303b8a0626f1baded5c72a704f7e6cd84cac00286bee0000000043410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"

// Block170TxID is the txid of Block170TxHex.
const Block170TxID = "f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16"

// Block170PrevTxID is the previous output spent by Block170TxHex.
const Block170PrevTxID = "0437cd7f8525ceed2324359c2d0ba26006d92d856a9c20fa0241106ee5a597c9"

// SegwitTxHex is a minimal hand-built segwit transaction: one input with a
// two-item witness, one P2WPKH output.
const SegwitTxHex = "0100000000010111111111111111111111111111111111111111111111111111111111111111110000000000ffffffff0100e1f50500000000160014751e76e8199196d454941c45d1b3a323f1433bd60202aabb03ccddee00000000"

// SegwitTxID is the legacy (non-witness) txid of SegwitTxHex.
const SegwitTxID = "759a8288cccee221b4c65c9469aa5212156b2b8182b9f1b163da9d2a92e74698"

// TestBlock builds a minimal synthetic block: an 80-byte header with a
// height-dependent nonce and a single coinbase transaction whose scriptSig
// carries the height as a BIP-34 push, paying one P2PKH output.
func TestBlock(height uint32) []byte {
	block := make([]byte, 0, 200)

	// Header: version, prev hash, merkle root, timestamp, bits, nonce.
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 1)
	block = append(block, u32[:]...)
	block = append(block, make([]byte, 64)...)
	binary.LittleEndian.PutUint32(u32[:], 1231006505)
	block = append(block, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], 0x1d00ffff)
	block = append(block, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], height)
	block = append(block, u32[:]...)

	// One transaction.
	block = append(block, 0x01)
	block = append(block, coinbaseTx(height)...)
	return block
}

func coinbaseTx(height uint32) []byte {
	tx := make([]byte, 0, 110)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 1)
	tx = append(tx, u32[:]...)

	// One input: coinbase sentinel with a BIP-34 height push.
	tx = append(tx, 0x01)
	tx = append(tx, make([]byte, 32)...)
	tx = append(tx, 0xff, 0xff, 0xff, 0xff)
	tx = append(tx, 0x04, 0x03, byte(height), byte(height>>8), byte(height>>16))
	tx = append(tx, 0xff, 0xff, 0xff, 0xff)

	// One P2PKH output paying the 50 BTC subsidy.
	tx = append(tx, 0x01)
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], 50_0000_0000)
	tx = append(tx, u64[:]...)
	tx = append(tx, 0x19, 0x76, 0xa9, 0x14)
	tx = append(tx, make([]byte, 20)...)
	tx = append(tx, 0x88, 0xac)

	// Locktime.
	tx = append(tx, 0x00, 0x00, 0x00, 0x00)
	return tx
}
