package types

// Records produced by the block-file decoder. They are immutable after
// construction; workers hand them to the storage sink and drop them.

// HeaderRecord is a decoded 80-byte block header. Hashes are in display
// order (byte-reversed hex).
type HeaderRecord struct {
	Version           uint32 `json:"version" bson:"version"`
	PreviousBlockHash string `json:"previous_block_hash" bson:"previous_block_hash"`
	MerkleRoot        string `json:"merkle_root" bson:"merkle_root"`
	Timestamp         uint32 `json:"timestamp" bson:"timestamp"`
	Bits              uint32 `json:"bits" bson:"bits"`
	Nonce             uint32 `json:"nonce" bson:"nonce"`
}

// BlockRecord is a fully decoded block. Height is nil when it could not be
// recovered from the coinbase scriptSig.
type BlockRecord struct {
	Height    *uint32      `json:"height" bson:"height"`
	Hash      string       `json:"hash" bson:"hash"`
	Coin      string       `json:"coin" bson:"coin"`
	Timestamp uint32       `json:"timestamp" bson:"timestamp"`
	TxCount   uint32       `json:"tx_count" bson:"tx_count"`
	Header    HeaderRecord `json:"header" bson:"header"`
	Tx        []*TxRecord  `json:"tx" bson:"tx"`
}

// TxRecord is a decoded transaction. TxID is always the legacy (non-witness)
// double-SHA256, byte-reversed hex.
type TxRecord struct {
	TxID     string  `json:"txid" bson:"txid"`
	Version  uint32  `json:"version" bson:"version"`
	VIn      []*VIn  `json:"vin" bson:"vin"`
	VOut     []*VOut `json:"vout" bson:"vout"`
	LockTime uint32  `json:"locktime" bson:"locktime"`
}

// VIn is a transaction input. Witness is nil for legacy inputs.
type VIn struct {
	TxID      string   `json:"txid" bson:"txid"`
	VOut      uint32   `json:"vout" bson:"vout"`
	ScriptSig string   `json:"script_sig" bson:"script_sig"`
	Sequence  uint32   `json:"sequence" bson:"sequence"`
	Witness   []string `json:"witness,omitempty" bson:"witness,omitempty"`
}

const zeroTxID = "0000000000000000000000000000000000000000000000000000000000000000"

// IsCoinbase reports whether the input is the coinbase sentinel: a zero
// previous txid and output index 0xffffffff.
func (v *VIn) IsCoinbase() bool {
	return v.TxID == zeroTxID && v.VOut == 0xffffffff
}

// VOut is a transaction output. Address is nil when the script does not
// match a known template.
type VOut struct {
	N            uint32  `json:"n" bson:"n"`
	ValueSat     uint64  `json:"value_sat" bson:"value_sat"`
	ScriptPubKey string  `json:"script_pub_key" bson:"script_pub_key"`
	Address      *string `json:"address" bson:"address"`
}

// Value returns the output value in whole-coin units.
func (v *VOut) Value() float64 {
	return float64(v.ValueSat) / 1e8
}
