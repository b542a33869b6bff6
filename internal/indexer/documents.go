package indexer

import (
	"github.com/blkindex/blkindex/internal/address"
	"github.com/blkindex/blkindex/internal/types"
	"github.com/blkindex/blkindex/pkg/util"
)

var coinbaseAddress = "coinbase"

// buildTxDocuments flattens a block's transactions into the per-tx records
// the sink stores. Input addresses are best-effort: the coinbase sentinel
// is labelled "coinbase", other inputs get a scriptSig-derived address when
// one can be recovered.
func (ix *Indexer) buildTxDocuments(block *types.BlockRecord) []*types.TxDocument {
	docs := make([]*types.TxDocument, 0, len(block.Tx))

	for _, tx := range block.Tx {
		doc := &types.TxDocument{
			TxID:        tx.TxID,
			BlockHash:   block.Hash,
			BlockHeight: block.Height,
			Timestamp:   block.Timestamp,
			VIn:         make([]types.VInDoc, 0, len(tx.VIn)),
			VOut:        make([]types.VOutDoc, 0, len(tx.VOut)),
		}

		for _, vin := range tx.VIn {
			entry := types.VInDoc{TxID: vin.TxID, VOut: vin.VOut}
			if vin.IsCoinbase() {
				entry.Address = &coinbaseAddress
			} else if script, err := util.HexToBytes(vin.ScriptSig); err == nil {
				entry.Address = address.FromScriptSig(script, ix.coin)
			}
			doc.VIn = append(doc.VIn, entry)
		}

		for _, vout := range tx.VOut {
			addr := vout.Address
			if addr == nil && vout.ScriptPubKey != "" {
				if script, err := util.HexToBytes(vout.ScriptPubKey); err == nil {
					addr = address.FromScript(script, ix.coin)
				}
			}
			doc.VOut = append(doc.VOut, types.VOutDoc{
				N:       vout.N,
				Address: addr,
				Value:   vout.Value(),
			})
		}

		docs = append(docs, doc)
	}
	return docs
}
