package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blkindex/blkindex/internal/coin"
)

// Info is the height range learned from the node at pipeline start.
// PruneHeight is zero for unpruned nodes.
type Info struct {
	Blocks      uint32
	PruneHeight uint32
}

// Client answers the single height-range query the indexer makes.
// Implementations talk JSON-RPC to the node or shell out to its CLI.
type Client interface {
	BlockchainInfo(ctx context.Context, c coin.Coin) (*Info, error)
}

// blockchainInfoResult is the subset of getblockchaininfo both client
// implementations consume.
type blockchainInfoResult struct {
	Blocks      uint32 `json:"blocks"`
	Pruned      bool   `json:"pruned"`
	PruneHeight uint32 `json:"pruneheight"`
}

func (r *blockchainInfoResult) toInfo() *Info {
	info := &Info{Blocks: r.Blocks}
	if r.Pruned {
		info.PruneHeight = r.PruneHeight
	}
	return info
}

// RPCRequest represents a JSON-RPC request.
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// RPCResponse represents a JSON-RPC response.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}
