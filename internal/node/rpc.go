package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/config"
)

const rpcRetries = 3

type endpoint struct {
	url      string
	user     string
	password string
}

// RPCClient implements Client using JSON-RPC over HTTP.
type RPCClient struct {
	endpoints map[coin.Coin]endpoint
	client    *http.Client
	limiter   *rate.Limiter
	idSeq     atomic.Int64
	logger    *zap.Logger
}

// NewRPCClient builds a JSON-RPC node client from the configured
// credentials. Coins without a complete credential set are skipped.
func NewRPCClient(cfg *config.Config, logger *zap.Logger) *RPCClient {
	endpoints := make(map[coin.Coin]endpoint)
	for _, cn := range []coin.Coin{coin.Bitcoin, coin.Litecoin} {
		nc := cfg.Node(cn)
		if !nc.RPCConfigured() {
			continue
		}
		endpoints[cn] = endpoint{
			url:      fmt.Sprintf("http://%s:%d", nc.RPCHost, nc.RPCPort),
			user:     nc.RPCUser,
			password: nc.RPCPassword,
		}
	}
	return &RPCClient{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: cfg.RPCTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxConnections,
				MaxIdleConnsPerHost: cfg.MaxKeepaliveConnections,
			},
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 4),
		logger:  logger,
	}
}

// call makes a JSON-RPC call and returns the raw result. Transport errors
// are retried with a short backoff; RPC-level errors are not.
func (c *RPCClient) call(ctx context.Context, cn coin.Coin, method string, params ...interface{}) (json.RawMessage, error) {
	ep, ok := c.endpoints[cn]
	if !ok {
		return nil, fmt.Errorf("no RPC endpoint configured for %s", cn)
	}

	req := RPCRequest{
		JSONRPC: "1.0",
		ID:      c.idSeq.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < rpcRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := c.do(ctx, ep, body)
		if err == nil {
			return result, nil
		}
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, err
		}
		lastErr = err
		c.logger.Debug("RPC transport error, retrying",
			zap.String("method", method),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("RPC %s failed after %d attempts: %w", method, rpcRetries, lastErr)
}

func (c *RPCClient) do(ctx context.Context, ep endpoint, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", ep.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(ep.user, ep.password)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w (body: %s)", err, string(respBody))
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// BlockchainInfo queries getblockchaininfo and reduces it to the height
// range the indexer needs.
func (c *RPCClient) BlockchainInfo(ctx context.Context, cn coin.Coin) (*Info, error) {
	result, err := c.call(ctx, cn, "getblockchaininfo")
	if err != nil {
		return nil, fmt.Errorf("getblockchaininfo: %w", err)
	}

	var info blockchainInfoResult
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, fmt.Errorf("unmarshal blockchain info: %w", err)
	}
	return info.toInfo(), nil
}
