package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/config"
)

// CLIClient implements Client by invoking the node's command-line binary
// as a subprocess.
type CLIClient struct {
	paths  map[coin.Coin]string
	logger *zap.Logger
}

// NewCLIClient builds a subprocess-backed node client from the configured
// binary paths.
func NewCLIClient(cfg *config.Config, logger *zap.Logger) *CLIClient {
	return &CLIClient{
		paths: map[coin.Coin]string{
			coin.Bitcoin:  cfg.Bitcoin.CLIPath,
			coin.Litecoin: cfg.Litecoin.CLIPath,
		},
		logger: logger,
	}
}

// run invokes the CLI binary and decodes its JSON output into out.
func (c *CLIClient) run(ctx context.Context, cn coin.Coin, out interface{}, args ...string) error {
	path := c.paths[cn]
	if path == "" {
		return fmt.Errorf("no CLI path configured for %s", cn)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%s %s: %s", path, strings.Join(args, " "), msg)
	}

	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("decode %s output: %w", args[0], err)
	}
	return nil
}

// BlockchainInfo runs getblockchaininfo through the CLI binary.
func (c *CLIClient) BlockchainInfo(ctx context.Context, cn coin.Coin) (*Info, error) {
	var info blockchainInfoResult
	if err := c.run(ctx, cn, &info, "getblockchaininfo"); err != nil {
		return nil, err
	}
	return info.toInfo(), nil
}
