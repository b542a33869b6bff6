package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/config"
	"github.com/blkindex/blkindex/internal/types"
)

// Sink is the narrow write-only contract the pipeline depends on. Batch
// writes are unordered; partial failures are the caller's to log and drop.
type Sink interface {
	StoreBlock(ctx context.Context, block *types.BlockRecord) error
	StoreBlocksBatch(ctx context.Context, blocks []*types.BlockRecord) error
	StoreTxBatch(ctx context.Context, txs []*types.TxDocument) error

	// IndexedHeights returns the subset of [lo, hi] present in the store.
	IndexedHeights(ctx context.Context, lo, hi uint32) ([]uint32, error)

	Close(ctx context.Context) error
}

// New selects and connects the configured storage backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Sink, error) {
	switch strings.ToLower(cfg.DatabaseType) {
	case "mongodb":
		return NewMongoSink(ctx, cfg.MongoURI(), cfg.MongoDatabase, logger)
	case "bolt":
		return NewBoltSink(cfg.BoltPath, logger)
	}
	return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", cfg.DatabaseType)
}
