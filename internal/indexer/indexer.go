package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/blkfile"
	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/config"
	"github.com/blkindex/blkindex/internal/metrics"
	"github.com/blkindex/blkindex/internal/node"
	"github.com/blkindex/blkindex/internal/parser"
	"github.com/blkindex/blkindex/internal/storage"
	"github.com/blkindex/blkindex/internal/types"
)

// Indexer drives the block-file workers for one coin and one run.
type Indexer struct {
	coin   coin.Coin
	cfg    *config.Config
	sink   storage.Sink
	node   node.Client
	dec    *parser.Decoder
	logger *zap.Logger

	processed atomic.Int64
}

// New creates an indexer wired to the given sink and node client.
func New(cn coin.Coin, cfg *config.Config, sink storage.Sink, nodeClient node.Client, logger *zap.Logger) *Indexer {
	return &Indexer{
		coin:   cn,
		cfg:    cfg,
		sink:   sink,
		node:   nodeClient,
		dec:    parser.NewDecoder(cn, logger),
		logger: logger,
	}
}

// Processed returns the number of blocks handed to the sink so far.
func (ix *Indexer) Processed() int64 {
	return ix.processed.Load()
}

// Run executes one full indexing pass: learn the height range, fan out over
// the block files, then verify height coverage. Only the initial node query
// and the block-file listing can fail the run.
func (ix *Indexer) Run(ctx context.Context) error {
	info, err := ix.node.BlockchainInfo(ctx, ix.coin)
	if err != nil {
		return fmt.Errorf("query blockchain info: %w", err)
	}

	expected := expectedBlocks(info)
	ix.logger.Info("blocks detected",
		zap.String("coin", ix.coin.String()),
		zap.Int64("count", expected),
		zap.Uint32("tip", info.Blocks),
		zap.Uint32("prune_height", info.PruneHeight),
	)

	files, err := ix.blockFiles()
	if err != nil {
		return err
	}
	ix.logger.Info("starting indexing",
		zap.String("coin", ix.coin.String()),
		zap.Int("files", len(files)),
	)

	ix.indexFiles(ctx, expected, files)

	ix.logger.Info("indexing completed",
		zap.String("coin", ix.coin.String()),
		zap.Int64("processed", ix.processed.Load()),
	)

	if ix.cfg.StoreBlocks {
		ix.verifyIndexed(ctx, info.PruneHeight, info.Blocks)
	}
	return nil
}

// expectedBlocks is the count that drives the progress bar. The files on
// disk are not required to cover exactly this range.
func expectedBlocks(info *node.Info) int64 {
	if info.Blocks < info.PruneHeight {
		return 0
	}
	return int64(info.Blocks-info.PruneHeight) + 1
}

// blockFiles enumerates blk*.dat in lexical order.
func (ix *Indexer) blockFiles() ([]string, error) {
	dir := ix.cfg.Node(ix.coin).BlocksPath
	files, err := filepath.Glob(filepath.Join(dir, "blk*.dat"))
	if err != nil {
		return nil, fmt.Errorf("list block files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (ix *Indexer) indexFiles(ctx context.Context, expected int64, files []string) {
	obs := newProgress(expected, &ix.processed)
	obs.start()
	defer obs.stopAndJoin()

	workers := ix.cfg.MaxWorkers
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := ix.indexFile(ctx, path); err != nil {
					ix.logger.Error("block file failed",
						zap.String("file", filepath.Base(path)),
						zap.Error(err),
					)
					metrics.FileErrors.Inc()
					continue
				}
				metrics.FilesProcessed.Inc()
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
}

// indexFile parses one blk*.dat file and pushes its blocks to the sink.
// Frame-level errors end the file without failing it; only the initial
// open is reported as an error.
func (ix *Indexer) indexFile(ctx context.Context, path string) error {
	r, err := blkfile.Open(path, ix.coin)
	if err != nil {
		return err
	}
	defer r.Close()

	var batch []*types.BlockRecord
	for {
		frame, err := r.Next()
		if err != nil {
			// All three cases mark the end of useful data in this file:
			// clean EOF, a partially written tail, or foreign bytes after
			// the last frame.
			var magicErr *blkfile.InvalidMagicError
			switch {
			case errors.Is(err, io.EOF):
			case errors.Is(err, blkfile.ErrTruncatedFrame), errors.As(err, &magicErr):
				ix.logger.Debug("stopping at end of file",
					zap.String("file", filepath.Base(path)),
					zap.Error(err),
				)
			}
			break
		}

		block, err := ix.dec.ParseBlock(frame, nil)
		if err != nil {
			ix.logger.Debug("block parse error",
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
			continue
		}

		if ix.cfg.UseChunks {
			batch = append(batch, block)
			if len(batch) >= ix.cfg.ChunkSize {
				ix.flushBatch(ctx, batch)
				batch = batch[:0]
			}
		} else {
			ix.storeBlock(ctx, block)
		}
	}

	if len(batch) > 0 {
		ix.flushBatch(ctx, batch)
	}
	return nil
}

// flushBatch writes one chunk of blocks and their transactions. Failures
// are logged and the batch is dropped; the run continues. The processed
// counter is advanced only after the sink calls so progress never
// overstates persisted work.
func (ix *Indexer) flushBatch(ctx context.Context, blocks []*types.BlockRecord) {
	if ix.cfg.StoreBlocks {
		if err := ix.sink.StoreBlocksBatch(ctx, blocks); err != nil {
			ix.logger.Warn("block batch insert failed", zap.Int("blocks", len(blocks)), zap.Error(err))
			metrics.StorageErrors.Inc()
		} else {
			metrics.BatchesFlushed.WithLabelValues("blocks").Inc()
		}
	}

	docs := make([]*types.TxDocument, 0, len(blocks))
	for _, b := range blocks {
		docs = append(docs, ix.buildTxDocuments(b)...)
	}
	ix.storeTxDocs(ctx, docs)

	ix.processed.Add(int64(len(blocks)))
	metrics.BlocksIndexed.Add(float64(len(blocks)))
}

// storeBlock writes a single block and its transactions immediately.
func (ix *Indexer) storeBlock(ctx context.Context, block *types.BlockRecord) {
	if ix.cfg.StoreBlocks {
		if err := ix.sink.StoreBlock(ctx, block); err != nil {
			ix.logger.Warn("block insert failed", zap.String("hash", block.Hash), zap.Error(err))
			metrics.StorageErrors.Inc()
		}
	}
	ix.storeTxDocs(ctx, ix.buildTxDocuments(block))

	ix.processed.Add(1)
	metrics.BlocksIndexed.Inc()
}

func (ix *Indexer) storeTxDocs(ctx context.Context, docs []*types.TxDocument) {
	if len(docs) == 0 {
		return
	}
	if err := ix.sink.StoreTxBatch(ctx, docs); err != nil {
		ix.logger.Warn("tx batch insert failed", zap.Int("txs", len(docs)), zap.Error(err))
		metrics.StorageErrors.Inc()
		return
	}
	metrics.BatchesFlushed.WithLabelValues("transactions").Inc()
	metrics.TransactionsIndexed.Add(float64(len(docs)))
}

// verifyIndexed reports height-coverage gaps. Reporting only; gaps do not
// fail the run.
func (ix *Indexer) verifyIndexed(ctx context.Context, lo, hi uint32) {
	if hi < lo {
		return
	}
	heights, err := ix.sink.IndexedHeights(ctx, lo, hi)
	if err != nil {
		ix.logger.Warn("height verification query failed", zap.Error(err))
		return
	}

	present := make(map[uint32]struct{}, len(heights))
	for _, h := range heights {
		present[h] = struct{}{}
	}

	missing := 0
	for h := lo; ; h++ {
		if _, ok := present[h]; !ok {
			missing++
		}
		if h == hi {
			break
		}
	}

	metrics.MissingHeights.Set(float64(missing))
	if missing > 0 {
		ix.logger.Error("missing blocks",
			zap.String("coin", ix.coin.String()),
			zap.Int("count", missing),
		)
		return
	}
	ix.logger.Info("all blocks indexed",
		zap.String("coin", ix.coin.String()),
		zap.Uint32("from", lo),
		zap.Uint32("to", hi),
	)
}
