package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/config"
	"github.com/blkindex/blkindex/internal/node"
	"github.com/blkindex/blkindex/internal/storage"
	"github.com/blkindex/blkindex/testutil"
)

func writeRaw(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func writeHeightRange(t *testing.T, dir, name string, lo, hi uint32) {
	t.Helper()
	payloads := make([][]byte, 0, hi-lo+1)
	for h := lo; h <= hi; h++ {
		payloads = append(payloads, testutil.TestBlock(h))
	}
	testutil.WriteBlockFile(t, dir, name, coin.Bitcoin.Magic(), payloads)
}

func TestRunChunkedPipeline(t *testing.T) {
	dir := t.TempDir()
	// 2,500 blocks across two files: 2,000 + 500.
	writeHeightRange(t, dir, "blk00000.dat", 0, 1999)
	writeHeightRange(t, dir, "blk00001.dat", 2000, 2499)

	cfg := &config.Config{
		UseChunks:   true,
		ChunkSize:   1000,
		MaxWorkers:  4,
		StoreBlocks: true,
		Bitcoin:     config.NodeConfig{BlocksPath: dir},
	}
	sink := storage.NewMockSink()
	mockNode := node.NewMockClient()
	mockNode.Info = &node.Info{Blocks: 2499, PruneHeight: 0}

	ix := New(coin.Bitcoin, cfg, sink, mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ix.Processed(); got != 2500 {
		t.Errorf("processed counter = %d, want 2500", got)
	}
	if mockNode.Calls != 1 {
		t.Errorf("node queried %d times, want once", mockNode.Calls)
	}

	// 1000 + 1000 from the first file, 500 from the second.
	sizes := sink.BatchSizes()
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	if len(sizes) != 3 || sizes[0] != 1000 || sizes[1] != 1000 || sizes[2] != 500 {
		t.Errorf("block batch sizes = %v, want [1000 1000 500]", sizes)
	}
	if sink.TxBatches == 0 {
		t.Error("no transaction batches stored")
	}
	if len(sink.TxDocs) != 2500 {
		t.Errorf("tx documents = %d, want 2500", len(sink.TxDocs))
	}

	// Every height derivable from the coinbase must be present.
	heights, err := sink.IndexedHeights(context.Background(), 0, 2499)
	if err != nil {
		t.Fatal(err)
	}
	if len(heights) != 2500 {
		t.Errorf("indexed heights = %d, want 2500", len(heights))
	}
}

func TestRunDirectMode(t *testing.T) {
	dir := t.TempDir()
	writeHeightRange(t, dir, "blk00000.dat", 0, 9)

	cfg := &config.Config{
		MaxWorkers: 2,
		Bitcoin:    config.NodeConfig{BlocksPath: dir},
	}
	sink := storage.NewMockSink()
	mockNode := node.NewMockClient()
	mockNode.Info = &node.Info{Blocks: 9}

	ix := New(coin.Bitcoin, cfg, sink, mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ix.Processed(); got != 10 {
		t.Errorf("processed counter = %d, want 10", got)
	}
	// STORE_BLOCKS is off: transactions only.
	if len(sink.Blocks) != 0 || len(sink.BlockBatches) != 0 {
		t.Errorf("blocks stored = %d/%d batches, want none", len(sink.Blocks), len(sink.BlockBatches))
	}
	if sink.TxBatches != 10 {
		t.Errorf("tx batches = %d, want one per block", sink.TxBatches)
	}
}

func TestRunStoreBlocksDirect(t *testing.T) {
	dir := t.TempDir()
	writeHeightRange(t, dir, "blk00000.dat", 0, 4)

	cfg := &config.Config{
		MaxWorkers:  1,
		StoreBlocks: true,
		Bitcoin:     config.NodeConfig{BlocksPath: dir},
	}
	sink := storage.NewMockSink()
	mockNode := node.NewMockClient()
	mockNode.Info = &node.Info{Blocks: 4}

	ix := New(coin.Bitcoin, cfg, sink, mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.Blocks) != 5 {
		t.Errorf("blocks stored = %d, want 5", len(sink.Blocks))
	}
	if len(sink.BlockBatches) != 0 {
		t.Errorf("batch writes = %d, want 0 in direct mode", len(sink.BlockBatches))
	}
}

func TestRunNodeFailureIsFatal(t *testing.T) {
	mockNode := node.NewMockClient()
	mockNode.Err = context.DeadlineExceeded

	ix := New(coin.Bitcoin, &config.Config{}, storage.NewMockSink(), mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err == nil {
		t.Error("node failure at startup must fail the run")
	}
}

func TestRunStorageFailureIsNot(t *testing.T) {
	dir := t.TempDir()
	writeHeightRange(t, dir, "blk00000.dat", 0, 4)

	cfg := &config.Config{
		MaxWorkers:  1,
		StoreBlocks: true,
		Bitcoin:     config.NodeConfig{BlocksPath: dir},
	}
	sink := storage.NewMockSink()
	sink.StoreBlockErr = context.DeadlineExceeded
	sink.StoreTxErr = context.DeadlineExceeded
	mockNode := node.NewMockClient()
	mockNode.Info = &node.Info{Blocks: 4}

	ix := New(coin.Bitcoin, cfg, sink, mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err != nil {
		t.Errorf("storage failures must not fail the run: %v", err)
	}
	// Dropped batches still count as processed parse work.
	if got := ix.Processed(); got != 5 {
		t.Errorf("processed counter = %d, want 5", got)
	}
}

func TestRunTruncatedFileKeepsCompleteBlocks(t *testing.T) {
	dir := t.TempDir()
	frame := testutil.FrameBlock(coin.Bitcoin.Magic(), testutil.TestBlock(0))
	partial := testutil.FrameBlock(coin.Bitcoin.Magic(), testutil.TestBlock(1))
	data := append(frame, partial[:len(partial)-10]...)
	writeRaw(t, dir, "blk00000.dat", data)

	cfg := &config.Config{
		MaxWorkers: 1,
		Bitcoin:    config.NodeConfig{BlocksPath: dir},
	}
	sink := storage.NewMockSink()
	mockNode := node.NewMockClient()
	mockNode.Info = &node.Info{Blocks: 1}

	ix := New(coin.Bitcoin, cfg, sink, mockNode, zap.NewNop())
	if err := ix.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := ix.Processed(); got != 1 {
		t.Errorf("processed counter = %d, want 1", got)
	}
}

func TestExpectedBlocks(t *testing.T) {
	tests := []struct {
		info node.Info
		want int64
	}{
		{node.Info{Blocks: 2499, PruneHeight: 0}, 2500},
		{node.Info{Blocks: 800000, PruneHeight: 750000}, 50001},
		{node.Info{Blocks: 0, PruneHeight: 0}, 1},
		{node.Info{Blocks: 10, PruneHeight: 20}, 0},
	}
	for _, tt := range tests {
		if got := expectedBlocks(&tt.info); got != tt.want {
			t.Errorf("expectedBlocks(%+v) = %d, want %d", tt.info, got, tt.want)
		}
	}
}
