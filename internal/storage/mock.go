package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/blkindex/blkindex/internal/types"
)

// MockSink implements Sink for testing. It records everything it is handed
// and counts batch calls.
type MockSink struct {
	mu sync.Mutex

	Blocks       []*types.BlockRecord
	TxDocs       []*types.TxDocument
	BlockBatches [][]*types.BlockRecord
	TxBatches    int

	// Error overrides
	StoreBlockErr error
	StoreBatchErr error
	StoreTxErr    error
	IndexedErr    error
}

// NewMockSink creates an empty in-memory sink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) StoreBlock(_ context.Context, block *types.BlockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreBlockErr != nil {
		return m.StoreBlockErr
	}
	m.Blocks = append(m.Blocks, block)
	return nil
}

func (m *MockSink) StoreBlocksBatch(_ context.Context, blocks []*types.BlockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreBatchErr != nil {
		return m.StoreBatchErr
	}
	batch := make([]*types.BlockRecord, len(blocks))
	copy(batch, blocks)
	m.BlockBatches = append(m.BlockBatches, batch)
	m.Blocks = append(m.Blocks, batch...)
	return nil
}

func (m *MockSink) StoreTxBatch(_ context.Context, txs []*types.TxDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreTxErr != nil {
		return m.StoreTxErr
	}
	m.TxBatches++
	m.TxDocs = append(m.TxDocs, txs...)
	return nil
}

func (m *MockSink) IndexedHeights(_ context.Context, lo, hi uint32) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IndexedErr != nil {
		return nil, m.IndexedErr
	}
	var heights []uint32
	for _, b := range m.Blocks {
		if b.Height != nil && *b.Height >= lo && *b.Height <= hi {
			heights = append(heights, *b.Height)
		}
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights, nil
}

func (m *MockSink) Close(_ context.Context) error {
	return nil
}

// BatchSizes returns the sizes of the block batches in arrival order.
func (m *MockSink) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.BlockBatches))
	for i, b := range m.BlockBatches {
		sizes[i] = len(b)
	}
	return sizes
}
