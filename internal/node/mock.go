package node

import (
	"context"
	"sync"

	"github.com/blkindex/blkindex/internal/coin"
)

// MockClient implements Client for testing.
type MockClient struct {
	mu sync.Mutex

	Info  *Info
	Err   error
	Calls int
}

// NewMockClient creates a mock node client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Info: &Info{Blocks: 2499, PruneHeight: 0},
	}
}

func (m *MockClient) BlockchainInfo(_ context.Context, _ coin.Coin) (*Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Info, nil
}
