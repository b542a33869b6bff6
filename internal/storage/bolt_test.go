package storage

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/types"
	"github.com/blkindex/blkindex/testutil"
)

func newTestBoltSink(t *testing.T) *BoltSink {
	t.Helper()
	sink, err := NewBoltSink(filepath.Join(t.TempDir(), "blkindex.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltSink: %v", err)
	}
	t.Cleanup(func() { sink.Close(context.Background()) })
	return sink
}

func blockAt(height uint32) *types.BlockRecord {
	return &types.BlockRecord{
		Height:    testutil.Uint32Ptr(height),
		Hash:      "hash-" + string(rune('a'+height)),
		Coin:      "bitcoin",
		Timestamp: 1231006505,
		TxCount:   1,
	}
}

func TestBoltSinkIndexedHeights(t *testing.T) {
	sink := newTestBoltSink(t)
	ctx := context.Background()

	// Heights 1,2,4,5 present; 3 missing.
	if err := sink.StoreBlock(ctx, blockAt(1)); err != nil {
		t.Fatal(err)
	}
	if err := sink.StoreBlocksBatch(ctx, []*types.BlockRecord{blockAt(2), blockAt(4), blockAt(5)}); err != nil {
		t.Fatal(err)
	}

	heights, err := sink.IndexedHeights(ctx, 1, 5)
	if err != nil {
		t.Fatalf("IndexedHeights: %v", err)
	}
	want := []uint32{1, 2, 4, 5}
	if len(heights) != len(want) {
		t.Fatalf("heights = %v, want %v", heights, want)
	}
	for i := range want {
		if heights[i] != want[i] {
			t.Errorf("heights[%d] = %d, want %d", i, heights[i], want[i])
		}
	}

	// Range boundaries are inclusive.
	heights, err = sink.IndexedHeights(ctx, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(heights) != 2 || heights[0] != 2 || heights[1] != 4 {
		t.Errorf("bounded heights = %v, want [2 4]", heights)
	}
}

func TestBoltSinkNilHeight(t *testing.T) {
	sink := newTestBoltSink(t)
	ctx := context.Background()

	block := &types.BlockRecord{Hash: "no-height", Coin: "bitcoin"}
	if err := sink.StoreBlock(ctx, block); err != nil {
		t.Fatal(err)
	}
	heights, err := sink.IndexedHeights(ctx, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(heights) != 0 {
		t.Errorf("heights = %v, want none for height-less block", heights)
	}
}

func TestBoltSinkTxRoundTrip(t *testing.T) {
	sink := newTestBoltSink(t)
	ctx := context.Background()

	addr := "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	doc := &types.TxDocument{
		TxID:        testutil.GenesisCoinbaseTxID,
		BlockHash:   testutil.GenesisBlockHash,
		BlockHeight: testutil.Uint32Ptr(0),
		Timestamp:   1231006505,
		VIn:         []types.VInDoc{{TxID: "00", VOut: 0xffffffff}},
		VOut:        []types.VOutDoc{{N: 0, Address: &addr, Value: 50}},
	}
	if err := sink.StoreTxBatch(ctx, []*types.TxDocument{doc}); err != nil {
		t.Fatal(err)
	}

	got, err := sink.GetTransaction(ctx, doc.TxID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got == nil {
		t.Fatal("stored transaction not found")
	}
	if got.BlockHash != doc.BlockHash || got.Timestamp != doc.Timestamp {
		t.Errorf("loaded doc = %+v", got)
	}
	if len(got.VOut) != 1 || got.VOut[0].Address == nil || *got.VOut[0].Address != addr {
		t.Errorf("loaded vout = %+v", got.VOut)
	}

	missing, err := sink.GetTransaction(ctx, "ffff")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("unknown txid should return nil")
	}
}
