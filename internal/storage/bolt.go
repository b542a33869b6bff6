package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/types"
)

var (
	bucketBlocks  = []byte("blocks")
	bucketHeights = []byte("heights")
	bucketTxs     = []byte("transactions")
)

// BoltSink is an embedded single-file sink backed by bbolt. Records are
// CBOR-encoded; blocks with a known height are additionally keyed by
// big-endian height so coverage queries are a range scan.
type BoltSink struct {
	db     *bolt.DB
	logger *zap.Logger
}

// NewBoltSink opens (or creates) the database file and its buckets.
func NewBoltSink(path string, logger *zap.Logger) (*BoltSink, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketBlocks, bucketHeights, bucketTxs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &BoltSink{db: db, logger: logger}, nil
}

func heightKey(h uint32) []byte {
	var key [4]byte
	binary.BigEndian.PutUint32(key[:], h)
	return key[:]
}

func putBlock(tx *bolt.Tx, block *types.BlockRecord) error {
	data, err := cbor.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block %s: %w", block.Hash, err)
	}
	if err := tx.Bucket(bucketBlocks).Put([]byte(block.Hash), data); err != nil {
		return err
	}
	if block.Height != nil {
		return tx.Bucket(bucketHeights).Put(heightKey(*block.Height), []byte(block.Hash))
	}
	return nil
}

func (s *BoltSink) StoreBlock(_ context.Context, block *types.BlockRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putBlock(tx, block)
	})
}

func (s *BoltSink) StoreBlocksBatch(_ context.Context, blocks []*types.BlockRecord) error {
	if len(blocks) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range blocks {
			if err := putBlock(tx, b); err != nil {
				// Unordered semantics: skip the bad record, keep the batch.
				s.logger.Warn("skipping block in batch", zap.String("hash", b.Hash), zap.Error(err))
			}
		}
		return nil
	})
}

func (s *BoltSink) StoreTxBatch(_ context.Context, txs []*types.TxDocument) error {
	if len(txs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTxs)
		for _, doc := range txs {
			data, err := cbor.Marshal(doc)
			if err != nil {
				s.logger.Warn("skipping tx in batch", zap.String("txid", doc.TxID), zap.Error(err))
				continue
			}
			if err := bucket.Put([]byte(doc.TxID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltSink) IndexedHeights(_ context.Context, lo, hi uint32) ([]uint32, error) {
	var heights []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketHeights).Cursor()
		for k, _ := c.Seek(heightKey(lo)); k != nil; k, _ = c.Next() {
			h := binary.BigEndian.Uint32(k)
			if h > hi {
				break
			}
			heights = append(heights, h)
		}
		return nil
	})
	return heights, err
}

// GetTransaction loads a stored transaction document by id. Returns nil
// when the txid is unknown.
func (s *BoltSink) GetTransaction(_ context.Context, txid string) (*types.TxDocument, error) {
	var doc *types.TxDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTxs).Get([]byte(txid))
		if data == nil {
			return nil
		}
		doc = &types.TxDocument{}
		return cbor.Unmarshal(data, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("load tx %s: %w", txid, err)
	}
	return doc, nil
}

func (s *BoltSink) Close(_ context.Context) error {
	return s.db.Close()
}
