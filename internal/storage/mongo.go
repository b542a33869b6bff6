package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/types"
)

// MongoSink stores records in the blocks and transactions collections of a
// MongoDB database.
type MongoSink struct {
	client *mongo.Client
	blocks *mongo.Collection
	txs    *mongo.Collection
	logger *zap.Logger
}

// NewMongoSink connects to MongoDB and binds the two collections.
func NewMongoSink(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	db := client.Database(dbName)
	return &MongoSink{
		client: client,
		blocks: db.Collection("blocks"),
		txs:    db.Collection("transactions"),
		logger: logger,
	}, nil
}

func (s *MongoSink) StoreBlock(ctx context.Context, block *types.BlockRecord) error {
	if _, err := s.blocks.InsertOne(ctx, block); err != nil {
		return fmt.Errorf("insert block %s: %w", block.Hash, err)
	}
	return nil
}

func (s *MongoSink) StoreBlocksBatch(ctx context.Context, blocks []*types.BlockRecord) error {
	if len(blocks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(blocks))
	for i, b := range blocks {
		docs[i] = b
	}
	// Unordered so one bad document does not sink the batch.
	if _, err := s.blocks.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return fmt.Errorf("insert block batch: %w", err)
	}
	return nil
}

func (s *MongoSink) StoreTxBatch(ctx context.Context, txs []*types.TxDocument) error {
	if len(txs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(txs))
	for i, tx := range txs {
		docs[i] = tx
	}
	if _, err := s.txs.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return fmt.Errorf("insert tx batch: %w", err)
	}
	return nil
}

func (s *MongoSink) IndexedHeights(ctx context.Context, lo, hi uint32) ([]uint32, error) {
	filter := bson.M{"height": bson.M{"$gte": lo, "$lte": hi}}
	opts := options.Find().SetProjection(bson.M{"_id": 0, "height": 1})

	cursor, err := s.blocks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query indexed heights: %w", err)
	}
	defer cursor.Close(ctx)

	var heights []uint32
	for cursor.Next(ctx) {
		var doc struct {
			Height *uint32 `bson:"height"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode height document: %w", err)
		}
		if doc.Height != nil {
			heights = append(heights, *doc.Height)
		}
	}
	return heights, cursor.Err()
}

// GetTransaction loads a stored transaction document by id. Returns nil
// when the txid is unknown.
func (s *MongoSink) GetTransaction(ctx context.Context, txid string) (*types.TxDocument, error) {
	var doc types.TxDocument
	err := s.txs.FindOne(ctx, bson.M{"txid": txid}, options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tx %s: %w", txid, err)
	}
	return &doc, nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
