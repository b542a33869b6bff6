package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/blkindex/blkindex/internal/coin"
	"github.com/blkindex/blkindex/internal/config"
	"github.com/blkindex/blkindex/internal/indexer"
	"github.com/blkindex/blkindex/internal/metrics"
	"github.com/blkindex/blkindex/internal/node"
	"github.com/blkindex/blkindex/internal/storage"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: blkindex <bitcoin|litecoin>")
		os.Exit(2)
	}
	cn, err := coin.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sink, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connect storage", zap.Error(err))
	}
	defer sink.Close(context.Background())

	var nodeClient node.Client
	if cfg.UseRPC {
		nodeClient = node.NewRPCClient(cfg, logger)
	} else {
		nodeClient = node.NewCLIClient(cfg, logger)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ix := indexer.New(cn, cfg, sink, nodeClient, logger)
	if err := ix.Run(ctx); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}
