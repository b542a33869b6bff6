package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/blkindex/blkindex/internal/coin"
)

// NodeConfig holds per-coin node access settings.
type NodeConfig struct {
	RPCHost     string
	RPCPort     int
	RPCUser     string
	RPCPassword string
	CLIPath     string
	BlocksPath  string
}

// RPCConfigured reports whether the full JSON-RPC credential set is present.
func (n NodeConfig) RPCConfigured() bool {
	return n.RPCHost != "" && n.RPCPort != 0 && n.RPCUser != "" && n.RPCPassword != ""
}

// Config is the immutable runtime configuration, assembled once at process
// start from the environment (optionally seeded from a .env file).
type Config struct {
	DatabaseType string

	MongoHost     string
	MongoPort     int
	MongoDatabase string
	MongoUsername string
	MongoPassword string

	BoltPath string

	Bitcoin  NodeConfig
	Litecoin NodeConfig

	UseRPC      bool
	UseChunks   bool
	ChunkSize   int
	MaxWorkers  int
	StoreBlocks bool

	RPCTimeout              time.Duration
	MaxConnections          int
	MaxKeepaliveConnections int

	MetricsAddr string
}

// Load reads configuration from the environment. A missing .env file is
// not an error; malformed numeric values are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseType:  getString("DATABASE_TYPE", "mongodb"),
		MongoHost:     getString("MONGODB_HOST", "localhost"),
		MongoDatabase: getString("MONGODB_DATABASE", ""),
		MongoUsername: getString("MONGODB_USERNAME", ""),
		MongoPassword: getString("MONGODB_PASSWORD", ""),
		BoltPath:      getString("BOLT_PATH", "blkindex.db"),
		UseRPC:        getBool("USE_RPC", false),
		UseChunks:     getBool("USE_CHUNKS", false),
		StoreBlocks:   getBool("STORE_BLOCKS", false),
		MetricsAddr:   getString("METRICS_ADDR", ""),
	}

	var err error
	if cfg.MongoPort, err = getInt("MONGODB_PORT", 27017); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = getInt("MAX_WORKERS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxConnections, err = getInt("MAX_CONNECTIONS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxKeepaliveConnections, err = getInt("MAX_KEEPALIVE_CONNECTIONS", 20); err != nil {
		return nil, err
	}
	if cfg.RPCTimeout, err = getSeconds("RPC_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if cfg.Bitcoin, err = loadNode("BITCOIN", 8332); err != nil {
		return nil, err
	}
	if cfg.Litecoin, err = loadNode("LITECOIN", 9332); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadNode(prefix string, defaultPort int) (NodeConfig, error) {
	port, err := getInt(prefix+"_RPC_PORT", defaultPort)
	if err != nil {
		return NodeConfig{}, err
	}
	return NodeConfig{
		RPCHost:     getString(prefix+"_RPC_HOST", ""),
		RPCPort:     port,
		RPCUser:     getString(prefix+"_RPC_USER", ""),
		RPCPassword: getString(prefix+"_RPC_PASSWORD", ""),
		CLIPath:     getString(prefix+"_CLI_PATH", ""),
		BlocksPath:  getString(prefix+"_BLOCKS_PATH", ""),
	}, nil
}

// Node returns the node settings for a coin.
func (c *Config) Node(cn coin.Coin) NodeConfig {
	if cn == coin.Litecoin {
		return c.Litecoin
	}
	return c.Bitcoin
}

// MongoURI builds the connection string for the default sink.
func (c *Config) MongoURI() string {
	if c.MongoUsername != "" && c.MongoPassword != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", c.MongoUsername, c.MongoPassword, c.MongoHost, c.MongoPort)
	}
	return fmt.Sprintf("mongodb://%s:%d", c.MongoHost, c.MongoPort)
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// getSeconds parses a duration given as seconds ("5", "2.5").
func getSeconds(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
