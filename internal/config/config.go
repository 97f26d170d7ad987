// Package config parses the server's CLI flags and holds its tunables.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/reshadowking/webcache/cache"
)

// Compile-time tunables. These mirror the reference implementation's
// config.h exactly; only Port, DocumentRoot, Algorithm, and the worker
// count (DefaultWorkers) are overridable from the command line.
const (
	MaxCacheSize     = 100 * 1024 * 1024 // bytes
	HashTableSize    = 1024
	MaxCacheItemSize = 10 * 1024 * 1024 // bytes
	MaxEvents        = 1024
	BufferSize       = 8196
	BacklogSize      = 128
	DefaultWorkers   = 8
	MaxThreads       = 16
	MaxQueue         = 256

	DefaultPort         = 8080
	DefaultDocumentRoot = "./www"
)

// Config is the resolved server configuration.
type Config struct {
	Port         int
	DocumentRoot string
	Algorithm    cache.Algorithm
	Workers      int
}

// Parse reads CLI flags from args (excluding the program name) into a
// Config, applying the reference defaults. -p and -port (and -a/-algorithm,
// -d/-dir) are registered as aliases bound to the same variable, since the
// standard flag package has no native short/long pairing.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("webcache", flag.ContinueOnError)

	var port int
	fs.IntVar(&port, "port", DefaultPort, "server port")
	fs.IntVar(&port, "p", DefaultPort, "server port (shorthand)")

	var dir string
	fs.StringVar(&dir, "dir", DefaultDocumentRoot, "document root directory")
	fs.StringVar(&dir, "d", DefaultDocumentRoot, "document root directory (shorthand)")

	var algo string
	fs.StringVar(&algo, "algorithm", "lru", "cache algorithm: lru or lfu")
	fs.StringVar(&algo, "a", "lru", "cache algorithm (shorthand)")

	var workers int
	fs.IntVar(&workers, "workers", DefaultWorkers, "worker pool size")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid port %d", port)
	}

	var algorithm cache.Algorithm
	switch strings.ToLower(algo) {
	case "lru":
		algorithm = cache.LRU
	case "lfu":
		algorithm = cache.LFU
	default:
		return nil, fmt.Errorf("config: invalid algorithm %q (use lru or lfu)", algo)
	}

	if workers <= 0 || workers > MaxThreads {
		return nil, fmt.Errorf("config: invalid workers %d (must be in [1, %d])", workers, MaxThreads)
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("config: document root does not exist: %s", dir)
	}

	return &Config{
		Port:         port,
		DocumentRoot: dir,
		Algorithm:    algorithm,
		Workers:      workers,
	}, nil
}
