// Command webserver starts the static-content HTTP server: an
// epoll-driven acceptor, a bounded worker pool, and a concurrent
// LRU/LFU object cache fronting the local filesystem.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reshadowking/webcache/cache"
	"github.com/reshadowking/webcache/eventloop"
	"github.com/reshadowking/webcache/httpserve"
	"github.com/reshadowking/webcache/internal/config"
	"github.com/reshadowking/webcache/internal/control"
	"github.com/reshadowking/webcache/internal/logging"
	"github.com/reshadowking/webcache/metrics/prom"
	"github.com/reshadowking/webcache/workerpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	log, err := logging.New(false)
	if err != nil {
		return fmt.Errorf("webserver: logging init: %w", err)
	}
	defer log.Sync()

	cacheMetrics := prom.New(nil, "webcache", "cache", nil)
	c := cache.New(config.MaxCacheSize, cfg.Algorithm,
		cache.WithMetrics(cacheMetrics),
		cache.WithHashTableSize(config.HashTableSize),
	)
	defer c.Close()

	counters := &httpserve.Counters{}
	prom.NewServerAdapter(nil, "webcache", "server", nil, func() (total, hits, sendfile uint64) {
		s := counters.Snapshot()
		return s.TotalRequests, s.CacheHits, s.SendfileUsed
	})

	pool, err := workerpool.New(cfg.Workers)
	if err != nil {
		return fmt.Errorf("webserver: worker pool: %w", err)
	}
	defer pool.Close()

	listenerFD, err := eventloop.CreateListener(cfg.Port, config.BacklogSize)
	if err != nil {
		return fmt.Errorf("webserver: listener: %w", err)
	}

	loop, err := eventloop.New(listenerFD, c, cfg.DocumentRoot, pool, counters, log)
	if err != nil {
		return fmt.Errorf("webserver: event loop: %w", err)
	}
	defer loop.Close()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":9090", Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Warnf("metrics server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	stop := make(chan struct{})
	srv := &control.Server{
		Cache:     c,
		Counters:  counters,
		Port:      cfg.Port,
		Dir:       cfg.DocumentRoot,
		Log:       log,
		StartedAt: time.Now(),
		Shutdown: func() {
			cancel()
			metricsSrv.Close()
			close(stop)
		},
	}

	log.Sugar().Infof("listening on port %d, document root %s, algorithm %s", cfg.Port, cfg.DocumentRoot, cfg.Algorithm)
	control.Run(srv, stop)

	if err := <-runErr; err != nil {
		return fmt.Errorf("webserver: event loop exited: %w", err)
	}
	return nil
}
