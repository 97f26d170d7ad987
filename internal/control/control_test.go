package control

import (
	"syscall"
	"testing"
	"time"

	"github.com/reshadowking/webcache/cache"
	"github.com/reshadowking/webcache/httpserve"
	"github.com/reshadowking/webcache/internal/logging"
)

func TestRun_SIGUSR1TogglesAlgorithm(t *testing.T) {
	c := cache.New(1024, cache.LRU)
	t.Cleanup(c.Close)

	srv := &Server{
		Cache:     c,
		Counters:  &httpserve.Counters{},
		StartedAt: time.Now(),
		Log:       logging.Noop(),
		Shutdown:  func() {},
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Run(srv, stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
	time.Sleep(50 * time.Millisecond)

	if got := c.Stats().Algorithm; got != cache.LFU {
		t.Fatalf("expected algorithm switched to LFU, got %v", got)
	}

	close(stop)
	<-done
}

func TestRun_SIGTERMTriggersShutdown(t *testing.T) {
	c := cache.New(1024, cache.LRU)
	t.Cleanup(c.Close)

	shutdownCalled := make(chan struct{})
	srv := &Server{
		Cache:     c,
		Counters:  &httpserve.Counters{},
		StartedAt: time.Now(),
		Log:       logging.Noop(),
		Shutdown:  func() { close(shutdownCalled) },
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Run(srv, stop)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)

	select {
	case <-shutdownCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown not triggered by SIGTERM")
	}
	<-done
}
