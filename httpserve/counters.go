package httpserve

import "sync/atomic"

// cacheLineSize is a reasonable default for most modern CPUs; the exact
// line size doesn't matter here, only that consecutive counters land on
// different lines.
const cacheLineSize = 64

// paddedCounter is an atomic.Uint64 padded to its own cache line. Every
// worker goroutine increments TotalRequests/CacheHits/SendfileUsed on
// the hot path; without padding, the three counters would share a line
// and false sharing would show up directly in request latency.
type paddedCounter struct {
	atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// Counters holds the server's global request statistics.
type Counters struct {
	TotalRequests paddedCounter
	CacheHits     paddedCounter
	SendfileUsed  paddedCounter
}

// Snapshot is a point-in-time read of Counters, used by status reporting
// and the Prometheus exporter.
type Snapshot struct {
	TotalRequests uint64
	CacheHits     uint64
	SendfileUsed  uint64
}

// Snapshot reads all three counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests: c.TotalRequests.Load(),
		CacheHits:     c.CacheHits.Load(),
		SendfileUsed:  c.SendfileUsed.Load(),
	}
}
