// Package cache implements a concurrent, size-bounded in-memory object
// cache with a runtime-switchable LRU or LFU eviction discipline.
//
// Design
//
//   - Single container: unlike a sharded cache, this implementation keeps
//     one hash table and one global ordering list behind a single mutex.
//     The ordering invariants spec'd for this cache (a strict recency or
//     frequency order from head to tail) only hold container-wide, so
//     sharding is deliberately not used here.
//
//   - Storage: a fixed-size bucket array (table) with separate chaining
//     (entry.hnext) for O(1) expected lookup, plus an intrusive
//     doubly-linked ordering list (entry.prev/entry.next) whose head is
//     the most-preferred-to-keep entry and whose tail is the next
//     eviction victim.
//
//   - Algorithms: LRU moves the touched entry to head. LFU keeps the
//     list sorted by descending frequency, breaking ties by recency.
//     SetAlgorithm detaches and re-threads every entry under the new
//     discipline while holding the lock, so no reader ever observes a
//     torn list.
//
//   - Get never returns a pointer into cache-owned memory: it copies the
//     stored bytes under the lock, so the returned slice's lifetime is
//     independent of any later mutation.
//
//   - Metrics: a sink set with WithMetrics receives Hit/Miss/Evict/Size signals; a
//     Prometheus adapter is provided in metrics/prom.
//
// Basic usage
//
//	c := cache.New(100<<20, cache.LRU)
//	defer c.Close()
//	_ = c.Put("/index.html", data)
//	if v, ok := c.Get("/index.html"); ok {
//	    _ = v
//	}
package cache
