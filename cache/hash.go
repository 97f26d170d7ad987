package cache

import "github.com/cespare/xxhash/v2"

// bucketIndex maps a key to a slot in table. xxhash gives a deterministic,
// well-distributed hash; the spec's reference hash (a djb2 variant) is only
// contractually required to behave the same way, so this promotes an
// existing transitive dependency of the metrics stack to a direct one
// instead of hand-rolling djb2.
func bucketIndex(key string, tableSize int) int {
	return int(xxhash.Sum64String(key) % uint64(tableSize))
}
