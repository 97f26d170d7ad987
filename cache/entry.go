package cache

// entry is a resident cache item. It is simultaneously a member of a
// hash-bucket chain (hnext) and of the container-wide ordering list
// (prev/next); both link sets are maintained by Cache under its mutex.
type entry struct {
	key  string
	data []byte

	timestamp int64  // UnixNano of last access; observability only
	frequency uint64 // access counter, reset to 1 on creation

	prev, next *entry // ordering-list links (head = keep, tail = evict)
	hnext      *entry // next entry in the same hash bucket
}

func (e *entry) size() int64 { return int64(len(e.data)) }
