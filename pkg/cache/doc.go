// Package cache provides a generic, thread-safe LRU cache whose entries
// expire after a per-entry TTL.
//
// It backs the in-memory transfer replay guard, where every consumed nonce is
// remembered until its acceptance window closes, and the memory rate limit
// store, where a bucket is forgotten once it would be full again. The
// capacity bound keeps a flood of clients from growing memory without limit.
//
// # Usage
//
//	seen := cache.NewLRU[string, struct{}](10_000)
//
//	if !seen.Add(nonce, struct{}{}, 24*time.Hour) {
//	    // already consumed
//	}
//
// Get and Add treat expired entries as absent. Expired entries are dropped
// lazily when touched or when they reach the tail of the eviction list.
// A capacity eviction calls the optional callback set with SetEvictCallback.
package cache
