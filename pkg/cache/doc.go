// Package cache provides the proxy's bounded in-memory response store.
//
// Store maps a resource key (a request path for local files, "host:port/path"
// for proxied responses) to the raw response bytes. Two budgets apply:
//
//   - MaxElementSize bounds a single entry (payload + key + 1 byte)
//   - MaxCacheSize bounds the sum of all entry sizes
//
// When admitting an entry would exceed MaxCacheSize, least recently used
// entries are evicted one at a time until it fits. A successful Find, Admit or
// Touch marks the entry as most recently used.
//
// # Thread Safety
//
// Every operation runs under one mutex, including the eviction loop inside
// Admit. The lock is never held while calling the Observer, so an observer may
// safely call back into the store.
package cache
