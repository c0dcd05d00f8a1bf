// Package limits bounds how many client connections are served at once.
//
// A PermitPool hands out one permit per connection. Acquire blocks while the
// pool is exhausted, so a burst of clients queues rather than being refused,
// and Release returns the permit when the connection ends. Peak and Waiting
// expose the high-water mark and queue depth for metrics.
package limits
