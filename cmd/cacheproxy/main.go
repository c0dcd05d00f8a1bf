// cacheproxy is a caching HTTP forward proxy and file share.
//
// It accepts raw HTTP/1.1 connections, stores files uploaded with PUT or
// POST, serves them back with GET, and forwards every other request to its
// origin, keeping successful GET responses in a bounded in-memory LRU cache.
//
// Usage:
//
//	# Start on the default port (8000)
//	cacheproxy run
//
//	# Start on another port
//	cacheproxy run 8080
//
//	# Start with a configuration file
//	cacheproxy run --config /etc/cacheproxy/config.yaml
//
//	# Check a configuration file
//	cacheproxy validate --config config.yaml
//
//	# List stored files
//	cacheproxy files
//
//	# Show version information
//	cacheproxy version
package main

func main() {
	Execute()
}
