// Package observe provides logging, metrics and tracing for the cache layer.
//
// It is pure instrumentation: no cache logic, no I/O beyond exporter setup.
// Cache components take a Logger and default to a no-op one; the refresh
// flow wraps backend fetches with Middleware.
package observe
