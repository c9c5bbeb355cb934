// Package refresh is the data-fetch flow in front of the caches.
//
// Reads are cache-first: a cached snapshot is returned immediately and, when
// the Validator says so, a background refresh is started without blocking
// the caller. Misses go to the Backend through the resilience Executor;
// concurrent misses for the same scope share one backend call. Fetched data
// is written back through the cache save path and announced on the event bus.
//
// Background refreshes are guarded by the Coordinator, run detached from the
// triggering request, and have their failures logged and dropped: the stale
// cached data stays authoritative. A foreground fetch that fails while a
// cached copy exists serves that copy with FromCacheDueToError set.
package refresh
