// Package store provides the persistent key-value medium the cache layer
// writes to.
//
// A Store is synchronous, string keyed and string valued, with no
// transactions and no cross-process locking. MemoryStore models a browser
// origin with an optional byte quota; SQLiteStore persists the same contract
// to a file.
package store
