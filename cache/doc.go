// Package cache keeps dashboard data in a persistent key-value store so the
// UI can read it synchronously, and decides when that data is stale.
//
// Each Scope owns a payload key and a metadata key. Metadata is written in a
// single store write after the payload, so readers can check presence and
// age without parsing or decrypting payloads. A scope whose metadata says
// hasData but whose payload is missing or corrupt is a miss, never an error.
//
// Dashboard splits a Snapshot into a plain partition (financial aggregates,
// analytics) and a sensitive partition (the user profile) that is sealed with
// a key derived from the session token. Affiliate and DueDates store plain
// payloads; DueDates entries are namespaced by investor id and only served
// back to the same id.
//
// Validator answers two questions: IsValid (fresh enough to serve without a
// refetch) and ShouldBackgroundRefresh (stale, the user is active, and the
// refresh coordinator is idle and out of cooldown).
package cache
