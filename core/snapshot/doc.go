// Package snapshot provides the read-only view of what a device currently holds.
//
// Reconciliation handlers only ask one question of a snapshot: does an entity of
// this class already exist under this tenant with this name? The answer decides
// between a create and a modify command.
//
// # Sources
//
// A snapshot is loaded from a Source:
//   - FileSource: a JSON or YAML document on disk.
//   - StorageSource: the same document stored in an object storage bucket.
//   - DBSource: rows of the snapshot_entries table (written by the process that
//     polls the device).
//   - Empty: no existing configuration; every entity is created.
//
// The document shape is
//
//	{"Common": {"GSLBDataCenter": ["dc1", "dc2"], "GSLBServer": {"s1": true}}}
//
// # Caching
//
// Cache wraps any Source with a TTL and collapses concurrent loads into one
// (singleflight), so an HTTP burst does not hammer the backing store.
package snapshot
