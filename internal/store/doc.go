// Package store owns the canonical in-memory collections (channels, tasks,
// users, roles, overtime entries, stage events, completed tasks, app settings)
// and their persistence round-trip.
//
// The Store is an explicitly owned object handed to each component; there is
// no ambient singleton. Persistence is a key-value port holding one named slot
// per collection, each slot one JSON document, written through in full after
// every mutation. A file lock in the data directory enforces the single-writer
// assumption: the model performs no merge between concurrent writers, the last
// write to the boundary wins.
//
// Mutations are synchronous. When the write-through fails the in-memory change
// is rolled back, so observers never see state the boundary does not hold.
// Stage events and completed tasks are append-only; no update or delete API
// exists for them.
package store
