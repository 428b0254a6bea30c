// Package store provides the SQLite-backed participant registry.
//
// The registry answers one question for the request layer: is this
// participant id already taken? Ids are drawn at random by the caller and
// registered here; the primary key makes registration the arbiter when two
// requests race for the same id.
//
// Timestamps are stored as Unix milliseconds.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are applied as numbered migrations tracked in
// PRAGMA user_version.
package store
