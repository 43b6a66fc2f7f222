// Package sqlite provides the SQLite-backed forum store.
//
// Each Update runs in one database transaction: the closure's writes commit
// together or not at all. Vote flags are stored as row presence; clearing a
// flag deletes the row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Post and sub-post ids are stored in INTEGER columns as the int64 bit
// pattern of their uint64 value.
package sqlite
