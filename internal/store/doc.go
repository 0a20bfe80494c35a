// Package store provides SQLite-backed save slots for backpressure runs.
//
// The store is append-only:
//   - Snapshots: versioned state envelopes, one row per save
//   - Prestiges: one row per reset, for the history view
//
// # Ordering
//
// Every table carries a per-slot seq counter assigned inside the write
// transaction. Queries order by seq ASC, id COLLATE BINARY ASC and never by
// wall time, so listings are identical across machines.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Snapshot data is the canonical envelope produced by state.Encode. Loading
// goes through state.Decode, so a save from another schema version surfaces
// as state.ErrVersionMismatch.
package store
