// Package store provides SQLite-backed run history.
//
// Every finished game run is written as one row in runs plus its lifecycle
// events in run_events. The store is append-only: a run ID is written once
// and later writes with the same ID are ignored.
//
// # Ordering
//
//   - Runs: ORDER BY started_at DESC, id ASC COLLATE BINARY
//   - Events: ORDER BY seq ASC
//
// Timestamps are stored as Unix nanoseconds (UTC) so ordering and equality
// survive a round trip exactly.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The settings are passed to the driver in the DSN so every pooled
// connection gets them. PRAGMA user_version records the schema version;
// Open refuses a history written by a newer schema.
package store
