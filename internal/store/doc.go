// Package store provides SQLite-backed durable storage for the registry.
//
// Tables mirror the in-memory ledgers:
//   - meta: the identifier counter (key "next_id")
//   - records: id → layout-encoded payload
//   - owners, lineage, listings: one row per entry, keyed by record id
//   - events: the hashed event journal, ordered by seq
//
// The record layout version lives in PRAGMA user_version. Open migrates an
// older layout to the current one before returning, in a single
// transaction, unless WithoutMigration is given; Begin refuses to serve
// operations against any other layout.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Owners, lineage and listings must name a record
//   - One open connection: the registry is a single writer
package store
