// Package state holds the registry's mapping structures and the
// transactional port the facade drives them through.
//
// Each ledger is a plain map wrapper that can be tested on its own:
//   - EntityStore: identifier → record, insert-only
//   - LineageLedger: bred identifier → parent pair, insert-only
//   - OwnershipLedger: identifier → owner, overwritten on transfer
//   - Listings: set of identifiers offered for sale
//
// Arena aggregates them with the identifier counter and the event journal
// and implements Backend for in-memory use. The SQLite backend in package
// store implements the same Backend against durable tables.
//
// Ledgers are not safe for concurrent use; Arena serializes access by
// holding its lock for the lifetime of a transaction.
package state
