// Package kitty provides the shared vocabulary of the registry: records,
// identifiers, principals, lineage, events and the error taxonomy.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import kitty; kitty imports nothing internal.
//
// Key design constraints:
//   - Records are immutable once minted; nothing in this package mutates one
//   - Identifiers are unsigned 32-bit and never reused
//   - Events are encoded with canonical JSON (RFC 8785) so journal digests are stable
//   - Logical sequence numbers only, never wall-clock timestamps
package kitty
