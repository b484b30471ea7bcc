// Package store keeps a SQLite ledger of generation runs.
//
// Each run records the declaration root, the generator version, the
// fingerprint of the resolved model and the fingerprint and outcome of every
// file written. Runs are ordered by a logical sequence number, never by
// timestamps, so two ledgers built from the same inputs compare equal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
