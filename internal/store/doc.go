// Package store runs compiled filters against a SQLite database.
//
// The store plays the part of the operation layer around the filter
// compiler: it creates tables for a record type library, seeds records and
// selects the ids of the records that match a translated filter.
//
// # Database Configuration
//
//   - case_sensitive_like=ON: LIKE matches case-sensitively, so the
//     case-insensitive tests are the only ones that fold case
//   - regexp(): Go regular expressions registered on every connection
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce the collection parent keys
//
// Selected ids are always ordered by the record id, so results are stable
// across runs.
package store
