// Package repositories implements SQLite persistence for the local store.
//
// The store holds app config variables ([ConfigVarRepository]) that database identifiers such as DATABASE_URL
// resolve against. Rows are soft-deleted via deleted_at and excluded from queries by default, so a name can be unset
// and set again without losing history.
//
// Sequence numbers provide stable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
