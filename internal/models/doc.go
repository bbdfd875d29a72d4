// Package models defines domain entities and persistence interfaces for the pgbackups client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Snapshots of remote jobs as returned by the backups service
//   - [Transfer] : A capture, restore or raw transfer job, including its append-only progress log
//   - [ProgressEvent] : One parsed "<step>_progress: <amount>" log entry
//   - [Verdict] : Terminal outcome of a tracked job
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ConfigVar] : App config variables (e.g. DATABASE_URL) used to resolve database identifiers
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
