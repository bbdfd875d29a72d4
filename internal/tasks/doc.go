// Package tasks orchestrates backup operations against the remote backups service.
//
// # Core Operations
//
// [BackupEngine] drives every command that starts a remote job:
//
//  1. [BackupEngine.Capture] : back up a database to a new BACKUP
//     - Resolves the database identifier (default DATABASE_URL) against the app's config vars
//     - Creates the transfer and tracks it to completion on the status line
//
//  2. [BackupEngine.Restore] : restore a database from a named backup, the latest backup, or an external URL
//     - Requires the app name as confirmation unless forced
//     - Refuses backups that have already been destroyed
//
//  3. [BackupEngine.Transfer] : raw transfer between any two named endpoints, streaming the job log verbatim
//
// Listing, inspection, deletion and download of backups go through the same engine so that every command shares one
// [services.JobClient].
//
// # Progress Reporting
//
// Tracking output (the status line, log lines, info blocks) goes to the engine's output writer. Phase changes are
// additionally sent as [ProgressUpdate] values on an optional channel; sends never block.
//
// # Database Resolution
//
// Database identifiers resolve through [ConfigVarSource], normally the local config var store
// (repositories.ConfigVarRepository). An identifier that aliases an add-on variable (DATABASE_URL pointing at the
// same URL as HEROKU_POSTGRESQL_RED_URL) resolves to the add-on variable's name.
package tasks
