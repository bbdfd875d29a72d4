package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig    = fmt.Errorf("configuration not found")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
	ErrAddonMissing     = fmt.Errorf("pgbackups addon is not installed")
	ErrDatabaseNotFound = fmt.Errorf("database not found in config")

	// Transport errors
	ErrTransport       = fmt.Errorf("transport failure")
	ErrVersionMismatch = fmt.Errorf("client version is out of date")
	ErrAPIRequest      = fmt.Errorf("API request failed")

	// Backup and transfer errors
	ErrBackupNotFound   = fmt.Errorf("backup not found")
	ErrBackupIncomplete = fmt.Errorf("backup has not completed")
	ErrBackupDestroyed  = fmt.Errorf("backup already deleted")
	ErrNoBackups        = fmt.Errorf("no backups")
	ErrTransferRejected = fmt.Errorf("transfer rejected")
	ErrTransferFailed   = fmt.Errorf("transfer failed")

	// Input validation errors
	ErrConfirmationRequired = fmt.Errorf("confirmation required")
	ErrMissingArgument      = fmt.Errorf("missing required argument")
	ErrInvalidArgument      = fmt.Errorf("invalid argument")
	ErrFileExists           = fmt.Errorf("file already exists")

	// Local store errors
	ErrConfigVarNotFound = fmt.Errorf("config var not found")
)
