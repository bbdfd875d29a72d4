package tasks

import "fmt"

// ProgressUpdate represents a phase change during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, e.g. the created transfer
}

// Operation phase enumeration
type Phase int

const (
	ResolveDatabase Phase = iota
	FetchBackup
	CreateTransfer
	TrackTransfer
	DeleteBackup
	DownloadBackup
	Complete
)

func (p Phase) String() string {
	switch p {
	case ResolveDatabase:
		return "resolve_database"
	case FetchBackup:
		return "fetch_backup"
	case CreateTransfer:
		return "create_transfer"
	case TrackTransfer:
		return "track_transfer"
	case DeleteBackup:
		return "delete_backup"
	case DownloadBackup:
		return "download_backup"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func resolvedUpdate(ref DatabaseRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveDatabase,
		Message: fmt.Sprintf("Resolved %s", ref.Name),
		Data:    ref,
	}
}

func fetchBackupUpdate(name string) ProgressUpdate {
	if name == "" {
		name = "latest"
	}
	return ProgressUpdate{
		Phase:   FetchBackup,
		Message: fmt.Sprintf("Fetching backup %s...", name),
	}
}

func createTransferUpdate(fromName, toName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateTransfer,
		Message: fmt.Sprintf("Creating transfer %s -> %s...", fromName, toName),
	}
}

func trackTransferUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TrackTransfer,
		Message: fmt.Sprintf("Tracking transfer %s", id),
		Data:    id,
	}
}

func deleteBackupUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteBackup,
		Message: fmt.Sprintf("Deleting backup %s...", name),
	}
}

func downloadUpdate(file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadBackup,
		Message: fmt.Sprintf("Downloading to %s", file),
		Data:    file,
	}
}

func completeUpdate(result any) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Message: "Done",
		Data:    result,
	}
}
