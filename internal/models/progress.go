package models

// Amount tokens with special meaning in a progress log.
const (
	AmountPending = "pending"
	AmountDone    = "done"
	AmountError   = "error"
)

// ProgressEvent is a single "<step>_progress: <amount>" entry from a job log.
type ProgressEvent struct {
	Step   string // e.g. "capture", "restore"
	Amount string // size token, or one of pending/done/error
}

// IsPending reports whether the step has not started moving data yet.
func (e ProgressEvent) IsPending() bool { return e.Amount == AmountPending }

// IsTerminal reports whether the step has finished, successfully or not.
func (e ProgressEvent) IsTerminal() bool {
	return e.Amount == AmountDone || e.Amount == AmountError
}

// Verdict is the terminal outcome of a tracked job.
type Verdict int

const (
	Success Verdict = iota
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return ""
	}
}
