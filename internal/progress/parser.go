package progress

import (
	"regexp"
	"strings"

	"github.com/desertthunder/pgbackups/internal/models"
)

var progressPattern = regexp.MustCompile(`(?i)^\s*([a-z_]+)_progress:\s+(\S+)`)

// LogLine is a newly observed raw log line. Event is nil when the line carries no progress.
type LogLine struct {
	Raw   string
	Event *models.ProgressEvent
}

// SeenLines is an insertion-ordered set of raw log lines that have already been handled.
type SeenLines struct {
	order []string
	index map[string]struct{}
}

// NewSeenLines returns an empty set.
func NewSeenLines() *SeenLines {
	return &SeenLines{index: make(map[string]struct{})}
}

// Contains reports whether raw has been marked.
func (s *SeenLines) Contains(raw string) bool {
	_, ok := s.index[raw]
	return ok
}

// Mark records raw as seen. Marking twice is a no-op.
func (s *SeenLines) Mark(raw string) {
	if s.Contains(raw) {
		return
	}
	s.index[raw] = struct{}{}
	s.order = append(s.order, raw)
}

// Len returns the number of distinct lines seen.
func (s *SeenLines) Len() int { return len(s.order) }

// Lines returns the seen lines in the order they were first marked.
func (s *SeenLines) Lines() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ParseLine extracts the progress event from a single log line.
//
// Step names and the pending/done/error tokens are lower-cased; size tokens are kept verbatim.
func ParseLine(raw string) (models.ProgressEvent, bool) {
	m := progressPattern.FindStringSubmatch(raw)
	if m == nil {
		return models.ProgressEvent{}, false
	}

	amount := m[2]
	switch lower := strings.ToLower(amount); lower {
	case models.AmountPending, models.AmountDone, models.AmountError:
		amount = lower
	}
	return models.ProgressEvent{Step: strings.ToLower(m[1]), Amount: amount}, true
}

// ParseLog returns the lines of log that are not in seen, in log order, each with its parsed event.
//
// seen is not modified; callers mark the returned lines once they have handled them. Blank lines are ignored and a
// line repeated within log is yielded once. An empty log yields nothing.
func ParseLog(log string, seen *SeenLines) []LogLine {
	if log == "" {
		return nil
	}

	var fresh []LogLine
	batch := make(map[string]struct{})
	for _, raw := range strings.Split(log, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if seen != nil && seen.Contains(raw) {
			continue
		}
		if _, dup := batch[raw]; dup {
			continue
		}
		batch[raw] = struct{}{}

		line := LogLine{Raw: raw}
		if ev, ok := ParseLine(raw); ok {
			line.Event = &ev
		}
		fresh = append(fresh, line)
	}
	return fresh
}
