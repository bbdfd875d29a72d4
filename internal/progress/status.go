package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// clearLine returns the cursor to column zero and erases to the end of the line.
const clearLine = "\r\x1b[0K"

// Slash is the four-frame spinner drawn at the end of in-progress lines.
var Slash = spinner.Spinner{
	Frames: []string{"/", "-", `\`, "|"},
	FPS:    time.Second,
}

// StatusLine draws progress as a single overwriting terminal line.
//
// It remembers whether the current line was left open (no trailing newline) so that [StatusLine.Close] can finish it.
type StatusLine struct {
	w      io.Writer
	frames []string
	open   bool
}

// NewStatusLine creates a StatusLine writing to w with the [Slash] spinner.
func NewStatusLine(w io.Writer) *StatusLine {
	return &StatusLine{w: w, frames: Slash.Frames}
}

// Spin returns the spinner frame for tick.
func (s *StatusLine) Spin(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	return s.frames[tick%len(s.frames)]
}

// Open reports whether the last line drawn has no trailing newline yet.
func (s *StatusLine) Open() bool { return s.open }

// Redisplay clears the current line and writes text, optionally ending it with a newline.
func (s *StatusLine) Redisplay(text string, newline bool) error {
	out := clearLine + text
	if newline {
		out += "\n"
	}
	if _, err := io.WriteString(s.w, out); err != nil {
		return fmt.Errorf("failed to write status line: %w", err)
	}
	s.open = !newline
	return nil
}

// Close terminates an open line with a newline so subsequent output starts on a fresh line.
func (s *StatusLine) Close() error {
	if !s.open {
		return nil
	}
	if _, err := io.WriteString(s.w, "\n"); err != nil {
		return fmt.Errorf("failed to close status line: %w", err)
	}
	s.open = false
	return nil
}

// Pending draws the placeholder shown before a job has produced any progress.
func (s *StatusLine) Pending(tick int) error {
	return s.Redisplay("Pending ... "+s.Spin(tick), false)
}

// Render draws ev and records it in state.
//
// Size tokens become state.LastAmount; done/error lines report that amount and end the line. Moving to a different
// step forgets the previous step's amount.
func (s *StatusLine) Render(state *PollState, ev models.ProgressEvent) error {
	if state.LastProgress != nil && state.LastProgress.Step != ev.Step {
		state.LastAmount = ""
	}
	last := ev
	state.LastProgress = &last

	switch {
	case ev.IsPending():
		return s.Pending(state.Ticks)
	case ev.IsTerminal():
		return s.Redisplay(finishedLine(ev.Step, state.LastAmount, ev.Amount), true)
	default:
		state.LastAmount = ev.Amount
		return s.Redisplay(fmt.Sprintf("%s ... %s %s", Capitalize(ev.Step), shared.FormatAmount(ev.Amount), s.Spin(state.Ticks)), false)
	}
}

// Rerender redraws the last event so the spinner advances while no new log content arrives.
//
// Nothing is drawn once the last event is done/error. Before any event, the pending placeholder is drawn.
func (s *StatusLine) Rerender(state *PollState) error {
	if state.LastProgress == nil {
		return s.Pending(state.Ticks)
	}
	if state.LastProgress.IsTerminal() {
		return nil
	}
	return s.Render(state, *state.LastProgress)
}

func finishedLine(step, lastAmount, outcome string) string {
	if lastAmount == "" {
		return fmt.Sprintf("%s ... %s", Capitalize(step), outcome)
	}
	return fmt.Sprintf("%s ... %s, %s", Capitalize(step), shared.FormatAmount(lastAmount), outcome)
}

// Capitalize upper-cases the first letter of a step name.
func Capitalize(step string) string {
	r, size := utf8.DecodeRuneInString(step)
	if r == utf8.RuneError {
		return step
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(step[size:])
}
