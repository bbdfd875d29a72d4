// Package progress tracks a single remote backup job until it reaches a terminal state and renders its progress to a terminal.
//
// # Log Parsing
//
// Remote jobs emit an append-only, line-oriented log. Lines of the form "<step>_progress: <amount>" carry progress;
// everything else is informational. [ParseLog] returns only the lines not yet recorded in a [SeenLines] set,
// comparing by exact line text. A line whose text repeats after it has been seen is never yielded again.
//
// # Status Line
//
// [StatusLine] draws one overwriting terminal line ("\r" followed by clear-to-end-of-line) per event:
//
//	Pending ... /
//	Capture ... 1.2MB -
//	Capture ... 1.2MB, done
//
// Only done/error lines end with a newline. The size shown on a done/error line is the last amount seen for that step,
// since the terminal log entry itself carries only the token.
//
// # Polling
//
// [Poller.Poll] is a blocking loop owned by one goroutine: fetch a snapshot, render new events (or re-render the last
// non-terminal one so the spinner keeps moving), stop on error_at or finished_at, otherwise wait for the next tick.
// Per-invocation state lives in a [PollState] that is discarded on return. Fetch errors are returned immediately;
// retries belong to the transport. Cancelling the context closes the status line with a newline and returns ctx.Err().
package progress
