package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pgbackups/internal/models"
	"github.com/desertthunder/pgbackups/internal/shared"
)

// FetchFunc returns the current snapshot of the tracked job. It is the only blocking call in a tick.
type FetchFunc func(ctx context.Context) (*models.Transfer, error)

// PollState is the state of one [Poller.Poll] invocation. It is never shared between jobs.
type PollState struct {
	Ticks        int                   // spinner frame selector, incremented after every non-terminal tick
	Seen         *SeenLines            // raw log lines already handled
	LastProgress *models.ProgressEvent // most recently rendered event
	LastAmount   string                // last size token rendered for LastProgress.Step
}

// NewPollState returns the state for a fresh poll.
func NewPollState() *PollState {
	return &PollState{Seen: NewSeenLines()}
}

// Options configures a [Poller].
type Options struct {
	// Interval is the wait between ticks. Zero polls without waiting.
	Interval time.Duration

	// Output receives the status line.
	// Default: os.Stdout
	Output io.Writer

	// Verbatim prints each new raw log line instead of drawing a status line.
	Verbatim bool

	// Logger receives per-tick debug records.
	// Default: shared.NewLogger(nil)
	Logger *log.Logger
}

// Poller follows one remote job at a time until it finishes or fails.
type Poller struct {
	opts Options
}

// NewPoller creates a Poller with the given options.
func NewPoller(opts Options) *Poller {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Poller{opts: opts}
}

// Interval returns the configured wait between ticks.
func (p *Poller) Interval() time.Duration { return p.opts.Interval }

// Poll fetches snapshots until one reports error_at ([models.Failed]) or finished_at ([models.Success]) and returns
// that verdict together with the final snapshot.
//
// There is no tick limit; callers bound the wait through ctx. A fetch error or cancellation ends the poll with the
// error, after closing any open status line.
func (p *Poller) Poll(ctx context.Context, fetch FetchFunc) (models.Verdict, *models.Transfer, error) {
	state := NewPollState()
	line := NewStatusLine(p.opts.Output)

	for {
		if err := ctx.Err(); err != nil {
			p.report(line.Close())
			return models.Failed, nil, err
		}

		snap, err := fetch(ctx)
		if err != nil {
			p.report(line.Close())
			return models.Failed, nil, err
		}

		p.Tick(state, line, snap)

		switch {
		case snap.Failed():
			p.report(line.Close())
			p.opts.Logger.Debug("job failed", "id", snap.ID, "error_at", snap.ErrorAt, "ticks", state.Ticks)
			return models.Failed, snap, nil
		case snap.Finished():
			p.report(line.Close())
			p.opts.Logger.Debug("job finished", "id", snap.ID, "finished_at", snap.FinishedAt, "ticks", state.Ticks)
			return models.Success, snap, nil
		}

		state.Ticks++
		if err := p.sleep(ctx); err != nil {
			p.report(line.Close())
			return models.Failed, nil, err
		}
	}
}

// Tick renders one snapshot against state. Rendering failures are logged and never stop the poll.
func (p *Poller) Tick(state *PollState, line *StatusLine, snap *models.Transfer) {
	if !snap.HasLog() {
		if !p.opts.Verbatim {
			p.report(line.Pending(state.Ticks))
		}
		return
	}

	fresh := ParseLog(snap.Log, state.Seen)
	for _, l := range fresh {
		state.Seen.Mark(l.Raw)
	}
	p.opts.Logger.Debug("poll tick", "id", snap.ID, "tick", state.Ticks, "new_lines", len(fresh))

	if p.opts.Verbatim {
		for _, l := range fresh {
			if _, err := fmt.Fprintln(p.opts.Output, l.Raw); err != nil {
				p.report(err)
			}
		}
		return
	}

	events := 0
	for _, l := range fresh {
		if l.Event == nil {
			continue
		}
		events++
		p.report(line.Render(state, *l.Event))
	}
	if events == 0 {
		p.report(line.Rerender(state))
	}
}

// sleep waits one full interval after a tick. It only fails once ctx is done, with ctx.Err().
func (p *Poller) sleep(ctx context.Context) error {
	if p.opts.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Poller) report(err error) {
	if err != nil {
		p.opts.Logger.Warn("status output failed", "error", err)
	}
}
