package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pgbackups/internal/shared"
	"github.com/urfave/cli/v3"
)

// Xfer runs a raw transfer between --from and --to, streaming the job log verbatim.
func (r *Runner) Xfer(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(cmd, r.output)
	if err != nil {
		return err
	}

	from, to := cmd.String("from"), cmd.String("to")
	r.logger.Debug("starting transfer", "from", from, "to", to)

	updates, stop := r.watch()
	result, err := engine.Transfer(ctx, from, to, updates)
	stop()
	if err != nil {
		return err
	}

	if !result.OK() {
		r.writePlainln("FAILURE.")
		return fmt.Errorf("%w: transfer %s", shared.ErrTransferFailed, result.Transfer.ID)
	}
	return r.writePlainln("Success!")
}
