package harness

import (
	"context"
	"errors"
	"time"
)

// DefaultCooldown is the pause between two transport runs.
const DefaultCooldown = 2 * time.Second

// RunTransports calls runOne for each target in order. A failure in one run does not prevent
// the next; all failures are returned joined. The cooldown pause is made between runs only,
// and cancelling ctx ends it early and stops before the next run.
//
// runOne is expected to have released its session before it returns.
func RunTransports[T any](
	ctx context.Context,
	targets []T,
	cooldown time.Duration,
	runOne func(context.Context, T) error,
) error {
	var errs []error
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := runOne(ctx, target); err != nil {
			errs = append(errs, err)
		}
		if i == len(targets)-1 || cooldown <= 0 {
			continue
		}
		timer := time.NewTimer(cooldown)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}
