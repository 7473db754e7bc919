package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/tools"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 5 * time.Minute

// TokenSweeper removes access tokens that can no longer be used.
type TokenSweeper interface {
	SweepTokens(ctx context.Context) (int64, error)
}

// ScheduleTokenSweep sets up a cron job that deletes expired and revoked
// tokens on schedule. The job stops when ctx is done.
func ScheduleTokenSweep(ctx context.Context, schedule string, svc TokenSweeper) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		tools.Dispatch(context.Background(), "sweep_tokens", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
			defer cancel()
			_, err := svc.SweepTokens(ctx)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("schedule token sweep %q: %w", schedule, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
