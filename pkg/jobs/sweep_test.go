package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) SweepTokens(context.Context) (int64, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestScheduleTokenSweep_InvalidSchedule(t *testing.T) {
	_, err := ScheduleTokenSweep(context.Background(), "not a schedule", &countingSweeper{})
	assert.Error(t, err)
}

func TestScheduleTokenSweep_Runs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := &countingSweeper{}
	c, err := ScheduleTokenSweep(ctx, "@every 1s", sweeper)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)

	require.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}
