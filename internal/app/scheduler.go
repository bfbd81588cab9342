package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/navcast/internal/common"
	"github.com/bobmcallan/navcast/internal/interfaces"
)

// cycleTimeout bounds one scheduled pass over all funds.
const cycleTimeout = 2 * time.Minute

// StartScheduler re-estimates every fund on the configured cron schedule,
// evaluated in the market timezone. An empty schedule leaves it disabled.
func (a *App) StartScheduler() error {
	schedule := a.Config.Scheduler.Schedule
	if schedule == "" {
		a.Logger.Info().Msg("Scheduler: disabled")
		return nil
	}

	c := cron.New(
		cron.WithLocation(a.Config.Estimation.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, func() { runScheduledCycle(a.FundService, a.Logger) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	a.scheduler = c

	a.Logger.Info().Str("schedule", schedule).Msg("Scheduler: started")
	return nil
}

// StopScheduler stops the cron scheduler and waits for a running cycle.
func (a *App) StopScheduler() {
	if a.scheduler == nil {
		return
	}
	<-a.scheduler.Stop().Done()
	a.scheduler = nil
	a.Logger.Info().Msg("Scheduler: stopped")
}

func runScheduledCycle(funds interfaces.FundService, logger *common.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	start := time.Now()
	total := len(funds.ListFunds())
	ok := funds.EstimateAll(ctx)

	logger.Info().
		Int("funds", total).
		Int("succeeded", ok).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduled estimation: complete")
}
