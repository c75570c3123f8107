package collect

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the cadence of continuous collection.
const DefaultInterval = time.Minute

// Trigger fires whenever a new cycle is due.
type Trigger interface {
	C() <-chan time.Time
	Stop()
}

type ticker struct {
	t *time.Ticker
}

// NewTicker returns a Trigger firing every interval, the first time one interval from now.
func NewTicker(interval time.Duration) Trigger {
	return &ticker{t: time.NewTicker(interval)}
}

func (t *ticker) C() <-chan time.Time { return t.t.C }
func (t *ticker) Stop()               { t.t.Stop() }

// RunOnce runs one strict cycle and returns the failure that stopped it, if any.
func (c *Collector) RunOnce(ctx context.Context, options Options) error {
	report := c.CollectOnce(ctx, options, Strict)
	return report.Err()
}

// Run collects on every tick of the trigger until ctx is cancelled. Failures are
// logged and never end the loop; the next tick is the only retry.
func (c *Collector) Run(ctx context.Context, trigger Trigger, options func() Options) error {
	defer trigger.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger.C():
			report := c.CollectOnce(ctx, options(), BestEffort)
			failed := report.Failed()
			log := c.log.With(
				zap.Int("steps", len(report.Steps)),
				zap.Int("failed", len(failed)),
				zap.Int("records", report.Records()),
				zap.Duration("duration", report.Finished.Sub(report.Started)),
			)
			if len(failed) > 0 {
				log.Warn("collection cycle finished with failures")
			} else {
				log.Info("collection cycle finished")
			}
		}
	}
}
