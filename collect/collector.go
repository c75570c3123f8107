package collect

import (
	"context"
	"time"

	"github.com/swoga/moto-exporter/model"
	"go.uber.org/zap"
)

type Options struct {
	// Info adds connection home, info and address to the cycle.
	Info bool
	// Logs adds the modem's event log to the cycle.
	Logs bool
}

type Collector struct {
	log      *zap.Logger
	device   Device
	emitter  Emitter
	observer Observer
	metrics  *Metrics
}

type Option func(*Collector)

func WithObserver(observer Observer) Option {
	return func(c *Collector) {
		if observer != nil {
			c.observer = observer
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Collector) {
		c.metrics = metrics
	}
}

func New(log *zap.Logger, device Device, emitter Emitter, opts ...Option) *Collector {
	c := &Collector{
		log:      log,
		device:   device,
		emitter:  emitter,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type stepFunc func(ctx context.Context) (records int, err error)

type plannedStep struct {
	step Step
	run  stepFunc
}

func (c *Collector) plan(options Options) []plannedStep {
	var steps []plannedStep
	if options.Info {
		steps = append(steps,
			plannedStep{StepConnectionHome, c.connectionHome},
			plannedStep{StepConnectionInfo, c.connectionInfo},
			plannedStep{StepConnectionAddress, c.connectionAddress},
		)
	}
	steps = append(steps,
		plannedStep{StepDownstreamChannels, c.downstreamChannels},
		plannedStep{StepUpstreamChannels, c.upstreamChannels},
	)
	if options.Logs {
		steps = append(steps, plannedStep{StepLogs, c.logs})
	}
	return steps
}

// CollectOnce runs a single cycle: login followed by the enabled steps.
// A failed login ends the cycle. Other failures end it only under Strict.
func (c *Collector) CollectOnce(ctx context.Context, options Options, policy Policy) Report {
	report := Report{Started: time.Now()}
	defer func() {
		c.metrics.observe(report)
	}()

	login := c.runStep(ctx, StepLogin, func(ctx context.Context) (int, error) {
		return 0, c.device.Login(ctx)
	})
	report.Steps = append(report.Steps, login)
	if !login.OK() {
		report.Finished = time.Now()
		return report
	}

	for _, planned := range c.plan(options) {
		result := c.runStep(ctx, planned.step, planned.run)
		report.Steps = append(report.Steps, result)
		if !result.OK() && policy == Strict {
			break
		}
	}

	report.Finished = time.Now()
	return report
}

func (c *Collector) runStep(ctx context.Context, step Step, run stepFunc) StepResult {
	log := c.log.With(zap.String("step", string(step)))
	log.Info(step.Action())
	c.observer.StepStarted(step)

	start := time.Now()
	records, err := run(ctx)
	result := StepResult{
		Step:     step,
		Records:  records,
		Err:      err,
		Duration: time.Since(start),
	}
	if err != nil {
		log.Error(step.Failure(), zap.Error(err))
	} else {
		log.Debug("step finished", zap.Int("records", records), zap.Duration("duration", result.Duration))
	}

	c.observer.StepFinished(result)
	return result
}

func (c *Collector) connectionHome(ctx context.Context) (int, error) {
	raw, err := c.device.GetConnectionHome(ctx)
	if err != nil {
		return 0, err
	}
	home, err := model.ParseConnectionHome(raw)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.ConnectionHome(ctx, home); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *Collector) connectionInfo(ctx context.Context) (int, error) {
	raw, err := c.device.GetConnectionInfo(ctx)
	if err != nil {
		return 0, err
	}
	info, err := model.ParseConnectionInfo(raw)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.ConnectionInfo(ctx, info); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *Collector) connectionAddress(ctx context.Context) (int, error) {
	raw, err := c.device.GetConnectionAddress(ctx)
	if err != nil {
		return 0, err
	}
	address, err := model.ParseConnectionAddress(raw)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.ConnectionAddress(ctx, address); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *Collector) downstreamChannels(ctx context.Context) (int, error) {
	raws, err := c.device.GetDownstreamChannels(ctx)
	if err != nil {
		return 0, err
	}
	channels, err := model.ParseDownstreamChannels(raws)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.DownstreamChannels(ctx, channels); err != nil {
		return 0, err
	}
	return len(channels), nil
}

func (c *Collector) upstreamChannels(ctx context.Context) (int, error) {
	raws, err := c.device.GetUpstreamChannels(ctx)
	if err != nil {
		return 0, err
	}
	channels, err := model.ParseUpstreamChannels(raws)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.UpstreamChannels(ctx, channels); err != nil {
		return 0, err
	}
	return len(channels), nil
}

func (c *Collector) logs(ctx context.Context) (int, error) {
	raws, err := c.device.GetLogs(ctx)
	if err != nil {
		return 0, err
	}
	entries, err := model.ParseLogEntries(raws)
	if err != nil {
		return 0, err
	}
	if err := c.emitter.Logs(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
