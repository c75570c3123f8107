package collector

import (
	"context"
	"time"

	"github.com/swoga/moto-exporter/model"
	"github.com/swoga/moto-exporter/sink"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// Ingester converts records to points stamped with the capture time and hands
// them to a sink. All points of one call share the same capture time.
type Ingester struct {
	sink  sink.PointSink
	clock Clock
}

func NewIngester(out sink.PointSink, clock Clock) *Ingester {
	if clock == nil {
		clock = RealClock{}
	}
	return &Ingester{sink: out, clock: clock}
}

func (i *Ingester) ConnectionInfo(ctx context.Context, info model.ConnectionInfo) error {
	return i.sink.Ingest(ctx, ConnectionInfoPoint(info, i.clock.Now()))
}

func (i *Ingester) ConnectionHome(ctx context.Context, home model.ConnectionHome) error {
	return i.sink.Ingest(ctx, ConnectionHomePoint(home, i.clock.Now()))
}

func (i *Ingester) ConnectionAddress(ctx context.Context, address model.ConnectionAddress) error {
	return i.sink.Ingest(ctx, ConnectionAddressPoint(address, i.clock.Now()))
}

func (i *Ingester) DownstreamChannels(ctx context.Context, channels []model.DownstreamChannel) error {
	now := i.clock.Now()
	for _, channel := range channels {
		if err := i.sink.Ingest(ctx, DownstreamChannelPoint(channel, now)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Ingester) UpstreamChannels(ctx context.Context, channels []model.UpstreamChannel) error {
	now := i.clock.Now()
	for _, channel := range channels {
		if err := i.sink.Ingest(ctx, UpstreamChannelPoint(channel, now)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Ingester) Logs(ctx context.Context, entries []model.LogEntry) error {
	now := i.clock.Now()
	for _, entry := range entries {
		if err := i.sink.Ingest(ctx, LogEntryPoint(entry, now)); err != nil {
			return err
		}
	}
	return nil
}
