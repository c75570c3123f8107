package sink

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/swoga/moto-exporter/config"
	"github.com/swoga/moto-exporter/model"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

func NewInflux(cfg config.Influx) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (s *Influx) Ingest(ctx context.Context, point model.Point) error {
	p := write.NewPoint(point.Measurement, point.Tags, point.Fields, point.Time)
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return &SinkError{Sink: "influx", Measurement: point.Measurement, Err: err}
	}
	return nil
}

func (s *Influx) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
