package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/swoga/moto-exporter/config"
	"github.com/swoga/moto-exporter/sink"
	"go.uber.org/zap"
)

const metricsNamespace = "moto"

type sinkSet struct {
	sink.Multi
	closers []func()
}

func (s *sinkSet) Close() {
	for _, fn := range s.closers {
		fn()
	}
}

// openSinks builds the fan-out for every sink enabled in cfg. Gauges are only
// exposed when a registry is given.
func openSinks(ctx context.Context, log *zap.Logger, cfg *config.Config, registry prometheus.Registerer) (*sinkSet, error) {
	s := &sinkSet{}

	if cfg.Influx.Enabled() {
		influx := sink.NewInflux(cfg.Influx)
		s.Multi = append(s.Multi, influx)
		s.closers = append(s.closers, influx.Close)
		log.Info("writing to influxdb", zap.String("url", cfg.Influx.URL), zap.String("bucket", cfg.Influx.Bucket))
	}

	if cfg.Postgres.Enabled() {
		postgres, err := sink.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { postgres.Close() })
		if err := postgres.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Multi = append(s.Multi, postgres)
		log.Info("writing to postgres", zap.String("table", cfg.Postgres.Table))
	}

	if registry != nil {
		s.Multi = append(s.Multi, sink.NewPrometheus(metricsNamespace, registry))
	}
	return s, nil
}
