package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/swoga/moto-exporter/model"
)

// SinkError wraps a failure to persist a point.
type SinkError struct {
	Sink        string
	Measurement string
	Err         error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: ingest %s: %s", e.Sink, e.Measurement, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

type PointSink interface {
	Ingest(ctx context.Context, point model.Point) error
}

// Multi hands every point to all sinks, even when one of them fails.
type Multi []PointSink

func (m Multi) Ingest(ctx context.Context, point model.Point) error {
	var errs []error
	for _, s := range m {
		if err := s.Ingest(ctx, point); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
