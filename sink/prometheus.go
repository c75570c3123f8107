package sink

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/swoga/moto-exporter/model"
)

// Prometheus exposes the numeric fields of the latest points as gauges named
// <namespace>_<measurement>_<field>, labelled with the point's tags.
//
// Only the most recent capture of each measurement is exported. A point with a
// different capture time replaces every series of its measurement, so channels
// that vanish or change tags are dropped on the next cycle.
type Prometheus struct {
	namespace string
	mutex     sync.Mutex
	latest    map[string]*batch
}

type batch struct {
	time   time.Time
	points map[string]model.Point
}

func NewPrometheus(namespace string, registry prometheus.Registerer) *Prometheus {
	s := &Prometheus{
		namespace: namespace,
		latest:    map[string]*batch{},
	}
	registry.MustRegister(s)
	return s
}

func (s *Prometheus) Ingest(_ context.Context, point model.Point) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, ok := s.latest[point.Measurement]
	if !ok || !b.time.Equal(point.Time) {
		b = &batch{time: point.Time, points: map[string]model.Point{}}
		s.latest[point.Measurement] = b
	}
	b.points[seriesKey(point.Tags)] = point
	return nil
}

// Describe sends nothing; the series depend on what the modem reports.
func (s *Prometheus) Describe(chan<- *prometheus.Desc) {}

func (s *Prometheus) Collect(ch chan<- prometheus.Metric) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for measurement, b := range s.latest {
		for _, point := range b.points {
			labelNames, labelValues := sortedTags(point.Tags)
			for field, value := range point.Fields {
				v, ok := toFloat(value)
				if !ok {
					continue
				}
				desc := prometheus.NewDesc(
					prometheus.BuildFQName(s.namespace, measurement, field),
					fmt.Sprintf("Field %s of measurement %s.", field, measurement),
					labelNames, nil,
				)
				ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
			}
		}
	}
}

func sortedTags(tags map[string]string) ([]string, []string) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = tags[name]
	}
	return names, values
}

func seriesKey(tags map[string]string) string {
	names, values := sortedTags(tags)
	pairs := make([]string, len(names))
	for i := range names {
		pairs[i] = names[i] + "=" + values[i]
	}
	return strings.Join(pairs, ",")
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
