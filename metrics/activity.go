// Package metrics exports auth activity as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	auth "github.com/goliatone/go-catalog-auth"
)

// ActivitySink counts auth events by type and failure reason.
type ActivitySink struct {
	events *prometheus.CounterVec
}

var _ auth.ActivitySink = (*ActivitySink)(nil)

// NewActivitySink registers the activity counters with reg. A nil reg
// uses the default registerer.
func NewActivitySink(reg prometheus.Registerer) *ActivitySink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &ActivitySink{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_auth_events_total",
			Help: "Total number of auth events by type and failure reason",
		}, []string{"event", "reason"}),
	}
}

// Record implements auth.ActivitySink.
func (s *ActivitySink) Record(_ context.Context, event auth.ActivityEvent) error {
	reason := event.Reason
	if reason == "" {
		reason = "none"
	}
	s.events.WithLabelValues(string(event.EventType), reason).Inc()
	return nil
}

// Events returns the underlying counter
func (s *ActivitySink) Events() *prometheus.CounterVec {
	return s.events
}
